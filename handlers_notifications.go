package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
)

const timeLayout = time.RFC3339

// createNotification writes an in-app notification. Failures are logged and
// swallowed so a broken notification never fails the operation it decorates.
func createNotification(userID uint, title, message, typ, link string) {
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
		Link:    link,
	}
	if err := db.Create(&n).Error; err != nil {
		log.Printf("failed to create notification for user %d: %v", userID, err)
	}
}

func notifyEnrolledStudents(courseID uint, title, message, typ string) {
	var studentIDs []uint
	db.Model(&models.Enrollment{}).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Pluck("student_id", &studentIDs)
	for _, id := range studentIDs {
		createNotification(id, title, message, typ, "")
	}
}

func listNotificationsHandler(c *gin.Context) {
	userID := c.GetUint("user_id")
	q := db.Where("user_id = ?", userID)
	if c.Query("unread_only") == "true" {
		q = q.Where("read = ?", false)
	}
	limit := 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	var notifications []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func unreadCountHandler(c *gin.Context) {
	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", c.GetUint("user_id"), false).
		Count(&count)
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func markNotificationReadHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	now := time.Now().UTC()
	res := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, c.GetUint("user_id")).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func markAllNotificationsReadHandler(c *gin.Context) {
	now := time.Now().UTC()
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", c.GetUint("user_id"), false).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": res.RowsAffected})
}

func deleteNotificationHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	res := db.Where("id = ? AND user_id = ?", id, c.GetUint("user_id")).
		Delete(&models.Notification{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
