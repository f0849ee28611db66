package main

import (
	"net/http"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
)

func courseProgressHandler(c *gin.Context) {
	courseID, ok := paramID(c)
	if !ok {
		return
	}
	studentID := c.GetUint("user_id")
	role := c.GetString("role")
	if role != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students have course progress"})
		return
	}
	var enrollment models.Enrollment
	if err := db.Where("course_id = ? AND student_id = ? AND is_active = ?", courseID, studentID, true).
		First(&enrollment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not enrolled in this course"})
		return
	}

	var materials []models.Material
	db.Where("course_id = ?", courseID).Order("position ASC, id ASC").Find(&materials)
	var completions []models.MaterialCompletion
	db.Where("enrollment_id = ?", enrollment.ID).Find(&completions)
	done := make(map[uint]time.Time, len(completions))
	for _, mc := range completions {
		done[mc.MaterialID] = mc.CompletedAt
	}

	items := make([]gin.H, 0, len(materials))
	for _, m := range materials {
		item := gin.H{"material": m, "completed": false}
		if at, ok := done[m.ID]; ok {
			item["completed"] = true
			item["completed_at"] = at.Format(timeLayout)
		}
		items = append(items, item)
	}

	var totalAssignments, submittedAssignments int64
	db.Model(&models.Assignment{}).
		Where("course_id = ? AND is_active = ?", courseID, true).Count(&totalAssignments)
	db.Model(&models.Submission{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).Count(&submittedAssignments)

	var totalQuizzes int64
	db.Model(&models.Quiz{}).
		Where("course_id = ? AND is_active = ?", courseID, true).Count(&totalQuizzes)
	var attemptedQuizzes int64
	db.Model(&models.QuizAttempt{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Distinct("quiz_id").Count(&attemptedQuizzes)

	// overall completion averages the components that exist for this course
	parts, sum := 0, 0.0
	if len(materials) > 0 {
		sum += enrollment.Progress
		parts++
	}
	if totalAssignments > 0 {
		sum += float64(submittedAssignments) / float64(totalAssignments) * 100
		parts++
	}
	if totalQuizzes > 0 {
		sum += float64(attemptedQuizzes) / float64(totalQuizzes) * 100
		parts++
	}
	overall := 0.0
	if parts > 0 {
		overall = sum / float64(parts)
	}

	c.JSON(http.StatusOK, gin.H{
		"progress":              enrollment.Progress,
		"overall_progress":      overall,
		"materials":             items,
		"completed_count":       len(completions),
		"total_count":           len(materials),
		"submitted_assignments": submittedAssignments,
		"total_assignments":     totalAssignments,
		"attempted_quizzes":     attemptedQuizzes,
		"total_quizzes":         totalQuizzes,
	})
}

// completeMaterialHandler marks a material done and recomputes the
// enrollment's progress percentage. Completing the same material twice is a
// no-op.
func completeMaterialHandler(c *gin.Context) {
	materialID, ok := paramID(c)
	if !ok {
		return
	}
	if c.GetString("role") != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students can complete materials"})
		return
	}
	var material models.Material
	if err := db.First(&material, materialID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "material not found"})
		return
	}
	studentID := c.GetUint("user_id")
	var enrollment models.Enrollment
	if err := db.Where("course_id = ? AND student_id = ? AND is_active = ?", material.CourseID, studentID, true).
		First(&enrollment).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
		return
	}

	now := time.Now().UTC()
	completion := models.MaterialCompletion{
		EnrollmentID: enrollment.ID,
		MaterialID:   materialID,
		CompletedAt:  now,
	}
	// Unique index makes a repeat completion fail; treat that as already done.
	alreadyDone := db.Create(&completion).Error != nil

	var total, completed int64
	db.Model(&models.Material{}).Where("course_id = ?", material.CourseID).Count(&total)
	db.Model(&models.MaterialCompletion{}).Where("enrollment_id = ?", enrollment.ID).Count(&completed)
	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}
	db.Model(&enrollment).Updates(map[string]interface{}{
		"progress":      progress,
		"last_accessed": now,
	})

	if progress >= 100 && !alreadyDone {
		var course models.Course
		db.First(&course, material.CourseID)
		createNotification(studentID, "Course completed",
			"Congratulations, you completed "+course.Title, "success", "")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Material marked as completed",
		"already_completed": alreadyDone,
		"progress":          progress,
	})
}

// videoWatchTimeHandler accumulates watch seconds for a student on a video.
func videoWatchTimeHandler(c *gin.Context) {
	videoID, ok := paramID(c)
	if !ok {
		return
	}
	if c.GetString("role") != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students track watch time"})
		return
	}
	var video models.Video
	if err := db.First(&video, videoID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	studentID := c.GetUint("user_id")
	if !isEnrolledIn(studentID, video.CourseID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
		return
	}
	var req struct {
		Seconds int `json:"seconds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Seconds <= 0 || req.Seconds > 24*3600 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seconds out of range"})
		return
	}

	var progress models.VideoProgress
	err := db.Where("video_id = ? AND student_id = ?", videoID, studentID).First(&progress).Error
	if err != nil {
		progress = models.VideoProgress{
			VideoID:        videoID,
			StudentID:      studentID,
			WatchedSeconds: req.Seconds,
		}
		if err := db.Create(&progress).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record watch time"})
			return
		}
	} else {
		progress.WatchedSeconds += req.Seconds
		if err := db.Model(&progress).Update("watched_seconds", progress.WatchedSeconds).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record watch time"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"watched_seconds": progress.WatchedSeconds})
}
