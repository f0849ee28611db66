package main

import (
	"net/http"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func listUsersHandler(c *gin.Context) {
	q := db.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("is_active = ?", active == "true")
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	var users []models.User
	if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func getUserHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func updateUserHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Phone       *string `json:"phone"`
		Department  *string `json:"department"`
		Year        *string `json:"year"`
		Semester    *string `json:"semester"`
		Designation *string `json:"designation"`
		Role        *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Semester != nil {
		updates["semester"] = *req.Semester
	}
	if req.Designation != nil {
		updates["designation"] = *req.Designation
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		updates["role"] = *req.Role
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid fields to update"})
		return
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
}

// deactivateUserHandler disables the account and moves its token watermark
// forward so every outstanding access token dies with it.
func deactivateUserHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if id == c.GetUint("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate your own account"})
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	now := time.Now().UTC().Truncate(time.Second)
	updates := map[string]interface{}{
		"is_active":          false,
		"tokens_valid_after": now,
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivation failed"})
		return
	}
	db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": now})
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}

func activateUserHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	res := db.Model(&models.User{}).Where("id = ?", id).Update("is_active", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "activation failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User activated successfully"})
}

func deleteUserHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if id == c.GetUint("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	db.Where("user_id = ?", id).Delete(&models.RefreshToken{})
	db.Where("user_id = ?", id).Delete(&models.PasswordResetToken{})
	db.Where("user_id = ?", id).Delete(&models.Notification{})
	if err := db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// adminResetPasswordHandler sets a new password directly, without the token
// flow, and revokes the user's refresh tokens.
func adminResetPasswordHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validatePassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new password must be at least 8 characters with uppercase, lowercase, digit, and special character"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	now := time.Now().UTC()
	if err := db.Model(&user).Update("hashed_password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": now})
	createNotification(id, "Password reset", "An administrator reset your password", "warning", "")
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func userStatisticsHandler(c *gin.Context) {
	var total, students, teachers, admins, active, recent int64
	db.Model(&models.User{}).Count(&total)
	db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&students)
	db.Model(&models.User{}).Where("role = ?", models.RoleTeacher).Count(&teachers)
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	db.Model(&models.User{}).Where("is_active = ?", true).Count(&active)
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	db.Model(&models.User{}).Where("created_at > ?", weekAgo).Count(&recent)

	c.JSON(http.StatusOK, gin.H{
		"total_users":          total,
		"students":             students,
		"teachers":             teachers,
		"admins":               admins,
		"active_users":         active,
		"inactive_users":       total - active,
		"registered_this_week": recent,
	})
}
