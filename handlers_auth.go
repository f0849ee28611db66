package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"edunexa/models"
	"edunexa/pkg/tokenauth"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const resetRequestedMessage = "If an account with that email exists, a password reset link has been sent"

func registerHandler(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		Role        string `json:"role" binding:"required"`
		Phone       string `json:"phone"`
		RollNumber  string `json:"roll_number"`
		Department  string `json:"department"`
		Year        string `json:"year"`
		Semester    string `json:"semester"`
		EmployeeID  string `json:"employee_id"`
		Designation string `json:"designation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Role:  req.Role,
		Phone: req.Phone,
	}
	switch req.Role {
	case models.RoleStudent:
		if req.RollNumber == "" || req.Department == "" || req.Year == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roll number, department and year are required for students"})
			return
		}
		var dup models.User
		if err := db.Where("roll_number = ? AND role = ?", req.RollNumber, models.RoleStudent).First(&dup).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "roll number already exists"})
			return
		}
		user.RollNumber = req.RollNumber
		user.Department = req.Department
		user.Year = req.Year
		user.Semester = req.Semester
	case models.RoleTeacher:
		if req.EmployeeID == "" || req.Department == "" || req.Designation == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "employee id, department and designation are required for teachers"})
			return
		}
		var dup models.User
		if err := db.Where("employee_id = ? AND role = ?", req.EmployeeID, models.RoleTeacher).First(&dup).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "employee id already exists"})
			return
		}
		user.EmployeeID = req.EmployeeID
		user.Department = req.Department
		user.Designation = req.Designation
	case models.RoleAdmin:
		user.EmployeeID = req.EmployeeID
		user.Department = req.Department
		if user.Department == "" {
			user.Department = "System Administration"
		}
		user.Designation = req.Designation
		if user.Designation == "" {
			user.Designation = "Super Administrator"
		}
	}

	if err := RegisterUser(&user, req.Password); err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "already exists") {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	pair, err := tokens.IssuePair(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate tokens"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":       "User registered successfully",
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	pair, err := tokens.IssuePair(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate tokens"})
		return
	}
	now := time.Now().UTC()
	db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now)
	user.LastLogin = &now

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// refreshHandler exchanges a refresh token for a new pair, rotating the old
// one. A refresh token is consumable exactly once.
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, _, err := tokens.Rotate(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func logoutHandler(c *gin.Context) {
	if err := tokens.Logout(c.GetUint("user_id"), c.GetString("jti")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func logoutAllHandler(c *gin.Context) {
	if err := tokens.LogoutAll(c.GetUint("user_id"), c.GetString("jti")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out from all devices"})
}

func validateTokenHandler(c *gin.Context) {
	var user models.User
	if err := db.Where("id = ? AND is_active = ?", c.GetUint("user_id"), true).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "user not found or inactive"})
		return
	}
	issuedAt, _ := c.Get("issued_at")
	expiresAt, _ := c.Get("expires_at")
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user_id":    user.ID,
		"issued_at":  issuedAt.(time.Time).Format(time.RFC3339),
		"expires_at": expiresAt.(time.Time).Format(time.RFC3339),
	})
}

func getProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func updateProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
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
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid fields to update"})
		return
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func changePasswordHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validatePassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new password must be at least 8 characters with uppercase, lowercase, digit, and special character"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	if err := db.Model(user).Update("hashed_password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// forgotPasswordHandler always answers with the same message so account
// existence cannot be probed.
func forgotPasswordHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email format"})
		return
	}
	var user models.User
	err := db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error
	if err != nil || !user.IsActive {
		c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
		return
	}
	raw, err := tokens.IssueReset(user.ID)
	if err != nil {
		log.Printf("failed to issue reset token for user %d: %v", user.ID, err)
		c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
		return
	}
	// Delivery would normally go out by email; the token is returned here the
	// way the development build does it.
	c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage, "reset_token": raw})
}

func resetPasswordHandler(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
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
	if err := tokens.ConsumeReset(req.Token, hashed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": tokenauth.ErrResetInvalid.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func verifyResetTokenHandler(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := tokens.VerifyReset(req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": tokenauth.ErrResetInvalid.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"expires_at": row.ExpiresAt.Format(time.RFC3339),
	})
}

func cleanupTokensHandler(c *gin.Context) {
	stats, err := tokens.Sweep(tokenauth.RetentionDays * 24 * time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Token cleanup completed",
		"removed": stats,
	})
}

func tokenStatsHandler(c *gin.Context) {
	stats, err := tokens.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"refresh_tokens": gin.H{
			"active":   stats.ActiveRefreshTokens,
			"expired":  stats.ExpiredRefreshTokens,
			"inactive": stats.InactiveRefreshTokens,
		},
		"password_reset_tokens": gin.H{
			"active":  stats.ActiveResetTokens,
			"expired": stats.ExpiredResetTokens,
		},
		"server_start_time": tokens.BootTime.Format(time.RFC3339),
	})
}
