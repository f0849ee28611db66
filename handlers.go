package main

import (
	"net/http"
	"time"

	"edunexa/models"
	"edunexa/pkg/tokenauth"

	"github.com/gin-gonic/gin"
)

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", healthHandler)

	auth := api.Group("/auth")
	auth.POST("/register", registerHandler)
	auth.POST("/login", loginHandler)
	auth.POST("/refresh", refreshHandler)
	auth.POST("/forgot-password", forgotPasswordHandler)
	auth.POST("/reset-password", resetPasswordHandler)
	auth.POST("/verify-reset-token", verifyResetTokenHandler)

	authed := auth.Group("")
	authed.Use(jwtAuthMiddleware())
	authed.GET("/profile", getProfileHandler)
	authed.PUT("/profile", updateProfileHandler)
	authed.POST("/change-password", changePasswordHandler)
	authed.POST("/logout", logoutHandler)
	authed.POST("/logout-all", logoutAllHandler)
	authed.GET("/validate-token", validateTokenHandler)
	authed.POST("/cleanup-tokens", requireRole(models.RoleAdmin), cleanupTokensHandler)
	authed.GET("/token-stats", requireRole(models.RoleAdmin), tokenStatsHandler)

	courses := api.Group("/courses", jwtAuthMiddleware())
	courses.GET("", listCoursesHandler)
	courses.POST("", createCourseHandler)
	courses.GET("/:id", getCourseHandler)
	courses.PUT("/:id", updateCourseHandler)
	courses.POST("/:id/enroll", enrollCourseHandler)
	courses.POST("/:id/unenroll", unenrollCourseHandler)
	courses.POST("/:id/materials", addMaterialHandler)
	courses.GET("/:id/students", courseStudentsHandler)
	courses.POST("/:id/thumbnail", uploadCourseThumbnailHandler)

	assignments := api.Group("/assignments", jwtAuthMiddleware())
	assignments.GET("", listAssignmentsHandler)
	assignments.POST("", createAssignmentHandler)
	assignments.GET("/:id", getAssignmentHandler)
	assignments.PUT("/:id", updateAssignmentHandler)
	assignments.POST("/:id/submit", submitAssignmentHandler)
	assignments.POST("/submissions/:id/grade", gradeSubmissionHandler)

	quizzes := api.Group("/quizzes", jwtAuthMiddleware())
	quizzes.GET("", listQuizzesHandler)
	quizzes.POST("", createQuizHandler)
	quizzes.GET("/:id", getQuizHandler)
	quizzes.POST("/:id/attempt", attemptQuizHandler)
	quizzes.GET("/:id/attempts", listQuizAttemptsHandler)

	users := api.Group("/users", jwtAuthMiddleware())
	users.POST("/me/avatar", uploadAvatarHandler)
	users.GET("", requireRole(models.RoleAdmin), listUsersHandler)
	users.GET("/statistics", requireRole(models.RoleAdmin), userStatisticsHandler)
	users.GET("/:id", requireRole(models.RoleAdmin), getUserHandler)
	users.PUT("/:id", requireRole(models.RoleAdmin), updateUserHandler)
	users.DELETE("/:id", requireRole(models.RoleAdmin), deleteUserHandler)
	users.POST("/:id/deactivate", requireRole(models.RoleAdmin), deactivateUserHandler)
	users.POST("/:id/activate", requireRole(models.RoleAdmin), activateUserHandler)
	users.POST("/:id/reset-password", requireRole(models.RoleAdmin), adminResetPasswordHandler)

	notifications := api.Group("/notifications", jwtAuthMiddleware())
	notifications.GET("", listNotificationsHandler)
	notifications.GET("/unread-count", unreadCountHandler)
	notifications.POST("/read-all", markAllNotificationsReadHandler)
	notifications.POST("/:id/read", markNotificationReadHandler)
	notifications.DELETE("/:id", deleteNotificationHandler)

	progress := api.Group("/progress", jwtAuthMiddleware())
	progress.GET("/course/:id", courseProgressHandler)
	progress.POST("/material/:id/complete", completeMaterialHandler)
	progress.POST("/video/:id/watch-time", videoWatchTimeHandler)

	analytics := api.Group("/analytics", jwtAuthMiddleware())
	analytics.GET("/dashboard", dashboardHandler)
	analytics.GET("/performance-analysis", performanceAnalysisHandler)

	aiGroup := api.Group("/ai", jwtAuthMiddleware())
	aiGroup.GET("/chat/welcome", chatWelcomeHandler)
	aiGroup.POST("/chat", chatHandler)
	aiGroup.GET("/chat-history", chatHistoryHandler)

	videos := api.Group("/videos", jwtAuthMiddleware())
	videos.POST("/upload", uploadVideoHandler)
	videos.GET("/list", listVideosHandler)
	videos.GET("/:id", getVideoHandler)
	videos.DELETE("/:id", deleteVideoHandler)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"message":   "EduNexa LMS backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// jwtAuthMiddleware authenticates the bearer access token and runs the
// revocation checks before any protected handler body executes. Token
// failures carry machine-readable codes so the client knows whether a refresh
// is worth attempting.
func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token is required", "code": "TOKEN_MISSING"})
			c.Abort()
			return
		}
		claims, err := tokens.Parse(authHeader[7:], "access")
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": tokenauth.Code(err)})
			c.Abort()
			return
		}
		if err := tokens.CheckRevoked(claims); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": tokenauth.Code(err)})
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("jti", claims.JTI)
		c.Set("issued_at", claims.IssuedAt)
		c.Set("expires_at", claims.ExpiresAt)
		c.Next()
	}
}

// requireRole gates a route to the given roles. Must run after jwtAuthMiddleware.
func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		c.Abort()
	}
}

// getUserFromContext fetches the currently authenticated user using the
// user id set by jwtAuthMiddleware.
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	id := c.GetUint("user_id")
	if id == 0 {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, false
	}
	return &user, true
}
