package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"edunexa/models"
	"edunexa/pkg/gemini"

	"github.com/gin-gonic/gin"
)

const aiRequestTimeout = 30 * time.Second

// studentContextFor summarizes the student's standing for the tutor prompt.
func studentContextFor(userID uint) string {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Student: %s (%s)", user.Name, user.Role)
	if user.Department != "" {
		fmt.Fprintf(&b, ", department %s", user.Department)
	}

	var enrollments []models.Enrollment
	db.Where("student_id = ? AND is_active = ?", userID, true).Find(&enrollments)
	if len(enrollments) > 0 {
		b.WriteString(". Enrolled courses:")
		for _, e := range enrollments {
			var course models.Course
			if err := db.First(&course, e.CourseID).Error; err != nil {
				continue
			}
			fmt.Fprintf(&b, " %s (%.0f%% complete),", course.Title, e.Progress)
		}
	}
	var avgScore float64
	db.Model(&models.QuizAttempt{}).
		Where("student_id = ?", userID).
		Select("COALESCE(AVG(score), 0)").Scan(&avgScore)
	if avgScore > 0 {
		fmt.Fprintf(&b, " Average quiz score: %.0f%%.", avgScore)
	}
	return b.String()
}

func chatWelcomeHandler(c *gin.Context) {
	userID := c.GetUint("user_id")
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var courseTitles []string
	var enrollments []models.Enrollment
	db.Where("student_id = ? AND is_active = ?", userID, true).Find(&enrollments)
	for _, e := range enrollments {
		var course models.Course
		if err := db.First(&course, e.CourseID).Error; err == nil {
			courseTitles = append(courseTitles, course.Title)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": gemini.WelcomeMessage(user.Name, courseTitles)})
}

// chatHandler answers a tutoring prompt. When the upstream model is not
// configured or fails, a canned response stands in so the chat never errors
// out on the student.
func chatHandler(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := c.GetUint("user_id")

	db.Create(&models.ChatMessage{UserID: userID, Sender: "user", Content: req.Message})

	ctx, cancel := context.WithTimeout(c.Request.Context(), aiRequestTimeout)
	defer cancel()

	reply, err := ai.Generate(ctx, req.Message, studentContextFor(userID))
	usedFallback := false
	if err != nil {
		reply = gemini.FallbackResponse(req.Message)
		usedFallback = true
	}

	db.Create(&models.ChatMessage{UserID: userID, Sender: "assistant", Content: reply})

	c.JSON(http.StatusOK, gin.H{"response": reply, "fallback": usedFallback})
}

func chatHistoryHandler(c *gin.Context) {
	var messages []models.ChatMessage
	if err := db.Where("user_id = ?", c.GetUint("user_id")).
		Order("created_at ASC").Limit(200).Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
