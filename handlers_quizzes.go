package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func listQuizzesHandler(c *gin.Context) {
	role := c.GetString("role")
	userID := c.GetUint("user_id")

	var courseIDs []uint
	switch role {
	case models.RoleTeacher:
		db.Model(&models.Course{}).Where("teacher_id = ?", userID).Pluck("id", &courseIDs)
	case models.RoleStudent:
		db.Model(&models.Enrollment{}).
			Where("student_id = ? AND is_active = ?", userID, true).
			Pluck("course_id", &courseIDs)
	}

	var quizzes []models.Quiz
	q := db.Where("is_active = ?", true)
	if role != models.RoleAdmin {
		if len(courseIDs) == 0 {
			c.JSON(http.StatusOK, gin.H{"quizzes": []gin.H{}})
			return
		}
		q = q.Where("course_id IN ?", courseIDs)
	}
	if err := q.Order("created_at DESC").Find(&quizzes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quizzes"})
		return
	}

	out := make([]gin.H, 0, len(quizzes))
	for _, quiz := range quizzes {
		var questionCount int64
		db.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount)
		entry := gin.H{"quiz": quiz, "question_count": questionCount}
		if role == models.RoleStudent {
			var attempts int64
			db.Model(&models.QuizAttempt{}).
				Where("quiz_id = ? AND student_id = ?", quiz.ID, userID).
				Count(&attempts)
			entry["attempts_used"] = attempts
			entry["attempts_left"] = quiz.MaxAttempts - int(attempts)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": out})
}

func createQuizHandler(c *gin.Context) {
	var req struct {
		CourseID    uint   `json:"course_id" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		MaxAttempts int    `json:"max_attempts"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		ShowResults *bool  `json:"show_results"`
		Questions   []struct {
			Type          string   `json:"type" binding:"required"`
			Question      string   `json:"question" binding:"required"`
			Options       []string `json:"options"`
			CorrectAnswer string   `json:"correct_answer" binding:"required"`
			Explanation   string   `json:"explanation"`
		} `json:"questions" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var course models.Course
	if err := db.First(&course, req.CourseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}

	quiz := models.Quiz{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		MaxAttempts: req.MaxAttempts,
		ShowResults: true,
		IsActive:    true,
	}
	if quiz.MaxAttempts <= 0 {
		quiz.MaxAttempts = 1
	}
	if req.ShowResults != nil {
		quiz.ShowResults = *req.ShowResults
	}
	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be RFC3339"})
			return
		}
		u := t.UTC()
		quiz.StartTime = &u
	}
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be RFC3339"})
			return
		}
		u := t.UTC()
		quiz.EndTime = &u
	}

	for i, q := range req.Questions {
		question := models.Question{
			Position:      i + 1,
			Type:          q.Type,
			Prompt:        q.Question,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		switch q.Type {
		case models.QuestionMCQ:
			if len(q.Options) < 2 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "mcq questions need at least two options"})
				return
			}
			opts, _ := json.Marshal(q.Options)
			question.Options = string(opts)
		case models.QuestionTrueFalse, models.QuestionShortAnswer:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "question type must be mcq, true_false or short_answer"})
			return
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := db.Create(&quiz).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quiz"})
		return
	}
	notifyEnrolledStudents(course.ID, "New quiz in "+course.Title, quiz.Title, "info")
	c.JSON(http.StatusCreated, gin.H{"message": "Quiz created successfully", "quiz": quiz})
}

// getQuizHandler returns the quiz with its questions. Correct answers and
// explanations are stripped for students.
func getQuizHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var quiz models.Quiz
	if err := db.Preload("Questions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).First(&quiz, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	role := c.GetString("role")
	userID := c.GetUint("user_id")

	if role == models.RoleStudent {
		if !isEnrolledIn(userID, quiz.CourseID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
			return
		}
		for i := range quiz.Questions {
			quiz.Questions[i].CorrectAnswer = ""
			quiz.Questions[i].Explanation = ""
		}
		var attempts int64
		db.Model(&models.QuizAttempt{}).
			Where("quiz_id = ? AND student_id = ?", id, userID).
			Count(&attempts)
		c.JSON(http.StatusOK, gin.H{
			"quiz":          quiz,
			"attempts_used": attempts,
			"attempts_left": quiz.MaxAttempts - int(attempts),
		})
		return
	}

	var course models.Course
	db.First(&course, quiz.CourseID)
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz})
}

// attemptQuizHandler grades an attempt. Matching is case-insensitive on
// trimmed answers; the score is percent correct over all questions.
func attemptQuizHandler(c *gin.Context) {
	if c.GetString("role") != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students can attempt quizzes"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var quiz models.Quiz
	if err := db.Preload("Questions").Where("id = ? AND is_active = ?", id, true).First(&quiz).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	studentID := c.GetUint("user_id")
	if !isEnrolledIn(studentID, quiz.CourseID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
		return
	}

	now := time.Now().UTC()
	if quiz.StartTime != nil && now.Before(*quiz.StartTime) {
		c.JSON(http.StatusForbidden, gin.H{"error": "quiz has not started yet"})
		return
	}
	if quiz.EndTime != nil && now.After(*quiz.EndTime) {
		c.JSON(http.StatusForbidden, gin.H{"error": "quiz has ended"})
		return
	}

	var attempts int64
	db.Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ?", id, studentID).
		Count(&attempts)
	if int(attempts) >= quiz.MaxAttempts {
		c.JSON(http.StatusForbidden, gin.H{"error": "no attempts remaining"})
		return
	}

	var req struct {
		Answers   map[string]string `json:"answers" binding:"required"`
		TimeTaken int               `json:"time_taken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	type questionResult struct {
		QuestionID    uint   `json:"question_id"`
		Correct       bool   `json:"correct"`
		YourAnswer    string `json:"your_answer"`
		CorrectAnswer string `json:"correct_answer,omitempty"`
		Explanation   string `json:"explanation,omitempty"`
	}
	correct := 0
	results := make([]questionResult, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		given := req.Answers[strconv.FormatUint(uint64(q.ID), 10)]
		isCorrect := strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.CorrectAnswer))
		if isCorrect {
			correct++
		}
		r := questionResult{QuestionID: q.ID, Correct: isCorrect, YourAnswer: given}
		if quiz.ShowResults {
			r.CorrectAnswer = q.CorrectAnswer
			r.Explanation = q.Explanation
		}
		results = append(results, r)
	}
	score := 0.0
	if len(quiz.Questions) > 0 {
		score = float64(correct) / float64(len(quiz.Questions)) * 100
	}

	answersJSON, _ := json.Marshal(req.Answers)
	resultsJSON, _ := json.Marshal(results)
	attempt := models.QuizAttempt{
		QuizID:         id,
		StudentID:      studentID,
		CourseID:       quiz.CourseID,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
		AttemptedAt:    now,
		TimeTaken:      req.TimeTaken,
		Answers:        string(answersJSON),
	}
	if quiz.ShowResults {
		attempt.Results = string(resultsJSON)
	}
	if err := db.Create(&attempt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record attempt"})
		return
	}

	// only the first attempt credits points and counts as completing the quiz
	if attempts == 0 {
		db.Model(&models.User{}).Where("id = ?", studentID).
			Update("total_points", gorm.Expr("total_points + ?", score))
		db.Model(&models.Enrollment{}).
			Where("course_id = ? AND student_id = ? AND is_active = ?", quiz.CourseID, studentID, true).
			Update("last_accessed", now)
	}

	resp := gin.H{
		"message":         "Quiz submitted successfully",
		"score":           score,
		"correct_answers": correct,
		"total_questions": len(quiz.Questions),
		"attempts_left":   quiz.MaxAttempts - int(attempts) - 1,
	}
	if quiz.ShowResults {
		resp["results"] = results
	}
	c.JSON(http.StatusOK, resp)
}

func listQuizAttemptsHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var quiz models.Quiz
	if err := db.First(&quiz, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	role := c.GetString("role")
	userID := c.GetUint("user_id")

	if role == models.RoleStudent {
		var attempts []models.QuizAttempt
		db.Where("quiz_id = ? AND student_id = ?", id, userID).
			Order("attempted_at DESC").Find(&attempts)
		c.JSON(http.StatusOK, gin.H{"attempts": attempts})
		return
	}

	var course models.Course
	db.First(&course, quiz.CourseID)
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	var attempts []models.QuizAttempt
	db.Where("quiz_id = ?", id).Order("attempted_at DESC").Find(&attempts)
	out := make([]gin.H, 0, len(attempts))
	for _, a := range attempts {
		var student models.User
		db.First(&student, a.StudentID)
		out = append(out, gin.H{"attempt": a, "student_name": student.Name})
	}
	c.JSON(http.StatusOK, gin.H{"attempts": out})
}
