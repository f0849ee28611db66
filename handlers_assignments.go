package main

import (
	"fmt"
	"net/http"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func isEnrolledIn(studentID, courseID uint) bool {
	var count int64
	db.Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ? AND is_active = ?", courseID, studentID, true).
		Count(&count)
	return count > 0
}

func ownsCourse(c *gin.Context, course *models.Course) bool {
	return c.GetString("role") == models.RoleAdmin || course.TeacherID == c.GetUint("user_id")
}

func listAssignmentsHandler(c *gin.Context) {
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

	var assignments []models.Assignment
	q := db.Where("is_active = ?", true)
	if role != models.RoleAdmin {
		if len(courseIDs) == 0 {
			c.JSON(http.StatusOK, gin.H{"assignments": []gin.H{}})
			return
		}
		q = q.Where("course_id IN ?", courseIDs)
	}
	if err := q.Order("due_date ASC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assignments"})
		return
	}

	out := make([]gin.H, 0, len(assignments))
	for _, a := range assignments {
		entry := gin.H{"assignment": a}
		if role == models.RoleStudent {
			var sub models.Submission
			err := db.Where("assignment_id = ? AND student_id = ?", a.ID, userID).First(&sub).Error
			entry["submitted"] = err == nil
			if err == nil {
				entry["submission"] = sub
			}
		} else {
			var count int64
			db.Model(&models.Submission{}).Where("assignment_id = ?", a.ID).Count(&count)
			entry["submission_count"] = count
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"assignments": out})
}

func createAssignmentHandler(c *gin.Context) {
	var req struct {
		CourseID       uint    `json:"course_id" binding:"required"`
		Title          string  `json:"title" binding:"required"`
		Description    string  `json:"description"`
		DueDate        string  `json:"due_date" binding:"required"`
		MaxPoints      float64 `json:"max_points"`
		SubmissionType string  `json:"submission_type"`
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
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be RFC3339"})
		return
	}
	assignment := models.Assignment{
		CourseID:       req.CourseID,
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        due.UTC(),
		MaxPoints:      req.MaxPoints,
		SubmissionType: req.SubmissionType,
		IsActive:       true,
	}
	if assignment.MaxPoints <= 0 {
		assignment.MaxPoints = 100
	}
	switch assignment.SubmissionType {
	case "":
		assignment.SubmissionType = "file"
	case "text", "file", "both":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "submission_type must be text, file or both"})
		return
	}
	if err := db.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create assignment"})
		return
	}
	notifyEnrolledStudents(course.ID, "New assignment in "+course.Title,
		assignment.Title+" is due "+assignment.DueDate.Format("Jan 2, 2006"), "info")
	c.JSON(http.StatusCreated, gin.H{"message": "Assignment created successfully", "assignment": assignment})
}

func getAssignmentHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var assignment models.Assignment
	if err := db.First(&assignment, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}
	role := c.GetString("role")
	userID := c.GetUint("user_id")

	resp := gin.H{"assignment": assignment}
	switch role {
	case models.RoleStudent:
		if !isEnrolledIn(userID, assignment.CourseID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
			return
		}
		var sub models.Submission
		if err := db.Where("assignment_id = ? AND student_id = ?", id, userID).First(&sub).Error; err == nil {
			resp["submission"] = sub
		}
	default:
		var course models.Course
		db.First(&course, assignment.CourseID)
		if !ownsCourse(c, &course) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
			return
		}
		var subs []models.Submission
		db.Where("assignment_id = ?", id).Order("submitted_at ASC").Find(&subs)
		withStudents := make([]gin.H, 0, len(subs))
		for _, s := range subs {
			var student models.User
			db.First(&student, s.StudentID)
			withStudents = append(withStudents, gin.H{"submission": s, "student_name": student.Name})
		}
		resp["submissions"] = withStudents
	}
	c.JSON(http.StatusOK, resp)
}

func updateAssignmentHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var assignment models.Assignment
	if err := db.First(&assignment, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}
	var course models.Course
	db.First(&course, assignment.CourseID)
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		DueDate     *string  `json:"due_date"`
		MaxPoints   *float64 `json:"max_points"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be RFC3339"})
			return
		}
		updates["due_date"] = due.UTC()
	}
	if req.MaxPoints != nil {
		if *req.MaxPoints <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_points must be positive"})
			return
		}
		updates["max_points"] = *req.MaxPoints
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid fields to update"})
		return
	}
	if err := db.Model(&assignment).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment updated successfully", "assignment": assignment})
}

func submitAssignmentHandler(c *gin.Context) {
	if c.GetString("role") != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students can submit"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var assignment models.Assignment
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&assignment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}
	studentID := c.GetUint("user_id")
	if !isEnrolledIn(studentID, assignment.CourseID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
		return
	}
	if time.Now().UTC().After(assignment.DueDate) {
		c.JSON(http.StatusForbidden, gin.H{"error": "assignment deadline has passed"})
		return
	}
	var existing models.Submission
	if err := db.Where("assignment_id = ? AND student_id = ?", id, studentID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "assignment already submitted"})
		return
	}

	var req struct {
		TextContent string `json:"text_content"`
		FilePath    string `json:"file_path"`
		FileName    string `json:"file_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch assignment.SubmissionType {
	case "text":
		if req.TextContent == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text content is required"})
			return
		}
	case "file":
		if req.FilePath == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
	default:
		if req.TextContent == "" && req.FilePath == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "submission content is required"})
			return
		}
	}

	submission := models.Submission{
		AssignmentID: id,
		StudentID:    studentID,
		CourseID:     assignment.CourseID,
		TextContent:  req.TextContent,
		FilePath:     req.FilePath,
		FileName:     req.FileName,
		SubmittedAt:  time.Now().UTC(),
		Status:       "submitted",
	}
	if err := db.Create(&submission).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "assignment already submitted"})
		return
	}

	var course models.Course
	db.First(&course, assignment.CourseID)
	var teacher models.User
	if db.First(&teacher, course.TeacherID).Error == nil {
		var student models.User
		db.First(&student, studentID)
		createNotification(teacher.ID, "New submission",
			student.Name+" submitted "+assignment.Title, "info", "")
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Assignment submitted successfully",
		"submission": submission,
	})
}

// gradeSubmissionHandler records a grade and tells the student. The
// notification severity tracks how well they did.
func gradeSubmissionHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var submission models.Submission
	if err := db.First(&submission, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	var assignment models.Assignment
	if err := db.First(&assignment, submission.AssignmentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}
	var course models.Course
	db.First(&course, assignment.CourseID)
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}

	var req struct {
		Grade    *float64 `json:"grade" binding:"required"`
		Feedback string   `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Grade < 0 || *req.Grade > assignment.MaxPoints {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("grade must be between 0 and %g", assignment.MaxPoints),
		})
		return
	}

	now := time.Now().UTC()
	graderID := c.GetUint("user_id")
	prevGrade := submission.Grade
	updates := map[string]interface{}{
		"grade":     *req.Grade,
		"feedback":  req.Feedback,
		"status":    "graded",
		"graded_at": now,
		"graded_by": graderID,
	}
	if err := db.Model(&submission).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grading failed"})
		return
	}

	// first grading credits the points; a re-grade adjusts by the difference
	delta := *req.Grade
	if prevGrade != nil {
		delta = *req.Grade - *prevGrade
	}
	if delta != 0 {
		db.Model(&models.User{}).Where("id = ?", submission.StudentID).
			Update("total_points", gorm.Expr("total_points + ?", delta))
	}

	pct := *req.Grade / assignment.MaxPoints * 100
	severity := "error"
	switch {
	case pct >= 70:
		severity = "success"
	case pct >= 50:
		severity = "warning"
	}
	createNotification(submission.StudentID, "Assignment graded",
		fmt.Sprintf("%s: %g/%g", assignment.Title, *req.Grade, assignment.MaxPoints), severity, "")

	c.JSON(http.StatusOK, gin.H{"message": "Submission graded successfully", "submission": submission})
}
