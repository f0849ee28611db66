package main

import (
	"net/http"
	"strconv"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
)

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// listCoursesHandler scopes the listing by role: teachers see their own
// courses, students see public courses plus their enrolled ones, admins see
// everything.
func listCoursesHandler(c *gin.Context) {
	role := c.GetString("role")
	userID := c.GetUint("user_id")

	var courses []models.Course
	q := db.Where("is_active = ?", true)
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	switch role {
	case models.RoleTeacher:
		q = q.Where("teacher_id = ?", userID)
	case models.RoleStudent:
		var enrolledIDs []uint
		db.Model(&models.Enrollment{}).
			Where("student_id = ? AND is_active = ?", userID, true).
			Pluck("course_id", &enrolledIDs)
		if len(enrolledIDs) > 0 {
			q = q.Where("is_public = ? OR id IN ?", true, enrolledIDs)
		} else {
			q = q.Where("is_public = ?", true)
		}
	}
	if err := q.Order("created_at DESC").Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list courses"})
		return
	}

	out := make([]gin.H, 0, len(courses))
	for _, course := range courses {
		var enrolled int64
		db.Model(&models.Enrollment{}).
			Where("course_id = ? AND is_active = ?", course.ID, true).
			Count(&enrolled)
		entry := gin.H{"course": course, "enrolled_count": enrolled}
		var teacher models.User
		if err := db.First(&teacher, course.TeacherID).Error; err == nil {
			entry["teacher_name"] = teacher.Name
			entry["teacher_email"] = teacher.Email
		}
		if role == models.RoleStudent {
			var enrollment models.Enrollment
			err := db.Where("course_id = ? AND student_id = ? AND is_active = ?",
				course.ID, userID, true).First(&enrollment).Error
			entry["is_enrolled"] = err == nil
			if err == nil {
				entry["progress"] = enrollment.Progress
			}
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"courses": out})
}

func createCourseHandler(c *gin.Context) {
	role := c.GetString("role")
	if role != models.RoleTeacher && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only teachers can create courses"})
		return
	}
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Difficulty  string `json:"difficulty"`
		Duration    string `json:"duration"`
		IsPublic    *bool  `json:"is_public"`
		MaxStudents int    `json:"max_students"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course := models.Course{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TeacherID:   c.GetUint("user_id"),
		Difficulty:  req.Difficulty,
		Duration:    req.Duration,
		IsActive:    true,
		IsPublic:    true,
		MaxStudents: req.MaxStudents,
	}
	if course.Difficulty == "" {
		course.Difficulty = "Beginner"
	}
	if req.IsPublic != nil {
		course.IsPublic = *req.IsPublic
	}
	if err := db.Create(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create course"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Course created successfully", "course": course})
}

func getCourseHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}

	userID := c.GetUint("user_id")
	role := c.GetString("role")
	isEnrolled := false
	if role == models.RoleStudent {
		var count int64
		db.Model(&models.Enrollment{}).
			Where("course_id = ? AND student_id = ? AND is_active = ?", id, userID, true).
			Count(&count)
		isEnrolled = count > 0
		if !course.IsPublic && !isEnrolled {
			c.JSON(http.StatusForbidden, gin.H{"error": "course is private"})
			return
		}
	}

	var materials []models.Material
	db.Where("course_id = ?", id).Order("position ASC, id ASC").Find(&materials)
	var teacher models.User
	db.First(&teacher, course.TeacherID)
	var enrolled int64
	db.Model(&models.Enrollment{}).Where("course_id = ? AND is_active = ?", id, true).Count(&enrolled)

	c.JSON(http.StatusOK, gin.H{
		"course":         course,
		"materials":      materials,
		"teacher_name":   teacher.Name,
		"enrolled_count": enrolled,
		"is_enrolled":    isEnrolled,
	})
}

func updateCourseHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	role := c.GetString("role")
	if role != models.RoleAdmin && course.TeacherID != c.GetUint("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		Difficulty  *string `json:"difficulty"`
		Duration    *string `json:"duration"`
		IsPublic    *bool   `json:"is_public"`
		IsActive    *bool   `json:"is_active"`
		MaxStudents *int    `json:"max_students"`
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
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Difficulty != nil {
		updates["difficulty"] = *req.Difficulty
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.MaxStudents != nil {
		updates["max_students"] = *req.MaxStudents
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid fields to update"})
		return
	}
	if err := db.Model(&course).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course updated successfully", "course": course})
}

func enrollCourseHandler(c *gin.Context) {
	if c.GetString("role") != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students can enroll"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var course models.Course
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&course).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	studentID := c.GetUint("user_id")

	var existing models.Enrollment
	if err := db.Where("course_id = ? AND student_id = ?", id, studentID).First(&existing).Error; err == nil {
		if existing.IsActive {
			c.JSON(http.StatusConflict, gin.H{"error": "already enrolled in this course"})
			return
		}
		// Re-enrollment after a previous unenroll keeps the old progress.
		db.Model(&existing).Updates(map[string]interface{}{"is_active": true, "enrolled_at": time.Now().UTC()})
		c.JSON(http.StatusOK, gin.H{"message": "Enrolled successfully", "enrollment": existing})
		return
	}

	if course.MaxStudents > 0 {
		var enrolled int64
		db.Model(&models.Enrollment{}).Where("course_id = ? AND is_active = ?", id, true).Count(&enrolled)
		if enrolled >= int64(course.MaxStudents) {
			c.JSON(http.StatusConflict, gin.H{"error": "course is full"})
			return
		}
	}

	enrollment := models.Enrollment{
		CourseID:   id,
		StudentID:  studentID,
		EnrolledAt: time.Now().UTC(),
		IsActive:   true,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already enrolled in this course"})
		return
	}
	createNotification(studentID, "Enrolled in course", "You are now enrolled in "+course.Title, "success", "")
	c.JSON(http.StatusCreated, gin.H{"message": "Enrolled successfully", "enrollment": enrollment})
}

func unenrollCourseHandler(c *gin.Context) {
	if c.GetString("role") != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students can unenroll"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	res := db.Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ? AND is_active = ?", id, c.GetUint("user_id"), true).
		Update("is_active", false)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unenroll failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not enrolled in this course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled successfully"})
}

func addMaterialHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	role := c.GetString("role")
	if role != models.RoleAdmin && course.TeacherID != c.GetUint("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Type        string `json:"type" binding:"required"`
		Content     string `json:"content" binding:"required"`
		Position    int    `json:"position"`
		IsRequired  bool   `json:"is_required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Type {
	case "pdf", "video", "document", "link":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "material type must be pdf, video, document or link"})
		return
	}
	material := models.Material{
		CourseID:    id,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Content:     req.Content,
		Position:    req.Position,
		IsRequired:  req.IsRequired,
		UploadedBy:  c.GetUint("user_id"),
	}
	if err := db.Create(&material).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add material"})
		return
	}
	notifyEnrolledStudents(id, "New material in "+course.Title, material.Title+" was added", "info")
	c.JSON(http.StatusCreated, gin.H{"message": "Material added successfully", "material": material})
}

func courseStudentsHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	role := c.GetString("role")
	if role != models.RoleAdmin && course.TeacherID != c.GetUint("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	var enrollments []models.Enrollment
	db.Where("course_id = ? AND is_active = ?", id, true).Find(&enrollments)

	out := make([]gin.H, 0, len(enrollments))
	for _, e := range enrollments {
		var student models.User
		if err := db.First(&student, e.StudentID).Error; err != nil {
			continue
		}
		out = append(out, gin.H{
			"student":     student,
			"progress":    e.Progress,
			"enrolled_at": e.EnrolledAt.Format(timeLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{"students": out, "count": len(out)})
}
