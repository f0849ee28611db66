package main

import (
	"net/http"
	"time"

	"edunexa/models"

	"github.com/gin-gonic/gin"
)

func dashboardHandler(c *gin.Context) {
	role := c.GetString("role")
	userID := c.GetUint("user_id")

	switch role {
	case models.RoleStudent:
		studentDashboard(c, userID)
	case models.RoleTeacher:
		teacherDashboard(c, userID)
	default:
		adminDashboard(c)
	}
}

func studentDashboard(c *gin.Context, studentID uint) {
	var enrollments []models.Enrollment
	db.Where("student_id = ? AND is_active = ?", studentID, true).Find(&enrollments)

	totalProgress := 0.0
	courses := make([]gin.H, 0, len(enrollments))
	for _, e := range enrollments {
		var course models.Course
		if err := db.First(&course, e.CourseID).Error; err != nil {
			continue
		}
		totalProgress += e.Progress
		courses = append(courses, gin.H{"course": course, "progress": e.Progress})
	}
	avgProgress := 0.0
	if len(enrollments) > 0 {
		avgProgress = totalProgress / float64(len(enrollments))
	}

	var pendingAssignments int64
	var courseIDs []uint
	db.Model(&models.Enrollment{}).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Pluck("course_id", &courseIDs)
	if len(courseIDs) > 0 {
		var submittedIDs []uint
		db.Model(&models.Submission{}).Where("student_id = ?", studentID).Pluck("assignment_id", &submittedIDs)
		q := db.Model(&models.Assignment{}).
			Where("course_id IN ? AND is_active = ? AND due_date > ?", courseIDs, true, time.Now().UTC())
		if len(submittedIDs) > 0 {
			q = q.Where("id NOT IN ?", submittedIDs)
		}
		q.Count(&pendingAssignments)
	}

	var avgQuizScore float64
	db.Model(&models.QuizAttempt{}).
		Where("student_id = ?", studentID).
		Select("COALESCE(AVG(score), 0)").Scan(&avgQuizScore)

	var recentAttempts []models.QuizAttempt
	db.Where("student_id = ?", studentID).Order("attempted_at DESC").Limit(5).Find(&recentAttempts)

	c.JSON(http.StatusOK, gin.H{
		"enrolled_courses":    len(enrollments),
		"average_progress":    avgProgress,
		"pending_assignments": pendingAssignments,
		"average_quiz_score":  avgQuizScore,
		"courses":             courses,
		"recent_quiz_scores":  recentAttempts,
	})
}

func teacherDashboard(c *gin.Context, teacherID uint) {
	var courses []models.Course
	db.Where("teacher_id = ?", teacherID).Find(&courses)

	totalStudents := int64(0)
	courseSummaries := make([]gin.H, 0, len(courses))
	for _, course := range courses {
		var enrolled int64
		db.Model(&models.Enrollment{}).
			Where("course_id = ? AND is_active = ?", course.ID, true).
			Count(&enrolled)
		totalStudents += enrolled
		var avgProgress float64
		db.Model(&models.Enrollment{}).
			Where("course_id = ? AND is_active = ?", course.ID, true).
			Select("COALESCE(AVG(progress), 0)").Scan(&avgProgress)
		courseSummaries = append(courseSummaries, gin.H{
			"course":           course,
			"enrolled_count":   enrolled,
			"average_progress": avgProgress,
		})
	}

	var courseIDs []uint
	db.Model(&models.Course{}).Where("teacher_id = ?", teacherID).Pluck("id", &courseIDs)
	var ungraded int64
	if len(courseIDs) > 0 {
		db.Model(&models.Submission{}).
			Where("course_id IN ? AND status = ?", courseIDs, "submitted").
			Count(&ungraded)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_courses":        len(courses),
		"total_students":       totalStudents,
		"ungraded_submissions": ungraded,
		"courses":              courseSummaries,
	})
}

func adminDashboard(c *gin.Context) {
	var users, students, teachers, courses, enrollments, submissions, attempts int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&students)
	db.Model(&models.User{}).Where("role = ?", models.RoleTeacher).Count(&teachers)
	db.Model(&models.Course{}).Where("is_active = ?", true).Count(&courses)
	db.Model(&models.Enrollment{}).Where("is_active = ?", true).Count(&enrollments)
	db.Model(&models.Submission{}).Count(&submissions)
	db.Model(&models.QuizAttempt{}).Count(&attempts)

	c.JSON(http.StatusOK, gin.H{
		"total_users":        users,
		"total_students":     students,
		"total_teachers":     teachers,
		"active_courses":     courses,
		"active_enrollments": enrollments,
		"total_submissions":  submissions,
		"total_quiz_attempts": attempts,
	})
}

// performanceAnalysisHandler scores a student across quizzes, assignments and
// course progress, estimates learning pace, and flags difficulties. Teachers
// and admins may pass ?student_id= to analyze someone else.
func performanceAnalysisHandler(c *gin.Context) {
	role := c.GetString("role")
	studentID := c.GetUint("user_id")
	if role != models.RoleStudent {
		var req struct {
			StudentID uint `form:"student_id" binding:"required"`
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
			return
		}
		studentID = req.StudentID
	}

	var student models.User
	if err := db.Where("id = ? AND role = ?", studentID, models.RoleStudent).First(&student).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	now := time.Now().UTC()

	// Quiz component
	var quizCount int64
	var avgQuizScore float64
	db.Model(&models.QuizAttempt{}).Where("student_id = ?", studentID).Count(&quizCount)
	if quizCount > 0 {
		db.Model(&models.QuizAttempt{}).
			Where("student_id = ?", studentID).
			Select("COALESCE(AVG(score), 0)").Scan(&avgQuizScore)
	}

	// Assignment component: graded submissions normalized to percent.
	var gradedSubs []models.Submission
	db.Where("student_id = ? AND status = ?", studentID, "graded").Find(&gradedSubs)
	avgAssignmentScore := 0.0
	if len(gradedSubs) > 0 {
		total := 0.0
		counted := 0
		for _, s := range gradedSubs {
			if s.Grade == nil {
				continue
			}
			var assignment models.Assignment
			if err := db.First(&assignment, s.AssignmentID).Error; err != nil || assignment.MaxPoints <= 0 {
				continue
			}
			total += *s.Grade / assignment.MaxPoints * 100
			counted++
		}
		if counted > 0 {
			avgAssignmentScore = total / float64(counted)
		} else {
			gradedSubs = nil
		}
	}

	// Progress component
	var enrollments []models.Enrollment
	db.Where("student_id = ? AND is_active = ?", studentID, true).Find(&enrollments)
	avgProgress := 0.0
	if len(enrollments) > 0 {
		total := 0.0
		for _, e := range enrollments {
			total += e.Progress
		}
		avgProgress = total / float64(len(enrollments))
	}

	// Overall score weights quizzes and assignments at 0.4 each and progress
	// at 0.2, renormalized over whichever components exist.
	weightSum, weighted := 0.0, 0.0
	if quizCount > 0 {
		weighted += avgQuizScore * 0.4
		weightSum += 0.4
	}
	if len(gradedSubs) > 0 {
		weighted += avgAssignmentScore * 0.4
		weightSum += 0.4
	}
	if len(enrollments) > 0 {
		weighted += avgProgress * 0.2
		weightSum += 0.2
	}
	overall := 0.0
	if weightSum > 0 {
		overall = weighted / weightSum
	}

	// Learning pace from progress-per-day and submission frequency since the
	// earliest enrollment.
	pace := "normal"
	daysActive := 0.0
	if len(enrollments) > 0 {
		earliest := enrollments[0].EnrolledAt
		for _, e := range enrollments[1:] {
			if e.EnrolledAt.Before(earliest) {
				earliest = e.EnrolledAt
			}
		}
		daysActive = now.Sub(earliest).Hours() / 24
		if daysActive >= 1 {
			// submission frequency over the last 30 days so old activity
			// doesn't mask a recent stall
			window := daysActive
			if window > 30 {
				window = 30
			}
			var submissionCount int64
			db.Model(&models.Submission{}).
				Where("student_id = ? AND submitted_at > ?", studentID, now.AddDate(0, 0, -30)).
				Count(&submissionCount)
			progressPerDay := avgProgress / daysActive
			submissionsPerDay := float64(submissionCount) / window
			switch {
			case progressPerDay > 2.0 && submissionsPerDay > 0.2:
				pace = "fast"
			case progressPerDay < 0.5 || submissionsPerDay < 0.1:
				pace = "slow"
			}
		}
	}

	// Difficulty signals
	difficulties := []string{}
	if quizCount > 0 && avgQuizScore < 60 {
		difficulties = append(difficulties, "low quiz scores")
	}
	var overdue int64
	var courseIDs []uint
	db.Model(&models.Enrollment{}).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Pluck("course_id", &courseIDs)
	if len(courseIDs) > 0 {
		var submittedIDs []uint
		db.Model(&models.Submission{}).Where("student_id = ?", studentID).Pluck("assignment_id", &submittedIDs)
		q := db.Model(&models.Assignment{}).
			Where("course_id IN ? AND is_active = ? AND due_date < ?", courseIDs, true, now)
		if len(submittedIDs) > 0 {
			q = q.Where("id NOT IN ?", submittedIDs)
		}
		q.Count(&overdue)
	}
	if overdue > 0 {
		difficulties = append(difficulties, "overdue assignments")
	}
	for _, e := range enrollments {
		if e.Progress < 30 && now.Sub(e.EnrolledAt).Hours() > 14*24 {
			difficulties = append(difficulties, "stalled course progress")
			break
		}
	}

	risk := "low"
	switch {
	case overall < 40:
		risk = "high"
	case overall < 60:
		risk = "medium"
	}

	c.JSON(http.StatusOK, gin.H{
		"student_id":           studentID,
		"student_name":         student.Name,
		"overall_score":        overall,
		"average_quiz_score":   avgQuizScore,
		"average_assignment":   avgAssignmentScore,
		"average_progress":     avgProgress,
		"learning_pace":        pace,
		"days_active":          daysActive,
		"difficulties":         difficulties,
		"overdue_assignments":  overdue,
		"risk_level":           risk,
		"enrolled_courses":     len(enrollments),
		"quiz_attempts":        quizCount,
		"graded_submissions":   len(gradedSubs),
	})
}
