package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"edunexa/models"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxImageUploadBytes = 5 << 20
	maxVideoUploadBytes = 500 << 20
	avatarMaxDim        = 512
	thumbnailMaxDim     = 640
)

func allowedImageExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

// saveResizedImage decodes the upload, shrinks it to fit within maxDim while
// keeping aspect ratio, and writes it under dir with a random name. Images
// already smaller than maxDim pass through at original size.
func saveResizedImage(c *gin.Context, field, dir string, maxDim int) (string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if header.Size > maxImageUploadBytes {
		return "", errImageTooLarge
	}
	if !allowedImageExt(header.Filename) {
		return "", errBadImageType
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	if img.Bounds().Dx() > maxDim || img.Bounds().Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ".jpg"
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path, imaging.JPEGQuality(85)); err != nil {
		return "", err
	}
	return path, nil
}

var (
	errImageTooLarge = errors.New("image exceeds the 5MB limit")
	errBadImageType  = errors.New("image must be jpg, png or gif")
)

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, errImageTooLarge), errors.Is(err, errBadImageType):
		return err.Error()
	default:
		return "invalid image upload"
	}
}

func formUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(v), nil
}

func uploadAvatarHandler(c *gin.Context) {
	userID := c.GetUint("user_id")
	dir := filepath.Join(uploadBaseDir(), "avatars")
	path, err := saveResizedImage(c, "avatar", dir, avatarMaxDim)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": uploadErrorMessage(err)})
		return
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.ProfilePic != "" {
		os.Remove(user.ProfilePic)
	}
	if err := db.Model(&user).Update("profile_pic", path).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avatar uploaded successfully", "profile_pic": path})
}

func uploadCourseThumbnailHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	dir := filepath.Join(uploadBaseDir(), "thumbnails")
	path, err := saveResizedImage(c, "thumbnail", dir, thumbnailMaxDim)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": uploadErrorMessage(err)})
		return
	}
	if course.Thumbnail != "" {
		os.Remove(course.Thumbnail)
	}
	if err := db.Model(&course).Update("thumbnail", path).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thumbnail uploaded successfully", "thumbnail": path})
}

func uploadVideoHandler(c *gin.Context) {
	role := c.GetString("role")
	if role != models.RoleTeacher && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only teachers can upload videos"})
		return
	}
	courseID, err := formUint(c.PostForm("course_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id is required"})
		return
	}
	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
		return
	}
	defer file.Close()
	if header.Size > maxVideoUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video exceeds the 500MB limit"})
		return
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".mp4", ".webm", ".mov", ".mkv":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported video format"})
		return
	}

	dir := filepath.Join(uploadBaseDir(), "videos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	path := filepath.Join(dir, uuid.NewString()+filepath.Ext(header.Filename))
	if err := c.SaveUploadedFile(header, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store video"})
		return
	}

	video := models.Video{
		CourseID:    course.ID,
		Title:       title,
		Description: c.PostForm("description"),
		FilePath:    path,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UploadedBy:  c.GetUint("user_id"),
	}
	if err := db.Create(&video).Error; err != nil {
		os.Remove(path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save video"})
		return
	}
	notifyEnrolledStudents(course.ID, "New video in "+course.Title, video.Title, "info")
	c.JSON(http.StatusCreated, gin.H{"message": "Video uploaded successfully", "video": video})
}

func listVideosHandler(c *gin.Context) {
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

	var videos []models.Video
	q := db.Order("created_at DESC")
	if role != models.RoleAdmin {
		if len(courseIDs) == 0 {
			c.JSON(http.StatusOK, gin.H{"videos": []models.Video{}})
			return
		}
		q = q.Where("course_id IN ?", courseIDs)
	}
	if courseID := c.Query("course_id"); courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	if err := q.Find(&videos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list videos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

func getVideoHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var video models.Video
	if err := db.First(&video, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	role := c.GetString("role")
	if role == models.RoleStudent && !isEnrolledIn(c.GetUint("user_id"), video.CourseID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled in this course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": video})
}

func deleteVideoHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var video models.Video
	if err := db.First(&video, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	var course models.Course
	db.First(&course, video.CourseID)
	if !ownsCourse(c, &course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return
	}
	db.Where("video_id = ?", id).Delete(&models.VideoProgress{})
	if err := db.Delete(&video).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	os.Remove(video.FilePath)
	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}
