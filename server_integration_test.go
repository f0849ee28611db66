package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"edunexa/pkg/gemini"
	"edunexa/pkg/tokenauth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	var err error
	db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	migrateModels(db)

	jwtSecret = []byte("integration-test-secret")
	tokens = tokenauth.New(db, jwtSecret)
	t.Setenv("GEMINI_API_KEY", "")
	ai = gemini.NewClient() // unconfigured, chat falls back

	r := gin.New()
	setupRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func registerStudent(t *testing.T, r *gin.Engine, email string) (access, refresh string) {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":        "Test Student",
		"email":       email,
		"password":    "Passw0rd!",
		"role":        "student",
		"roll_number": "RN-" + email,
		"department":  "CS",
		"year":        "3",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["access_token"].(string), resp["refresh_token"].(string)
}

func registerTeacher(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":        "Test Teacher",
		"email":       email,
		"password":    "Passw0rd!",
		"role":        "teacher",
		"employee_id": "EMP-" + email,
		"department":  "CS",
		"designation": "Lecturer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["access_token"].(string)
}

func TestRegisterLoginProfileLogout(t *testing.T) {
	r := setupTestServer(t)

	access, refresh := registerStudent(t, r, "alice@example.com")

	w, resp := doJSON(t, r, http.MethodGet, "/api/auth/profile", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := resp["user"].(map[string]interface{})
	require.Equal(t, "alice@example.com", user["email"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// the denylisted access token is rejected with a revocation code
	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/profile", access, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "TOKEN_REVOKED", resp["code"])

	// logout also deactivated the refresh token
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndTokenMissing(t *testing.T) {
	r := setupTestServer(t)
	registerStudent(t, r, "bob@example.com")

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "bob@example.com", "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, resp["access_token"])

	// wrong password and unknown account read identically
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "bob@example.com", "password": "Wrong0ne!",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPwd := resp["error"]
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "nobody@example.com", "password": "Wrong0ne!",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, wrongPwd, resp["error"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "TOKEN_MISSING", resp["code"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/profile", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "TOKEN_INVALID", resp["code"])
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	r := setupTestServer(t)
	_, refresh := registerStudent(t, r, "carol@example.com")

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	newAccess := resp["access_token"].(string)
	require.NotEmpty(t, newAccess)
	require.NotEqual(t, refresh, resp["refresh_token"])

	// the consumed refresh token cannot be replayed
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// the access token from the rotation works
	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/profile", newAccess, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutKeepsOtherDeviceAccessTokens(t *testing.T) {
	r := setupTestServer(t)
	accessA, _ := registerStudent(t, r, "dave@example.com")

	// second device logs in
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "dave@example.com", "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code)
	accessB := resp["access_token"].(string)
	refreshB := resp["refresh_token"].(string)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/logout", accessA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// device A's access token is dead, device B's still works
	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/profile", accessA, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/profile", accessB, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// but every refresh token was deactivated
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refreshB})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	r := setupTestServer(t)
	registerStudent(t, r, "erin@example.com")

	// request for an unknown account reads the same as a real one
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	unknownMsg := resp["message"]
	require.Nil(t, resp["reset_token"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "erin@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, unknownMsg, resp["message"])
	resetToken := resp["reset_token"].(string)
	require.NotEmpty(t, resetToken)

	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/verify-reset-token", "", gin.H{"token": resetToken})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["valid"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": resetToken, "new_password": "N3wPassw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// token is single use
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": resetToken, "new_password": "An0therPwd!",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// old password fails, new one works
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "erin@example.com", "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "erin@example.com", "password": "N3wPassw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCourseEnrollSubmitGradeFlow(t *testing.T) {
	r := setupTestServer(t)
	teacher := registerTeacher(t, r, "prof@example.com")
	student, _ := registerStudent(t, r, "stud@example.com")

	w, resp := doJSON(t, r, http.MethodPost, "/api/courses", teacher, gin.H{
		"title": "Algorithms", "category": "CS",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	courseID := uint(resp["course"].(map[string]interface{})["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", courseID), student, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// double enrollment is rejected
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", courseID), student, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w, resp = doJSON(t, r, http.MethodPost, "/api/assignments", teacher, gin.H{
		"course_id":       courseID,
		"title":           "Homework 1",
		"due_date":        "2030-01-01T00:00:00Z",
		"max_points":      50,
		"submission_type": "text",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assignmentID := uint(resp["assignment"].(map[string]interface{})["id"].(float64))

	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", assignmentID), student, gin.H{
		"text_content": "my answer",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	submissionID := uint(resp["submission"].(map[string]interface{})["id"].(float64))

	// a second submission is rejected
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", assignmentID), student, gin.H{
		"text_content": "again",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// grade above max_points is rejected
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/assignments/submissions/%d/grade", submissionID), teacher, gin.H{
		"grade": 60,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/assignments/submissions/%d/grade", submissionID), teacher, gin.H{
		"grade": 45, "feedback": "good work",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// student received a graded notification
	w, resp = doJSON(t, r, http.MethodGet, "/api/notifications", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := resp["notifications"].([]interface{})
	found := false
	for _, n := range notes {
		if n.(map[string]interface{})["title"] == "Assignment graded" {
			found = true
			require.Equal(t, "success", n.(map[string]interface{})["type"])
		}
	}
	require.True(t, found)
}

func TestQuizAttemptScoring(t *testing.T) {
	r := setupTestServer(t)
	teacher := registerTeacher(t, r, "quizprof@example.com")
	student, _ := registerStudent(t, r, "quizstud@example.com")

	w, resp := doJSON(t, r, http.MethodPost, "/api/courses", teacher, gin.H{"title": "Databases"})
	require.Equal(t, http.StatusCreated, w.Code)
	courseID := uint(resp["course"].(map[string]interface{})["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", courseID), student, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp = doJSON(t, r, http.MethodPost, "/api/quizzes", teacher, gin.H{
		"course_id":    courseID,
		"title":        "SQL basics",
		"max_attempts": 1,
		"questions": []gin.H{
			{"type": "mcq", "question": "Pick B", "options": []string{"A", "B"}, "correct_answer": "B"},
			{"type": "short_answer", "question": "Say hi", "correct_answer": "Hello"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quiz := resp["quiz"].(map[string]interface{})
	quizID := uint(quiz["id"].(float64))
	questions := quiz["questions"].([]interface{})
	q1 := fmt.Sprintf("%.0f", questions[0].(map[string]interface{})["id"].(float64))
	q2 := fmt.Sprintf("%.0f", questions[1].(map[string]interface{})["id"].(float64))

	// answers are matched case-insensitively
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempt", quizID), student, gin.H{
		"answers": map[string]string{q1: "b", q2: "wrong"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.InDelta(t, 50.0, resp["score"].(float64), 0.01)
	require.EqualValues(t, 1, resp["correct_answers"])

	// max_attempts exhausted
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempt", quizID), student, gin.H{
		"answers": map[string]string{q1: "B", q2: "Hello"},
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProgressTracking(t *testing.T) {
	r := setupTestServer(t)
	teacher := registerTeacher(t, r, "progprof@example.com")
	student, _ := registerStudent(t, r, "progstud@example.com")

	w, resp := doJSON(t, r, http.MethodPost, "/api/courses", teacher, gin.H{"title": "Networks"})
	require.Equal(t, http.StatusCreated, w.Code)
	courseID := uint(resp["course"].(map[string]interface{})["id"].(float64))

	var materialIDs []uint
	for i := 1; i <= 2; i++ {
		w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/courses/%d/materials", courseID), teacher, gin.H{
			"title": fmt.Sprintf("Chapter %d", i), "type": "pdf", "content": "/files/ch.pdf", "position": i,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		materialIDs = append(materialIDs, uint(resp["material"].(map[string]interface{})["id"].(float64)))
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", courseID), student, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/progress/material/%d/complete", materialIDs[0]), student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.InDelta(t, 50.0, resp["progress"].(float64), 0.01)

	// completing the same material again does not change progress
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/progress/material/%d/complete", materialIDs[0]), student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["already_completed"])
	require.InDelta(t, 50.0, resp["progress"].(float64), 0.01)

	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/progress/material/%d/complete", materialIDs[1]), student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.InDelta(t, 100.0, resp["progress"].(float64), 0.01)

	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/progress/course/%d", courseID), student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.InDelta(t, 100.0, resp["progress"].(float64), 0.01)
	require.EqualValues(t, 2, resp["completed_count"])
}

func TestAdminEndpointsRequireRole(t *testing.T) {
	r := setupTestServer(t)
	student, _ := registerStudent(t, r, "plain@example.com")

	w, _ := doJSON(t, r, http.MethodGet, "/api/users", student, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/token-stats", student, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/cleanup-tokens", student, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestChatFallsBackWhenUnconfigured(t *testing.T) {
	r := setupTestServer(t)
	student, _ := registerStudent(t, r, "chat@example.com")

	w, resp := doJSON(t, r, http.MethodPost, "/api/ai/chat", student, gin.H{"message": "help me prepare for my quiz"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["fallback"])
	require.NotEmpty(t, resp["response"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/ai/chat-history", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["messages"].([]interface{}), 2)
}
