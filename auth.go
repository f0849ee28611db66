package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"edunexa/models"

	"golang.org/x/crypto/bcrypt"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) bool {
	return emailRE.MatchString(email)
}

// validatePassword enforces the account password policy: at least 8
// characters with one uppercase, one lowercase, one digit and one special
// character.
func validatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(`!@#$%^&*(),.?":{}|<>`, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// RegisterUser creates a user row with a bcrypt credential hash. Validation
// of role-specific fields happens in the handler; this only guards the
// invariants shared by every role.
func RegisterUser(user *models.User, password string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if !validateEmail(user.Email) {
		return fmt.Errorf("invalid email format")
	}
	if !validatePassword(password) {
		return fmt.Errorf("password must be at least 8 characters with uppercase, lowercase, digit, and special character")
	}
	if !models.ValidRole(user.Role) {
		return fmt.Errorf("invalid role")
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return fmt.Errorf("user with this email already exists")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = hashedPassword
	user.IsActive = true
	if err := db.Create(user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return fmt.Errorf("user with this email already exists")
		}
		return err
	}
	return nil
}

// Authenticate verifies credentials. Wrong password, unknown email and a
// deactivated account are reported identically.
func Authenticate(email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("invalid email or password")
	}
	if !user.IsActive {
		return models.User{}, fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid email or password")
	}
	return user, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "already exists")
}
