package main

import (
	"log"
	"os"
	"strings"

	"edunexa/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		migrateModels(db)
	}
	seedDB()
}

// migrateModels migrates models individually so a failure on one doesn't block others.
func migrateModels(db *gorm.DB) {
	for _, m := range []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
		&models.Course{},
		&models.Material{},
		&models.Enrollment{},
		&models.MaterialCompletion{},
		&models.Assignment{},
		&models.Submission{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizAttempt{},
		&models.Notification{},
		&models.ChatMessage{},
		&models.Video{},
		&models.VideoProgress{},
	} {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("migration warning (%T): %v", m, err)
		}
	}
}

func seedDB() {
	// Check if an admin user exists
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@edunexa.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin@123"
	}
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	admin := models.User{
		Name:           "System Administrator",
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           models.RoleAdmin,
		Department:     "System Administration",
		Designation:    "Super Administrator",
		IsActive:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("failed to seed admin user: %v", err)
		return
	}
	log.Printf("Seeded admin user: email=%s", email)
}
