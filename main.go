package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"edunexa/pkg/gemini"
	"edunexa/pkg/tokenauth"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	jwtSecret []byte             // loaded from env JWT_SECRET (fallback to dev default)
	tokens    *tokenauth.Service // token lifecycle: issuing, revocation, ledgers
	ai        *gemini.Client     // tutor chat backend, canned fallback when unset
)

func main() {
	_ = godotenv.Load(".env")
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./edunexa migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	tokens = tokenauth.New(db, jwtSecret)
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		tokens.UseDenyStore(tokenauth.NewRedisDeny(addr))
		log.Printf("token denylist backed by redis at %s", addr)
	}
	ai = gemini.NewClient()

	// clean up expired ledger rows left over from previous runs
	if stats, err := tokens.Sweep(tokenauth.RetentionDays * 24 * time.Hour); err != nil {
		log.Printf("startup token sweep failed: %v", err)
	} else {
		log.Printf("startup token sweep: %d expired refresh, %d expired reset, %d stale refresh",
			stats.ExpiredRefreshTokens, stats.ExpiredResetTokens, stats.StaleRefreshTokens)
	}

	r := gin.Default()

	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}

// uploadBaseDir is where avatars, thumbnails and videos land on disk.
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
