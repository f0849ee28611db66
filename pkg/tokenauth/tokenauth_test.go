package tokenauth

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"edunexa/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.PasswordResetToken{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func newTestService(t *testing.T) (*Service, *models.User) {
	t.Helper()
	db := setupTestDB(t)
	svc := New(db, []byte("test-secret"))
	user := &models.User{
		Name:           "Test Student",
		Email:          "student@example.com",
		HashedPassword: []byte("x"),
		Role:           models.RoleStudent,
		IsActive:       true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return svc, user
}

func TestIssuePairAndParse(t *testing.T) {
	svc, user := newTestService(t)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.Parse(pair.AccessToken, "access")
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.NotEmpty(t, claims.JTI)

	// access token is not accepted where a refresh token is wanted
	_, err = svc.Parse(pair.AccessToken, "refresh")
	require.ErrorIs(t, err, ErrTokenInvalid)

	// refresh row exists, hashed, active
	var row models.RefreshToken
	require.NoError(t, svc.DB.Where("user_id = ?", user.ID).First(&row).Error)
	require.Equal(t, HashToken(pair.RefreshToken), row.TokenHash)
	require.True(t, row.IsActive)
	require.NotContains(t, row.TokenHash, pair.RefreshToken)
}

func TestParseExpiredToken(t *testing.T) {
	svc, user := newTestService(t)
	svc.AccessTTL = -time.Minute

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	_, err = svc.Parse(pair.AccessToken, "access")
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseGarbage(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Parse("not.a.token", "access")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCheckRevokedBootWatermark(t *testing.T) {
	svc, user := newTestService(t)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	claims, err := svc.Parse(pair.AccessToken, "access")
	require.NoError(t, err)

	require.NoError(t, svc.CheckRevoked(claims))

	// simulate a restart after issuance: everything minted before boot dies
	svc.BootTime = claims.IssuedAt.Add(time.Second)
	require.ErrorIs(t, svc.CheckRevoked(claims), ErrTokenRevoked)
}

func TestCheckRevokedDenylist(t *testing.T) {
	svc, user := newTestService(t)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	claims, err := svc.Parse(pair.AccessToken, "access")
	require.NoError(t, err)

	require.NoError(t, svc.CheckRevoked(claims))
	svc.Denylist(claims.JTI)
	require.ErrorIs(t, svc.CheckRevoked(claims), ErrTokenRevoked)
}

func TestCheckRevokedUserWatermark(t *testing.T) {
	svc, user := newTestService(t)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	claims, err := svc.Parse(pair.AccessToken, "access")
	require.NoError(t, err)

	mark := claims.IssuedAt.Add(time.Second)
	require.NoError(t, svc.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("tokens_valid_after", mark).Error)
	require.ErrorIs(t, svc.CheckRevoked(claims), ErrTokenRevoked)

	// a token minted at or after the watermark stays valid
	svc.now = func() time.Time { return mark.Add(time.Second) }
	pair2, err := svc.IssuePair(user)
	require.NoError(t, err)
	claims2, err := svc.Parse(pair2.AccessToken, "access")
	require.NoError(t, err)
	require.NoError(t, svc.CheckRevoked(claims2))
}

func TestCheckRevokedFailsOpenOnLookupError(t *testing.T) {
	svc, user := newTestService(t)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	claims, err := svc.Parse(pair.AccessToken, "access")
	require.NoError(t, err)

	// break the user lookup: the checker must allow the token through
	require.NoError(t, svc.DB.Migrator().DropTable(&models.User{}))
	require.NoError(t, svc.CheckRevoked(claims))
}

func TestRotateConsumesOldToken(t *testing.T) {
	svc, user := newTestService(t)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	newPair, rotatedUser, err := svc.Rotate(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, rotatedUser.ID)
	require.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// a refresh token is consumable exactly once
	_, _, err = svc.Rotate(pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	// the replacement still works
	_, _, err = svc.Rotate(newPair.RefreshToken)
	require.NoError(t, err)
}

func TestRotateRejectsUnknownAndInactive(t *testing.T) {
	svc, user := newTestService(t)

	_, _, err := svc.Rotate("bogus")
	require.ErrorIs(t, err, ErrRefreshInvalid)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	require.NoError(t, svc.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_active", false).Error)
	_, _, err = svc.Rotate(pair.RefreshToken)
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestLogoutDeactivatesRefreshTokens(t *testing.T) {
	svc, user := newTestService(t)

	deviceA, err := svc.IssuePair(user)
	require.NoError(t, err)
	deviceB, err := svc.IssuePair(user)
	require.NoError(t, err)

	claimsA, err := svc.Parse(deviceA.AccessToken, "access")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(user.ID, claimsA.JTI))

	// device A's access token is denylisted, device B's stays valid
	require.ErrorIs(t, svc.CheckRevoked(claimsA), ErrTokenRevoked)
	claimsB, err := svc.Parse(deviceB.AccessToken, "access")
	require.NoError(t, err)
	require.NoError(t, svc.CheckRevoked(claimsB))

	// both refresh tokens are dead
	_, _, err = svc.Rotate(deviceA.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
	_, _, err = svc.Rotate(deviceB.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestLogoutAllInvalidatesEarlierTokensOnly(t *testing.T) {
	svc, user := newTestService(t)

	before, err := svc.IssuePair(user)
	require.NoError(t, err)
	claimsBefore, err := svc.Parse(before.AccessToken, "access")
	require.NoError(t, err)

	svc.now = func() time.Time { return claimsBefore.IssuedAt.Add(2 * time.Second) }
	require.NoError(t, svc.LogoutAll(user.ID, claimsBefore.JTI))

	require.ErrorIs(t, svc.CheckRevoked(claimsBefore), ErrTokenRevoked)

	// minted right after logout-all, on another device this process never saw
	svc.now = func() time.Time { return claimsBefore.IssuedAt.Add(3 * time.Second) }
	after, err := svc.IssuePair(user)
	require.NoError(t, err)
	claimsAfter, err := svc.Parse(after.AccessToken, "access")
	require.NoError(t, err)
	require.NoError(t, svc.CheckRevoked(claimsAfter))
}

func TestResetTokenSingleUse(t *testing.T) {
	svc, user := newTestService(t)

	raw, err := svc.IssueReset(user.ID)
	require.NoError(t, err)

	row, err := svc.VerifyReset(raw)
	require.NoError(t, err)
	require.Equal(t, user.ID, row.UserID)

	require.NoError(t, svc.ConsumeReset(raw, []byte("new-hash")))

	// used token is rejected identically to one that never existed
	_, errUsed := svc.VerifyReset(raw)
	_, errUnknown := svc.VerifyReset("never-issued")
	require.ErrorIs(t, errUsed, ErrResetInvalid)
	require.ErrorIs(t, errUnknown, ErrResetInvalid)
	require.Equal(t, errUsed, errUnknown)

	require.ErrorIs(t, svc.ConsumeReset(raw, []byte("other")), ErrResetInvalid)

	var u models.User
	require.NoError(t, svc.DB.First(&u, user.ID).Error)
	require.Equal(t, []byte("new-hash"), u.HashedPassword)
}

func TestResetTokenExpiry(t *testing.T) {
	svc, user := newTestService(t)

	raw, err := svc.IssueReset(user.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.VerifyReset(raw)
	require.ErrorIs(t, err, ErrResetInvalid)
}

func TestSweepIsIdempotent(t *testing.T) {
	svc, user := newTestService(t)

	// expired refresh row
	svc.RefreshTTL = -time.Hour
	_, err := svc.IssuePair(user)
	require.NoError(t, err)
	svc.RefreshTTL = RefreshTTL

	// live refresh row
	live, err := svc.IssuePair(user)
	require.NoError(t, err)

	// stale inactive row, revoked long ago
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	stale := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken("stale"),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		IsActive:  false,
		RevokedAt: &old,
	}
	require.NoError(t, svc.DB.Create(&stale).Error)

	// expired reset row
	expired := models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: HashToken("expired-reset"),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, svc.DB.Create(&expired).Error)

	stats, err := svc.Sweep(RetentionDays * 24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.ExpiredRefreshTokens)
	require.Equal(t, int64(1), stats.ExpiredResetTokens)
	require.Equal(t, int64(1), stats.StaleRefreshTokens)

	again, err := svc.Sweep(RetentionDays * 24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, SweepStats{}, again)

	// the live token survived both sweeps
	_, _, err = svc.Rotate(live.RefreshToken)
	require.NoError(t, err)
}

func TestStatsCountsByState(t *testing.T) {
	svc, user := newTestService(t)

	_, err := svc.IssuePair(user)
	require.NoError(t, err)
	_, err = svc.IssueReset(user.ID)
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.ActiveRefreshTokens)
	require.Equal(t, int64(1), stats.ActiveResetTokens)
	require.Zero(t, stats.InactiveRefreshTokens)
}
