package tokenauth

import (
	"log"
	"time"

	"edunexa/models"
)

// CheckRevoked gates every authenticated request. Ordering is cheapest-first:
// the boot watermark and denylist are in-memory; only the per-user watermark
// needs a database lookup. A failed user lookup fails OPEN: availability is
// preferred over strict revocation on a transient error.
func (s *Service) CheckRevoked(c *Claims) error {
	if c.IssuedAt.Before(s.BootTime) {
		return ErrTokenRevoked
	}
	if s.Denylisted(c.JTI) {
		return ErrTokenRevoked
	}
	var user models.User
	if err := s.DB.First(&user, c.UserID).Error; err != nil {
		log.Printf("tokenauth: watermark lookup for user %d failed, allowing token: %v", c.UserID, err)
		return nil
	}
	if user.TokensValidAfter != nil && c.IssuedAt.Before(*user.TokensValidAfter) {
		return ErrTokenRevoked
	}
	return nil
}

// Logout denylists the presented access token and deactivates every active
// refresh token the user holds. Access tokens on other devices stay valid.
func (s *Service) Logout(userID uint, jti string) error {
	s.Denylist(jti)
	return s.deactivateAll(userID)
}

// LogoutAll performs Logout and additionally stamps the user's
// tokens_valid_after watermark, killing access tokens this process never saw.
// The stamp is truncated to seconds so a token minted in the same instant
// right after the call stays valid.
func (s *Service) LogoutAll(userID uint, jti string) error {
	if err := s.Logout(userID, jti); err != nil {
		return err
	}
	mark := s.now().UTC().Truncate(time.Second)
	return s.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("tokens_valid_after", mark).Error
}

func (s *Service) deactivateAll(userID uint) error {
	now := s.now().UTC()
	return s.DB.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": now}).Error
}
