package tokenauth

import (
	"crypto/rand"
	"encoding/hex"

	"edunexa/models"
)

// IssueReset creates a single-use password reset token for a user and stores
// only its hash. The raw value is returned once for delivery to the user.
func (s *Service) IssueReset(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(b)
	row := models.PasswordResetToken{
		UserID:    userID,
		TokenHash: HashToken(raw),
		ExpiresAt: s.now().UTC().Add(ResetTTL),
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return "", err
	}
	return raw, nil
}

// VerifyReset is the read-only probe: it accepts only an unused, unexpired
// token. Used, expired and unknown tokens are indistinguishable to the
// caller.
func (s *Service) VerifyReset(raw string) (*models.PasswordResetToken, error) {
	var row models.PasswordResetToken
	err := s.DB.Where("token_hash = ? AND used = ? AND expires_at > ?",
		HashToken(raw), false, s.now().UTC()).First(&row).Error
	if err != nil {
		return nil, ErrResetInvalid
	}
	return &row, nil
}

// ConsumeReset validates under the same condition as VerifyReset, marks the
// token used and swaps the user's credential hash. The used flag flips via a
// conditional update so the token authorizes exactly one password change.
func (s *Service) ConsumeReset(raw string, newHash []byte) error {
	row, err := s.VerifyReset(raw)
	if err != nil {
		return err
	}
	var user models.User
	if err := s.DB.First(&user, row.UserID).Error; err != nil || !user.IsActive {
		return ErrResetInvalid
	}
	now := s.now().UTC()
	res := s.DB.Model(&models.PasswordResetToken{}).
		Where("id = ? AND used = ?", row.ID, false).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrResetInvalid
	}
	return s.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("hashed_password", newHash).Error
}
