package tokenauth

import (
	"time"

	"edunexa/models"
)

// SweepStats reports how many ledger rows a sweep removed per category.
type SweepStats struct {
	ExpiredRefreshTokens int64 `json:"expired_refresh_tokens"`
	ExpiredResetTokens   int64 `json:"expired_reset_tokens"`
	StaleRefreshTokens   int64 `json:"stale_refresh_tokens"`
}

// Sweep purges expired refresh and reset token rows regardless of state, and
// separately removes inactive refresh rows revoked longer than retention ago.
// Running it twice back to back removes nothing the second time.
func (s *Service) Sweep(retention time.Duration) (SweepStats, error) {
	var stats SweepStats
	now := s.now().UTC()

	res := s.DB.Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return stats, res.Error
	}
	stats.ExpiredRefreshTokens = res.RowsAffected

	res = s.DB.Where("expires_at < ?", now).Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		return stats, res.Error
	}
	stats.ExpiredResetTokens = res.RowsAffected

	cutoff := now.Add(-retention)
	res = s.DB.Where("is_active = ? AND revoked_at < ?", false, cutoff).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return stats, res.Error
	}
	stats.StaleRefreshTokens = res.RowsAffected

	return stats, nil
}

// LedgerStats are the admin-facing token counts.
type LedgerStats struct {
	ActiveRefreshTokens   int64 `json:"active_refresh_tokens"`
	ExpiredRefreshTokens  int64 `json:"expired_refresh_tokens"`
	InactiveRefreshTokens int64 `json:"inactive_refresh_tokens"`
	ActiveResetTokens     int64 `json:"active_reset_tokens"`
	ExpiredResetTokens    int64 `json:"expired_reset_tokens"`
}

// Stats counts ledger rows by state for the admin token-stats endpoint.
func (s *Service) Stats() (LedgerStats, error) {
	var stats LedgerStats
	now := s.now().UTC()
	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.ActiveRefreshTokens, &models.RefreshToken{}, "is_active = ? AND expires_at > ?", []interface{}{true, now}},
		{&stats.ExpiredRefreshTokens, &models.RefreshToken{}, "expires_at < ?", []interface{}{now}},
		{&stats.InactiveRefreshTokens, &models.RefreshToken{}, "is_active = ?", []interface{}{false}},
		{&stats.ActiveResetTokens, &models.PasswordResetToken{}, "used = ? AND expires_at > ?", []interface{}{false, now}},
		{&stats.ExpiredResetTokens, &models.PasswordResetToken{}, "expires_at < ?", []interface{}{now}},
	}
	for _, c := range counts {
		if err := s.DB.Model(c.model).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return stats, err
		}
	}
	return stats, nil
}
