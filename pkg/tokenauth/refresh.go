package tokenauth

import (
	"edunexa/models"
)

// Rotate exchanges a refresh token for a new access/refresh pair. The old
// row is deactivated with a conditional update so that two concurrent calls
// presenting the same token cannot both succeed: zero rows affected means the
// token was already consumed and the call is rejected.
func (s *Service) Rotate(rawRefresh string) (TokenPair, *models.User, error) {
	claims, err := s.Parse(rawRefresh, typeRefresh)
	if err != nil {
		return TokenPair{}, nil, ErrRefreshInvalid
	}

	var row models.RefreshToken
	err = s.DB.Where("token_hash = ? AND user_id = ? AND is_active = ? AND expires_at > ?",
		HashToken(rawRefresh), claims.UserID, true, s.now().UTC()).First(&row).Error
	if err != nil {
		return TokenPair{}, nil, ErrRefreshInvalid
	}

	var user models.User
	if err := s.DB.First(&user, row.UserID).Error; err != nil || !user.IsActive {
		return TokenPair{}, nil, ErrUserInactive
	}

	now := s.now().UTC()
	res := s.DB.Model(&models.RefreshToken{}).
		Where("id = ? AND is_active = ?", row.ID, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": now})
	if res.Error != nil {
		return TokenPair{}, nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race against a concurrent rotation
		return TokenPair{}, nil, ErrRefreshInvalid
	}

	pair, err := s.IssuePair(&user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, &user, nil
}
