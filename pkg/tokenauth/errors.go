package tokenauth

import "errors"

// Token errors are distinguished so a client knows whether to refresh
// (expired) or force a full re-login (invalid/revoked). Refresh and reset
// token failures are deliberately generic.
var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenMissing   = errors.New("authorization token is required")
	ErrTokenRevoked   = errors.New("token has been revoked")
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")
	ErrResetInvalid   = errors.New("invalid or expired reset token")
	ErrUserInactive   = errors.New("user not found or inactive")
)

// Code maps a token error to its machine-readable response code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrTokenMissing):
		return "TOKEN_MISSING"
	case errors.Is(err, ErrTokenRevoked):
		return "TOKEN_REVOKED"
	default:
		return "TOKEN_INVALID"
	}
}
