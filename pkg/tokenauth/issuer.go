package tokenauth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"edunexa/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "typ" claim.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Claims are the fields of a parsed token this package cares about.
type Claims struct {
	UserID    uint
	Role      string
	JTI       string
	Type      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what login, registration and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// HashToken returns the hex SHA-256 digest stored in the ledgers. Raw token
// values never touch the database.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

func (s *Service) mint(userID uint, role, typ string, ttl time.Duration) (string, *Claims, error) {
	now := s.now().UTC()
	c := &Claims{
		UserID:    userID,
		Role:      role,
		JTI:       uuid.NewString(),
		Type:      typ,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"jti":  c.JTI,
		"typ":  typ,
		"iat":  c.IssuedAt.Unix(),
		"exp":  c.ExpiresAt.Unix(),
	})
	raw, err := token.SignedString(s.Secret)
	if err != nil {
		return "", nil, err
	}
	return raw, c, nil
}

// IssuePair mints a fresh access/refresh pair for a verified user and records
// the refresh token's hash in the ledger. Issuance is independent: it never
// revokes a previously issued pair.
func (s *Service) IssuePair(user *models.User) (TokenPair, error) {
	access, _, err := s.mint(user.ID, user.Role, typeAccess, s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rc, err := s.mint(user.ID, user.Role, typeRefresh, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	row := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken(refresh),
		ExpiresAt: rc.ExpiresAt,
		IsActive:  true,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse validates signature and expiry and returns the claims of a token of
// the wanted type. Expired tokens map to ErrTokenExpired, everything else
// that fails validation to ErrTokenInvalid.
func (s *Service) Parse(raw, wantType string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return s.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	c, err := claimsFromMap(mc)
	if err != nil {
		return nil, err
	}
	if c.Type != wantType {
		return nil, ErrTokenInvalid
	}
	return c, nil
}

func claimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	sub, _ := mc["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrTokenInvalid
	}
	jti, _ := mc["jti"].(string)
	if jti == "" {
		return nil, ErrTokenInvalid
	}
	iat, _ := mc["iat"].(float64)
	exp, _ := mc["exp"].(float64)
	role, _ := mc["role"].(string)
	typ, _ := mc["typ"].(string)
	return &Claims{
		UserID:    uint(id),
		Role:      role,
		JTI:       jti,
		Type:      typ,
		IssuedAt:  time.Unix(int64(iat), 0).UTC(),
		ExpiresAt: time.Unix(int64(exp), 0).UTC(),
	}, nil
}
