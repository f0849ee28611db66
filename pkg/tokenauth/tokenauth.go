package tokenauth

import (
	"log"
	"time"

	"gorm.io/gorm"
)

// Default token lifetimes.
const (
	AccessTTL  = 2 * time.Hour
	RefreshTTL = 7 * 24 * time.Hour
	ResetTTL   = time.Hour
)

// RetentionDays is how long inactive refresh token rows are kept after
// revocation before the sweeper removes them.
const RetentionDays = 30

// Service owns the token lifecycle: issuing access/refresh pairs, the
// revocation checks run on every authenticated request, refresh rotation,
// password reset tokens and ledger cleanup.
//
// The default denylist is process-local; a restart loses it, which is
// compensated by BootTime rejecting every token minted by a previous process.
// In a multi-process deployment, swap in the Redis-backed store with
// UseDenyStore so a revocation is visible everywhere at once; otherwise the
// per-user watermark is the only cross-process revocation signal.
type Service struct {
	DB         *gorm.DB
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BootTime   time.Time

	deny DenyStore

	now func() time.Time
}

// New builds a Service with default lifetimes and the boot watermark set to
// the current instant. Timestamps are compared at second granularity (the
// resolution of JWT iat), so the boot instant is truncated.
func New(db *gorm.DB, secret []byte) *Service {
	s := &Service{
		DB:         db,
		Secret:     secret,
		AccessTTL:  AccessTTL,
		RefreshTTL: RefreshTTL,
		deny:       newMemoryDeny(),
		now:        time.Now,
	}
	s.BootTime = s.now().UTC().Truncate(time.Second)
	return s
}

// UseDenyStore replaces the denylist backend. Call before serving traffic.
func (s *Service) UseDenyStore(store DenyStore) {
	s.deny = store
}

// Denylist marks a jti as revoked. The entry needs to live no longer than the
// access token lifetime, after which expiry rejects the token anyway.
func (s *Service) Denylist(jti string) {
	if err := s.deny.Deny(jti, s.AccessTTL); err != nil {
		log.Printf("tokenauth: denylist write for jti %s failed: %v", jti, err)
	}
}

// Denylisted reports whether a jti has been revoked. A store error fails
// open, same as the watermark lookup.
func (s *Service) Denylisted(jti string) bool {
	ok, err := s.deny.Denied(jti)
	if err != nil {
		log.Printf("tokenauth: denylist read for jti %s failed, allowing token: %v", jti, err)
		return false
	}
	return ok
}
