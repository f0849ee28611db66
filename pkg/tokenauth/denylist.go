package tokenauth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DenyStore holds the jtis of revoked access tokens until their natural
// expiry. The default store is process-local; a Redis-backed store makes a
// revocation visible to every process immediately instead of relying on the
// per-user watermark.
type DenyStore interface {
	Deny(jti string, ttl time.Duration) error
	Denied(jti string) (bool, error)
}

// memoryDeny is the process-local store. Entries are never pruned; the boot
// watermark makes that harmless because a restart invalidates every token
// the set could have referred to.
type memoryDeny struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func newMemoryDeny() *memoryDeny {
	return &memoryDeny{set: make(map[string]struct{})}
}

func (m *memoryDeny) Deny(jti string, _ time.Duration) error {
	m.mu.Lock()
	m.set[jti] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *memoryDeny) Denied(jti string) (bool, error) {
	m.mu.Lock()
	_, ok := m.set[jti]
	m.mu.Unlock()
	return ok, nil
}

// RedisDeny keeps denied jtis as keys with a TTL bounded by the token
// lifetime, so entries clean themselves up when the token would have expired
// anyway.
type RedisDeny struct {
	client *redis.Client
}

func NewRedisDeny(addr string) *RedisDeny {
	return &RedisDeny{client: redis.NewClient(&redis.Options{Addr: addr})}
}

const denyKeyPrefix = "tokendeny:"

func (r *RedisDeny) Deny(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(context.Background(), denyKeyPrefix+jti, "1", ttl).Err()
}

func (r *RedisDeny) Denied(jti string) (bool, error) {
	n, err := r.client.Exists(context.Background(), denyKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
