package store

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/veritick/veritick/ports"
)

// DefaultTokenTTL bounds how long a minted token stays joinable to its
// creation time. Tokens are only compared within one generator session,
// so expiring them caps memory without affecting live statistics.
const DefaultTokenTTL = 2 * time.Hour

// TokenCache records minted tokens with TTL-based eviction.
type TokenCache struct {
	cache *ttlcache.Cache[string, int64]
}

// NewTokenCache creates a token recorder whose entries expire after ttl.
// A ttl of zero or less falls back to DefaultTokenTTL.
func NewTokenCache(ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	cache := ttlcache.New[string, int64](
		ttlcache.WithTTL[string, int64](ttl),
	)
	go cache.Start()
	return &TokenCache{cache: cache}
}

// Record stores the creation time for a token.
func (c *TokenCache) Record(token string, createdAtMs int64) {
	c.cache.Set(token, createdAtMs, ttlcache.DefaultTTL)
}

// CreatedAt looks up a token's creation time.
func (c *TokenCache) CreatedAt(token string) (int64, bool) {
	item := c.cache.Get(token)
	if item == nil {
		return 0, false
	}
	return item.Value(), true
}

// Stop halts the background expiration loop.
func (c *TokenCache) Stop() {
	c.cache.Stop()
}

var _ ports.TokenRecorder = (*TokenCache)(nil)
