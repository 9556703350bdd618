package auth

import (
	"context"
	"time"

	"github.com/sahilchouksey/learnhub/utils/cache"
)

const revokedKeyPrefix = "jwt:revoked:"

// BlacklistService handles JWT token revocation. Entries live in Redis until the token would have expired anyway.
type BlacklistService struct {
	cache *cache.RedisCache
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(c *cache.RedisCache) *BlacklistService {
	return &BlacklistService{cache: c}
}

// RevokeToken adds a token's JTI to the blacklist
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedKeyPrefix+jti, "revoked", ttl)
}

// IsTokenRevoked checks if a token is in the blacklist
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.cache.Exists(ctx, revokedKeyPrefix+jti)
}
