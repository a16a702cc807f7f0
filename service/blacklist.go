// file: service/blacklist.go

package service

import (
	"context"
	"errors"
	"fmt"
	"manga-auth-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBlacklistUnavailable signals that the revocation cache could not be
// reached. Callers must fail closed: reject the request as temporarily
// unavailable rather than assume the token is not revoked.
var ErrBlacklistUnavailable = errors.New("token revocation cache unavailable")

const blacklistKeyPrefix = "blacklist:"

// IBlacklistClient defines the slice of the Redis client the blacklist needs.
// This abstraction decouples the TokenBlacklist from a concrete Redis
// implementation, enabling easier testing.
type IBlacklistClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenBlacklist records access-token jtis that must be rejected before their
// natural expiry. Entries self-expire with the token's remaining lifetime, so
// no cleanup is ever needed.
type TokenBlacklist struct {
	client IBlacklistClient
}

func NewTokenBlacklist(client IBlacklistClient) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke stores a revocation marker for the jti. A non-positive ttl means the
// token has already expired on its own and there is nothing to protect.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("jti", jti).Error("Failed to write revocation marker")
		return fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the jti has been revoked. A transient cache error
// is retried once; persistent failure surfaces as ErrBlacklistUnavailable and
// must never be read as "not revoked".
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	key := blacklistKeyPrefix + jti

	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		n, err = b.client.Exists(ctx, key).Result()
	}
	if err != nil {
		logger.Log.WithError(err).WithField("jti", jti).Error("Revocation cache unreachable")
		return false, fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return n > 0, nil
}
