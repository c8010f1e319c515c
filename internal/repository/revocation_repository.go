package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key namespaces for the two revocation signals. Presence of a deny
// key is the signal; for allow keys the value is the owning username.
const (
	allowPrefix = "auth:allowlist:"
	denyPrefix  = "auth:blacklist:"
	denyMarker  = "revoked"
)

// RevocationRepo tracks access tokens in Redis as two TTL'd namespaces:
// allow (tokens currently permitted) and deny (tokens revoked before
// their natural expiry). Entries self-expire; no cross-namespace
// atomicity is provided or needed, since a token seen in neither
// namespace fails closed at the gate.
type RevocationRepo struct{ rdb *redis.Client }

func NewRevocationRepo(rdb *redis.Client) *RevocationRepo {
	return &RevocationRepo{rdb: rdb}
}

// AllowAdd tracks an access token for its owner, overwriting any existing
// entry. The TTL bounds the token's effective lifetime.
func (r *RevocationRepo) AllowAdd(ctx context.Context, token, owner string, ttl time.Duration) error {
	return r.rdb.Set(ctx, allowPrefix+token, owner, ttl).Err()
}

// AllowContains reports whether the token is currently tracked.
func (r *RevocationRepo) AllowContains(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, allowPrefix+token).Result()
	return n > 0, err
}

// AllowRemove drops the token from the allow namespace.
func (r *RevocationRepo) AllowRemove(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, allowPrefix+token).Err()
}

// DenyAdd marks the token revoked for the remainder of its lifetime. A
// non-positive TTL is a no-op: the token already expired on its own.
func (r *RevocationRepo) DenyAdd(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, denyPrefix+token, denyMarker, ttl).Err()
}

// DenyContains reports whether the token was explicitly revoked.
func (r *RevocationRepo) DenyContains(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, denyPrefix+token).Result()
	return n > 0, err
}
