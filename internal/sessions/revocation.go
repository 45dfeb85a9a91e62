package sessions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations records per-user revocation times. Sessions created at or
// before a user's revocation time are no longer valid.
type Revocations struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevocations keeps each entry for ttl, which should be at least the
// session lifetime. A nil client disables revocation.
func NewRevocations(client *redis.Client, ttl time.Duration) *Revocations {
	return &Revocations{client: client, ttl: ttl}
}

func revocationKey(userID string) string {
	return "revoked:user:" + userID
}

// RevokeUser invalidates every session of userID issued up to now.
func (r *Revocations) RevokeUser(ctx context.Context, userID string, at time.Time) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Set(ctx, revocationKey(userID), strconv.FormatInt(at.UnixNano(), 10), r.ttl).Err()
}

// IsRevoked reports whether a session of userID created at createdAt was revoked.
func (r *Revocations) IsRevoked(ctx context.Context, userID string, createdAt time.Time) (bool, error) {
	if r == nil || r.client == nil || userID == "" {
		return false, nil
	}
	v, err := r.client.Get(ctx, revocationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	at, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false, err
	}
	return !createdAt.After(time.Unix(0, at)), nil
}
