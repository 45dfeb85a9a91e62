package sessions

import (
	"context"
	"time"
)

// Repository provides session persistence operations
type Repository interface {
	// Save writes s under s.ID with the given TTL, replacing any previous value.
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	// Get returns nil, nil when the id is unknown or expired.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
