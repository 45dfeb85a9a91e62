package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/inkbloom/inkbloom/pkg/logger"
)

const DefaultTTL = 7 * 24 * time.Hour

// Service wraps repository operations with session lifecycle rules:
// sliding expiry, id regeneration on login and user revocation.
type Service struct {
	repo        Repository
	revocations *Revocations
	ttl         time.Duration
	now         func() time.Time
}

func NewService(r Repository, rev *Revocations, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{repo: r, revocations: rev, ttl: ttl, now: time.Now}
}

// TTL is the sliding lifetime applied on every save.
func (s *Service) TTL() time.Duration { return s.ttl }

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// New returns an unsaved anonymous session with a fresh id.
func (s *Service) New() (*Session, error) {
	id, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &Session{ID: id, CreatedAt: s.now().UTC()}, nil
}

// Load returns the stored session, or nil when it is unknown, expired or
// belongs to a revoked user. Revoked sessions are deleted.
func (s *Service) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Authenticated() {
		revoked, err := s.revocations.IsRevoked(ctx, sess.UserID, sess.CreatedAt)
		if err != nil {
			return nil, err
		}
		if revoked {
			logger.Infof("dropping revoked session for user %s", sess.UserID)
			_ = s.repo.Delete(ctx, id)
			return nil, nil
		}
	}
	return sess, nil
}

// Save persists sess and pushes its expiry forward by the TTL.
func (s *Service) Save(ctx context.Context, sess *Session) error {
	sess.ExpiresAt = s.now().UTC().Add(s.ttl)
	return s.repo.Save(ctx, sess, s.ttl)
}

// Destroy removes the stored session and clears sess in place.
func (s *Service) Destroy(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	err := s.repo.Delete(ctx, sess.ID)
	sess.SignOut()
	sess.CSRFToken = ""
	return err
}

// Regenerate moves sess to a new id. Called on login so a pre-login id
// can never carry an authenticated user.
func (s *Service) Regenerate(ctx context.Context, sess *Session) error {
	if sess.ID != "" {
		if err := s.repo.Delete(ctx, sess.ID); err != nil {
			return err
		}
	}
	id, err := randomHex(32)
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	sess.ID = id
	sess.CreatedAt = s.now().UTC()
	return nil
}

// NewCSRFToken stores a fresh CSRF token on sess and returns it.
func (s *Service) NewCSRFToken(sess *Session) (string, error) {
	tok, err := randomHex(32)
	if err != nil {
		return "", err
	}
	sess.CSRFToken = tok
	return tok, nil
}

// NewState returns a 16-byte hex OAuth state nonce.
func (s *Service) NewState() (string, error) {
	return randomHex(16)
}

// RevokeUser invalidates all existing sessions of userID.
func (s *Service) RevokeUser(ctx context.Context, userID string) error {
	return s.revocations.RevokeUser(ctx, userID, s.now().UTC())
}
