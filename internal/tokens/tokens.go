package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/inkbloom/inkbloom/internal/models"
)

const (
	PurposeNewsletter = "newsletter"
	DefaultTTL        = 24 * time.Hour
)

// ErrInvalidToken covers bad signatures, wrong purpose, expiry and reuse.
var ErrInvalidToken = errors.New("tokens: invalid or expired token")

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer mints one-time verification tokens. The signed JWT is handed to the
// user; the stored record makes it redeemable exactly once.
type Issuer struct {
	secret []byte
	store  Store
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, store Store) *Issuer {
	return &Issuer{secret: []byte(secret), store: store, ttl: DefaultTTL, now: time.Now}
}

// Issue stores a token record for userID and returns its signed form.
func (i *Issuer) Issue(ctx context.Context, userID, purpose, email string) (string, *models.Token, error) {
	now := i.now().UTC()
	rec := &models.Token{
		TokenID:   uuid.NewString(),
		UserID:    userID,
		Purpose:   purpose,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}
	signed, err := i.sign(rec)
	if err != nil {
		return "", nil, err
	}
	if err := i.store.Insert(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	return signed, rec, nil
}

func (i *Issuer) sign(rec *models.Token) (string, error) {
	c := claims{
		Purpose: rec.Purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.TokenID,
			Subject:   rec.UserID,
			IssuedAt:  jwt.NewNumericDate(rec.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Redeem validates raw and consumes the stored record. A second call with
// the same token fails with ErrInvalidToken.
func (i *Issuer) Redeem(ctx context.Context, raw, purpose string) (*models.Token, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Purpose != purpose || c.ID == "" {
		return nil, ErrInvalidToken
	}

	rec, err := i.store.Take(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("redeem token: %w", err)
	}
	if rec == nil || rec.UserID != c.Subject {
		return nil, ErrInvalidToken
	}
	if i.now().UTC().After(rec.ExpiresAt) {
		return nil, ErrInvalidToken
	}
	return rec, nil
}

// Revoke removes a token record that was issued but never delivered.
func (i *Issuer) Revoke(ctx context.Context, tokenID string) error {
	_, err := i.store.Take(ctx, tokenID)
	return err
}

// RevokeAllForUser removes every outstanding token of userID.
func (i *Issuer) RevokeAllForUser(ctx context.Context, userID string) error {
	return i.store.DeleteForUser(ctx, userID)
}
