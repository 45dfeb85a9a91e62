// Package users owns user records: login upserts, moderation flags and the
// newsletter subscription.
package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/content"
	inkmail "github.com/inkbloom/inkbloom/internal/mail"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/inkbloom/inkbloom/internal/oauth"
	"github.com/inkbloom/inkbloom/internal/tokens"
	"github.com/inkbloom/inkbloom/pkg/logger"
)

// VerifyPath is where confirmation links point; the token is appended.
const VerifyPath = "/api/v1/users/verify/"

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) error
}

// Service encapsulates user-related business logic
type Service struct {
	repo     UserRepository
	sessions SessionRevoker
	tokens   *tokens.Issuer
	mailer   inkmail.Sender
	siteURL  string
	now      func() time.Time
}

func NewService(r UserRepository, sessions SessionRevoker, issuer *tokens.Issuer, mailer inkmail.Sender, siteURL string) *Service {
	return &Service{
		repo:     r,
		sessions: sessions,
		tokens:   issuer,
		mailer:   mailer,
		siteURL:  strings.TrimRight(siteURL, "/"),
		now:      time.Now,
	}
}

func userErr(err error) error {
	if errors.Is(err, content.ErrNotFound) {
		return apperr.NotFound("User not found!")
	}
	return apperr.Internal(err)
}

// UpsertFromProfile creates or refreshes the user behind a provider profile.
func (s *Service) UpsertFromProfile(ctx context.Context, provider string, p *oauth.Profile) (*models.User, error) {
	if p == nil || p.Subject == "" {
		return nil, apperr.Validation("The identity provider returned no user id!")
	}
	u, err := s.repo.UpsertLogin(ctx, LoginRecord{
		UserID:    p.Subject,
		Provider:  provider,
		Username:  p.Username,
		Name:      p.Name,
		AvatarURL: p.AvatarURL,
		Email:     p.Email,
		Admin:     p.Admin,
		At:        s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}
	return u, nil
}

// BlockUser flags the user and ends all of their sessions. There is no web
// route that unblocks.
func (s *Service) BlockUser(ctx context.Context, userID string) error {
	blocked := true
	if err := s.repo.Update(ctx, userID, Patch{IsBlocked: &blocked}); err != nil {
		return userErr(err)
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	logger.Warnf("user %s blocked", userID)
	return nil
}

// SetBlocked is the administrative switch used by the CLI.
func (s *Service) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	if blocked {
		return s.BlockUser(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, Patch{IsBlocked: &blocked}); err != nil {
		return userErr(err)
	}
	return nil
}

// SetAdmin grants or removes the admin role. Existing sessions are revoked
// so the new role applies on the next login.
func (s *Service) SetAdmin(ctx context.Context, userID string, admin bool) error {
	if err := s.repo.Update(ctx, userID, Patch{IsAdmin: &admin}); err != nil {
		return userErr(err)
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func validEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", false
	}
	return addr.Address, true
}

// Subscribe stores email and mails a one-time confirmation link. A failed
// send leaves no usable token behind.
func (s *Service) Subscribe(ctx context.Context, userID, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.MissingFields("email")
	}
	addr, ok := validEmail(email)
	if !ok {
		return apperr.Validation("Please provide a valid email address!")
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return userErr(err)
	}
	if err := s.repo.Update(ctx, userID, Patch{Email: &addr}); err != nil {
		return userErr(err)
	}

	raw, rec, err := s.tokens.Issue(ctx, userID, tokens.PurposeNewsletter, addr)
	if err != nil {
		return apperr.Internal(err)
	}
	link := s.siteURL + VerifyPath + raw
	if err := s.mailer.SendNewsletterConfirmation(ctx, addr, u.Name, link); err != nil {
		if rerr := s.tokens.Revoke(ctx, rec.TokenID); rerr != nil {
			logger.Errorf("revoking undelivered token %s: %v", rec.TokenID, rerr)
		}
		return apperr.Upstream("Failed to send the confirmation email, please try again later!", err)
	}
	return nil
}

// ConfirmSubscription redeems a confirmation token.
func (s *Service) ConfirmSubscription(ctx context.Context, raw string) (*models.User, error) {
	rec, err := s.tokens.Redeem(ctx, raw, tokens.PurposeNewsletter)
	if errors.Is(err, tokens.ErrInvalidToken) {
		return nil, apperr.Validation("Invalid or expired verification link!")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	subscribed := true
	patch := Patch{NewsletterSubscribed: &subscribed}
	if rec.Email != "" {
		patch.Email = &rec.Email
	}
	if err := s.repo.Update(ctx, rec.UserID, patch); err != nil {
		return nil, userErr(err)
	}
	return s.Get(ctx, rec.UserID)
}

func (s *Service) Unsubscribe(ctx context.Context, userID string) error {
	off := false
	if err := s.repo.Update(ctx, userID, Patch{NewsletterSubscribed: &off}); err != nil {
		return userErr(err)
	}
	return nil
}

// Delete removes the user record and outstanding tokens. Content owned by
// the user is removed by the caller.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return userErr(err)
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		logger.Warnf("revoking sessions of deleted user %s: %v", userID, err)
	}
	return nil
}
