package service

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/feedback"
	"github.com/inkbloom/inkbloom/internal/feedback/repository"
	"github.com/microcosm-cc/bluemonday"
)

// Service defines the feedback operations used by the handler layer.
type Service interface {
	Submit(ctx context.Context, userID, text string) (*feedback.Feedback, error)
	Recent(ctx context.Context, limit int64) ([]feedback.Feedback, error)
	ForUser(ctx context.Context, userID string) ([]feedback.Feedback, error)
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

func New(repo repository.Repository) Service {
	return &service{repo: repo, policy: bluemonday.StrictPolicy(), now: time.Now}
}

type service struct {
	repo   repository.Repository
	policy *bluemonday.Policy
	now    func() time.Time
}

func (s *service) Submit(ctx context.Context, userID, text string) (*feedback.Feedback, error) {
	// stored as plain text; templates escape on render
	text = strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
	if text == "" {
		return nil, apperr.MissingFields("feedback")
	}
	if utf8.RuneCountInString(text) > feedback.MaxLength {
		return nil, apperr.Validation("Feedback can be at most 2000 characters long!")
	}
	f := &feedback.Feedback{
		FeedbackID: uuid.NewString(),
		UserID:     userID,
		Content:    text,
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, apperr.Internal(err)
	}
	return f, nil
}

func (s *service) Recent(ctx context.Context, limit int64) ([]feedback.Feedback, error) {
	out, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *service) ForUser(ctx context.Context, userID string) ([]feedback.Feedback, error) {
	out, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *service) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.DeleteForUser(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}
