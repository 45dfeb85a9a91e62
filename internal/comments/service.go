// Package comments handles posting, moderating and deleting blog comments.
package comments

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/inkbloom/inkbloom/internal/moderation"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/metrics"
	"github.com/microcosm-cc/bluemonday"
)

const MaxLength = 1000

// ErrFlagged marks a comment rejected by the classifier. The author has been
// blocked by the time it is returned.
var ErrFlagged = errors.New("comments: flagged by moderation")

// Blogs is the part of the blog store comments need.
type Blogs interface {
	GetByBlogID(ctx context.Context, blogID string) (*models.Blog, error)
	IncrementCounter(ctx context.Context, blogID, field string, delta int64) error
}

// Moderator blocks users and ends their sessions.
type Moderator interface {
	BlockUser(ctx context.Context, userID string) error
}

type Service struct {
	store      Store
	blogs      Blogs
	classifier moderation.Classifier
	moderator  Moderator
	policy     *bluemonday.Policy
	now        func() time.Time
}

func NewService(store Store, b Blogs, c moderation.Classifier, m Moderator) *Service {
	return &Service{
		store:      store,
		blogs:      b,
		classifier: c,
		moderator:  m,
		policy:     bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

// plainText strips all markup and decodes entities. The result is stored
// as-is and escaped again when rendered.
func (s *Service) plainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// Post classifies text and stores it as a comment by author on blogID.
// Flagged text from a non-admin blocks the author and stores nothing.
func (s *Service) Post(ctx context.Context, author models.AuthorRef, blogID, text string) (*models.Comment, error) {
	text = s.plainText(text)
	if text == "" {
		return nil, apperr.MissingFields("comment")
	}
	if utf8.RuneCountInString(text) > MaxLength {
		return nil, apperr.Validation("Comments can be at most 1000 characters long!")
	}

	b, err := s.blogs.GetByBlogID(ctx, blogID)
	if errors.Is(err, content.ErrNotFound) {
		return nil, apperr.NotFound("Blog not found!")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !(blogs.Viewer{UserID: author.UserID, Admin: author.IsAdmin}).CanSee(b) {
		return nil, apperr.NotFound("Blog not found!")
	}

	profane, err := s.classifier.IsProfane(ctx, text)
	if err != nil {
		metrics.CommentEvents.WithLabelValues("classifier_error").Inc()
		return nil, apperr.Upstream("Comment moderation is unavailable, please try again later!", err)
	}
	if profane && !author.IsAdmin {
		if err := s.moderator.BlockUser(ctx, author.UserID); err != nil {
			return nil, apperr.Internal(err)
		}
		metrics.CommentEvents.WithLabelValues("flagged").Inc()
		logger.Warnf("comment by %s on %s flagged, user blocked", author.UserID, blogID)
		return nil, &apperr.Error{
			Kind:    apperr.KindUnauthorized,
			Message: "Your comment was flagged as inappropriate and your account has been blocked!",
			Err:     ErrFlagged,
		}
	}

	c := &models.Comment{
		CommentID: uuid.NewString(),
		BlogID:    b.BlogID,
		BlogSlug:  b.Slug,
		Content:   text,
		Author:    author,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.blogs.IncrementCounter(ctx, b.BlogID, blogs.FieldComments, 1); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.store.Insert(ctx, c); err != nil {
		if cerr := s.blogs.IncrementCounter(ctx, b.BlogID, blogs.FieldComments, -1); cerr != nil {
			logger.Errorf("comment count of %s left one too high: %v", b.BlogID, cerr)
		}
		return nil, apperr.Internal(err)
	}
	metrics.CommentEvents.WithLabelValues("accepted").Inc()
	return c, nil
}

// Delete removes a comment if actor wrote it or is an admin.
func (s *Service) Delete(ctx context.Context, actor blogs.Viewer, commentID string) error {
	if actor.UserID == "" {
		return apperr.Unauthorized(apperr.MsgUnauthorized)
	}
	c, err := s.store.Get(ctx, commentID)
	if errors.Is(err, content.ErrNotFound) {
		return apperr.NotFound("Comment not found!")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if !actor.Admin && c.Author.UserID != actor.UserID {
		return apperr.Unauthorized(apperr.MsgUnauthorized)
	}
	return s.remove(ctx, c)
}

func (s *Service) remove(ctx context.Context, c *models.Comment) error {
	if err := s.store.Delete(ctx, c.CommentID); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return apperr.NotFound("Comment not found!")
		}
		return apperr.Internal(err)
	}
	// the parent may already be gone
	if err := s.blogs.IncrementCounter(ctx, c.BlogID, blogs.FieldComments, -1); err != nil && !errors.Is(err, content.ErrNotFound) {
		return apperr.Internal(err)
	}
	metrics.CommentEvents.WithLabelValues("deleted").Inc()
	return nil
}

// PurgeAuthor deletes every comment of userID, keeping parent counts in step.
func (s *Service) PurgeAuthor(ctx context.Context, userID string) (int, error) {
	list, err := s.store.ByAuthor(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	n := 0
	for i := range list {
		if err := s.remove(ctx, &list[i]); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Service) ForBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	out, err := s.store.ForBlog(ctx, blogID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) ByAuthor(ctx context.Context, userID string) ([]models.Comment, error) {
	out, err := s.store.ByAuthor(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
