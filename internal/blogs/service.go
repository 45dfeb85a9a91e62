// Package blogs implements publishing, editing, listing, search and the
// engagement counters of blog posts.
package blogs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/inkbloom/inkbloom/internal/readtime"
	"github.com/inkbloom/inkbloom/internal/storage"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/metrics"
	"github.com/microcosm-cc/bluemonday"
)

const (
	PageSize       = 6
	FeaturedLimit  = 5
	QuickSearchMax = 5
	FeedSize       = 20

	BotUserID  = "moderation-bot"
	BotName    = "Moderation Bot"
	botWelcome = "Thanks for reading! Please keep the discussion kind, every comment is checked by the moderation bot."
)

// CommentSink is the slice of the comment store blogs need: seeding the
// bot comment and cascading deletes.
type CommentSink interface {
	Insert(ctx context.Context, c *models.Comment) error
	DeleteByBlog(ctx context.Context, blogID string) (int64, error)
}

// Viewer is who is looking at a blog.
type Viewer struct {
	UserID string
	Admin  bool
}

// CanSee reports whether v may read b. Private posts are limited to admins
// and their author.
func (v Viewer) CanSee(b *models.Blog) bool {
	if b.IsPublic() || v.Admin {
		return true
	}
	return v.UserID != "" && v.UserID == b.Author.UserID
}

type Options struct {
	ProxyBase     string
	CoverMaxWidth int
}

type Service struct {
	store    Store
	comments CommentSink
	uploader storage.Uploader
	policy   *bluemonday.Policy
	opts     Options
	now      func() time.Time
}

func NewService(store Store, comments CommentSink, up storage.Uploader, opts Options) *Service {
	if opts.CoverMaxWidth <= 0 {
		opts.CoverMaxWidth = storage.DefaultCoverMaxWidth
	}
	return &Service{
		store:    store,
		comments: comments,
		uploader: up,
		policy:   bluemonday.UGCPolicy(),
		opts:     opts,
		now:      time.Now,
	}
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, content.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err)
}

// prepare runs the upload and sanitising steps shared by create and edit.
// It returns the final HTML and, if a cover was sent, its URL.
func (s *Service) prepare(ctx context.Context, d *Draft) (string, string, error) {
	var cover []byte
	if len(d.Cover) > 0 {
		var err error
		cover, err = storage.NormalizeCover(bytes.NewReader(d.Cover), s.opts.CoverMaxWidth)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidImage) {
				return "", "", apperr.Validation("Invalid cover image!")
			}
			return "", "", apperr.Internal(err)
		}
	}

	html, err := rewriteInlineImages(ctx, s.uploader, s.opts.ProxyBase, d.Content)
	if err != nil {
		return "", "", err
	}

	coverURL := ""
	if cover != nil {
		url, err := s.uploader.Upload(ctx, "blogs/covers/"+uuid.NewString()+".jpg", cover, "image/jpeg")
		if err != nil {
			return "", "", apperr.Upstream("Failed to upload cover image!", err)
		}
		coverURL = storage.ProxyURL(s.opts.ProxyBase, url)
	}
	return s.policy.Sanitize(html), coverURL, nil
}

// Create publishes a new blog by author and seeds the moderation bot comment.
func (s *Service) Create(ctx context.Context, author models.AuthorRef, d Draft) (*models.Blog, error) {
	if err := d.validate(true); err != nil {
		return nil, err
	}
	html, coverURL, err := s.prepare(ctx, &d)
	if err != nil {
		return nil, err
	}
	tags, featured := ParseTags(d.Tags)
	now := nowUTC(s.now)
	b := &models.Blog{
		BlogID:     uuid.NewString(),
		Title:      d.Title,
		Summary:    d.Summary,
		Tags:       tags,
		Category:   d.Category,
		Visibility: d.Visibility,
		Featured:   featured,
		CoverURL:   coverURL,
		ReadTime:   readtime.Estimate(html),
		Content:    html,
		Author:     author,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	base := Slugify(d.Title)
	if err := s.withUniqueSlug(ctx, base, "", func(slug string) error {
		b.Slug = slug
		return s.store.Insert(ctx, b)
	}); err != nil {
		return nil, err
	}
	metrics.BlogEvents.WithLabelValues("publish").Inc()
	logger.Infof("blog %s published as %s", b.BlogID, b.Slug)

	s.seedBotComment(ctx, b)
	return b, nil
}

func (s *Service) seedBotComment(ctx context.Context, b *models.Blog) {
	c := &models.Comment{
		CommentID: uuid.NewString(),
		BlogID:    b.BlogID,
		BlogSlug:  b.Slug,
		Content:   botWelcome,
		Author:    models.AuthorRef{UserID: BotUserID, Name: BotName, IsBot: true},
		CreatedAt: nowUTC(s.now),
	}
	if err := s.comments.Insert(ctx, c); err != nil {
		logger.Warnf("seeding bot comment for %s failed: %v", b.BlogID, err)
		return
	}
	if err := s.store.IncrementCounter(ctx, b.BlogID, FieldComments, 1); err != nil {
		logger.Warnf("comment count for %s not updated: %v", b.BlogID, err)
		return
	}
	b.CommentsCount++
}

// withUniqueSlug calls write with base, then base-<8 hex>, until the write
// no longer collides. Pre-checking skips known collisions; the unique index
// catches the rest.
func (s *Service) withUniqueSlug(ctx context.Context, base, excludeBlogID string, write func(slug string) error) error {
	for attempt := 0; attempt < slugAttempts; attempt++ {
		slug, err := slugCandidate(base, attempt)
		if err != nil {
			return apperr.Internal(err)
		}
		taken, err := s.store.SlugExists(ctx, slug, excludeBlogID)
		if err != nil {
			return apperr.Internal(err)
		}
		if taken {
			continue
		}
		err = write(slug)
		if errors.Is(err, content.ErrDuplicate) {
			logger.Debugf("slug %s raced, retrying", slug)
			continue
		}
		if err != nil {
			return notFoundOr(err, "Blog not found!")
		}
		return nil
	}
	return apperr.Internal(fmt.Errorf("no free slug for %q after %d attempts", base, slugAttempts))
}

// Edit replaces every editable field of blogID. The previous cover is kept
// when none is sent; the slug only changes with the title.
func (s *Service) Edit(ctx context.Context, blogID string, d Draft) (*models.Blog, error) {
	if err := d.validate(false); err != nil {
		return nil, err
	}
	b, err := s.store.GetByBlogID(ctx, blogID)
	if err != nil {
		return nil, notFoundOr(err, "Blog not found!")
	}
	html, coverURL, err := s.prepare(ctx, &d)
	if err != nil {
		return nil, err
	}
	if coverURL != "" {
		b.CoverURL = coverURL
	}
	titleChanged := b.Title != d.Title
	tags, featured := ParseTags(d.Tags)
	b.Title = d.Title
	b.Summary = d.Summary
	b.Tags = tags
	b.Featured = featured
	b.Category = d.Category
	b.Visibility = d.Visibility
	b.Content = html
	b.ReadTime = readtime.Estimate(html)
	b.UpdatedAt = nowUTC(s.now)

	if titleChanged {
		err = s.withUniqueSlug(ctx, Slugify(d.Title), b.BlogID, func(slug string) error {
			b.Slug = slug
			return s.store.Replace(ctx, b)
		})
	} else if err = s.store.Replace(ctx, b); err != nil {
		err = notFoundOr(err, "Blog not found!")
	}
	if err != nil {
		return nil, err
	}
	metrics.BlogEvents.WithLabelValues("edit").Inc()
	return b, nil
}

// Delete removes a blog and all of its comments.
func (s *Service) Delete(ctx context.Context, blogID string) error {
	if err := s.store.Delete(ctx, blogID); err != nil {
		return notFoundOr(err, "Blog not found!")
	}
	n, err := s.comments.DeleteByBlog(ctx, blogID)
	if err != nil {
		return apperr.Internal(err)
	}
	metrics.BlogEvents.WithLabelValues("delete").Inc()
	logger.Infof("blog %s deleted with %d comments", blogID, n)
	return nil
}

// Get returns the blog at slug if v may read it.
func (s *Service) Get(ctx context.Context, slug string, v Viewer) (*models.Blog, error) {
	b, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "Blog not found!")
	}
	if !v.CanSee(b) {
		return nil, apperr.Unauthorized(apperr.MsgUnauthorized)
	}
	return b, nil
}

func (s *Service) GetByID(ctx context.Context, blogID string) (*models.Blog, error) {
	b, err := s.store.GetByBlogID(ctx, blogID)
	if err != nil {
		return nil, notFoundOr(err, "Blog not found!")
	}
	return b, nil
}

func (s *Service) list(ctx context.Context, o content.ListOptions) ([]models.Blog, error) {
	out, err := s.store.List(ctx, o)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Home returns the first page of posts and the featured strip.
func (s *Service) Home(ctx context.Context, v Viewer) (latest, featured []models.Blog, err error) {
	latest, err = s.list(ctx, content.ListOptions{IncludePrivate: v.Admin, Limit: PageSize})
	if err != nil {
		return nil, nil, err
	}
	featured, err = s.list(ctx, content.ListOptions{IncludePrivate: v.Admin, FeaturedOnly: true, Limit: FeaturedLimit})
	if err != nil {
		return nil, nil, err
	}
	return latest, featured, nil
}

func (s *Service) All(ctx context.Context, v Viewer) ([]models.Blog, error) {
	return s.list(ctx, content.ListOptions{IncludePrivate: v.Admin})
}

// LoadMore returns the page of posts published before lastBlogID.
func (s *Service) LoadMore(ctx context.Context, lastBlogID string, v Viewer) ([]models.Blog, error) {
	last, err := s.store.GetByBlogID(ctx, lastBlogID)
	if err != nil {
		return nil, notFoundOr(err, "Blog not found!")
	}
	return s.list(ctx, content.ListOptions{IncludePrivate: v.Admin, Before: last.ObjectID, Limit: PageSize})
}

// Feed returns the newest public posts for syndication.
func (s *Service) Feed(ctx context.Context) ([]models.Blog, error) {
	return s.list(ctx, content.ListOptions{Limit: FeedSize})
}

func (s *Service) QuickSearch(ctx context.Context, query string, v Viewer) ([]models.BlogSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.MissingFields("query")
	}
	out, err := s.store.QuickSearch(ctx, query, v.Admin, QuickSearchMax)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) Search(ctx context.Context, f content.SearchFilter) ([]models.CategoryGroup, error) {
	if f.Empty() {
		return nil, apperr.Validation("At least one search filter is required!")
	}
	out, err := s.store.FacetedSearch(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) CategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	out, err := s.store.CategoryStats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) bump(ctx context.Context, slug, field, event string, v Viewer) error {
	b, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return notFoundOr(err, "Blog not found!")
	}
	if !v.CanSee(b) {
		return apperr.NotFound("Blog not found!")
	}
	if err := s.store.IncrementCounter(ctx, b.BlogID, field, 1); err != nil {
		return notFoundOr(err, "Blog not found!")
	}
	metrics.BlogEvents.WithLabelValues(event).Inc()
	return nil
}

func (s *Service) RecordView(ctx context.Context, slug string, v Viewer) error {
	return s.bump(ctx, slug, FieldViews, "view", v)
}

func (s *Service) RecordLike(ctx context.Context, slug string, v Viewer) error {
	return s.bump(ctx, slug, FieldLikes, "like", v)
}

// UploadMedia stores an editor image and returns its proxied URL.
func (s *Service) UploadMedia(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.MissingFields("file")
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", apperr.Validation("Only images can be uploaded!")
	}
	url, err := s.uploader.Upload(ctx, mediaPath(data, extensionFor(strings.TrimPrefix(ct, "image/"))), data, ct)
	if err != nil {
		return "", apperr.Upstream("Failed to upload image!", err)
	}
	return storage.ProxyURL(s.opts.ProxyBase, url), nil
}
