package blogs

import (
	"context"
	"fmt"
	"time"

	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Counter fields. They are only ever changed with $inc.
const (
	FieldViews    = "views"
	FieldLikes    = "likes"
	FieldComments = "comments_count"
)

// Store defines persistence operations for blogs. Lookups return
// content.ErrNotFound when nothing matches; writes that collide on the
// unique slug index return content.ErrDuplicate.
type Store interface {
	GetByBlogID(ctx context.Context, blogID string) (*models.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*models.Blog, error)
	SlugExists(ctx context.Context, slug, excludeBlogID string) (bool, error)
	Insert(ctx context.Context, b *models.Blog) error
	Replace(ctx context.Context, b *models.Blog) error
	Delete(ctx context.Context, blogID string) error
	IncrementCounter(ctx context.Context, blogID, field string, delta int64) error
	List(ctx context.Context, o content.ListOptions) ([]models.Blog, error)
	QuickSearch(ctx context.Context, query string, includePrivate bool, limit int64) ([]models.BlogSummary, error)
	FacetedSearch(ctx context.Context, f content.SearchFilter) ([]models.CategoryGroup, error)
	CategoryStats(ctx context.Context) ([]models.CategoryStats, error)
}

// MongoStore implements Store over the BLOGS collection.
type MongoStore struct {
	repo content.Repository
}

func NewMongoStore(repo content.Repository) *MongoStore {
	return &MongoStore{repo: repo}
}

func (s *MongoStore) GetByBlogID(ctx context.Context, blogID string) (*models.Blog, error) {
	var b models.Blog
	if err := s.repo.FindOne(ctx, models.BlogsCollection, bson.M{"blog_id": blogID}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MongoStore) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	var b models.Blog
	if err := s.repo.FindOne(ctx, models.BlogsCollection, bson.M{"slug": slug}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MongoStore) SlugExists(ctx context.Context, slug, excludeBlogID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeBlogID != "" {
		filter["blog_id"] = bson.M{"$ne": excludeBlogID}
	}
	n, err := s.repo.Count(ctx, models.BlogsCollection, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStore) Insert(ctx context.Context, b *models.Blog) error {
	return s.repo.Insert(ctx, models.BlogsCollection, b)
}

// Replace overwrites the editable fields of b. Counters and authorship are untouched.
func (s *MongoStore) Replace(ctx context.Context, b *models.Blog) error {
	set := bson.M{
		"title":      b.Title,
		"summary":    b.Summary,
		"slug":       b.Slug,
		"tags":       b.Tags,
		"category":   b.Category,
		"visibility": b.Visibility,
		"featured":   b.Featured,
		"cover_url":  b.CoverURL,
		"read_time":  b.ReadTime,
		"content":    b.Content,
		"updated_at": b.UpdatedAt,
	}
	n, err := s.repo.Update(ctx, models.BlogsCollection, bson.M{"blog_id": b.BlogID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, blogID string) error {
	n, err := s.repo.Delete(ctx, models.BlogsCollection, bson.M{"blog_id": blogID})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *MongoStore) IncrementCounter(ctx context.Context, blogID, field string, delta int64) error {
	switch field {
	case FieldViews, FieldLikes, FieldComments:
	default:
		return fmt.Errorf("blogs: unknown counter %q", field)
	}
	n, err := s.repo.Update(ctx, models.BlogsCollection, bson.M{"blog_id": blogID}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, o content.ListOptions) ([]models.Blog, error) {
	out := []models.Blog{}
	if err := s.repo.Aggregate(ctx, models.BlogsCollection, content.ListBlogsPipeline(o), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) QuickSearch(ctx context.Context, query string, includePrivate bool, limit int64) ([]models.BlogSummary, error) {
	out := []models.BlogSummary{}
	if err := s.repo.Aggregate(ctx, models.BlogsCollection, content.QuickSearchPipeline(query, includePrivate, limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) FacetedSearch(ctx context.Context, f content.SearchFilter) ([]models.CategoryGroup, error) {
	out := []models.CategoryGroup{}
	if err := s.repo.Aggregate(ctx, models.BlogsCollection, content.FacetedSearchPipeline(f), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) CategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	out := []models.CategoryStats{}
	if err := s.repo.Aggregate(ctx, models.BlogsCollection, content.CategoryStatsPipeline(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// timestamps are stored at millisecond precision
func nowUTC(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Millisecond)
}
