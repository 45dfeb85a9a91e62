package comments

import (
	"context"
	"sync"

	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store defines persistence operations for comments.
type Store interface {
	Insert(ctx context.Context, c *models.Comment) error
	Get(ctx context.Context, commentID string) (*models.Comment, error)
	Delete(ctx context.Context, commentID string) error
	DeleteByBlog(ctx context.Context, blogID string) (int64, error)
	ForBlog(ctx context.Context, blogID string) ([]models.Comment, error)
	ByAuthor(ctx context.Context, userID string) ([]models.Comment, error)
}

// MongoStore implements Store over the COMMENTS collection.
type MongoStore struct {
	repo content.Repository
}

func NewMongoStore(repo content.Repository) *MongoStore {
	return &MongoStore{repo: repo}
}

func (s *MongoStore) Insert(ctx context.Context, c *models.Comment) error {
	return s.repo.Insert(ctx, models.CommentsCollection, c)
}

func (s *MongoStore) Get(ctx context.Context, commentID string) (*models.Comment, error) {
	var c models.Comment
	if err := s.repo.FindOne(ctx, models.CommentsCollection, bson.M{"comment_id": commentID}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) Delete(ctx context.Context, commentID string) error {
	n, err := s.repo.Delete(ctx, models.CommentsCollection, bson.M{"comment_id": commentID})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteByBlog(ctx context.Context, blogID string) (int64, error) {
	return s.repo.Delete(ctx, models.CommentsCollection, bson.M{"blog_id": blogID})
}

func (s *MongoStore) ForBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	out := []models.Comment{}
	if err := s.repo.Aggregate(ctx, models.CommentsCollection, content.CommentsForBlogPipeline(blogID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) ByAuthor(ctx context.Context, userID string) ([]models.Comment, error) {
	out := []models.Comment{}
	err := s.repo.FindMany(ctx, models.CommentsCollection, bson.M{"author.user_id": userID},
		content.FindOptions{Sort: bson.D{{Key: "_id", Value: -1}}}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	comments []*models.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.comments {
		if x.CommentID == c.CommentID {
			return content.ErrDuplicate
		}
	}
	if c.ObjectID.IsZero() {
		c.ObjectID = primitive.NewObjectID()
	}
	cp := *c
	m.comments = append(m.comments, &cp)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, commentID string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.comments {
		if c.CommentID == commentID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, content.ErrNotFound
}

func (m *MemoryStore) Delete(ctx context.Context, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.comments {
		if c.CommentID == commentID {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return content.ErrNotFound
}

func (m *MemoryStore) DeleteByBlog(ctx context.Context, blogID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.comments[:0]
	var n int64
	for _, c := range m.comments {
		if c.BlogID == blogID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.comments = kept
	return n, nil
}

func (m *MemoryStore) filter(pred func(*models.Comment) bool) []models.Comment {
	out := []models.Comment{}
	for i := len(m.comments) - 1; i >= 0; i-- {
		if pred(m.comments[i]) {
			out = append(out, *m.comments[i])
		}
	}
	return out
}

func (m *MemoryStore) ForBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(c *models.Comment) bool { return c.BlogID == blogID }), nil
}

func (m *MemoryStore) ByAuthor(ctx context.Context, userID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(c *models.Comment) bool { return c.Author.UserID == userID }), nil
}
