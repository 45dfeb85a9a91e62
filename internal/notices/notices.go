// Package notices manages the site-wide system messages shown on the index.
package notices

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

type Store interface {
	Insert(ctx context.Context, m *models.SystemMessage) error
	Latest(ctx context.Context) (*models.SystemMessage, error)
	List(ctx context.Context) ([]models.SystemMessage, error)
	Delete(ctx context.Context, messageID string) error
}

// MongoStore keeps messages in SYSTEM_MESSAGES.
type MongoStore struct {
	repo content.Repository
}

func NewMongoStore(repo content.Repository) *MongoStore {
	return &MongoStore{repo: repo}
}

func (s *MongoStore) Insert(ctx context.Context, m *models.SystemMessage) error {
	return s.repo.Insert(ctx, models.SystemMessagesCollection, m)
}

func (s *MongoStore) Latest(ctx context.Context) (*models.SystemMessage, error) {
	var out []models.SystemMessage
	opts := content.FindOptions{Sort: bson.D{{Key: "_id", Value: -1}}, Limit: 1}
	if err := s.repo.FindMany(ctx, models.SystemMessagesCollection, bson.M{}, opts, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.SystemMessage, error) {
	out := []models.SystemMessage{}
	opts := content.FindOptions{Sort: bson.D{{Key: "_id", Value: -1}}}
	if err := s.repo.FindMany(ctx, models.SystemMessagesCollection, bson.M{}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, messageID string) error {
	n, err := s.repo.Delete(ctx, models.SystemMessagesCollection, bson.M{"message_id": messageID})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu   sync.RWMutex
	msgs []models.SystemMessage
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Insert(ctx context.Context, m *models.SystemMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, *m)
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context) (*models.SystemMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.msgs) == 0 {
		return nil, nil
	}
	m := s.msgs[len(s.msgs)-1]
	return &m, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]models.SystemMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SystemMessage, 0, len(s.msgs))
	for i := len(s.msgs) - 1; i >= 0; i-- {
		out = append(out, s.msgs[i])
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.msgs {
		if m.MessageID == messageID {
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			return nil
		}
	}
	return content.ErrNotFound
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Post publishes a new message. Level defaults to info.
func (s *Service) Post(ctx context.Context, message, level string) (*models.SystemMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.MissingFields("message")
	}
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		level = LevelInfo
	case LevelInfo, LevelWarning:
	default:
		return nil, apperr.Validation("Level must be either info or warning!")
	}
	m := &models.SystemMessage{
		MessageID: uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}
	return m, nil
}

// Latest returns the newest message, or nil when there is none.
func (s *Service) Latest(ctx context.Context) (*models.SystemMessage, error) {
	m, err := s.store.Latest(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context) ([]models.SystemMessage, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, messageID string) error {
	err := s.store.Delete(ctx, messageID)
	if errors.Is(err, content.ErrNotFound) {
		return apperr.NotFound("Message not found!")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
