package tokens

import (
	"context"
	"errors"
	"sync"

	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Store persists token records.
type Store interface {
	Insert(ctx context.Context, t *models.Token) error
	// Take deletes and returns the record, or nil when it does not exist.
	Take(ctx context.Context, tokenID string) (*models.Token, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// MongoStore keeps tokens in the TOKENS collection.
type MongoStore struct {
	repo content.Repository
}

func NewMongoStore(repo content.Repository) *MongoStore {
	return &MongoStore{repo: repo}
}

func (s *MongoStore) Insert(ctx context.Context, t *models.Token) error {
	return s.repo.Insert(ctx, models.TokensCollection, t)
}

func (s *MongoStore) Take(ctx context.Context, tokenID string) (*models.Token, error) {
	var t models.Token
	err := s.repo.FindOne(ctx, models.TokensCollection, bson.M{"token_id": tokenID}, &t)
	if errors.Is(err, content.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// the delete count decides the winner when two redemptions race
	n, err := s.repo.Delete(ctx, models.TokensCollection, bson.M{"token_id": tokenID})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return &t, nil
}

func (s *MongoStore) DeleteForUser(ctx context.Context, userID string) error {
	_, err := s.repo.Delete(ctx, models.TokensCollection, bson.M{"user_id": userID})
	return err
}

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]models.Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.Token)}
}

func (m *MemoryStore) Insert(ctx context.Context, t *models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[t.TokenID] = *t
	return nil
}

func (m *MemoryStore) Take(ctx context.Context, tokenID string) (*models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[tokenID]
	if !ok {
		return nil, nil
	}
	delete(m.items, tokenID)
	return &t, nil
}

func (m *MemoryStore) DeleteForUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.items {
		if t.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
