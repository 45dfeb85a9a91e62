package repository

import (
	"context"
	"sync"

	"github.com/inkbloom/inkbloom/internal/feedback"
)

// Repository persists feedback entries.
type Repository interface {
	Create(ctx context.Context, f *feedback.Feedback) error
	List(ctx context.Context, limit int64) ([]feedback.Feedback, error)
	ListForUser(ctx context.Context, userID string) ([]feedback.Feedback, error)
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}

// MemoryRepo is a simple in-memory repository used for unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store []feedback.Feedback
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) Create(ctx context.Context, f *feedback.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = append(m.store, *f)
	return nil
}

// List returns the newest entries first.
func (m *MemoryRepo) List(ctx context.Context, limit int64) ([]feedback.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []feedback.Feedback{}
	for i := len(m.store) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) == limit {
			break
		}
		out = append(out, m.store[i])
	}
	return out, nil
}

func (m *MemoryRepo) ListForUser(ctx context.Context, userID string) ([]feedback.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []feedback.Feedback{}
	for i := len(m.store) - 1; i >= 0; i-- {
		if m.store[i].UserID == userID {
			out = append(out, m.store[i])
		}
	}
	return out, nil
}

func (m *MemoryRepo) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.store[:0]
	var n int64
	for _, f := range m.store {
		if f.UserID == userID {
			n++
			continue
		}
		kept = append(kept, f)
	}
	m.store = kept
	return n, nil
}
