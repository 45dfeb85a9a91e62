package users

import (
	"context"
	"sync"
	"time"

	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// LoginRecord is the provider data written on every successful login.
type LoginRecord struct {
	UserID    string
	Provider  string
	Username  string
	Name      string
	AvatarURL string
	Email     string
	// Admin is only written when the provider declared a role.
	Admin *bool
	At    time.Time
}

// Patch holds optional field updates. Nil fields are left alone.
type Patch struct {
	IsAdmin              *bool
	IsBlocked            *bool
	Email                *string
	NewsletterSubscribed *bool
}

func (p Patch) set() bson.M {
	set := bson.M{}
	if p.IsAdmin != nil {
		set["is_admin"] = *p.IsAdmin
	}
	if p.IsBlocked != nil {
		set["is_blocked"] = *p.IsBlocked
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.NewsletterSubscribed != nil {
		set["newsletter_subscribed"] = *p.NewsletterSubscribed
	}
	return set
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	// UpsertLogin creates the user with defaults or refreshes its profile
	// fields. is_blocked is never written here.
	UpsertLogin(ctx context.Context, rec LoginRecord) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, p Patch) error
	Delete(ctx context.Context, userID string) error
}

// MongoUserRepository implements UserRepository on the USERS collection.
type MongoUserRepository struct {
	repo content.Repository
}

func NewMongoUserRepository(repo content.Repository) *MongoUserRepository {
	return &MongoUserRepository{repo: repo}
}

func (r *MongoUserRepository) UpsertLogin(ctx context.Context, rec LoginRecord) (*models.User, error) {
	set := bson.M{
		"provider":   rec.Provider,
		"username":   rec.Username,
		"name":       rec.Name,
		"avatar_url": rec.AvatarURL,
		"last_login": rec.At,
	}
	onInsert := bson.M{
		"user_id":               rec.UserID,
		"created_at":            rec.At,
		"is_blocked":            false,
		"newsletter_subscribed": false,
	}
	if rec.Admin != nil {
		set["is_admin"] = *rec.Admin
	} else {
		onInsert["is_admin"] = false
	}
	if rec.Email != "" {
		onInsert["email"] = rec.Email
	}

	var u models.User
	patch := bson.M{"$set": set, "$setOnInsert": onInsert}
	if err := r.repo.Upsert(ctx, models.UsersCollection, bson.M{"user_id": rec.UserID}, patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := r.repo.FindOne(ctx, models.UsersCollection, bson.M{"user_id": userID}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, userID string, p Patch) error {
	set := p.set()
	if len(set) == 0 {
		return nil
	}
	n, err := r.repo.Update(ctx, models.UsersCollection, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, userID string) error {
	n, err := r.repo.Delete(ctx, models.UsersCollection, bson.M{"user_id": userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

// MemoryRepo is an in-process UserRepository used by tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*models.User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*models.User)}
}

func (m *MemoryRepo) UpsertLogin(ctx context.Context, rec LoginRecord) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[rec.UserID]
	if !ok {
		u = &models.User{UserID: rec.UserID, CreatedAt: rec.At, Email: rec.Email}
		m.store[rec.UserID] = u
	}
	u.Provider = rec.Provider
	u.Username = rec.Username
	u.Name = rec.Name
	u.AvatarURL = rec.AvatarURL
	u.LastLogin = rec.At
	if rec.Admin != nil {
		u.IsAdmin = *rec.Admin
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepo) Get(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[userID]
	if !ok {
		return nil, content.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepo) Update(ctx context.Context, userID string, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return content.ErrNotFound
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.IsBlocked != nil {
		u.IsBlocked = *p.IsBlocked
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.NewsletterSubscribed != nil {
		u.NewsletterSubscribed = *p.NewsletterSubscribed
	}
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[userID]; !ok {
		return content.ErrNotFound
	}
	delete(m.store, userID)
	return nil
}
