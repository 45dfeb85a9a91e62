package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*mr.Miniredis, *redis.Client) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, redis.NewClient(&redis.Options{Addr: m.Addr()})
}

func TestRedisRepository_SaveGetDelete(t *testing.T) {
	m, client := newTestRedis(t)
	repo := NewRedisRepository(client, "test:session:")

	ctx := context.Background()
	s := &Session{
		ID:        "s1",
		UserID:    "user-1",
		CSRFToken: "csrf",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, s, time.Hour))
	require.True(t, m.Exists("test:session:s1"))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "s1", got.ID)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "csrf", got.CSRFToken)

	require.NoError(t, repo.Delete(ctx, "s1"))
	got2, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Nil(t, got2)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	m, client := newTestRedis(t)
	repo := NewRedisRepository(client, "")

	ctx := context.Background()
	s := &Session{ID: "s2", UserID: "user-2", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Save(ctx, s, time.Second))

	// visible immediately
	got, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	require.NotNil(t, got)

	// advance miniredis clock past TTL
	m.FastForward(2 * time.Second)

	got2, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	require.Nil(t, got2)
}
