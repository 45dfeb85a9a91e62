package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServiceSaveLoadSliding(t *testing.T) {
	m, client := newTestRedis(t)
	svc := NewService(NewRedisRepository(client, ""), NewRevocations(client, time.Hour), time.Hour)
	ctx := context.Background()

	sess, err := svc.New()
	require.NoError(t, err)
	require.Len(t, sess.ID, 64)
	require.False(t, sess.Authenticated())

	_, err = svc.NewCSRFToken(sess)
	require.NoError(t, err)
	require.NoError(t, svc.Save(ctx, sess))

	m.FastForward(50 * time.Minute)
	loaded, err := svc.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, sess.CSRFToken, loaded.CSRFToken)

	// saving again slides the expiry
	require.NoError(t, svc.Save(ctx, loaded))
	m.FastForward(50 * time.Minute)
	again, err := svc.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestServiceRegenerateDropsOldID(t *testing.T) {
	_, client := newTestRedis(t)
	svc := NewService(NewRedisRepository(client, ""), nil, time.Hour)
	ctx := context.Background()

	sess, _ := svc.New()
	require.NoError(t, svc.Save(ctx, sess))
	oldID := sess.ID

	require.NoError(t, svc.Regenerate(ctx, sess))
	require.NotEqual(t, oldID, sess.ID)

	old, err := svc.Load(ctx, oldID)
	require.NoError(t, err)
	require.Nil(t, old)
}

func TestServiceRevokeUser(t *testing.T) {
	_, client := newTestRedis(t)
	svc := NewService(NewRedisRepository(client, ""), NewRevocations(client, time.Hour), time.Hour)
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base }

	sess, _ := svc.New()
	sess.UserID = "user-9"
	require.NoError(t, svc.Save(ctx, sess))

	svc.now = func() time.Time { return base.Add(time.Second) }
	require.NoError(t, svc.RevokeUser(ctx, "user-9"))

	got, err := svc.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.Nil(t, got, "revoked session must not load")

	// a session created after the revocation is valid
	svc.now = func() time.Time { return base.Add(2 * time.Second) }
	fresh, _ := svc.New()
	fresh.UserID = "user-9"
	require.NoError(t, svc.Save(ctx, fresh))
	got, err = svc.Load(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestDestroyClearsUser(t *testing.T) {
	_, client := newTestRedis(t)
	svc := NewService(NewRedisRepository(client, ""), nil, time.Hour)
	ctx := context.Background()

	sess, _ := svc.New()
	sess.UserID = "u1"
	sess.IsAdmin = true
	require.NoError(t, svc.Save(ctx, sess))
	require.NoError(t, svc.Destroy(ctx, sess))

	require.False(t, sess.Authenticated())
	require.False(t, sess.Admin())
	got, _ := svc.Load(ctx, sess.ID)
	require.Nil(t, got)
}

func TestSessionRoleChecksRequireAuthentication(t *testing.T) {
	anon := &Session{IsAdmin: true}
	require.False(t, anon.Admin())
	require.False(t, anon.CanModerate(""))

	owner := &Session{UserID: "u1"}
	require.True(t, owner.CanModerate("u1"))
	require.False(t, owner.CanModerate("u2"))

	admin := &Session{UserID: "a", IsAdmin: true}
	require.True(t, admin.CanModerate("u2"))

	var nilSess *Session
	require.False(t, nilSess.Authenticated())
}

func TestCookieCodec(t *testing.T) {
	codec := NewCookieCodec("testsecret123456789012345678901234", time.Hour)
	v, err := codec.Encode("abc")
	require.NoError(t, err)

	id, err := codec.Decode(v)
	require.NoError(t, err)
	require.Equal(t, "abc", id)

	_, err = codec.Decode(v + "x")
	require.Error(t, err)

	other := NewCookieCodec("another-secret-0123456789abcdefghij", time.Hour)
	_, err = other.Decode(v)
	require.Error(t, err)
}
