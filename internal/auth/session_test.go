package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestStore_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Hour)
	fixed := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return fixed }

	id, err := store.Create(ctx, 42)
	require.NoError(t, err)
	require.Len(t, id, 32)
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+id))

	sess, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Session{ID: id, UserID: 42, CreatedAt: fixed.Unix(), ExpiresAt: fixed.Add(time.Hour).Unix()}, sess)
	assert.Equal(t, fixed.Add(time.Hour), sess.Expires())

	require.NoError(t, store.Delete(ctx, id))
	_, ok, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Minute)

	id, err := store.Create(ctx, 1)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RejectsInvalidUser(t *testing.T) {
	store, _ := newTestStore(t, 0)
	assert.Equal(t, sessionTTL, store.TTL())
	_, err := store.Create(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestStore_GetUnknownAndEmpty(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	_, ok, err := store.Get(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	mr.Close()
	_, ok, err := store.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCookieAccessor(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	acc := NewCookieAccessor(store)
	id, err := store.Create(context.Background(), 7)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok, err := acc.GetSession(r)
	require.NoError(t, err)
	assert.False(t, ok, "no cookie")

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
	sess, ok, err := acc.GetSession(r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), sess.UserID)

	stale := httptest.NewRequest(http.MethodGet, "/", nil)
	stale.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})
	_, ok, err = acc.GetSession(stale)
	require.NoError(t, err)
	assert.False(t, ok)
}
