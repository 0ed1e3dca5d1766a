package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisRefreshStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRefreshStore(client), mr
}

func TestRedisRefreshStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	sess := &RefreshSession{
		UserID:    "user-1",
		Roles:     []string{"admin"},
		DeviceID:  "device-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, "hash-1", sess, time.Hour))

	got, err := store.Get(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []string{"admin"}, got.Roles)
	assert.Equal(t, "device-1", got.DeviceID)
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))
}

func TestRedisRefreshStoreMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "never-saved")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisRefreshStoreTTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	sess := &RefreshSession{UserID: "user-1", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.Save(ctx, "hash-1", sess, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisRefreshStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	sess := &RefreshSession{UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, "hash-1", sess, time.Hour))
	require.NoError(t, store.Delete(ctx, "hash-1"))

	_, err := store.Get(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(ctx, "hash-1"))
}

func TestMemoryRefreshStoreLazyExpiry(t *testing.T) {
	store := NewMemoryRefreshStore()
	base := time.Now()
	store.now = func() time.Time { return base }
	ctx := context.Background()

	sess := &RefreshSession{UserID: "user-1", ExpiresAt: base.Add(time.Minute)}
	require.NoError(t, store.Save(ctx, "hash-1", sess, time.Minute))

	got, err := store.Get(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = store.Get(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}
