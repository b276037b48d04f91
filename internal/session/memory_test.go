package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	sess, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, store.Delete(ctx, sess.Token))
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	short, err := store.Create(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)
	long, err := store.Create(ctx, uuid.New(), time.Hour)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Purge())

	_, err = store.Get(ctx, short.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, long.Token)
	assert.NoError(t, err)
}

func TestMemoryStoreTouchExtends(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sess, err := store.Create(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	require.NoError(t, store.Touch(ctx, sess.Token, time.Minute))
	now = now.Add(50 * time.Second)
	_, err = store.Get(ctx, sess.Token)
	assert.NoError(t, err)

	assert.ErrorIs(t, store.Touch(ctx, "missing", time.Minute), ErrNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := newToken()
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
