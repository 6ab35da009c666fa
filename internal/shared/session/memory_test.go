package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"music-catalog/internal/shared/model"
)

func TestNewTokenIsOpaqueAndUnique(t *testing.T) {
	a := NewToken()
	b := NewToken()
	assert.Len(t, a, 32)
	assert.Len(t, b, 32)
	assert.NotEqual(t, a, b)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess := &Session{
		Token:            NewToken(),
		UserID:           42,
		Username:         "alice",
		SubscriptionType: model.SubscriptionFree,
		CreatedAt:        time.Now(),
		ExpiresAt:        time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Create(ctx, sess))

	got, err := s.Get(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "alice", got.Username)

	// 未知令牌不是错误
	got, err = s.Get(ctx, "deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Delete(ctx, sess.Token))
	got, err = s.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess := &Session{
		Token:     NewToken(),
		UserID:    1,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.Create(ctx, sess))

	got, err := s.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "expired session must behave as absent")
}
