package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	list := NewMemoryRevocationList()
	list.now = func() time.Time { return now }

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	t.Run("entries expire with the token", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		revoked, err := list.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
		assert.Empty(t, list.expires)
	})

	t.Run("already expired tokens are ignored", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-3", 0))
		assert.Empty(t, list.expires)
	})
}
