package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	t.Run("Set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "user:1", profile{ID: "1", Username: "alice"}, time.Minute))

		var got profile
		require.NoError(t, c.Get(ctx, "user:1", &got))
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("Miss", func(t *testing.T) {
		var got profile
		err := c.Get(ctx, "user:unknown", &got)
		assert.True(t, errors.Is(err, ErrCacheMiss))
	})

	t.Run("Expired entry is a miss", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "user:2", profile{ID: "2"}, time.Nanosecond))
		time.Sleep(time.Millisecond)

		var got profile
		assert.ErrorIs(t, c.Get(ctx, "user:2", &got), ErrCacheMiss)
	})

	t.Run("Invalidate pattern", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "tag:1", "go", 0))
		require.NoError(t, c.Set(ctx, "tag:2", "rust", 0))
		require.NoError(t, c.Set(ctx, "user:3", profile{ID: "3"}, 0))

		require.NoError(t, c.InvalidatePattern(ctx, "tag:*"))

		var s string
		assert.ErrorIs(t, c.Get(ctx, "tag:1", &s), ErrCacheMiss)
		var p profile
		assert.NoError(t, c.Get(ctx, "user:3", &p))
	})
}
