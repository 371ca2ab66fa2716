package claim

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/pkg/platform/sentinel"
)

func TestRedisClaimer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedisClaimer(client, time.Hour)
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		require.NoError(t, c.Claim(ctx, "case-1"))
		assert.ErrorIs(t, c.Claim(ctx, "case-1"), sentinel.ErrConflict)
		assert.Equal(t, time.Hour, mr.TTL("kyc:claim:case-1"))
	})

	t.Run("release allows a new claim", func(t *testing.T) {
		require.NoError(t, c.Release(ctx, "case-1"))
		assert.NoError(t, c.Claim(ctx, "case-1"))
	})

	t.Run("claim expires", func(t *testing.T) {
		require.NoError(t, c.Claim(ctx, "case-2"))
		mr.FastForward(2 * time.Hour)
		assert.NoError(t, c.Claim(ctx, "case-2"))
	})

	t.Run("redis down", func(t *testing.T) {
		mr.SetError("ERR server unavailable")
		defer mr.SetError("")
		assert.ErrorIs(t, c.Claim(ctx, "case-3"), sentinel.ErrUnavailable)
	})
}

func TestInMemoryClaimer(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewInMemoryClaimer(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Claim(ctx, "case-1"))
	assert.ErrorIs(t, c.Claim(ctx, "case-1"), sentinel.ErrConflict)

	now = now.Add(2 * time.Minute)
	assert.NoError(t, c.Claim(ctx, "case-1"), "expired claims can be taken again")

	require.NoError(t, c.Release(ctx, "case-1"))
	assert.NoError(t, c.Claim(ctx, "case-1"))
}
