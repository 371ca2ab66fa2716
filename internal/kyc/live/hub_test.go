package live

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/kyc/models"
)

func TestHub(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to every subscriber", func(t *testing.T) {
		h := NewHub()
		_, a := h.Subscribe()
		_, b := h.Subscribe()

		require.NoError(t, h.Publish(ctx, &models.CaseResult{CaseID: "case-1"}))

		assert.Equal(t, "case-1", (<-a).CaseID.String())
		assert.Equal(t, "case-1", (<-b).CaseID.String())
	})

	t.Run("slow subscribers drop results", func(t *testing.T) {
		h := NewHub(WithBuffer(1))
		_, ch := h.Subscribe()

		require.NoError(t, h.Publish(ctx, &models.CaseResult{CaseID: "case-1"}))
		require.NoError(t, h.Publish(ctx, &models.CaseResult{CaseID: "case-2"}))

		assert.Equal(t, "case-1", (<-ch).CaseID.String())
		assert.Equal(t, uint64(1), h.Dropped())
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		h := NewHub()
		subID, ch := h.Subscribe()
		h.Unsubscribe(subID)
		h.Unsubscribe(subID)

		_, open := <-ch
		assert.False(t, open)
		assert.Zero(t, h.Subscribers())
	})

	t.Run("close ends all subscriptions", func(t *testing.T) {
		h := NewHub()
		_, ch := h.Subscribe()
		h.Close()

		_, open := <-ch
		assert.False(t, open)

		_, late := h.Subscribe()
		_, open = <-late
		assert.False(t, open)
	})
}
