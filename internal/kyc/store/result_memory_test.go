package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

func TestInMemoryResultStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s := NewInMemoryResultStore()

	for i, caseID := range []id.CaseID{"case-a", "case-b", "case-c"} {
		require.NoError(t, s.Save(ctx, &models.CaseResult{CaseID: caseID, CompletedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	t.Run("find", func(t *testing.T) {
		res, err := s.FindByID(ctx, "case-b")
		require.NoError(t, err)
		assert.Equal(t, "case-b", res.CaseID.String())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save is write-once", func(t *testing.T) {
		err := s.Save(ctx, &models.CaseResult{CaseID: "case-a", Fallback: true})
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		res, err := s.FindByID(ctx, "case-a")
		require.NoError(t, err)
		assert.False(t, res.Fallback)
	})

	t.Run("recent first", func(t *testing.T) {
		out, err := s.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "case-c", out[0].CaseID.String())
		assert.Equal(t, "case-b", out[1].CaseID.String())
	})
}

func TestInMemoryFeedbackStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryFeedbackStore()

	require.NoError(t, s.Save(ctx, models.Feedback{CaseID: "case-a", Reviewer: "r1", Agrees: true}))
	require.NoError(t, s.Save(ctx, models.Feedback{CaseID: "case-a", Reviewer: "r2"}))

	got, err := s.ListByCase(ctx, "case-a")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := s.ListByCase(ctx, "case-b")
	require.NoError(t, err)
	assert.Empty(t, none)
}
