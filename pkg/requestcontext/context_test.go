package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "kycflow/pkg/domain"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	t.Run("unset values return zero", func(t *testing.T) {
		assert.Empty(t, RequestID(ctx))
		assert.True(t, CaseID(ctx).IsNil())
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("injected values are returned", func(t *testing.T) {
		fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		scoped := WithTime(WithCaseID(WithRequestID(ctx, "req-1"), id.CaseID("case-1")), fixed)

		assert.Equal(t, "req-1", RequestID(scoped))
		assert.Equal(t, id.CaseID("case-1"), CaseID(scoped))
		assert.Equal(t, fixed, Now(scoped))
	})
}
