// Package store persists case results and reviewer feedback.
//
// Result stores are write-once per case ID: a second Save for the same case
// returns sentinel.ErrConflict and leaves the first result untouched.
package store

import (
	"context"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

const defaultListLimit = 50

// ResultStore is implemented by the memory and postgres result stores.
type ResultStore interface {
	Save(ctx context.Context, res *models.CaseResult) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.CaseResult, error)
	ListRecent(ctx context.Context, limit int) ([]*models.CaseResult, error)
}

// FeedbackStore is implemented by the memory and pgx feedback stores.
type FeedbackStore interface {
	Save(ctx context.Context, fb models.Feedback) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]models.Feedback, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
