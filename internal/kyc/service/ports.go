package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/audit"
)

// CaseRunner drives one case to its single result. Implemented by
// workflow.Driver.
type CaseRunner interface {
	Run(ctx context.Context, req models.CaseRequest) *models.CaseResult
}

type ResultStore interface {
	Save(ctx context.Context, res *models.CaseResult) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.CaseResult, error)
}

type FeedbackStore interface {
	Save(ctx context.Context, fb models.Feedback) error
}

type StatusReader interface {
	Get(ctx context.Context, caseID id.CaseID) (models.CaseStatus, error)
}

type Claimer interface {
	Claim(ctx context.Context, caseID id.CaseID) error
	Release(ctx context.Context, caseID id.CaseID) error
}

// ResultFanout hands finished results to downstream publishers and reports
// how many failed. Implemented by workflow.Publishers.
type ResultFanout interface {
	Publish(ctx context.Context, res *models.CaseResult) int
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
