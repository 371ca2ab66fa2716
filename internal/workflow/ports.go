package workflow

import (
	"context"

	"kycflow/internal/kyc/models"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// QualityGate scores a request's data quality in [0, 1] before any step runs.
type QualityGate interface {
	Score(ctx context.Context, req *models.CaseRequest) (float64, error)
}

// StateObserver receives every lifecycle transition of a case.
type StateObserver interface {
	Transition(ctx context.Context, status models.CaseStatus) error
}

// ResultPublisher hands a finished result to a downstream consumer.
type ResultPublisher interface {
	Name() string
	Publish(ctx context.Context, res *models.CaseResult) error
}
