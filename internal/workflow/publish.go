package workflow

import (
	"context"
	"log/slog"

	"kycflow/internal/kyc/models"
	"kycflow/internal/workflow/metrics"
)

// Publishers fans a result out to every publisher. A failing publisher is
// logged and counted; it never affects the result or the other publishers.
type Publishers struct {
	publishers []ResultPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewPublishers(logger *slog.Logger, m *metrics.Metrics, publishers ...ResultPublisher) *Publishers {
	if logger == nil {
		logger = slog.Default()
	}
	out := &Publishers{logger: logger, metrics: m}
	for _, p := range publishers {
		if p != nil {
			out.publishers = append(out.publishers, p)
		}
	}
	return out
}

// Add registers another publisher.
func (p *Publishers) Add(pub ResultPublisher) {
	if pub != nil {
		p.publishers = append(p.publishers, pub)
	}
}

func (p *Publishers) Len() int { return len(p.publishers) }

// Publish returns the number of publishers that failed.
func (p *Publishers) Publish(ctx context.Context, res *models.CaseResult) int {
	if p == nil {
		return 0
	}
	failed := 0
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, res); err != nil {
			failed++
			p.metrics.IncrementPublishFailure(pub.Name())
			p.logger.ErrorContext(ctx, "failed to publish case result",
				"case_id", res.CaseID, "publisher", pub.Name(), "error", err)
		}
	}
	return failed
}
