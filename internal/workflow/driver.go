// Package workflow runs a KYC case through its agent steps.
//
// The Driver owns one case at a time per call: it applies the data-quality
// gate, executes the enabled steps in workflow order, aggregates the results
// and assembles the final CaseResult. Run always returns exactly one result;
// internal faults and cancellation end on the fallback result.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycflow/internal/agent"
	"kycflow/internal/aggregation"
	"kycflow/internal/kyc/models"
	"kycflow/internal/result"
	"kycflow/internal/workcontext"
	"kycflow/internal/workflow/metrics"
	id "kycflow/pkg/domain"
)

// Config holds the driver tunables.
type Config struct {
	Retry RetryPolicy `mapstructure:"retry"`
	Gate  GateConfig  `mapstructure:"gate"`
}

type GateConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{MaxAttempts: 1, Backoff: 500 * time.Millisecond},
		Gate:  GateConfig{Threshold: DefaultGateThreshold},
	}
}

// Driver orchestrates cases. It is safe for concurrent use; each Run owns
// its own work context.
type Driver struct {
	executor  *Executor
	endpoints map[models.StepName]agent.Endpoint
	engine    *aggregation.Engine
	assembler *result.Assembler
	gate      QualityGate
	threshold float64
	observer  StateObserver
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Driver)

// WithQualityGate enables the data-quality pre-check.
func WithQualityGate(gate QualityGate, threshold float64) Option {
	return func(d *Driver) {
		d.gate = gate
		d.threshold = threshold
	}
}

func WithObserver(observer StateObserver) Option {
	return func(d *Driver) {
		d.observer = observer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Driver) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDriver(executor *Executor, endpoints map[models.StepName]agent.Endpoint,
	engine *aggregation.Engine, assembler *result.Assembler, opts ...Option) *Driver {
	d := &Driver{
		executor:  executor,
		endpoints: endpoints,
		engine:    engine,
		assembler: assembler,
		threshold: DefaultGateThreshold,
		logger:    slog.Default(),
		tracer:    otel.Tracer("kycflow/workflow"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes req to completion and returns its single result.
func (d *Driver) Run(ctx context.Context, req models.CaseRequest) (res *models.CaseResult) {
	started := d.now()
	caseID := req.CaseID

	ctx, span := d.tracer.Start(ctx, "case.run", trace.WithAttributes(
		attribute.String("case_id", caseID.String()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res = d.fallback(ctx, caseID, started, fmt.Errorf("orchestration panic: %v", r))
		}
		span.SetAttributes(attribute.String("recommendation", string(res.Summary.Recommendation)))
		if res.Fallback {
			span.SetStatus(codes.Error, "fallback")
		}
	}()

	d.transition(ctx, caseID, models.CaseStatePending, "")

	gateRan := false
	if d.gate != nil {
		score, err := d.gate.Score(ctx, &req)
		switch {
		case err != nil:
			d.logger.WarnContext(ctx, "data-quality gate failed, continuing",
				"case_id", caseID, "error", err)
		case score < d.threshold:
			d.metrics.IncrementGateRejection()
			d.logger.InfoContext(ctx, "case stopped by data-quality gate",
				"case_id", caseID, "score", score, "threshold", d.threshold)
			res = d.assembler.RequiresInfo(&req, started, score, d.threshold)
			d.transition(ctx, caseID, models.CaseStateAssembled, "")
			d.metrics.ObserveCase(string(res.Summary.Recommendation), d.now().Sub(started))
			return res
		default:
			gateRan = true
		}
	}

	wc := workcontext.New(req, started)
	for _, step := range req.Config.EnabledSteps() {
		if err := ctx.Err(); err != nil {
			return d.fallback(ctx, caseID, started, fmt.Errorf("case canceled: %w", err))
		}
		d.transition(ctx, caseID, models.CaseStateRunning, step)
		d.executor.Execute(ctx, wc, step, d.endpoints[step])
	}
	wc.Seal()

	d.transition(ctx, caseID, models.CaseStateAggregating, "")
	assessment := d.engine.Aggregate(wc)

	var extra []string
	if gateRan {
		extra = append(extra, result.RuleDataQualityGate)
	}
	res, err := d.assembler.Assemble(wc, assessment, extra...)
	if err != nil {
		return d.fallback(ctx, caseID, started, fmt.Errorf("assemble result: %w", err))
	}

	d.transition(ctx, caseID, models.CaseStateAssembled, "")
	d.metrics.ObserveCase(string(res.Summary.Recommendation), d.now().Sub(started))
	d.logger.InfoContext(ctx, "case assembled",
		"case_id", caseID,
		"recommendation", res.Summary.Recommendation,
		"risk_score", res.Summary.RiskScore,
		"confidence_score", res.Summary.ConfidenceScore,
		"rule", assessment.Rule,
	)
	return res
}

func (d *Driver) fallback(ctx context.Context, caseID id.CaseID, started time.Time, cause error) *models.CaseResult {
	d.logger.ErrorContext(ctx, "case ended on fallback", "case_id", caseID, "error", cause)
	d.metrics.IncrementFallback()
	d.transition(ctx, caseID, models.CaseStateErrored, "")
	res := d.assembler.Fallback(caseID, started, cause)
	d.metrics.ObserveCase(string(res.Summary.Recommendation), d.now().Sub(started))
	return res
}

// transition reports a state change. Observer errors and panics never
// affect the case.
func (d *Driver) transition(ctx context.Context, caseID id.CaseID, state models.CaseState, step models.StepName) {
	if d.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "case state observer panicked",
				"case_id", caseID, "state", state, "step", step, "panic", r)
		}
	}()
	// State is recorded even for cases whose context was canceled.
	err := d.observer.Transition(context.WithoutCancel(ctx), models.CaseStatus{
		CaseID:    caseID,
		State:     state,
		Step:      step,
		UpdatedAt: d.now(),
	})
	if err != nil {
		d.logger.WarnContext(ctx, "failed to record case state",
			"case_id", caseID, "state", state, "step", step, "error", err)
	}
}
