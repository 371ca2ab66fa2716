package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kycflow/internal/agent"
	"kycflow/internal/kyc/models"
	"kycflow/internal/workcontext"
)

var (
	ErrNoBuilder  = errors.New("no request builder for step")
	ErrNoEndpoint = errors.New("no endpoint configured for step")
)

// RetryPolicy bounds driver-level retries of a failed step. MaxAttempts of
// one or less disables retrying.
type RetryPolicy struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Executor runs one step against its agent and records the outcome on the
// case context. It never fails the case: every problem becomes a StepResult.
type Executor struct {
	gateway  agent.Gateway
	builders map[models.StepName]RequestBuilder
	retry    RetryPolicy
	logger   *slog.Logger
	now      func() time.Time
}

type ExecutorOption func(*Executor)

func WithBuilders(builders map[models.StepName]RequestBuilder) ExecutorOption {
	return func(e *Executor) {
		if builders != nil {
			e.builders = builders
		}
	}
}

func WithRetry(p RetryPolicy) ExecutorOption {
	return func(e *Executor) {
		e.retry = p
	}
}

func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExecutor(gateway agent.Gateway, opts ...ExecutorOption) *Executor {
	e := &Executor{
		gateway:  gateway,
		builders: DefaultBuilders(),
		retry:    RetryPolicy{MaxAttempts: 1},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// stepDetails is the audit snapshot of one execution.
type stepDetails struct {
	Request  any    `json:"request,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// Execute runs step and records exactly one StepResult and one audit entry.
// A step already recorded on wc is rejected without touching wc.
func (e *Executor) Execute(ctx context.Context, wc *workcontext.Context, step models.StepName, endpoint agent.Endpoint) {
	if wc.Has(step) {
		e.logger.WarnContext(ctx, "step already executed",
			"case_id", wc.Request().CaseID, "step", step)
		return
	}

	started := e.now()
	var (
		req      any
		outcome  agent.Outcome
		attempts int
	)
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "step panicked",
				"case_id", wc.Request().CaseID, "step", step, "panic", r)
			e.record(ctx, wc, step, endpoint, started, req, attempts,
				agent.Failed(fmt.Errorf("step panicked: %v", r), e.now().Sub(started)))
		}
	}()

	req, err := e.build(wc, step)
	if err == nil && endpoint.URL == "" {
		err = fmt.Errorf("%s: %w", step, ErrNoEndpoint)
	}
	if err != nil {
		e.record(ctx, wc, step, endpoint, started, req, 0, agent.Failed(err, 0))
		return
	}

	outcome, attempts = e.call(ctx, endpoint, req)
	e.record(ctx, wc, step, endpoint, started, req, attempts, outcome)
}

func (e *Executor) build(wc *workcontext.Context, step models.StepName) (any, error) {
	b, ok := e.builders[step]
	if !ok {
		return nil, fmt.Errorf("%s: %w", step, ErrNoBuilder)
	}
	upstream := make(Upstream, len(b.Dependencies()))
	for _, dep := range b.Dependencies() {
		if r, ok := wc.Result(dep); ok {
			upstream[dep] = r
		}
	}
	req, err := b.Build(wc.Request(), upstream)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", step, err)
	}
	return req, nil
}

// call applies the retry policy. Only the last outcome is kept.
func (e *Executor) call(ctx context.Context, endpoint agent.Endpoint, req any) (agent.Outcome, int) {
	limit := e.retry.attempts()
	var out agent.Outcome
	for attempt := 1; ; attempt++ {
		out = e.gateway.Call(ctx, endpoint, req)
		if out.Kind == agent.KindCompleted || attempt >= limit || !out.Retryable() {
			return out, attempt
		}
		e.logger.InfoContext(ctx, "retrying agent call",
			"agent", endpoint.Name, "attempt", attempt, "outcome", out.Kind.String())
		if !sleep(ctx, time.Duration(attempt)*e.retry.Backoff) {
			return out, attempt
		}
	}
}

func (e *Executor) record(ctx context.Context, wc *workcontext.Context, step models.StepName, endpoint agent.Endpoint,
	started time.Time, req any, attempts int, outcome agent.Outcome) {
	ended := e.now()
	result := toStepResult(step, outcome)

	details := stepDetails{Request: req, Error: result.Error, Attempts: attempts}
	raw, err := json.Marshal(details)
	if err != nil {
		raw, _ = json.Marshal(stepDetails{Error: result.Error, Attempts: attempts})
	}

	if err := wc.Record(result); err != nil {
		e.logger.ErrorContext(ctx, "failed to record step result",
			"case_id", wc.Request().CaseID, "step", step, "error", err)
		return
	}
	if err := wc.Append(models.ProcessingStep{
		Step:      string(step),
		Agent:     agentName(endpoint, outcome, step),
		StartedAt: started,
		EndedAt:   ended,
		Status:    string(result.Status),
		Details:   raw,
	}); err != nil {
		e.logger.ErrorContext(ctx, "failed to append audit entry",
			"case_id", wc.Request().CaseID, "step", step, "error", err)
	}

	if result.Status.Failed() {
		e.logger.WarnContext(ctx, "step failed",
			"case_id", wc.Request().CaseID, "step", step, "status", result.Status,
			"category", agent.GetCategory(outcome.Err), "error", result.Error)
	}
}

// toStepResult maps a gateway outcome onto a step status.
func toStepResult(step models.StepName, out agent.Outcome) models.StepResult {
	r := models.StepResult{Step: step, ElapsedMs: out.Elapsed.Milliseconds()}
	switch out.Kind {
	case agent.KindCompleted:
		r.Status = models.StepStatusSuccess
		if out.Response != nil {
			if strings.EqualFold(strings.TrimSpace(out.Response.Status), string(models.StepStatusWarning)) {
				r.Status = models.StepStatusWarning
			}
			r.Data = out.Response.Data
			r.Version = out.Response.Version
		}
	case agent.KindTimedOut:
		r.Status = models.StepStatusTimeout
		r.Error = errText(out.Err, "agent call timed out")
	default:
		r.Status = models.StepStatusError
		r.Error = errText(out.Err, "agent call failed")
	}
	return r
}

func agentName(endpoint agent.Endpoint, out agent.Outcome, step models.StepName) string {
	if out.Response != nil && out.Response.AgentName != "" {
		return out.Response.AgentName
	}
	if endpoint.Name != "" {
		return endpoint.Name
	}
	return string(step)
}

func errText(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}

// sleep waits for d or until ctx is done. It reports whether ctx is still alive.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
