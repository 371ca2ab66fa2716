// Package workcontext holds the mutable state of one in-flight case.
//
// A Context is owned by exactly one goroutine from the start of orchestration
// until it is sealed for aggregation. It is never shared between cases and is
// dropped once the case result is emitted, so it carries no locks.
package workcontext

import (
	"errors"
	"fmt"
	"time"

	"kycflow/internal/kyc/models"
)

var (
	// ErrDuplicateStep is returned when a step result is recorded twice.
	ErrDuplicateStep = errors.New("step already recorded")
	// ErrSealed is returned when mutating a context handed to aggregation.
	ErrSealed = errors.New("context sealed")
)

// View is the read-only surface used by aggregation and assembly.
type View interface {
	Request() *models.CaseRequest
	StartedAt() time.Time
	Result(step models.StepName) (models.StepResult, bool)
	Results() []models.StepResult
	AuditTrail() []models.ProcessingStep
}

// Context accumulates step results and audit records for one case.
type Context struct {
	request   models.CaseRequest
	startedAt time.Time
	order     []models.StepName
	results   map[models.StepName]models.StepResult
	audit     []models.ProcessingStep
	sealed    bool
}

// New starts a context for req at startedAt.
func New(req models.CaseRequest, startedAt time.Time) *Context {
	return &Context{
		request:   req,
		startedAt: startedAt,
		results:   make(map[models.StepName]models.StepResult),
	}
}

// Request returns the originating request. Callers must treat it as read-only.
func (c *Context) Request() *models.CaseRequest { return &c.request }

func (c *Context) StartedAt() time.Time { return c.startedAt }

// Elapsed is the time since orchestration started.
func (c *Context) Elapsed(now time.Time) time.Duration { return now.Sub(c.startedAt) }

// Record stores a step result. A step is recorded at most once.
func (c *Context) Record(result models.StepResult) error {
	if c.sealed {
		return ErrSealed
	}
	if _, ok := c.results[result.Step]; ok {
		return fmt.Errorf("%s: %w", result.Step, ErrDuplicateStep)
	}
	c.results[result.Step] = result
	c.order = append(c.order, result.Step)
	return nil
}

// Append adds an audit record.
func (c *Context) Append(step models.ProcessingStep) error {
	if c.sealed {
		return ErrSealed
	}
	c.audit = append(c.audit, step)
	return nil
}

// Has reports whether step has a recorded result.
func (c *Context) Has(step models.StepName) bool {
	_, ok := c.results[step]
	return ok
}

func (c *Context) Result(step models.StepName) (models.StepResult, bool) {
	r, ok := c.results[step]
	return r, ok
}

// Results returns recorded results in execution order.
func (c *Context) Results() []models.StepResult {
	out := make([]models.StepResult, 0, len(c.order))
	for _, step := range c.order {
		out = append(out, c.results[step])
	}
	return out
}

// AuditTrail returns a copy of the audit records in append order.
func (c *Context) AuditTrail() []models.ProcessingStep {
	out := make([]models.ProcessingStep, len(c.audit))
	copy(out, c.audit)
	return out
}

// Seal freezes the context. Reads keep working; Record and Append fail.
func (c *Context) Seal() { c.sealed = true }

func (c *Context) Sealed() bool { return c.sealed }
