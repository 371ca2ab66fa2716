// Package service is the entry point for case processing. It owns request
// validation, duplicate suppression, persistence, publication and the
// compliance audit trail around each workflow run.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/audit"
	"kycflow/pkg/platform/sentinel"
	txcontext "kycflow/pkg/platform/tx"
	"kycflow/pkg/requestcontext"
)

const DefaultConcurrency = 8

var errShuttingDown = dErrors.Wrap(sentinel.ErrClosed, dErrors.CodeUnavailable, "service is shutting down")

// Service processes cases synchronously, asynchronously and in batches.
type Service struct {
	runner   CaseRunner
	results  ResultStore
	statuses StatusReader
	claimer  Claimer

	feedback       FeedbackStore
	publishers     ResultFanout
	auditPublisher AuditPublisher
	tx             TxRunner
	logger         *slog.Logger
	concurrency    int

	mu     sync.Mutex
	closed bool
	pool   *errgroup.Group
	base   context.Context
	cancel context.CancelFunc
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithPublishers(publishers ResultFanout) Option {
	return func(s *Service) {
		s.publishers = publishers
	}
}

func WithFeedbackStore(store FeedbackStore) Option {
	return func(s *Service) {
		s.feedback = store
	}
}

// WithTxRunner makes the result save and its audit event one unit of work.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithConcurrency bounds the cases in flight for Submit and ProcessBatch.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New constructs a Service.
func New(runner CaseRunner, results ResultStore, statuses StatusReader, claimer Claimer, opts ...Option) *Service {
	s := &Service{
		runner:      runner,
		results:     results,
		statuses:    statuses,
		claimer:     claimer,
		tx:          txcontext.NoopRunner{},
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	s.pool = &errgroup.Group{}
	s.pool.SetLimit(s.concurrency)
	return s
}

// Process runs one case to completion and returns its stored result.
func (s *Service) Process(ctx context.Context, req models.CaseRequest) (*models.CaseResult, error) {
	if err := s.admit(ctx, &req); err != nil {
		return nil, err
	}
	return s.run(ctx, req)
}

// Submit claims the case and queues it on the worker pool. The case keeps
// running after ctx ends; only Shutdown cancels it.
func (s *Service) Submit(ctx context.Context, req models.CaseRequest) (id.CaseID, error) {
	if s.isClosed() {
		return "", errShuttingDown
	}
	if err := s.admit(ctx, &req); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.release(ctx, req.CaseID)
		return "", errShuttingDown
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	started := s.pool.TryGo(func() error {
		defer cancel()
		stop := context.AfterFunc(s.base, cancel)
		defer stop()
		if _, err := s.run(runCtx, req); err != nil {
			s.logger.ErrorContext(runCtx, "submitted case failed", "case_id", req.CaseID, "error", err)
		}
		return nil
	})
	if !started {
		cancel()
		s.release(ctx, req.CaseID)
		return "", dErrors.New(dErrors.CodeUnavailable, "case queue is full, retry later")
	}
	return req.CaseID, nil
}

// BatchItem is the outcome of one request in a batch.
type BatchItem struct {
	CaseID id.CaseID
	Result *models.CaseResult
	Err    error
}

// ProcessBatch runs reqs concurrently and reports each outcome in input
// order. One failing case never stops the others.
func (s *Service) ProcessBatch(ctx context.Context, reqs []models.CaseRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Process(ctx, req)
			items[i] = BatchItem{CaseID: req.CaseID, Result: res, Err: err}
			if res != nil {
				items[i].CaseID = res.CaseID
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// Result returns the stored result for caseID.
func (s *Service) Result(ctx context.Context, caseID id.CaseID) (*models.CaseResult, error) {
	res, err := s.results.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case result not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case result")
	}
	return res, nil
}

// Status returns the tracked lifecycle state. Once the tracker has expired
// a case, a stored result still reports it as assembled.
func (s *Service) Status(ctx context.Context, caseID id.CaseID) (models.CaseStatus, error) {
	st, err := s.statuses.Get(ctx, caseID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return models.CaseStatus{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case status")
	}
	res, ferr := s.results.FindByID(ctx, caseID)
	if ferr != nil {
		return models.CaseStatus{}, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	state := models.CaseStateAssembled
	if res.Fallback {
		state = models.CaseStateErrored
	}
	return models.CaseStatus{CaseID: caseID, State: state, UpdatedAt: res.CompletedAt}, nil
}

// RecordFeedback stores a reviewer verdict on a processed case.
func (s *Service) RecordFeedback(ctx context.Context, fb models.Feedback) error {
	if s.feedback == nil {
		return dErrors.New(dErrors.CodeUnavailable, "feedback is not enabled")
	}
	if fb.CaseID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "case_id is required")
	}
	if fb.Reviewer == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}
	if !fb.Decision.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "decision must be a known recommendation")
	}
	if fb.ReceivedAt.IsZero() {
		fb.ReceivedAt = requestcontext.Now(ctx)
	}
	if err := s.feedback.Save(ctx, fb); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store feedback")
	}
	s.emit(ctx, audit.Event{
		CaseID:   fb.CaseID,
		Action:   string(audit.EventFeedbackReceived),
		Decision: string(fb.Decision),
		Reason:   fb.Notes,
		ActorID:  fb.Reviewer,
	})
	return nil
}

// Shutdown stops accepting submissions and waits for queued cases. When
// ctx ends first, in-flight cases are canceled; they still finish through
// the fallback path and are persisted before Shutdown returns.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = s.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// admit validates and claims the request, assigning a case ID when the
// caller did not supply one.
func (s *Service) admit(ctx context.Context, req *models.CaseRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if req.CaseID.IsNil() {
		req.CaseID = id.NewCaseID()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = requestcontext.Now(ctx)
	}

	if err := s.claimer.Claim(ctx, req.CaseID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.emit(ctx, audit.Event{CaseID: req.CaseID, Action: string(audit.EventCaseDuplicate)})
			return dErrors.New(dErrors.CodeConflict, "case was already submitted")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to claim case")
	}
	s.emit(ctx, audit.Event{CaseID: req.CaseID, Action: string(audit.EventCaseSubmitted)})
	return nil
}

func (s *Service) run(ctx context.Context, req models.CaseRequest) (*models.CaseResult, error) {
	ctx = requestcontext.WithCaseID(ctx, req.CaseID)
	res := s.runner.Run(ctx, req)

	// Persist even when the caller went away mid-case.
	persistCtx := context.WithoutCancel(ctx)
	err := s.tx.RunInTx(persistCtx, func(txCtx context.Context) error {
		if err := s.results.Save(txCtx, res); err != nil {
			return err
		}
		return s.emitErr(txCtx, outcomeEvent(res))
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "case result already stored")
		}
		s.release(persistCtx, req.CaseID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store case result")
	}

	if s.publishers != nil {
		s.publishers.Publish(persistCtx, res)
	}
	s.logger.InfoContext(ctx, "case processed",
		"case_id", res.CaseID,
		"recommendation", res.Summary.Recommendation,
		"risk_score", res.Summary.RiskScore,
		"fallback", res.Fallback,
	)
	return res, nil
}

func outcomeEvent(res *models.CaseResult) audit.Event {
	event := audit.Event{
		CaseID:   res.CaseID,
		Action:   string(audit.EventCaseCompleted),
		Decision: string(res.Summary.Recommendation),
	}
	switch {
	case res.Fallback:
		event.Action = string(audit.EventCaseFallback)
		if len(res.QA.Exceptions) > 0 {
			event.Reason = res.QA.Exceptions[0]
		}
	case res.Summary.Recommendation == models.RecommendationRequiresInfo:
		event.Action = string(audit.EventCaseGateRejected)
		if len(res.Insights.ProcessImprovements) > 0 {
			event.Reason = res.Insights.ProcessImprovements[0]
		}
	}
	return event
}

func (s *Service) release(ctx context.Context, caseID id.CaseID) {
	if err := s.claimer.Release(ctx, caseID); err != nil {
		s.logger.WarnContext(ctx, "failed to release case claim", "case_id", caseID, "error", err)
	}
}

// emit records an audit event; failures are logged and swallowed.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.emitErr(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action, "case_id", event.CaseID, "error", err)
	}
}

func (s *Service) emitErr(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	return s.auditPublisher.Emit(ctx, event)
}

// Concurrency reports the worker pool size.
func (s *Service) Concurrency() int { return s.concurrency }
