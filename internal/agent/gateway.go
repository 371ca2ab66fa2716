// Package agent calls the remote analysis agents.
//
// Every agent exposes POST /process, which takes a step-specific JSON payload
// and returns the Response envelope, and GET /health. The Gateway bounds each
// call with a timeout and never returns an error: failures come back as an
// Outcome so the workflow can keep going.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycflow/internal/agent/metrics"
	"kycflow/pkg/platform/circuit"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks

const (
	ProcessPath = "/process"
	HealthPath  = "/health"

	// DefaultTimeout bounds a single agent call.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 << 20
	errorSnippetLen  = 256
)

// Endpoint addresses one agent.
type Endpoint struct {
	Name    string
	URL     string
	Timeout time.Duration
}

// Gateway calls one agent and classifies the result.
type Gateway interface {
	Call(ctx context.Context, endpoint Endpoint, payload any) Outcome
	Health(ctx context.Context, endpoint Endpoint) error
}

// HTTPGateway implements Gateway over HTTP+JSON with one circuit breaker per agent.
type HTTPGateway struct {
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	breakers bool
	opts     []circuit.Option

	mu       sync.Mutex
	circuits map[string]*circuit.Breaker
}

type Option func(*HTTPGateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithTimeout sets the per-call timeout used when an endpoint has none.
func WithTimeout(d time.Duration) Option {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *HTTPGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *HTTPGateway) {
		g.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *HTTPGateway) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// WithCircuitBreaker enables a breaker per agent name.
func WithCircuitBreaker(opts ...circuit.Option) Option {
	return func(g *HTTPGateway) {
		g.breakers = true
		g.opts = opts
	}
}

func NewHTTPGateway(opts ...Option) *HTTPGateway {
	g := &HTTPGateway{
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		tracer:   otel.Tracer("kycflow/agent"),
		circuits: make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Call posts payload to the agent's /process endpoint.
func (g *HTTPGateway) Call(ctx context.Context, endpoint Endpoint, payload any) (out Outcome) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "agent.call", trace.WithAttributes(
		attribute.String("agent.name", endpoint.Name),
		attribute.String("agent.url", endpoint.URL),
	))
	defer func() {
		span.SetAttributes(attribute.String("agent.outcome", out.Kind.String()))
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, string(GetCategory(out.Err)))
		}
		span.End()
		g.metrics.ObserveCall(endpoint.Name, out.Kind.String(), out.Elapsed)
		g.logger.DebugContext(ctx, "agent call finished",
			"agent", endpoint.Name,
			"outcome", out.Kind.String(),
			"elapsed_ms", out.Elapsed.Milliseconds(),
		)
	}()

	breaker := g.breaker(endpoint.Name)
	if breaker != nil && !breaker.Allow() {
		return Failed(NewError(CategoryCircuitOpen, endpoint.Name, "circuit open", nil), time.Since(start))
	}

	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.post(callCtx, endpoint, payload)
	elapsed := time.Since(start)
	if err == nil {
		g.recordSuccess(ctx, breaker)
		return Completed(resp, elapsed)
	}

	switch {
	case ctx.Err() != nil:
		// Caller gave up; not the agent's fault.
		return Failed(NewError(CategoryCanceled, endpoint.Name, "call canceled", ctx.Err()), elapsed)
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		g.recordFailure(ctx, breaker)
		return TimedOut(NewError(CategoryTimeout, endpoint.Name, fmt.Sprintf("no response within %s", timeout), callCtx.Err()), elapsed)
	case GetCategory(err) == CategoryAgentError:
		// The agent is reachable and answered; only its verdict failed.
		g.recordSuccess(ctx, breaker)
		return Failed(err, elapsed)
	default:
		g.recordFailure(ctx, breaker)
		return Failed(err, elapsed)
	}
}

func (g *HTTPGateway) post(ctx context.Context, endpoint Endpoint, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(CategoryInternal, endpoint.Name, "encode payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(endpoint.URL, ProcessPath), bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CategoryInternal, endpoint.Name, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, NewError(CategoryNetwork, endpoint.Name, "request failed", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorSnippetLen))
		return nil, newStatusError(endpoint.Name, httpResp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var resp Response
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseBytes)).Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return nil, NewError(CategoryNetwork, endpoint.Name, "read response", ctx.Err())
		}
		return nil, NewError(CategoryBadResponse, endpoint.Name, "decode response", err)
	}
	if strings.EqualFold(resp.Status, "error") {
		msg := resp.Error
		if msg == "" {
			msg = "agent reported error"
		}
		return nil, NewError(CategoryAgentError, endpoint.Name, msg, nil)
	}
	if resp.AgentName == "" {
		resp.AgentName = endpoint.Name
	}
	return &resp, nil
}

// Health probes the agent's /health endpoint.
func (g *HTTPGateway) Health(ctx context.Context, endpoint Endpoint) error {
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(endpoint.URL, HealthPath), nil)
	if err != nil {
		return NewError(CategoryInternal, endpoint.Name, "build health request", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return NewError(CategoryTimeout, endpoint.Name, "health check timed out", err)
		}
		return NewError(CategoryNetwork, endpoint.Name, "health check failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorSnippetLen))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(endpoint.Name, resp.StatusCode, "health check")
	}
	return nil
}

// BreakerState reports the breaker position for an agent, or closed when
// breakers are disabled.
func (g *HTTPGateway) BreakerState(agent string) circuit.State {
	if b := g.breaker(agent); b != nil {
		return b.State()
	}
	return circuit.StateClosed
}

func (g *HTTPGateway) breaker(agent string) *circuit.Breaker {
	if !g.breakers {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.circuits[agent]
	if !ok {
		b = circuit.New(agent, g.opts...)
		g.circuits[agent] = b
	}
	return b
}

func (g *HTTPGateway) recordFailure(ctx context.Context, b *circuit.Breaker) {
	if b == nil {
		return
	}
	if _, change := b.RecordFailure(); change.Opened {
		g.logger.WarnContext(ctx, "agent circuit opened", "agent", b.Name())
		g.metrics.IncrementCircuitOpened(b.Name())
	}
}

func (g *HTTPGateway) recordSuccess(ctx context.Context, b *circuit.Breaker) {
	if b == nil {
		return
	}
	if _, change := b.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "agent circuit closed", "agent", b.Name())
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
