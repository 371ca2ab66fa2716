// Package handler exposes the case API over HTTP.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kycflow/internal/agent"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/requestcontext"
)

const defaultKeepAlive = 15 * time.Second

// CaseService is implemented by service.Service.
type CaseService interface {
	Process(ctx context.Context, req models.CaseRequest) (*models.CaseResult, error)
	Submit(ctx context.Context, req models.CaseRequest) (id.CaseID, error)
	Result(ctx context.Context, caseID id.CaseID) (*models.CaseResult, error)
	Status(ctx context.Context, caseID id.CaseID) (models.CaseStatus, error)
}

// ResultStream is implemented by live.Hub.
type ResultStream interface {
	Subscribe() (uint64, <-chan *models.CaseResult)
	Unsubscribe(subID uint64)
}

// AgentHealth probes the configured agents.
type AgentHealth interface {
	CheckAgents(ctx context.Context) []agent.HealthStatus
}

// Handler wires case endpoints to the case service.
type Handler struct {
	service   CaseService
	stream    ResultStream
	health    AgentHealth
	logger    *slog.Logger
	keepAlive time.Duration
}

type Option func(*Handler)

func WithResultStream(stream ResultStream) Option {
	return func(h *Handler) {
		h.stream = stream
	}
}

func WithAgentHealth(health AgentHealth) Option {
	return func(h *Handler) {
		h.health = health
	}
}

func WithKeepAlive(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.keepAlive = d
		}
	}
}

// New constructs a case handler.
func New(service CaseService, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, logger: logger, keepAlive: defaultKeepAlive}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.HandleSubmit)
	r.Get("/cases/stream", h.HandleStream)
	r.Get("/cases/{id}", h.HandleResult)
	r.Get("/cases/{id}/status", h.HandleStatus)
	r.Get("/agents/health", h.HandleAgentHealth)
}

type submitResponse struct {
	CaseID id.CaseID `json:"case_id"`
	Status string    `json:"status"`
}

// HandleSubmit handles POST /cases. With ?sync=true the case runs inline and
// the response is the result; otherwise the case is queued.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.CaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sync, _ := strconv.ParseBool(r.URL.Query().Get("sync"))
	if sync {
		res, err := h.service.Process(ctx, *req)
		if err != nil {
			h.logFailure(ctx, "case processing failed", req.CaseID, err)
			httputil.WriteError(w, err)
			return
		}
		h.logger.InfoContext(ctx, "case processed",
			"request_id", requestID,
			"case_id", res.CaseID,
			"recommendation", res.Summary.Recommendation,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteJSON(w, http.StatusOK, res)
		return
	}

	caseID, err := h.service.Submit(ctx, *req)
	if err != nil {
		h.logFailure(ctx, "case submission failed", req.CaseID, err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "case accepted", "request_id", requestID, "case_id", caseID)
	httputil.WriteJSON(w, http.StatusAccepted, submitResponse{CaseID: caseID, Status: string(models.CaseStatePending)})
}

// HandleResult handles GET /cases/{id}.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.service.Result(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleStatus handles GET /cases/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}
	st, err := h.service.Status(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

// HandleAgentHealth handles GET /agents/health. Any unhealthy agent turns
// the response into a 503 so load balancers can act on it.
func (h *Handler) HandleAgentHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"agents": []agent.HealthStatus{}})
		return
	}
	statuses := h.health.CheckAgents(r.Context())
	code := http.StatusOK
	for _, st := range statuses {
		if !st.Healthy {
			code = http.StatusServiceUnavailable
			break
		}
	}
	httputil.WriteJSON(w, code, map[string]any{"agents": statuses})
}

// HandleStream handles GET /cases/stream as server-sent events. Each
// completed result is one "case_result" event.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "live results are not enabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	subID, results := h.stream.Subscribe()
	defer h.stream.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case res, open := <-results:
			if !open {
				return
			}
			body, err := json.Marshal(res)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode streamed result", "case_id", res.CaseID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: case_result\nid: %s\ndata: %s\n\n", res.CaseID, body); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) logFailure(ctx context.Context, msg string, caseID id.CaseID, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"error", err,
	)
}

func caseIDParam(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return caseID, true
}
