// Package httptransport assembles the HTTP surface: shared middleware,
// liveness, metrics and the case routes.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/metadata"
	"kycflow/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires middleware and system endpoints, then each registrar.
// A nil gatherer serves the default Prometheus registry.
func NewRouter(gatherer prometheus.Gatherer, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	for _, reg := range registrars {
		if reg != nil {
			reg.Register(r)
		}
	}
	return r
}
