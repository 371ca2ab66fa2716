package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"kycflow/pkg/platform/middleware/metadata"
	"kycflow/pkg/testutil"
)

type panicRoutes struct{}

func (panicRoutes) Register(r chi.Router) {
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "a router with a custom registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "kycflow_router_test_total", Help: "test"})
		reg.MustRegister(counter)
		counter.Inc()
		router := NewRouter(reg, panicRoutes{}, nil)

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it responds ok with a request id", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.NotEmpty(t, rec.Header().Get(metadata.HeaderRequestID))
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it exposes the registry", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Contains(t, rec.Body.String(), "kycflow_router_test_total 1")
			})
		})

		testutil.When(t, "a handler panics", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

			testutil.Then(t, "it responds with 500", func(t *testing.T) {
				assert.Equal(t, http.StatusInternalServerError, rec.Code)
			})
		})
	})
}
