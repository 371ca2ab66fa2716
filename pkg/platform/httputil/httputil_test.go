package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "kycflow/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("conflict includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "case already submitted"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "conflict" {
			t.Fatalf("expected error code conflict, got %q", body["error"])
		}
		if body["error_description"] != "case already submitted" {
			t.Fatalf("expected error_description to be returned for conflict")
		}
	})
}

type pingRequest struct {
	Name string `json:"name"`
}

func (r *pingRequest) Normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r *pingRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	decode := func(body string) (*httptest.ResponseRecorder, *pingRequest, bool) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req, ok := DecodeAndPrepare[pingRequest](w, r, nil, r.Context(), "req-1")
		return w, req, ok
	}

	t.Run("normalizes and validates", func(t *testing.T) {
		_, req, ok := decode(`{"name":"  alice "}`)
		if !ok || req.Name != "alice" {
			t.Fatalf("expected normalized request, got %+v ok=%v", req, ok)
		}
	})

	t.Run("empty body is a bad request", func(t *testing.T) {
		w, _, ok := decode(``)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("validation failure is reported", func(t *testing.T) {
		w, _, ok := decode(`{"name":"   "}`)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "validation_error") {
			t.Fatalf("expected validation_error code, got %s", w.Body.String())
		}
	})
}
