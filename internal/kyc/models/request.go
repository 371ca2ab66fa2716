package models

import (
	"encoding/json"
	"strings"
	"time"

	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
)

const maxDocuments = 20

// RiskTolerance tunes how conservative downstream agents should be.
type RiskTolerance string

const (
	RiskToleranceLow    RiskTolerance = "low"
	RiskToleranceMedium RiskTolerance = "medium"
	RiskToleranceHigh   RiskTolerance = "high"
)

func (t RiskTolerance) IsValid() bool {
	switch t {
	case RiskToleranceLow, RiskToleranceMedium, RiskToleranceHigh:
		return true
	}
	return false
}

// Document describes one uploaded document. Content is referenced, never inlined.
type Document struct {
	Kind       string `json:"kind"`
	ContentRef string `json:"content_ref"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	MIMEType   string `json:"mime_type"`
}

// ProcessingConfig toggles each optional step for one case.
type ProcessingConfig struct {
	EnableOCR                bool          `json:"enable_ocr"`
	EnableFaceRecognition    bool          `json:"enable_face_recognition"`
	EnableDataIntegration    bool          `json:"enable_data_integration"`
	EnableWatchlistScreening bool          `json:"enable_watchlist_screening"`
	EnableQA                 bool          `json:"enable_qa"`
	RiskTolerance            RiskTolerance `json:"risk_tolerance"`
}

// DefaultProcessingConfig enables every step at medium tolerance.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		EnableOCR:                true,
		EnableFaceRecognition:    true,
		EnableDataIntegration:    true,
		EnableWatchlistScreening: true,
		EnableQA:                 true,
		RiskTolerance:            RiskToleranceMedium,
	}
}

// Enabled reports whether step should run for this case.
func (c ProcessingConfig) Enabled(step StepName) bool {
	switch step {
	case StepDocumentVerification:
		return c.EnableOCR
	case StepBiometricMatch:
		return c.EnableFaceRecognition
	case StepDataIntegration:
		return c.EnableDataIntegration
	case StepWatchlistScreening:
		return c.EnableWatchlistScreening
	case StepQualityAssurance:
		return c.EnableQA
	}
	return false
}

// EnabledSteps returns the enabled steps in workflow order.
func (c ProcessingConfig) EnabledSteps() []StepName {
	var steps []StepName
	for _, step := range WorkflowOrder() {
		if c.Enabled(step) {
			steps = append(steps, step)
		}
	}
	return steps
}

// CaseRequest is the immutable input of one case.
type CaseRequest struct {
	CaseID      id.CaseID        `json:"case_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Customer    map[string]any   `json:"customer_data"`
	Documents   []Document       `json:"documents"`
	Config      ProcessingConfig `json:"processing_config"`
}

// UnmarshalJSON starts from the default processing config so that omitted
// flags stay enabled.
func (r *CaseRequest) UnmarshalJSON(b []byte) error {
	type alias CaseRequest
	a := alias{Config: DefaultProcessingConfig()}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*r = CaseRequest(a)
	return nil
}

func (r *CaseRequest) Normalize() {
	if r == nil {
		return
	}
	r.CaseID = id.CaseID(strings.TrimSpace(string(r.CaseID)))
	r.Config.RiskTolerance = RiskTolerance(strings.ToLower(strings.TrimSpace(string(r.Config.RiskTolerance))))
	if r.Config.RiskTolerance == "" {
		r.Config.RiskTolerance = RiskToleranceMedium
	}
	for i := range r.Documents {
		r.Documents[i].Kind = strings.ToLower(strings.TrimSpace(r.Documents[i].Kind))
	}
}

// Validate follows the order: Size -> Required -> Syntax -> Semantic.
func (r *CaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Documents) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "at most 20 documents are accepted per case")
	}
	if len(r.Customer) == 0 {
		return dErrors.New(dErrors.CodeValidation, "customer_data is required")
	}
	if !r.CaseID.IsNil() {
		if _, err := id.ParseCaseID(string(r.CaseID)); err != nil {
			return err
		}
	}
	for _, doc := range r.Documents {
		if doc.Kind == "" {
			return dErrors.New(dErrors.CodeValidation, "document kind is required")
		}
		if doc.Size < 0 {
			return dErrors.New(dErrors.CodeValidation, "document size must not be negative")
		}
	}
	if !r.Config.RiskTolerance.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "risk_tolerance must be 'low', 'medium' or 'high'")
	}
	return nil
}

// CustomerString reads a string field from the customer bag.
func (r *CaseRequest) CustomerString(key string) string {
	if r == nil || r.Customer == nil {
		return ""
	}
	if v, ok := r.Customer[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
