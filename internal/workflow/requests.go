package workflow

import (
	"errors"

	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/payload"
)

// ErrNoDocuments is returned by builders of steps that analyse documents.
var ErrNoDocuments = errors.New("no documents supplied")

// Upstream holds the recorded results of a step's declared dependencies.
type Upstream map[models.StepName]models.StepResult

// usable returns the upstream result only when it carries data.
func (u Upstream) usable(step models.StepName) (models.StepResult, bool) {
	r, ok := u[step]
	if !ok || r.Status.Failed() || len(r.Data) == 0 {
		return models.StepResult{}, false
	}
	return r, true
}

// RequestBuilder builds the agent payload of one step.
type RequestBuilder interface {
	Step() models.StepName
	// Dependencies lists the steps whose results Build may read.
	Dependencies() []models.StepName
	Build(req *models.CaseRequest, upstream Upstream) (any, error)
}

// IdentityData is the OCR-extracted identity forwarded to later steps.
type IdentityData struct {
	Name        string `json:"name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	IDNumber    string `json:"id_number,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

type DocumentRequest struct {
	CaseID       string            `json:"case_id"`
	Documents    []models.Document `json:"documents"`
	CustomerData map[string]any    `json:"customer_data"`
}

type BiometricRequest struct {
	CaseID       string            `json:"case_id"`
	Documents    []models.Document `json:"documents"`
	CustomerData map[string]any    `json:"customer_data"`
	IdentityData IdentityData      `json:"identity_data"`
}

type DataIntegrationRequest struct {
	CaseID       string         `json:"case_id"`
	CustomerData map[string]any `json:"customer_data"`
	IdentityData IdentityData   `json:"identity_data"`
}

type WatchlistRequest struct {
	CaseID       string         `json:"case_id"`
	CustomerInfo map[string]any `json:"customer_info"`
	IdentityData IdentityData   `json:"identity_data"`
}

type QualityAssuranceRequest struct {
	CaseID           string                       `json:"case_id"`
	AllResults       map[string]models.StepResult `json:"all_results"`
	ProcessingConfig models.ProcessingConfig      `json:"processing_config"`
}

// DefaultBuilders returns the builders for every workflow step.
func DefaultBuilders() map[models.StepName]RequestBuilder {
	builders := []RequestBuilder{
		documentBuilder{},
		biometricBuilder{},
		dataIntegrationBuilder{},
		watchlistBuilder{},
		qaBuilder{},
	}
	out := make(map[models.StepName]RequestBuilder, len(builders))
	for _, b := range builders {
		out[b.Step()] = b
	}
	return out
}

type documentBuilder struct{}

func (documentBuilder) Step() models.StepName           { return models.StepDocumentVerification }
func (documentBuilder) Dependencies() []models.StepName { return nil }

func (documentBuilder) Build(req *models.CaseRequest, _ Upstream) (any, error) {
	if len(req.Documents) == 0 {
		return nil, ErrNoDocuments
	}
	return DocumentRequest{
		CaseID:       req.CaseID.String(),
		Documents:    req.Documents,
		CustomerData: customer(req),
	}, nil
}

type biometricBuilder struct{}

func (biometricBuilder) Step() models.StepName { return models.StepBiometricMatch }
func (biometricBuilder) Dependencies() []models.StepName {
	return []models.StepName{models.StepDocumentVerification}
}

func (biometricBuilder) Build(req *models.CaseRequest, upstream Upstream) (any, error) {
	if len(req.Documents) == 0 {
		return nil, ErrNoDocuments
	}
	id := ocrIdentity(upstream)
	return BiometricRequest{
		CaseID:       req.CaseID.String(),
		Documents:    req.Documents,
		CustomerData: customer(req),
		IdentityData: IdentityData{Name: id.FullName(), DateOfBirth: id.DateOfBirth, IDNumber: id.IDNumber},
	}, nil
}

type dataIntegrationBuilder struct{}

func (dataIntegrationBuilder) Step() models.StepName { return models.StepDataIntegration }
func (dataIntegrationBuilder) Dependencies() []models.StepName {
	return []models.StepName{models.StepDocumentVerification}
}

func (dataIntegrationBuilder) Build(req *models.CaseRequest, upstream Upstream) (any, error) {
	id := ocrIdentity(upstream)
	return DataIntegrationRequest{
		CaseID:       req.CaseID.String(),
		CustomerData: customer(req),
		IdentityData: IdentityData{Name: id.FullName(), DateOfBirth: id.DateOfBirth, IDNumber: id.IDNumber},
	}, nil
}

type watchlistBuilder struct{}

func (watchlistBuilder) Step() models.StepName { return models.StepWatchlistScreening }
func (watchlistBuilder) Dependencies() []models.StepName {
	return []models.StepName{models.StepDocumentVerification}
}

func (watchlistBuilder) Build(req *models.CaseRequest, upstream Upstream) (any, error) {
	id := ocrIdentity(upstream)
	name := id.FullName()
	if name == "" {
		name = req.CustomerString("name")
	}
	if name == "" {
		name = joinName(req.CustomerString("first_name"), req.CustomerString("last_name"))
	}
	return WatchlistRequest{
		CaseID:       req.CaseID.String(),
		CustomerInfo: customer(req),
		IdentityData: IdentityData{Name: name, DateOfBirth: id.DateOfBirth, Nationality: id.Nationality},
	}, nil
}

type qaBuilder struct{}

func (qaBuilder) Step() models.StepName { return models.StepQualityAssurance }
func (qaBuilder) Dependencies() []models.StepName {
	return []models.StepName{
		models.StepDocumentVerification,
		models.StepBiometricMatch,
		models.StepDataIntegration,
		models.StepWatchlistScreening,
	}
}

// Build forwards every upstream result, failed ones included, so QA can
// judge the whole case.
func (qaBuilder) Build(req *models.CaseRequest, upstream Upstream) (any, error) {
	all := make(map[string]models.StepResult, len(upstream))
	for step, r := range upstream {
		all[string(step)] = r
	}
	return QualityAssuranceRequest{
		CaseID:           req.CaseID.String(),
		AllResults:       all,
		ProcessingConfig: req.Config,
	}, nil
}

func ocrIdentity(upstream Upstream) payload.Identity {
	r, ok := upstream.usable(models.StepDocumentVerification)
	if !ok {
		return payload.Identity{}
	}
	return payload.ExtractIdentity(r.Data)
}

func customer(req *models.CaseRequest) map[string]any {
	if req.Customer == nil {
		return map[string]any{}
	}
	return req.Customer
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
