package workflow

import (
	"context"
	"errors"
	"fmt"

	"kycflow/internal/agent"
	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/payload"
)

// DefaultGateThreshold is the minimum data-quality score a case needs to run.
const DefaultGateThreshold = 0.6

var ErrNoQualityScore = errors.New("data-quality agent returned no overall_score")

// AgentQualityGate asks the data-quality agent for an overall score.
type AgentQualityGate struct {
	gateway  agent.Gateway
	endpoint agent.Endpoint
}

func NewAgentQualityGate(gateway agent.Gateway, endpoint agent.Endpoint) *AgentQualityGate {
	return &AgentQualityGate{gateway: gateway, endpoint: endpoint}
}

type qualityRequest struct {
	CaseID       string            `json:"case_id"`
	CustomerData map[string]any    `json:"customer_data"`
	Documents    []models.Document `json:"documents"`
}

func (g *AgentQualityGate) Score(ctx context.Context, req *models.CaseRequest) (float64, error) {
	out := g.gateway.Call(ctx, g.endpoint, qualityRequest{
		CaseID:       req.CaseID.String(),
		CustomerData: customer(req),
		Documents:    req.Documents,
	})
	if out.Kind != agent.KindCompleted {
		return 0, fmt.Errorf("data-quality agent %s: %w", out.Kind, out.Err)
	}
	if out.Response == nil {
		return 0, ErrNoQualityScore
	}
	score, ok := payload.QualityScore(out.Response.Data)
	if !ok {
		return 0, ErrNoQualityScore
	}
	return clampUnit(score), nil
}

// CompletenessGate scores the request locally: 70% for the share of required
// customer fields present, 30% for supplying at least one document.
type CompletenessGate struct{}

func (CompletenessGate) Score(_ context.Context, req *models.CaseRequest) (float64, error) {
	present := 0
	name := req.CustomerString("name") != "" ||
		(req.CustomerString("first_name") != "" && req.CustomerString("last_name") != "")
	if name {
		present++
	}
	for _, field := range []string{"date_of_birth", "address", "nationality"} {
		if req.CustomerString(field) != "" {
			present++
		}
	}
	score := 0.7 * float64(present) / 4
	if len(req.Documents) > 0 {
		score += 0.3
	}
	return score, nil
}

// StaticGate always returns the same score.
type StaticGate float64

func (g StaticGate) Score(context.Context, *models.CaseRequest) (float64, error) {
	return clampUnit(float64(g)), nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
