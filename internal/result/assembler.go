// Package result packages an assessment and the case's audit trail into the
// final CaseResult.
package result

import (
	"encoding/json"
	"fmt"
	"time"

	"kycflow/internal/aggregation"
	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/payload"
	"kycflow/internal/workcontext"
	id "kycflow/pkg/domain"
	platformstrings "kycflow/pkg/platform/strings"
)

// Follow-up, monitoring and exception texts.
const (
	ActionEscalate            = "escalate to senior compliance officer"
	ActionAdditionalDocuments = "request additional identity documentation"
	ActionEnhancedDiligence   = "perform enhanced due diligence"
	ActionQuarterlyReview     = "schedule quarterly review"
	ActionImproveDataQuality  = "Improve data quality before proceeding"
	MonitorTransactions       = "90-day transaction monitoring"
	ExceptionQANotExecuted    = "QA agent not executed"

	// RuleDataQualityGate is recorded whenever the data-quality gate scored the case.
	RuleDataQualityGate = "data_quality_gate"

	// OrchestratorStep labels audit notes written by the orchestrator itself.
	OrchestratorStep = "orchestrator"

	manualReviewScore = 50
)

// Rules recorded per executed step.
var stepRules = map[models.StepName][]string{
	models.StepDocumentVerification: {"document_authenticity_check"},
	models.StepBiometricMatch:       {"biometric_identity_match"},
	models.StepDataIntegration:      {"customer_data_verification"},
	models.StepWatchlistScreening:   {"aml_screening"},
	models.StepQualityAssurance:     {"quality_assurance_review"},
}

// Data sources touched per executed step.
var stepSources = map[models.StepName][]string{
	models.StepDocumentVerification: {"document OCR"},
	models.StepBiometricMatch:       {"biometric face match"},
	models.StepDataIntegration:      {"credit bureau", "public records"},
	models.StepWatchlistScreening:   {"sanctions watchlist", "PEP database"},
	models.StepQualityAssurance:     {"quality assurance"},
}

// Assembler builds case results. It is safe for concurrent use.
type Assembler struct {
	cfg Config
	now func() time.Time
}

type Option func(*Assembler)

// WithClock overrides the completion-time source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

func New(cfg Config, opts ...Option) *Assembler {
	a := &Assembler{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble produces the result of a case that ran its workflow. extraRules
// are recorded after the step rules, before the decision rule.
func (a *Assembler) Assemble(view workcontext.View, as aggregation.Assessment, extraRules ...string) (*models.CaseResult, error) {
	now := a.now()
	req := view.Request()

	riskAssessment, err := json.Marshal(map[string]any{
		"risk_score":       as.RiskScore,
		"confidence_score": as.ConfidenceScore,
		"recommendation":   as.Recommendation,
		"risk_factors":     as.RiskFactors,
		"rule":             as.Rule,
	})
	if err != nil {
		return nil, fmt.Errorf("encode risk assessment: %w", err)
	}

	results := view.Results()
	res := &models.CaseResult{
		CaseID:      req.CaseID,
		CompletedAt: now,
		Summary: models.ExecutiveSummary{
			Recommendation:  as.Recommendation,
			RiskScore:       as.RiskScore,
			ConfidenceScore: as.ConfidenceScore,
			ProcessingTime:  now.Sub(view.StartedAt()).Seconds(),
			CostSavings:     a.cfg.Costs.Savings(),
		},
		Analysis: models.DetailedAnalysis{
			OCR:              stepData(view, models.StepDocumentVerification),
			Biometric:        stepData(view, models.StepBiometricMatch),
			Watchlist:        stepData(view, models.StepWatchlistScreening),
			DataIntegration:  stepData(view, models.StepDataIntegration),
			QualityAssurance: stepData(view, models.StepQualityAssurance),
			RiskAssessment:   riskAssessment,
		},
		Audit: models.AuditTrail{
			Steps:         view.AuditTrail(),
			DataSources:   dataSources(results),
			RulesApplied:  append(append(rulesApplied(results), extraRules...), "decision_rule:"+as.Rule),
			AgentVersions: agentVersions(results),
		},
		Insights:    a.insights(as.RiskScore, results),
		QA:          qaVerdict(view),
		RiskFactors: nonNil(as.RiskFactors),
	}
	return res, nil
}

// RequiresInfo is the data-quality gate's short-circuit result. No step ran,
// so the audit trail carries no steps.
func (a *Assembler) RequiresInfo(req *models.CaseRequest, startedAt time.Time, score, threshold float64) *models.CaseResult {
	now := a.now()
	return &models.CaseResult{
		CaseID:      req.CaseID,
		CompletedAt: now,
		Summary: models.ExecutiveSummary{
			Recommendation:  models.RecommendationRequiresInfo,
			RiskScore:       50,
			ConfidenceScore: clampPercent(score * 100),
			ProcessingTime:  now.Sub(startedAt).Seconds(),
		},
		Audit: models.AuditTrail{
			Steps:         []models.ProcessingStep{},
			DataSources:   []string{},
			RulesApplied:  []string{RuleDataQualityGate},
			AgentVersions: map[string]string{},
		},
		Insights: models.ActionableInsights{
			FollowUpActions:        []string{ActionImproveDataQuality},
			MonitoringRequirements: []string{},
			ProcessImprovements: []string{
				fmt.Sprintf("data quality score %.2f below threshold %.2f", score, threshold),
			},
		},
		QA: models.QaVerdict{
			Status:     models.QaManualReview,
			Exceptions: []string{"data_quality_insufficient"},
			Score:      clampPercent(score * 100),
		},
		RiskFactors: []string{},
	}
}

// Fallback is the fixed result for a case whose orchestration failed
// internally. It carries a single audit note describing the failure.
func (a *Assembler) Fallback(caseID id.CaseID, startedAt time.Time, cause error) *models.CaseResult {
	now := a.now()
	msg := "internal orchestration failure"
	if cause != nil {
		msg = cause.Error()
	}
	details, _ := json.Marshal(map[string]string{"error": msg})
	return &models.CaseResult{
		CaseID:      caseID,
		CompletedAt: now,
		Summary: models.ExecutiveSummary{
			Recommendation:  models.RecommendationEscalate,
			RiskScore:       100,
			ConfidenceScore: 0,
			ProcessingTime:  now.Sub(startedAt).Seconds(),
		},
		Audit: models.AuditTrail{
			Steps: []models.ProcessingStep{{
				Step:      OrchestratorStep,
				Agent:     OrchestratorStep,
				StartedAt: startedAt,
				EndedAt:   now,
				Status:    string(models.StepStatusError),
				Details:   details,
			}},
			DataSources:   []string{},
			RulesApplied:  []string{"orchestrator_fallback"},
			AgentVersions: map[string]string{},
		},
		Insights: models.ActionableInsights{
			FollowUpActions:        []string{ActionEscalate},
			MonitoringRequirements: []string{},
			ProcessImprovements:    []string{"investigate orchestration failure"},
		},
		QA: models.QaVerdict{
			Status:     models.QaFailed,
			Exceptions: []string{msg},
			Score:      0,
		},
		RiskFactors: []string{},
		Fallback:    true,
	}
}

func (a *Assembler) insights(risk float64, results []models.StepResult) models.ActionableInsights {
	tiers := a.cfg.Insights
	in := models.ActionableInsights{
		FollowUpActions:        []string{},
		MonitoringRequirements: []string{MonitorTransactions},
		ProcessImprovements:    []string{},
	}
	switch {
	case risk > tiers.HighRisk:
		in.FollowUpActions = append(in.FollowUpActions, ActionEscalate, ActionAdditionalDocuments)
	case risk > tiers.MediumRisk:
		in.FollowUpActions = append(in.FollowUpActions, ActionEnhancedDiligence, ActionQuarterlyReview)
	}
	for _, r := range results {
		if r.Status.Failed() {
			in.ProcessImprovements = append(in.ProcessImprovements,
				fmt.Sprintf("investigate %s agent reliability (%s)", r.Step, r.Status))
		}
	}
	return in
}

func qaVerdict(view workcontext.View) models.QaVerdict {
	r, ok := view.Result(models.StepQualityAssurance)
	if !ok {
		return models.QaVerdict{
			Status:     models.QaManualReview,
			Exceptions: []string{ExceptionQANotExecuted},
			Score:      manualReviewScore,
		}
	}
	if r.Status.Failed() {
		return models.QaVerdict{
			Status:     models.QaManualReview,
			Exceptions: []string{fmt.Sprintf("QA agent %s: %s", r.Status, r.Error)},
			Score:      manualReviewScore,
		}
	}
	qa, _ := payload.QualityAssurance(r.Data)
	v := models.QaVerdict{
		Status:     models.ParseQaStatus(qa.Status),
		Exceptions: nonNil(qa.Exceptions),
		Score:      manualReviewScore,
	}
	if qa.HasScore {
		v.Score = clampPercent(qa.Score)
	}
	return v
}

func stepData(view workcontext.View, step models.StepName) json.RawMessage {
	r, ok := view.Result(step)
	if !ok || len(r.Data) == 0 {
		return nil
	}
	return r.Data
}

func dataSources(results []models.StepResult) []string {
	return collect(results, stepSources)
}

func rulesApplied(results []models.StepResult) []string {
	return collect(results, stepRules)
}

// collect flattens per-step lists in execution order, dropping duplicates.
func collect(results []models.StepResult, table map[models.StepName][]string) []string {
	var all []string
	for _, r := range results {
		all = append(all, table[r.Step]...)
	}
	return nonNil(platformstrings.DedupeAndTrim(all))
}

func agentVersions(results []models.StepResult) map[string]string {
	versions := make(map[string]string, len(results))
	for _, r := range results {
		if r.Version != "" {
			versions[string(r.Step)] = r.Version
		}
	}
	return versions
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
