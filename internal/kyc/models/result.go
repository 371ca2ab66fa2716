package models

import (
	"encoding/json"
	"time"

	id "kycflow/pkg/domain"
)

// StepResult is the classified response of one agent call.
type StepResult struct {
	Step      StepName        `json:"step"`
	Status    StepStatus      `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms"`
	Error     string          `json:"error,omitempty"`
	Version   string          `json:"version,omitempty"`
}

// ProcessingStep is one append-only audit record.
type ProcessingStep struct {
	Step      string          `json:"step"`
	Agent     string          `json:"agent"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Status    string          `json:"status"`
	Details   json.RawMessage `json:"details,omitempty"`
}

type ExecutiveSummary struct {
	Recommendation  Recommendation `json:"recommendation"`
	RiskScore       float64        `json:"risk_score"`
	ConfidenceScore float64        `json:"confidence_score"`
	ProcessingTime  float64        `json:"processing_time_seconds"`
	CostSavings     float64        `json:"cost_savings"`
}

// DetailedAnalysis carries step payloads verbatim. Absent steps stay nil.
type DetailedAnalysis struct {
	OCR              json.RawMessage `json:"ocr"`
	Biometric        json.RawMessage `json:"biometric"`
	Watchlist        json.RawMessage `json:"watchlist"`
	DataIntegration  json.RawMessage `json:"data_integration"`
	QualityAssurance json.RawMessage `json:"quality_assurance"`
	RiskAssessment   json.RawMessage `json:"risk_assessment"`
}

type AuditTrail struct {
	Steps         []ProcessingStep  `json:"steps"`
	DataSources   []string          `json:"data_sources"`
	RulesApplied  []string          `json:"rules_applied"`
	AgentVersions map[string]string `json:"agent_versions"`
}

type ActionableInsights struct {
	FollowUpActions        []string `json:"follow_up_actions"`
	MonitoringRequirements []string `json:"monitoring_requirements"`
	ProcessImprovements    []string `json:"process_improvements"`
}

type QaVerdict struct {
	Status     QaStatus `json:"status"`
	Exceptions []string `json:"exceptions"`
	Score      float64  `json:"score"`
}

// CaseResult is the single terminal record of a case.
type CaseResult struct {
	CaseID      id.CaseID          `json:"case_id"`
	CompletedAt time.Time          `json:"completed_at"`
	Summary     ExecutiveSummary   `json:"executive_summary"`
	Analysis    DetailedAnalysis   `json:"detailed_analysis"`
	Audit       AuditTrail         `json:"audit_trail"`
	Insights    ActionableInsights `json:"actionable_insights"`
	QA          QaVerdict          `json:"qa_verdict"`
	RiskFactors []string           `json:"risk_factors"`
	// Fallback marks results produced by the orchestrator error path.
	Fallback bool `json:"fallback,omitempty"`
}
