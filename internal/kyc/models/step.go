package models

import "strings"

// StepName identifies one workflow step and the agent behind it.
type StepName string

const (
	StepDocumentVerification StepName = "document-verification"
	StepBiometricMatch       StepName = "biometric-match"
	StepDataIntegration      StepName = "data-integration"
	StepWatchlistScreening   StepName = "watchlist-screening"
	StepQualityAssurance     StepName = "quality-assurance"
)

// WorkflowOrder returns the fixed execution order. Later steps read the
// results of earlier ones, so the order is a total order over dependencies.
func WorkflowOrder() []StepName {
	return []StepName{
		StepDocumentVerification,
		StepBiometricMatch,
		StepDataIntegration,
		StepWatchlistScreening,
		StepQualityAssurance,
	}
}

func (s StepName) IsValid() bool {
	switch s {
	case StepDocumentVerification, StepBiometricMatch, StepDataIntegration,
		StepWatchlistScreening, StepQualityAssurance:
		return true
	}
	return false
}

func (s StepName) String() string { return string(s) }

// StepStatus is the classified outcome of one step.
type StepStatus string

const (
	StepStatusSuccess StepStatus = "success"
	StepStatusWarning StepStatus = "warning"
	StepStatusError   StepStatus = "error"
	StepStatusTimeout StepStatus = "timeout"
)

// Failed reports whether the step produced no usable data.
func (s StepStatus) Failed() bool {
	return s == StepStatusError || s == StepStatusTimeout
}

// QaStatus is the quality-assurance verdict.
type QaStatus string

const (
	QaPassed       QaStatus = "passed"
	QaFailed       QaStatus = "failed"
	QaWarning      QaStatus = "warning"
	QaManualReview QaStatus = "manual_review"
)

// ParseQaStatus maps an agent-reported status onto a verdict. Unknown values
// need a human and map to manual review.
func ParseQaStatus(s string) QaStatus {
	switch QaStatus(strings.ToLower(strings.TrimSpace(s))) {
	case QaPassed:
		return QaPassed
	case QaFailed:
		return QaFailed
	case QaWarning:
		return QaWarning
	default:
		return QaManualReview
	}
}

// Recommendation is the final categorical outcome of a case.
type Recommendation string

const (
	RecommendationApprove     Recommendation = "approve"
	RecommendationConditional Recommendation = "conditional"
	RecommendationEscalate    Recommendation = "escalate"
	RecommendationReject      Recommendation = "reject"
	// RecommendationRequiresInfo is produced only by the data-quality gate.
	RecommendationRequiresInfo Recommendation = "requires_additional_info"
)

func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendationApprove, RecommendationConditional, RecommendationEscalate,
		RecommendationReject, RecommendationRequiresInfo:
		return true
	}
	return false
}
