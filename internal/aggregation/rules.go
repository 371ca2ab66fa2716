package aggregation

import "kycflow/internal/kyc/models"

// Rule names recorded in the audit trail.
const (
	RuleWatchlistHardBlock = "watchlist_hard_block"
	RuleQAHardBlock        = "qa_failed_hard_block"
	RuleApprove            = "low_risk_high_confidence"
	RuleConditional        = "moderate_risk_good_confidence"
	RuleEscalate           = "elevated_risk_fair_confidence"
	RuleHighRisk           = "high_risk_reject"
	RuleLowConfidence      = "low_confidence_escalate"
	RuleCatchAll           = "default_escalate"
)

// Signals are the only inputs to the recommendation.
type Signals struct {
	Risk             float64
	Confidence       float64
	WatchlistFlagged bool
	QAFailed         bool
}

// EvaluateRecommendation applies the ordered rule chain; the first match wins.
// This is pure domain logic - identical inputs always yield identical output.
func EvaluateRecommendation(s Signals, t Thresholds) (models.Recommendation, string) {
	// Rule 1: Watchlist match (hard block) - independent of scores
	if s.WatchlistFlagged {
		return models.RecommendationReject, RuleWatchlistHardBlock
	}

	// Rule 2: QA failed (hard block)
	if s.QAFailed {
		return models.RecommendationReject, RuleQAHardBlock
	}

	// Rule 3: Low risk with high confidence
	if s.Risk <= t.ApproveMaxRisk && s.Confidence >= t.ApproveMinConfidence {
		return models.RecommendationApprove, RuleApprove
	}

	// Rule 4: Moderate risk with good confidence
	if s.Risk <= t.ConditionalMaxRisk && s.Confidence >= t.ConditionalMinConfidence {
		return models.RecommendationConditional, RuleConditional
	}

	// Rule 5: Elevated risk with fair confidence
	if s.Risk <= t.EscalateMaxRisk && s.Confidence >= t.EscalateMinConfidence {
		return models.RecommendationEscalate, RuleEscalate
	}

	// Rule 6: High risk, regardless of confidence
	if s.Risk > t.EscalateMaxRisk {
		return models.RecommendationReject, RuleHighRisk
	}

	// Rule 7: Not enough confidence to decide
	if s.Confidence < t.EscalateMinConfidence {
		return models.RecommendationEscalate, RuleLowConfidence
	}

	return models.RecommendationEscalate, RuleCatchAll
}
