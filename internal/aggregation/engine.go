// Package aggregation combines per-step results into a risk score, a
// confidence score and a recommendation.
package aggregation

import (
	"math"

	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/payload"
	"kycflow/internal/workcontext"
)

// Risk factor descriptions.
const (
	FactorPoorDocumentQuality = "poor document quality"
	FactorLowBiometricMatch   = "low biometric match confidence"
	FactorWatchlistMatch      = "watchlist match detected"
)

// Assessment is the engine's verdict for one case.
type Assessment struct {
	RiskScore       float64
	ConfidenceScore float64
	Recommendation  models.Recommendation
	RiskFactors     []string
	Rule            string
	Signals         Signals
}

// Engine is stateless apart from its configuration and safe for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Aggregate reads the full context and produces the assessment.
func (e *Engine) Aggregate(view workcontext.View) Assessment {
	signals := Signals{
		Risk:             e.RiskScore(view),
		Confidence:       e.ConfidenceScore(view),
		WatchlistFlagged: watchlistFlagged(view),
		QAFailed:         qaFailed(view),
	}
	rec, rule := EvaluateRecommendation(signals, e.cfg.Thresholds)
	return Assessment{
		RiskScore:       signals.Risk,
		ConfidenceScore: signals.Confidence,
		Recommendation:  rec,
		RiskFactors:     e.RiskFactors(view),
		Rule:            rule,
		Signals:         signals,
	}
}

// RiskScore is the weighted mean of step risks over the scored steps present.
// Weights renormalize over present steps; with none present the default applies.
func (e *Engine) RiskScore(view workcontext.View) float64 {
	var weighted, total float64
	for _, r := range view.Results() {
		w, ok := e.weight(r.Step)
		if !ok || w == 0 {
			continue
		}
		weighted += w * e.stepRisk(r)
		total += w
	}
	if total == 0 {
		return e.cfg.Defaults.Risk
	}
	return clamp(weighted / total)
}

// ConfidenceScore is the mean status confidence over every present step.
func (e *Engine) ConfidenceScore(view workcontext.View) float64 {
	results := view.Results()
	if len(results) == 0 {
		return e.cfg.Defaults.Confidence
	}
	var sum float64
	for _, r := range results {
		sum += e.statusConfidence(r.Status)
	}
	return clamp(sum / float64(len(results)))
}

// RiskFactors lists the explanatory findings. They do not affect the scores.
func (e *Engine) RiskFactors(view workcontext.View) []string {
	factors := []string{}
	if r, ok := view.Result(models.StepDocumentVerification); ok && !r.Status.Failed() {
		if q, ok := payload.DocumentQuality(r.Data); ok && q < e.cfg.Factors.MinDocumentQuality {
			factors = append(factors, FactorPoorDocumentQuality)
		}
	}
	if r, ok := view.Result(models.StepBiometricMatch); ok && !r.Status.Failed() {
		if s, ok := payload.MatchScore(r.Data); ok && s < e.cfg.Factors.MinMatchScore {
			factors = append(factors, FactorLowBiometricMatch)
		}
	}
	if watchlistFlagged(view) {
		factors = append(factors, FactorWatchlistMatch)
	}
	return factors
}

func (e *Engine) weight(step models.StepName) (float64, bool) {
	switch step {
	case models.StepDocumentVerification:
		return e.cfg.Weights.Document, true
	case models.StepBiometricMatch:
		return e.cfg.Weights.Biometric, true
	case models.StepWatchlistScreening:
		return e.cfg.Weights.Watchlist, true
	case models.StepDataIntegration:
		return e.cfg.Weights.DataIntegration, true
	}
	return 0, false
}

// stepRisk normalizes one step to [0,100]. A failed step has no data, so it
// contributes the documented default for that step.
func (e *Engine) stepRisk(r models.StepResult) float64 {
	d := e.cfg.Defaults
	failed := r.Status.Failed()
	switch r.Step {
	case models.StepDocumentVerification:
		if v, ok := payload.DocumentRisk(r.Data); ok && !failed {
			return clamp(v)
		}
		return d.DocumentRisk
	case models.StepBiometricMatch:
		score := d.MatchScore
		if v, ok := payload.MatchScore(r.Data); ok && !failed {
			score = v
		}
		return clamp(math.Max(0, 100-score))
	case models.StepWatchlistScreening:
		if !failed && payload.WatchlistFlagged(r.Data) {
			return d.WatchlistFlagged
		}
		if failed {
			return d.Risk
		}
		return d.WatchlistClear
	case models.StepDataIntegration:
		if v, ok := payload.DataIntegrationRisk(r.Data); ok && !failed {
			return clamp(v)
		}
		return d.DataIntegrationRisk
	}
	return d.Risk
}

func (e *Engine) statusConfidence(s models.StepStatus) float64 {
	switch s {
	case models.StepStatusSuccess:
		return e.cfg.StatusConfidence.Success
	case models.StepStatusWarning:
		return e.cfg.StatusConfidence.Warning
	default:
		return e.cfg.StatusConfidence.Failure
	}
}

func watchlistFlagged(view workcontext.View) bool {
	r, ok := view.Result(models.StepWatchlistScreening)
	return ok && !r.Status.Failed() && payload.WatchlistFlagged(r.Data)
}

func qaFailed(view workcontext.View) bool {
	r, ok := view.Result(models.StepQualityAssurance)
	if !ok || r.Status.Failed() {
		return false
	}
	qa, ok := payload.QualityAssurance(r.Data)
	return ok && qa.Status == string(models.QaFailed)
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
