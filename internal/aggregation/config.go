package aggregation

import (
	"errors"
	"fmt"
)

// Weights is the contribution of each scored step to the case risk.
type Weights struct {
	Document        float64 `mapstructure:"document"`
	Biometric       float64 `mapstructure:"biometric"`
	Watchlist       float64 `mapstructure:"watchlist"`
	DataIntegration float64 `mapstructure:"data_integration"`
}

// StatusConfidence maps step status to a confidence contribution.
type StatusConfidence struct {
	Success float64 `mapstructure:"success"`
	Warning float64 `mapstructure:"warning"`
	Failure float64 `mapstructure:"failure"`
}

// Thresholds drive the recommendation rules.
type Thresholds struct {
	ApproveMaxRisk           float64 `mapstructure:"approve_max_risk"`
	ApproveMinConfidence     float64 `mapstructure:"approve_min_confidence"`
	ConditionalMaxRisk       float64 `mapstructure:"conditional_max_risk"`
	ConditionalMinConfidence float64 `mapstructure:"conditional_min_confidence"`
	EscalateMaxRisk          float64 `mapstructure:"escalate_max_risk"`
	EscalateMinConfidence    float64 `mapstructure:"escalate_min_confidence"`
}

// Defaults apply when a signal is missing.
type Defaults struct {
	Risk                float64 `mapstructure:"risk"`
	Confidence          float64 `mapstructure:"confidence"`
	DocumentRisk        float64 `mapstructure:"document_risk"`
	MatchScore          float64 `mapstructure:"match_score"`
	DataIntegrationRisk float64 `mapstructure:"data_integration_risk"`
	WatchlistFlagged    float64 `mapstructure:"watchlist_flagged_risk"`
	WatchlistClear      float64 `mapstructure:"watchlist_clear_risk"`
}

// FactorLimits trigger the explanatory risk factors.
type FactorLimits struct {
	MinDocumentQuality float64 `mapstructure:"min_document_quality"`
	MinMatchScore      float64 `mapstructure:"min_match_score"`
}

// Config holds every tunable of the engine.
type Config struct {
	Weights          Weights          `mapstructure:"weights"`
	StatusConfidence StatusConfidence `mapstructure:"status_confidence"`
	Thresholds       Thresholds       `mapstructure:"thresholds"`
	Defaults         Defaults         `mapstructure:"defaults"`
	Factors          FactorLimits     `mapstructure:"factors"`
}

// DefaultConfig returns the reference weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Document:        0.2,
			Biometric:       0.3,
			Watchlist:       0.4,
			DataIntegration: 0.1,
		},
		StatusConfidence: StatusConfidence{
			Success: 95,
			Warning: 70,
			Failure: 30,
		},
		Thresholds: Thresholds{
			ApproveMaxRisk:           20,
			ApproveMinConfidence:     90,
			ConditionalMaxRisk:       40,
			ConditionalMinConfidence: 80,
			EscalateMaxRisk:          60,
			EscalateMinConfidence:    70,
		},
		Defaults: Defaults{
			Risk:                50,
			Confidence:          50,
			DocumentRisk:        50,
			MatchScore:          50,
			DataIntegrationRisk: 50,
			WatchlistFlagged:    90,
			WatchlistClear:      10,
		},
		Factors: FactorLimits{
			MinDocumentQuality: 70,
			MinMatchScore:      80,
		},
	}
}

// Validate rejects weights and scores outside their domains.
func (c Config) Validate() error {
	var errs []error
	for name, w := range map[string]float64{
		"document": c.Weights.Document, "biometric": c.Weights.Biometric,
		"watchlist": c.Weights.Watchlist, "data_integration": c.Weights.DataIntegration,
	} {
		if w < 0 {
			errs = append(errs, fmt.Errorf("weight %s must not be negative", name))
		}
	}
	if c.Weights.Document+c.Weights.Biometric+c.Weights.Watchlist+c.Weights.DataIntegration <= 0 {
		errs = append(errs, errors.New("at least one weight must be positive"))
	}
	for name, v := range map[string]float64{
		"status_confidence.success":             c.StatusConfidence.Success,
		"status_confidence.warning":             c.StatusConfidence.Warning,
		"status_confidence.failure":             c.StatusConfidence.Failure,
		"thresholds.approve_max_risk":           c.Thresholds.ApproveMaxRisk,
		"thresholds.approve_min_confidence":     c.Thresholds.ApproveMinConfidence,
		"thresholds.conditional_max_risk":       c.Thresholds.ConditionalMaxRisk,
		"thresholds.conditional_min_confidence": c.Thresholds.ConditionalMinConfidence,
		"thresholds.escalate_max_risk":          c.Thresholds.EscalateMaxRisk,
		"thresholds.escalate_min_confidence":    c.Thresholds.EscalateMinConfidence,
		"defaults.risk":                         c.Defaults.Risk,
		"defaults.confidence":                   c.Defaults.Confidence,
		"defaults.match_score":                  c.Defaults.MatchScore,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s must be within [0,100], got %v", name, v))
		}
	}
	if c.Thresholds.ApproveMaxRisk > c.Thresholds.ConditionalMaxRisk ||
		c.Thresholds.ConditionalMaxRisk > c.Thresholds.EscalateMaxRisk {
		errs = append(errs, errors.New("risk thresholds must be ordered approve <= conditional <= escalate"))
	}
	return errors.Join(errs...)
}
