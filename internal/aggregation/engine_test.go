package aggregation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycflow/internal/kyc/models"
	"kycflow/internal/workcontext"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
	wc     *workcontext.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(DefaultConfig())
	s.wc = workcontext.New(models.CaseRequest{CaseID: "case-1"}, time.Now())
}

func (s *EngineSuite) record(step models.StepName, status models.StepStatus, data string) {
	var raw json.RawMessage
	if data != "" {
		raw = json.RawMessage(data)
	}
	s.Require().NoError(s.wc.Record(models.StepResult{Step: step, Status: status, Data: raw}))
}

func (s *EngineSuite) TestDefaults() {
	s.Run("empty context is neutral", func() {
		a := s.engine.Aggregate(s.wc)

		s.Equal(50.0, a.RiskScore)
		s.Equal(50.0, a.ConfidenceScore)
		s.Equal(models.RecommendationEscalate, a.Recommendation)
		s.Empty(a.RiskFactors)
	})
}

func (s *EngineSuite) TestRiskScore() {
	s.Run("single step weights renormalize", func() {
		s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"matching_result":{"match_score":90}}`)

		s.InDelta(10.0, s.engine.RiskScore(s.wc), 1e-9)
	})

	s.Run("weighted mean over present steps", func() {
		s.SetupTest()
		s.record(models.StepDocumentVerification, models.StepStatusSuccess, `{"summary":{"risk_score":20}}`)
		s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"matching_result":{"match_score":70}}`)
		s.record(models.StepWatchlistScreening, models.StepStatusSuccess, `{"flagged":false}`)
		s.record(models.StepDataIntegration, models.StepStatusSuccess, `{"overall_risk_score":40}`)

		// (0.2*20 + 0.3*30 + 0.4*10 + 0.1*40) / 1.0
		s.InDelta(21.0, s.engine.RiskScore(s.wc), 1e-9)
	})

	s.Run("qa does not carry risk weight", func() {
		s.SetupTest()
		s.record(models.StepWatchlistScreening, models.StepStatusSuccess, `{"flagged":false}`)
		s.record(models.StepQualityAssurance, models.StepStatusSuccess, `{"status":"passed"}`)

		s.InDelta(10.0, s.engine.RiskScore(s.wc), 1e-9)
	})

	s.Run("failed steps fall back to step defaults", func() {
		s.SetupTest()
		s.record(models.StepDocumentVerification, models.StepStatusTimeout, "")
		s.record(models.StepBiometricMatch, models.StepStatusError, `{"matching_result":{"match_score":99}}`)

		// document default 50, biometric default match 50 -> risk 50
		s.InDelta(50.0, s.engine.RiskScore(s.wc), 1e-9)
	})

	s.Run("missing fields use defaults", func() {
		s.SetupTest()
		s.record(models.StepDataIntegration, models.StepStatusSuccess, `{}`)

		s.InDelta(50.0, s.engine.RiskScore(s.wc), 1e-9)
	})

	s.Run("negative biometric risk is clamped", func() {
		s.SetupTest()
		s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"match_score":120}`)

		s.Equal(0.0, s.engine.RiskScore(s.wc))
	})
}

func (s *EngineSuite) TestConfidenceScore() {
	s.record(models.StepDocumentVerification, models.StepStatusSuccess, "")
	s.record(models.StepBiometricMatch, models.StepStatusWarning, "")
	s.record(models.StepDataIntegration, models.StepStatusError, "")
	s.record(models.StepWatchlistScreening, models.StepStatusTimeout, "")

	// (95 + 70 + 30 + 30) / 4
	s.InDelta(56.25, s.engine.ConfidenceScore(s.wc), 1e-9)
}

func (s *EngineSuite) TestHardBlocks() {
	s.Run("flagged watchlist rejects a clean case", func() {
		s.record(models.StepDocumentVerification, models.StepStatusSuccess, `{"summary":{"risk_score":0,"average_quality":99}}`)
		s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"matching_result":{"match_score":100}}`)
		s.record(models.StepWatchlistScreening, models.StepStatusSuccess, `{"flagged":true}`)

		a := s.engine.Aggregate(s.wc)

		s.Equal(models.RecommendationReject, a.Recommendation)
		s.Equal(RuleWatchlistHardBlock, a.Rule)
		s.Contains(a.RiskFactors, FactorWatchlistMatch)
	})

	s.Run("failed qa rejects a clean case", func() {
		s.SetupTest()
		s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"matching_result":{"match_score":99}}`)
		s.record(models.StepQualityAssurance, models.StepStatusSuccess, `{"status":"failed","qa_score":20}`)

		a := s.engine.Aggregate(s.wc)

		s.Equal(models.RecommendationReject, a.Recommendation)
		s.Equal(RuleQAHardBlock, a.Rule)
	})

	s.Run("errored watchlist step is not a hit", func() {
		s.SetupTest()
		s.record(models.StepWatchlistScreening, models.StepStatusError, `{"flagged":true}`)

		a := s.engine.Aggregate(s.wc)

		s.False(a.Signals.WatchlistFlagged)
		s.NotContains(a.RiskFactors, FactorWatchlistMatch)
	})
}

func (s *EngineSuite) TestRiskFactors() {
	s.record(models.StepDocumentVerification, models.StepStatusSuccess, `{"summary":{"average_quality":65}}`)
	s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"matching_result":{"match_score":79.9}}`)

	s.Equal([]string{FactorPoorDocumentQuality, FactorLowBiometricMatch}, s.engine.RiskFactors(s.wc))
}

func (s *EngineSuite) TestApproveScenario() {
	s.record(models.StepDocumentVerification, models.StepStatusSuccess, `{"summary":{"risk_score":10,"average_quality":92}}`)
	s.record(models.StepBiometricMatch, models.StepStatusSuccess, `{"matching_result":{"match_score":95}}`)
	s.record(models.StepDataIntegration, models.StepStatusSuccess, `{"overall_risk_score":15}`)
	s.record(models.StepWatchlistScreening, models.StepStatusSuccess, `{"flagged":false}`)
	s.record(models.StepQualityAssurance, models.StepStatusSuccess, `{"status":"passed","qa_score":96}`)

	a := s.engine.Aggregate(s.wc)

	// (0.2*10 + 0.3*5 + 0.1*15 + 0.4*10) / 1.0 = 9
	s.InDelta(9.0, a.RiskScore, 1e-9)
	s.Equal(95.0, a.ConfidenceScore)
	s.Equal(models.RecommendationApprove, a.Recommendation)
	s.Empty(a.RiskFactors)
}
