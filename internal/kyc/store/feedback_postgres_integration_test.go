//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"kycflow/internal/kyc/models"
	"kycflow/pkg/testutil/containers"
)

type PostgresStoresSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	pool     *pgxpool.Pool
	results  *PostgresResultStore
	feedback *PostgresFeedbackStore
}

func TestPostgresStoresSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoresSuite))
}

func (s *PostgresStoresSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	pool, err := pgxpool.New(context.Background(), s.pg.DSN)
	s.Require().NoError(err)
	s.pool = pool
	s.results = NewPostgresResultStore(s.pg.DB)
	s.feedback = NewPostgresFeedbackStore(pool)
}

func (s *PostgresStoresSuite) TearDownSuite() {
	s.pool.Close()
}

func (s *PostgresStoresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "kyc_case_results", "kyc_case_feedback"))
}

func (s *PostgresStoresSuite) TestResultWriteOnce() {
	ctx := context.Background()
	res := sampleResult()

	s.Require().NoError(s.results.Save(ctx, res))
	s.Error(s.results.Save(ctx, res))

	got, err := s.results.FindByID(ctx, res.CaseID)
	s.Require().NoError(err)
	s.Equal(res.Summary.RiskScore, got.Summary.RiskScore)
	s.True(res.CompletedAt.Equal(got.CompletedAt))
}

func (s *PostgresStoresSuite) TestFeedbackRoundTrip() {
	ctx := context.Background()
	at := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.feedback.Save(ctx, models.Feedback{
		CaseID: "case-1", Reviewer: "analyst-7", Decision: models.RecommendationEscalate,
		Notes: "address mismatch", ReceivedAt: at,
	}))
	s.Require().NoError(s.feedback.Save(ctx, models.Feedback{
		CaseID: "case-1", Reviewer: "analyst-9", Decision: models.RecommendationConditional,
		Agrees: true, ReceivedAt: at.Add(time.Hour),
	}))

	got, err := s.feedback.ListByCase(ctx, "case-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("analyst-7", got[0].Reviewer)
	s.Equal(models.RecommendationEscalate, got[0].Decision)
	s.True(got[1].Agrees)
}
