package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
	txcontext "kycflow/pkg/platform/tx"
)

// PostgresResultStore persists results in kyc_case_results. The full result
// is kept as jsonb; the summary columns exist for querying.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

func (s *PostgresResultStore) Save(ctx context.Context, res *models.CaseResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal case result: %w", err)
	}

	query := `
		INSERT INTO kyc_case_results (
			case_id, recommendation, risk_score, confidence_score,
			risk_factors, fallback, result, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (case_id) DO NOTHING
	`
	out, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		res.CaseID.String(),
		string(res.Summary.Recommendation),
		res.Summary.RiskScore,
		res.Summary.ConfidenceScore,
		pq.Array(res.RiskFactors),
		res.Fallback,
		body,
		res.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case result: %w", err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert case result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("case %s: %w", res.CaseID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresResultStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.CaseResult, error) {
	query := `SELECT result FROM kyc_case_results WHERE case_id = $1`

	var body []byte
	err := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, caseID.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find case result: %w", err)
	}
	return decodeResult(body)
}

func (s *PostgresResultStore) ListRecent(ctx context.Context, limit int) ([]*models.CaseResult, error) {
	query := `
		SELECT result
		FROM kyc_case_results
		ORDER BY completed_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query case results: %w", err)
	}
	defer rows.Close()

	var out []*models.CaseResult
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan case result: %w", err)
		}
		res, err := decodeResult(body)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case results: %w", err)
	}
	return out, nil
}

func decodeResult(body []byte) (*models.CaseResult, error) {
	var res models.CaseResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode case result: %w", err)
	}
	return &res, nil
}
