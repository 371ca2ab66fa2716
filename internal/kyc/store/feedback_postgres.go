package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

// PostgresFeedbackStore appends reviewer feedback to kyc_case_feedback.
type PostgresFeedbackStore struct {
	pool *pgxpool.Pool
}

func NewPostgresFeedbackStore(pool *pgxpool.Pool) *PostgresFeedbackStore {
	return &PostgresFeedbackStore{pool: pool}
}

func (s *PostgresFeedbackStore) Save(ctx context.Context, fb models.Feedback) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kyc_case_feedback (id, case_id, reviewer, decision, agrees, notes, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), fb.CaseID.String(), fb.Reviewer, string(fb.Decision), fb.Agrees, fb.Notes, fb.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgresFeedbackStore) ListByCase(ctx context.Context, caseID id.CaseID) ([]models.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT case_id, reviewer, decision, agrees, notes, received_at
		FROM kyc_case_feedback
		WHERE case_id = $1
		ORDER BY received_at ASC
	`, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var (
			fb       models.Feedback
			cid      string
			decision string
		)
		if err := rows.Scan(&cid, &fb.Reviewer, &decision, &fb.Agrees, &fb.Notes, &fb.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.CaseID = id.CaseID(cid)
		fb.Decision = models.Recommendation(decision)
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}
