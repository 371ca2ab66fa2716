package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "kycflow/pkg/domain"
	audit "kycflow/pkg/platform/audit"
	txcontext "kycflow/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Appends join the
// context transaction when there is one, so a case result and its audit
// event commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an event. Idempotent on the event ID.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.UUID(event.ID)
	if eventID == uuid.Nil {
		eventID = uuid.New()
	}
	// Always derive category from action - eventCategories map is the source of truth
	category := audit.AuditEvent(event.Action).Category()

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, case_id, action,
			decision, reason, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		event.CaseID.String(),
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByCase returns a case's events in time order.
func (s *Store) ListByCase(ctx context.Context, caseID id.CaseID) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, case_id, action,
			   decision, reason, request_id, actor_id
		FROM audit_events
		WHERE case_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, case_id, action,
			   decision, reason, request_id, actor_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			eventID  uuid.UUID
			category string
			caseID   string
			event    audit.Event
		)
		err := rows.Scan(
			&eventID,
			&category,
			&event.Timestamp,
			&caseID,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.Category = audit.EventCategory(category)
		event.CaseID = id.CaseID(caseID)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
