package audit

import (
	"context"
	"time"

	id "kycflow/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Categories drive retention: compliance events are kept for the regulatory
// period, operations events can be pruned.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// case decisions, fallbacks and reviewer feedback.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the case lifecycle. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID        id.EventID
	Category  EventCategory
	Timestamp time.Time
	CaseID    id.CaseID
	Action    string
	// Decision is the recommendation for decision events.
	Decision  string
	Reason    string
	RequestID string
	// ActorID is the reviewer or client that triggered the event, when known.
	ActorID string
}

type AuditEvent string

const (
	EventCaseSubmitted    AuditEvent = "kyc_case_submitted"
	EventCaseCompleted    AuditEvent = "kyc_case_completed"
	EventCaseFallback     AuditEvent = "kyc_case_fallback"
	EventCaseGateRejected AuditEvent = "kyc_case_gate_rejected"
	EventFeedbackReceived AuditEvent = "kyc_feedback_received"
	EventCaseDuplicate    AuditEvent = "kyc_case_duplicate"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventCaseCompleted:    CategoryCompliance,
	EventCaseFallback:     CategoryCompliance,
	EventCaseGateRejected: CategoryCompliance,
	EventFeedbackReceived: CategoryCompliance,

	EventCaseSubmitted: CategoryOperations,
	EventCaseDuplicate: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
