package models

import (
	"time"

	id "kycflow/pkg/domain"
)

// CaseState is a position in the per-case lifecycle:
//
//	pending -> running(step)... -> aggregating -> assembled
//	pending|running|aggregating -> errored
//	pending -> assembled (data-quality gate short-circuit)
type CaseState string

const (
	CaseStatePending     CaseState = "pending"
	CaseStateRunning     CaseState = "running"
	CaseStateAggregating CaseState = "aggregating"
	CaseStateAssembled   CaseState = "assembled"
	CaseStateErrored     CaseState = "errored"
)

func (s CaseState) IsTerminal() bool {
	return s == CaseStateAssembled || s == CaseStateErrored
}

// CanTransitionTo reports whether next is a legal successor. Running to
// running is legal only when the step changes; callers check that.
func (s CaseState) CanTransitionTo(next CaseState) bool {
	switch s {
	case CaseStatePending:
		return next == CaseStateRunning || next == CaseStateAggregating ||
			next == CaseStateAssembled || next == CaseStateErrored
	case CaseStateRunning:
		return next == CaseStateRunning || next == CaseStateAggregating || next == CaseStateErrored
	case CaseStateAggregating:
		return next == CaseStateAssembled || next == CaseStateErrored
	}
	return false
}

// CaseStatus is the tracked lifecycle position of one case.
type CaseStatus struct {
	CaseID    id.CaseID `json:"case_id"`
	State     CaseState `json:"state"`
	Step      StepName  `json:"step,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feedback is a reviewer's verdict on a processed case, consumed from the
// feedback topic and kept for threshold tuning.
type Feedback struct {
	CaseID     id.CaseID      `json:"case_id"`
	Reviewer   string         `json:"reviewer"`
	Decision   Recommendation `json:"decision"`
	Agrees     bool           `json:"agrees_with_recommendation"`
	Notes      string         `json:"notes,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}
