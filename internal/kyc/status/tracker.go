// Package status tracks where each case is in its lifecycle. Trackers are
// fed by the workflow driver as a StateObserver and read by the case API.
package status

import (
	"context"
	"fmt"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

// Tracker records transitions and answers status lookups.
type Tracker interface {
	Transition(ctx context.Context, st models.CaseStatus) error
	Get(ctx context.Context, caseID id.CaseID) (models.CaseStatus, error)
}

// checkTransition decides whether next may replace current. A repeated
// status is reported as a no-op.
func checkTransition(current, next models.CaseStatus) (apply bool, err error) {
	if current.State == "" {
		return true, nil
	}
	if current.State == next.State && current.Step == next.Step {
		return false, nil
	}
	if current.State.IsTerminal() || !current.State.CanTransitionTo(next.State) {
		return false, fmt.Errorf("case %s %s -> %s: %w", next.CaseID, current.State, next.State, sentinel.ErrInvalidState)
	}
	return true, nil
}
