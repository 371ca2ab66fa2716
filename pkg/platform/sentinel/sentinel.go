package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, trackers and claimers
// return these (optionally wrapped) so the case service can translate them
// into coded errors.
//
//   - ErrNotFound: no record for the case ID
//   - ErrConflict: the case ID was already claimed or stored
//   - ErrInvalidState: a state transition that the case lifecycle forbids
//   - ErrUnavailable: backing store or broker temporarily unavailable
//   - ErrClosed: the component was shut down and accepts no more work
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrClosed       = errors.New("closed")
)
