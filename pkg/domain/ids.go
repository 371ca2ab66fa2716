package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "kycflow/pkg/domain-errors"
)

const maxCaseIDLength = 128

// CaseID identifies one KYC case end to end. Callers may supply their own
// identifier; otherwise one is generated at ingress.
type CaseID string

// NewCaseID generates a random case identifier.
func NewCaseID() CaseID {
	return CaseID(uuid.NewString())
}

// ParseCaseID validates an externally supplied case identifier.
func ParseCaseID(s string) (CaseID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "case_id is required")
	}
	if len(s) > maxCaseIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "case_id must be 128 characters or less")
	}
	for _, r := range s {
		if !isCaseIDRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "case_id contains invalid characters")
		}
	}
	return CaseID(s), nil
}

func isCaseIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.' || r == ':':
		return true
	}
	return false
}

func (id CaseID) String() string { return string(id) }

// IsNil reports whether the identifier is empty.
func (id CaseID) IsNil() bool { return id == "" }

// EventID identifies one published event (results, feedback, audit).
type EventID uuid.UUID

func NewEventID() EventID { return EventID(uuid.New()) }

func (id EventID) String() string { return uuid.UUID(id).String() }
