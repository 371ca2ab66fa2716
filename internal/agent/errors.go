package agent

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for agent calls.
type ErrorCategory string

const (
	// CategoryTimeout indicates the agent did not answer within the call timeout
	CategoryTimeout ErrorCategory = "timeout"

	// CategoryNetwork indicates the request never got a response (dial, reset, DNS)
	CategoryNetwork ErrorCategory = "network"

	// CategoryBadStatus indicates a non-2xx HTTP status
	CategoryBadStatus ErrorCategory = "bad_status"

	// CategoryBadResponse indicates the body was not a valid agent envelope
	CategoryBadResponse ErrorCategory = "bad_response"

	// CategoryAgentError indicates the agent answered with status "error"
	CategoryAgentError ErrorCategory = "agent_error"

	// CategoryCircuitOpen indicates the call was short-circuited by the breaker
	CategoryCircuitOpen ErrorCategory = "circuit_open"

	// CategoryCanceled indicates the caller's context ended before the call did
	CategoryCanceled ErrorCategory = "canceled"

	// CategoryInternal indicates the request could not be built
	CategoryInternal ErrorCategory = "internal"
)

// Error wraps agent failures with a normalized category.
type Error struct {
	Category   ErrorCategory
	Agent      string
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("agent %s [%s]: %s: %v", e.Agent, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("agent %s [%s]: %s", e.Agent, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a categorized agent error.
func NewError(category ErrorCategory, agent, message string, underlying error) *Error {
	retryable := category == CategoryTimeout ||
		category == CategoryNetwork ||
		category == CategoryBadStatus

	return &Error{
		Category:   category,
		Agent:      agent,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// newStatusError records the HTTP status; only 5xx and 429 are worth retrying.
func newStatusError(agent string, status int, snippet string) *Error {
	e := NewError(CategoryBadStatus, agent, fmt.Sprintf("unexpected status %d: %s", status, snippet), nil)
	e.StatusCode = status
	e.Retryable = status >= 500 || status == 429
	return e
}

// IsRetryable checks if an error is worth another attempt.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Category
	}
	return CategoryInternal
}
