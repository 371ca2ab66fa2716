package agent

import (
	"encoding/json"
	"time"
)

// OutcomeKind discriminates the Outcome variants.
type OutcomeKind int

const (
	KindCompleted OutcomeKind = iota
	KindFailed
	KindTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case KindCompleted:
		return "completed"
	case KindFailed:
		return "failed"
	case KindTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Response is the envelope every agent returns from /process.
type Response struct {
	AgentName      string          `json:"agent_name"`
	Status         string          `json:"status"`
	Data           json.RawMessage `json:"data"`
	ProcessingTime float64         `json:"processing_time"`
	Error          string          `json:"error,omitempty"`
	Version        string          `json:"version"`
}

// Outcome is the result of one gateway call. Exactly one variant is set:
// Completed carries Response, Failed and TimedOut carry Err.
type Outcome struct {
	Kind     OutcomeKind
	Response *Response
	Err      error
	Elapsed  time.Duration
}

func Completed(resp *Response, elapsed time.Duration) Outcome {
	return Outcome{Kind: KindCompleted, Response: resp, Elapsed: elapsed}
}

func Failed(err error, elapsed time.Duration) Outcome {
	return Outcome{Kind: KindFailed, Err: err, Elapsed: elapsed}
}

func TimedOut(err error, elapsed time.Duration) Outcome {
	return Outcome{Kind: KindTimedOut, Err: err, Elapsed: elapsed}
}

// Retryable reports whether a driver-level retry could change the outcome.
func (o Outcome) Retryable() bool {
	switch o.Kind {
	case KindTimedOut:
		return true
	case KindFailed:
		return IsRetryable(o.Err)
	}
	return false
}
