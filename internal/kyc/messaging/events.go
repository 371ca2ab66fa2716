// Package messaging moves cases and results over Kafka. Payloads travel as
// structured-mode CloudEvents; consumers also accept a bare JSON body so
// producers without a CloudEvents SDK can still submit cases.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

const (
	TypeCaseRequest  = "com.kycflow.case.request"
	TypeCaseResult   = "com.kycflow.case.result"
	TypeCaseFeedback = "com.kycflow.case.feedback"

	DefaultSource = "kycflow"
)

var ErrUnexpectedType = errors.New("unexpected event type")

// NewResultEvent wraps res in a CloudEvent keyed by its case.
func NewResultEvent(source string, res *models.CaseResult) (cloudevents.Event, error) {
	if source == "" {
		source = DefaultSource
	}
	event := cloudevents.NewEvent()
	event.SetID(id.NewEventID().String())
	event.SetSource(source)
	event.SetType(TypeCaseResult)
	event.SetSubject(res.CaseID.String())
	event.SetTime(res.CompletedAt)
	if err := event.SetData(cloudevents.ApplicationJSON, res); err != nil {
		return event, fmt.Errorf("encode result event: %w", err)
	}
	return event, nil
}

// DecodeRequest reads a case request from a record value.
func DecodeRequest(value []byte) (models.CaseRequest, error) {
	var req models.CaseRequest
	err := decode(value, TypeCaseRequest, &req)
	return req, err
}

// DecodeFeedback reads reviewer feedback from a record value.
func DecodeFeedback(value []byte) (models.Feedback, error) {
	var fb models.Feedback
	err := decode(value, TypeCaseFeedback, &fb)
	return fb, err
}

func decode(value []byte, wantType string, out any) error {
	var probe struct {
		SpecVersion string `json:"specversion"`
	}
	if err := json.Unmarshal(value, &probe); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if probe.SpecVersion == "" {
		if err := json.Unmarshal(value, out); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		return nil
	}

	var event cloudevents.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode cloudevent: %w", err)
	}
	if event.Type() != wantType {
		return fmt.Errorf("%w: %q", ErrUnexpectedType, event.Type())
	}
	if err := event.DataAs(out); err != nil {
		return fmt.Errorf("decode %s data: %w", wantType, err)
	}
	return nil
}
