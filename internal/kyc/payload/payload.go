// Package payload reads the step-specific agent payloads.
//
// Agent data is schema-less JSON. Each accessor decodes only the fields it
// needs and reports whether the field was present, so callers can apply the
// documented default when it is not.
package payload

import (
	"encoding/json"
	"strings"
)

// Identity holds the fields extracted by document OCR that downstream steps consume.
type Identity struct {
	Name        string `json:"name,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	IDNumber    string `json:"id_number,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Address     string `json:"address,omitempty"`
}

// IsZero reports whether no identity field was extracted.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// FullName prefers the explicit name and falls back to first + last.
func (i Identity) FullName() string {
	if i.Name != "" {
		return i.Name
	}
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

type ocrPayload struct {
	Results []struct {
		DocumentType    string         `json:"document_type"`
		ExtractedData   map[string]any `json:"extracted_data"`
		ConfidenceScore *float64       `json:"confidence_score"`
		DocumentQuality *float64       `json:"document_quality"`
	} `json:"results"`
	Summary struct {
		RiskScore         *float64 `json:"risk_score"`
		AverageQuality    *float64 `json:"average_quality"`
		AverageConfidence *float64 `json:"average_confidence"`
	} `json:"summary"`
}

func decodeOCR(data json.RawMessage) (ocrPayload, bool) {
	var p ocrPayload
	if len(data) == 0 || json.Unmarshal(data, &p) != nil {
		return ocrPayload{}, false
	}
	return p, true
}

// DocumentRisk returns summary.risk_score.
func DocumentRisk(data json.RawMessage) (float64, bool) {
	p, ok := decodeOCR(data)
	if !ok || p.Summary.RiskScore == nil {
		return 0, false
	}
	return *p.Summary.RiskScore, true
}

// DocumentQuality returns summary.average_quality, falling back to the mean
// of per-document quality scores.
func DocumentQuality(data json.RawMessage) (float64, bool) {
	p, ok := decodeOCR(data)
	if !ok {
		return 0, false
	}
	if p.Summary.AverageQuality != nil {
		return *p.Summary.AverageQuality, true
	}
	var sum float64
	var n int
	for _, r := range p.Results {
		if r.DocumentQuality != nil {
			sum += *r.DocumentQuality
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ExtractIdentity returns the identity fields of the first OCR result that
// carries any.
func ExtractIdentity(data json.RawMessage) Identity {
	p, ok := decodeOCR(data)
	if !ok {
		return Identity{}
	}
	for _, r := range p.Results {
		id := Identity{
			Name:        stringField(r.ExtractedData, "name", "full_name"),
			FirstName:   stringField(r.ExtractedData, "first_name", "given_name"),
			LastName:    stringField(r.ExtractedData, "last_name", "surname"),
			DateOfBirth: stringField(r.ExtractedData, "date_of_birth", "dob"),
			IDNumber:    stringField(r.ExtractedData, "id_number", "document_number"),
			Nationality: stringField(r.ExtractedData, "nationality"),
			Address:     stringField(r.ExtractedData, "address"),
		}
		if !id.IsZero() {
			return id
		}
	}
	return Identity{}
}

// MatchScore returns the biometric match score from matching_result.match_score,
// falling back to a top-level match_score.
func MatchScore(data json.RawMessage) (float64, bool) {
	var p struct {
		MatchingResult struct {
			MatchScore *float64 `json:"match_score"`
		} `json:"matching_result"`
		MatchScore *float64 `json:"match_score"`
	}
	if len(data) == 0 || json.Unmarshal(data, &p) != nil {
		return 0, false
	}
	switch {
	case p.MatchingResult.MatchScore != nil:
		return *p.MatchingResult.MatchScore, true
	case p.MatchScore != nil:
		return *p.MatchScore, true
	}
	return 0, false
}

// WatchlistFlagged reports the watchlist hit flag. Absent means not flagged.
func WatchlistFlagged(data json.RawMessage) bool {
	var p struct {
		Flagged bool `json:"flagged"`
	}
	if len(data) == 0 || json.Unmarshal(data, &p) != nil {
		return false
	}
	return p.Flagged
}

// DataIntegrationRisk returns overall_risk_score.
func DataIntegrationRisk(data json.RawMessage) (float64, bool) {
	var p struct {
		OverallRiskScore *float64 `json:"overall_risk_score"`
	}
	if len(data) == 0 || json.Unmarshal(data, &p) != nil || p.OverallRiskScore == nil {
		return 0, false
	}
	return *p.OverallRiskScore, true
}

// QA is the quality-assurance verdict as reported by the agent.
type QA struct {
	Status     string
	Score      float64
	HasScore   bool
	Exceptions []string
}

// QualityAssurance decodes status, qa_score and exceptions. Exceptions may be
// plain strings or objects with a description field.
func QualityAssurance(data json.RawMessage) (QA, bool) {
	var p struct {
		Status     string            `json:"status"`
		QAScore    *float64          `json:"qa_score"`
		Exceptions []json.RawMessage `json:"exceptions"`
	}
	if len(data) == 0 || json.Unmarshal(data, &p) != nil {
		return QA{}, false
	}
	qa := QA{Status: strings.ToLower(strings.TrimSpace(p.Status))}
	if p.QAScore != nil {
		qa.Score, qa.HasScore = *p.QAScore, true
	}
	for _, raw := range p.Exceptions {
		if text := exceptionText(raw); text != "" {
			qa.Exceptions = append(qa.Exceptions, text)
		}
	}
	return qa, true
}

// QualityScore returns the data-quality agent's overall_score (0..1).
func QualityScore(data json.RawMessage) (float64, bool) {
	var p struct {
		OverallScore *float64 `json:"overall_score"`
	}
	if len(data) == 0 || json.Unmarshal(data, &p) != nil || p.OverallScore == nil {
		return 0, false
	}
	return *p.OverallScore, true
}

func exceptionText(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Description string `json:"description"`
		Message     string `json:"message"`
		Type        string `json:"exception_type"`
	}
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	switch {
	case obj.Description != "":
		return obj.Description
	case obj.Message != "":
		return obj.Message
	}
	return obj.Type
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
