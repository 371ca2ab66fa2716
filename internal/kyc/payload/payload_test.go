package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

const ocrSample = `{
	"results": [
		{"document_type": "selfie", "extracted_data": {}},
		{"document_type": "passport", "extracted_data": {"first_name": "Ada", "last_name": "Lovelace", "date_of_birth": "1815-12-10", "document_number": "P123", "nationality": "GB"}, "document_quality": 60},
		{"document_type": "utility_bill", "extracted_data": {"address": "12 St James's Sq"}, "document_quality": 80}
	],
	"summary": {"documents_processed": 3, "risk_score": 22.5}
}`

func TestOCRAccessors(t *testing.T) {
	data := json.RawMessage(ocrSample)

	t.Run("identity comes from the first result with fields", func(t *testing.T) {
		id := ExtractIdentity(data)
		assert.Equal(t, "Ada Lovelace", id.FullName())
		assert.Equal(t, "1815-12-10", id.DateOfBirth)
		assert.Equal(t, "P123", id.IDNumber)
		assert.Equal(t, "GB", id.Nationality)
	})

	t.Run("risk reads the summary", func(t *testing.T) {
		risk, ok := DocumentRisk(data)
		assert.True(t, ok)
		assert.Equal(t, 22.5, risk)
	})

	t.Run("quality falls back to mean of documents", func(t *testing.T) {
		q, ok := DocumentQuality(data)
		assert.True(t, ok)
		assert.Equal(t, 70.0, q)
	})

	t.Run("absent payload reports absence", func(t *testing.T) {
		_, ok := DocumentRisk(nil)
		assert.False(t, ok)
		_, ok = DocumentQuality(json.RawMessage(`{"results":[]}`))
		assert.False(t, ok)
		assert.True(t, ExtractIdentity(json.RawMessage(`not json`)).IsZero())
	})
}

func TestStepAccessors(t *testing.T) {
	t.Run("match score prefers matching_result", func(t *testing.T) {
		score, ok := MatchScore(json.RawMessage(`{"matching_result":{"match_score":88},"match_score":10}`))
		assert.True(t, ok)
		assert.Equal(t, 88.0, score)

		score, ok = MatchScore(json.RawMessage(`{"match_score":42}`))
		assert.True(t, ok)
		assert.Equal(t, 42.0, score)

		_, ok = MatchScore(json.RawMessage(`{}`))
		assert.False(t, ok)
	})

	t.Run("watchlist flag defaults to false", func(t *testing.T) {
		assert.True(t, WatchlistFlagged(json.RawMessage(`{"flagged":true,"total_matches":1}`)))
		assert.False(t, WatchlistFlagged(json.RawMessage(`{"total_matches":0}`)))
		assert.False(t, WatchlistFlagged(nil))
	})

	t.Run("data integration risk", func(t *testing.T) {
		risk, ok := DataIntegrationRisk(json.RawMessage(`{"overall_risk_score":35}`))
		assert.True(t, ok)
		assert.Equal(t, 35.0, risk)
	})

	t.Run("qa decodes mixed exception shapes", func(t *testing.T) {
		qa, ok := QualityAssurance(json.RawMessage(`{"status":"FAILED","qa_score":41,"exceptions":["missing selfie",{"description":"name mismatch"},{"exception_type":"low_quality"}]}`))
		assert.True(t, ok)
		assert.Equal(t, "failed", qa.Status)
		assert.True(t, qa.HasScore)
		assert.Equal(t, 41.0, qa.Score)
		assert.Equal(t, []string{"missing selfie", "name mismatch", "low_quality"}, qa.Exceptions)
	})

	t.Run("quality score", func(t *testing.T) {
		score, ok := QualityScore(json.RawMessage(`{"overall_score":0.4}`))
		assert.True(t, ok)
		assert.Equal(t, 0.4, score)
	})
}
