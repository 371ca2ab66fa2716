package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/kyc/models"
)

const ocrData = `{"results":[{"document_type":"passport","extracted_data":{"first_name":"Ada","last_name":"Lovelace","date_of_birth":"1815-12-10","id_number":"P123","nationality":"GB"}}]}`

func testRequest() *models.CaseRequest {
	return &models.CaseRequest{
		CaseID:    "case-1",
		Customer:  map[string]any{"name": "Ada L.", "date_of_birth": "1815-12-10"},
		Documents: []models.Document{{Kind: "passport", ContentRef: "s3://docs/p.jpg"}},
		Config:    models.DefaultProcessingConfig(),
	}
}

func TestBuildersDeclareDependencies(t *testing.T) {
	builders := DefaultBuilders()
	require.Len(t, builders, len(models.WorkflowOrder()))

	assert.Empty(t, builders[models.StepDocumentVerification].Dependencies())
	assert.Equal(t, []models.StepName{models.StepDocumentVerification}, builders[models.StepBiometricMatch].Dependencies())
	assert.Len(t, builders[models.StepQualityAssurance].Dependencies(), 4)
}

func TestBiometricRequestCarriesOCRIdentity(t *testing.T) {
	up := Upstream{models.StepDocumentVerification: {
		Step: models.StepDocumentVerification, Status: models.StepStatusSuccess, Data: json.RawMessage(ocrData),
	}}

	got, err := biometricBuilder{}.Build(testRequest(), up)
	require.NoError(t, err)

	req := got.(BiometricRequest)
	assert.Equal(t, IdentityData{Name: "Ada Lovelace", DateOfBirth: "1815-12-10", IDNumber: "P123"}, req.IdentityData)
	assert.Equal(t, "case-1", req.CaseID)
	assert.Len(t, req.Documents, 1)
}

func TestFailedOCRYieldsEmptyIdentity(t *testing.T) {
	up := Upstream{models.StepDocumentVerification: {
		Step: models.StepDocumentVerification, Status: models.StepStatusTimeout, Data: json.RawMessage(ocrData),
	}}

	got, err := dataIntegrationBuilder{}.Build(testRequest(), up)
	require.NoError(t, err)
	assert.Equal(t, IdentityData{}, got.(DataIntegrationRequest).IdentityData)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"identity_data":{}`)
}

func TestWatchlistNameFallsBackToCustomer(t *testing.T) {
	t.Run("explicit name", func(t *testing.T) {
		got, err := watchlistBuilder{}.Build(testRequest(), Upstream{})
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", got.(WatchlistRequest).IdentityData.Name)
	})

	t.Run("first and last name", func(t *testing.T) {
		req := testRequest()
		req.Customer = map[string]any{"first_name": "Grace", "last_name": "Hopper"}

		got, err := watchlistBuilder{}.Build(req, Upstream{})
		require.NoError(t, err)
		assert.Equal(t, "Grace Hopper", got.(WatchlistRequest).IdentityData.Name)
	})

	t.Run("OCR wins", func(t *testing.T) {
		up := Upstream{models.StepDocumentVerification: {Status: models.StepStatusSuccess, Data: json.RawMessage(ocrData)}}

		got, err := watchlistBuilder{}.Build(testRequest(), up)
		require.NoError(t, err)
		id := got.(WatchlistRequest).IdentityData
		assert.Equal(t, "Ada Lovelace", id.Name)
		assert.Equal(t, "GB", id.Nationality)
	})
}

func TestQARequestIncludesFailedResults(t *testing.T) {
	up := Upstream{
		models.StepDocumentVerification: {Step: models.StepDocumentVerification, Status: models.StepStatusSuccess},
		models.StepBiometricMatch:       {Step: models.StepBiometricMatch, Status: models.StepStatusError, Error: "boom"},
	}

	got, err := qaBuilder{}.Build(testRequest(), up)
	require.NoError(t, err)

	qa := got.(QualityAssuranceRequest)
	assert.Len(t, qa.AllResults, 2)
	assert.Equal(t, models.StepStatusError, qa.AllResults[string(models.StepBiometricMatch)].Status)
	assert.True(t, qa.ProcessingConfig.EnableQA)
}

func TestDocumentStepsRequireDocuments(t *testing.T) {
	req := testRequest()
	req.Documents = nil

	_, err := documentBuilder{}.Build(req, Upstream{})
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = biometricBuilder{}.Build(req, Upstream{})
	assert.ErrorIs(t, err, ErrNoDocuments)
}
