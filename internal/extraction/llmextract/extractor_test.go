package llmextract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/llmextract"
	"dmeflow/internal/extraction/rules"
	"dmeflow/internal/port"
	"dmeflow/mocks"
)

func testExtractionConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		MaxTokens:   1024,
		Temperature: 0.0,
	}
}

const modelJSON = `{
  "device": "Oxygen Tank",
  "patient_name": "Harold Finch",
  "dob": "04/12/1952",
  "diagnosis": "COPD",
  "ordering_provider": "Cuddy",
  "liters": "2 L",
  "usage": "sleep and exertion",
  "mask_type": "",
  "add_ons": [],
  "qualifier": ""
}`

func TestExtractor_Extract_ModelSuccess(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(&port.CompletionResponse{Text: modelJSON}, nil)

	e := llmextract.NewExtractor(client, rules.NewExtractor(), testExtractionConfig())
	order := e.Extract(context.Background(), "Oxygen note text")

	assert.Equal(t, domain.DeviceOxygenTank, order.Device)
	assert.Equal(t, "Harold Finch", order.PatientName)
	assert.Equal(t, "2 L", order.Liters)
	assert.Equal(t, "Dr. Cuddy", order.OrderingProvider)
	client.AssertExpectations(t)
}

func TestExtractor_Extract_ModelFailureFallsBack(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	e := llmextract.NewExtractor(client, rules.NewExtractor(), testExtractionConfig())
	order := e.Extract(context.Background(), "Patient requires CPAP therapy with nasal mask.")

	// Degraded result equals what deterministic extraction alone produces.
	assert.Equal(t, rules.NewExtractor().Extract("Patient requires CPAP therapy with nasal mask."), order)
	assert.Equal(t, domain.DeviceCPAP, order.Device)
}

func TestExtractor_Extract_UnparseableOutputFallsBack(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(&port.CompletionResponse{Text: "I could not find an order in this note."}, nil)

	e := llmextract.NewExtractor(client, rules.NewExtractor(), testExtractionConfig())
	order := e.Extract(context.Background(), "Home oxygen at 2 L.")

	assert.Equal(t, domain.DeviceOxygenTank, order.Device)
	assert.Equal(t, "2 L", order.Liters)
}

func TestExtractor_Extract_NilClientFallsBack(t *testing.T) {
	e := llmextract.NewExtractor(nil, rules.NewExtractor(), testExtractionConfig())

	order := e.Extract(context.Background(), "Wheelchair for mobility.")

	assert.Equal(t, domain.DeviceWheelchair, order.Device)
}

func TestExtractor_ExtractViaModel_NilClientErrors(t *testing.T) {
	e := llmextract.NewExtractor(nil, rules.NewExtractor(), testExtractionConfig())

	order, err := e.ExtractViaModel(context.Background(), "any note")

	assert.Error(t, err)
	assert.Nil(t, order)
}

func TestExtractor_ExtractViaModel_PropagatesCallError(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited"))

	e := llmextract.NewExtractor(client, rules.NewExtractor(), testExtractionConfig())
	_, err := e.ExtractViaModel(context.Background(), "note")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestExtractor_Name(t *testing.T) {
	e := llmextract.NewExtractor(nil, rules.NewExtractor(), testExtractionConfig())
	assert.Equal(t, "llm", e.Name())
}

func TestExtractor_Attempt_IsStrict(t *testing.T) {
	e := llmextract.NewExtractor(nil, rules.NewExtractor(), testExtractionConfig())

	order, err := e.Attempt(context.Background(), "CPAP note")

	assert.Error(t, err)
	assert.Nil(t, order)
}
