package agentic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/agentic"
	"dmeflow/internal/extraction/llmextract"
	"dmeflow/internal/extraction/rules"
	"dmeflow/internal/llm"
	"dmeflow/internal/port"
	"dmeflow/internal/validator"
	"dmeflow/mocks"
)

const oxygenNote = `Patient Name: Harold Finch
DOB: 04/12/1952
Diagnosis: COPD
Portable oxygen tank at 2 L during sleep and exertion.
Ordered by Dr. Cuddy.`

func pipelineConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		Mode:                  "agentic",
		ProcessingMode:        "standard",
		ValidationThreshold:   0.7,
		MaxCorrectionAttempts: 2,
		ReviewThreshold:       0.6,
		MaxTokens:             1024,
		Temperature:           0.0,
	}
}

func newPipeline(client port.LLMClient, cfg config.ExtractionConfig) *agentic.Pipeline {
	det := rules.NewExtractor()
	llm := llmextract.NewExtractor(client, det, cfg)
	return agentic.NewPipeline(client, llm, det, validator.NewEngine(), cfg)
}

func stageResponse(text string) *port.CompletionResponse {
	return &port.CompletionResponse{Text: text, Model: "test-model", InputTokens: 10, OutputTokens: 5}
}

const analyzerJSON = `{"reasoning": "structured note", "confidence": 0.9, "sections": ["demographics", "device request"]}`
const extractorJSON = `{
	"reasoning": "found oxygen order",
	"confidence": 0.85,
	"device_order": {
		"device": "Oxygen Tank",
		"patient_name": "Harold Finch",
		"dob": "04/12/1952",
		"diagnosis": "COPD",
		"ordering_provider": "Dr. Cuddy",
		"liters": "2 L",
		"usage": "sleep and exertion"
	}
}`
const validatorJSON = `{"reasoning": "all fields grounded", "confidence": 0.9, "issues": [], "complete": true}`
const assessorJSON = `{"reasoning": "high agreement", "confidence": 0.9, "overall_confidence": 0.92}`

// stubStages queues one response per stage call, matched in order.
func stubStages(client *mocks.MockLLMClient, texts ...string) {
	for _, text := range texts {
		client.On("Complete", mock.Anything, mock.Anything).
			Return(stageResponse(text), nil).Once()
	}
}

func stubAllStages(client *mocks.MockLLMClient) {
	stubStages(client, analyzerJSON, extractorJSON, validatorJSON, assessorJSON)
}

func TestPipeline_ExtractWithAgents_FourStages(t *testing.T) {
	client := new(mocks.MockLLMClient)
	stubAllStages(client)

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{SourceID: "n1"})

	require.Len(t, result.Steps, 4)
	assert.Equal(t, "document_analyzer", result.Steps[0].Agent)
	assert.Equal(t, "primary_extractor", result.Steps[1].Agent)
	assert.Equal(t, "medical_validator", result.Steps[2].Agent)
	assert.Equal(t, "confidence_assessor", result.Steps[3].Agent)

	assert.Equal(t, domain.DeviceOxygenTank, result.Order.Device)
	assert.Equal(t, "Harold Finch", result.Order.PatientName)
	assert.Equal(t, "2 L", result.Order.Liters)
	assert.Equal(t, "Dr. Cuddy", result.Order.OrderingProvider)

	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
	assert.Equal(t, "test-model", result.Metadata.Model)
	assert.Equal(t, 40, result.Metadata.InputTokens)
	assert.Equal(t, 20, result.Metadata.OutputTokens)
	client.AssertExpectations(t)
}

func TestPipeline_ExtractWithAgents_StageFailureDegrades(t *testing.T) {
	client := new(mocks.MockLLMClient)
	// Every stage call fails; the pipeline still completes with four
	// degraded steps and a deterministic order.
	client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("model unavailable")).Times(4)

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{SourceID: "n1"})

	require.Len(t, result.Steps, 4)
	for _, step := range result.Steps {
		assert.Equal(t, "no AI analysis performed", step.Reasoning)
		assert.InDelta(t, 0.5, step.Confidence, 1e-9)
		assert.Equal(t, true, step.Outputs["fallback_used"])
	}

	// Deterministic extraction still produced a full order.
	assert.Equal(t, domain.DeviceOxygenTank, result.Order.Device)
	assert.Equal(t, "Harold Finch", result.Order.PatientName)
	client.AssertExpectations(t)
}

func TestPipeline_ExtractWithAgents_RateLimitRecordedInMetadata(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, llm.NewRateLimitError("anthropic", errors.New("429 overloaded"), 45)).Times(4)

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{SourceID: "n7"})

	require.Len(t, result.Steps, 4)
	require.NotNil(t, result.Metadata.RateLimited)
	assert.Equal(t, "anthropic", result.Metadata.RateLimited.Provider)
	assert.Equal(t, 45*time.Second, result.Metadata.RateLimited.RetryAfter)
	// The order itself still comes from the deterministic fallback.
	assert.Equal(t, domain.DeviceOxygenTank, result.Order.Device)
}

func TestPipeline_ExtractWithAgents_UnparseableStageDegrades(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(stageResponse("I cannot answer in JSON, sorry."), nil).Times(4)

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{})

	require.Len(t, result.Steps, 4)
	assert.Equal(t, "no AI analysis performed", result.Steps[1].Reasoning)
	assert.Equal(t, domain.DeviceOxygenTank, result.Order.Device)
}

func TestPipeline_ExtractWithAgents_ConfidenceDefaultsWhenAssessorSilent(t *testing.T) {
	client := new(mocks.MockLLMClient)
	stubStages(client, analyzerJSON, extractorJSON, validatorJSON, `{"reasoning": "no score"}`)

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{})

	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestPipeline_ExtractWithAgents_ConfidenceClamped(t *testing.T) {
	client := new(mocks.MockLLMClient)
	stubStages(client, analyzerJSON, extractorJSON, validatorJSON, `{"overall_confidence": 3.5}`)

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{})

	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestPipeline_ExtractWithAgents_NilClientFallback(t *testing.T) {
	p := newPipeline(nil, pipelineConfig())

	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{})

	require.Len(t, result.Steps, 1)
	assert.Equal(t, "fallback_extractor", result.Steps[0].Agent)
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.Equal(t, domain.DeviceOxygenTank, result.Order.Device)
}

func TestPipeline_ExtractWithAgents_ValidationAttached(t *testing.T) {
	client := new(mocks.MockLLMClient)
	stubAllStages(client)
	// Fifth call is the dedicated validation prompt.
	client.On("Complete", mock.Anything, mock.Anything).
		Return(stageResponse(`{"is_valid": true, "score": 0.95}`), nil).Once()

	p := newPipeline(client, pipelineConfig())
	result := p.ExtractWithAgents(context.Background(), oxygenNote, domain.ExtractionContext{RequireValidation: true})

	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
	assert.InDelta(t, 0.95, result.Validation.Score, 1e-9)
	client.AssertExpectations(t)
}

func TestPipeline_Attempt_NilClientErrors(t *testing.T) {
	p := newPipeline(nil, pipelineConfig())

	order, err := p.Attempt(context.Background(), oxygenNote)

	assert.ErrorIs(t, err, domain.ErrNoLLMConfigured)
	assert.Nil(t, order)
}

func TestPipeline_Name(t *testing.T) {
	assert.Equal(t, "agentic", newPipeline(nil, pipelineConfig()).Name())
}
