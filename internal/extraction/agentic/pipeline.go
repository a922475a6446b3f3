package agentic

import (
	"context"
	"errors"
	"log"
	"time"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/llmextract"
	"dmeflow/internal/extraction/rules"
	"dmeflow/internal/llm"
	"dmeflow/internal/port"
)

// Pipeline runs the four-stage agentic extraction. A nil client is a valid
// configuration: every run then degrades to a single deterministic step.
type Pipeline struct {
	client    port.LLMClient
	llm       *llmextract.Extractor
	det       *rules.Extractor
	validator port.OrderValidator
	cfg       config.ExtractionConfig
}

func NewPipeline(client port.LLMClient, llm *llmextract.Extractor, det *rules.Extractor, validator port.OrderValidator, cfg config.ExtractionConfig) *Pipeline {
	return &Pipeline{client: client, llm: llm, det: det, validator: validator, cfg: cfg}
}

// ExtractWithAgents runs every stage in order and always returns a usable
// result. Stage failures are recorded as degraded steps, never propagated.
func (p *Pipeline) ExtractWithAgents(ctx context.Context, noteText string, ectx domain.ExtractionContext) domain.AgenticExtractionResult {
	start := time.Now()

	if p.client == nil {
		return p.fallbackResult(ctx, noteText, start, "no model client configured")
	}

	var (
		steps        []domain.AgentStep
		model        string
		inputTokens  int
		outputTokens int
		rateLimited  *domain.RateLimitHint
	)
	for _, spec := range stageSpecs {
		stepStart := time.Now()
		resp, err := p.client.Complete(ctx, port.CompletionRequest{
			System:      spec.system,
			Prompt:      buildStagePrompt(spec, noteText, steps),
			MaxTokens:   p.maxTokensFor(ectx.Mode),
			Temperature: p.cfg.Temperature,
		})
		if err != nil {
			log.Printf("agentic.Pipeline: stage %s failed for source=%s: %v", spec.name, ectx.SourceID, err)
			var rlErr *llm.RateLimitError
			if errors.As(err, &rlErr) && rateLimited == nil {
				rateLimited = &domain.RateLimitHint{Provider: rlErr.Provider, RetryAfter: rlErr.RetryAfter}
			}
			steps = append(steps, degradedStep(spec, time.Since(stepStart)))
			continue
		}
		model = resp.Model
		inputTokens += resp.InputTokens
		outputTokens += resp.OutputTokens

		outputs, err := parseStageOutputs(resp.Text)
		if err != nil {
			log.Printf("agentic.Pipeline: stage %s returned unparseable output for source=%s: %v", spec.name, ectx.SourceID, err)
			steps = append(steps, degradedStep(spec, time.Since(stepStart)))
			continue
		}

		confidence := 0.7
		if f, ok := floatOutput(outputs, "confidence"); ok {
			confidence = clamp01(f)
		}
		steps = append(steps, domain.AgentStep{
			Agent:      spec.name,
			Role:       spec.role,
			Reasoning:  stringOutput(outputs, "reasoning"),
			Confidence: confidence,
			Outputs:    outputs,
			Duration:   time.Since(stepStart),
		})
	}

	order := p.orderFromSteps(steps, noteText)
	confidence := overallConfidence(steps)

	var validation *domain.ValidationResult
	if ectx.RequireValidation {
		validation = p.ValidateOrder(ctx, order, noteText)
		order, validation = p.SelfCorrect(ctx, order, validation, noteText)
	}

	return domain.AgenticExtractionResult{
		Order:      order,
		Confidence: confidence,
		Steps:      steps,
		Validation: validation,
		Metadata: domain.ExtractionMetadata{
			Duration:     time.Since(start),
			Model:        model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			RateLimited:  rateLimited,
		},
	}
}

// Name identifies this strategy in extraction metadata.
func (p *Pipeline) Name() string { return "agentic" }

// Attempt implements port.Strategy. Unlike ExtractWithAgents it fails fast
// when no model client is configured, so a chained fallback can take over.
func (p *Pipeline) Attempt(ctx context.Context, noteText string) (*domain.DeviceOrder, error) {
	if p.client == nil {
		return nil, domain.ErrNoLLMConfigured
	}
	result := p.ExtractWithAgents(ctx, noteText, domain.ExtractionContext{
		Mode:              domain.ProcessingMode(p.cfg.ProcessingMode),
		RequireValidation: p.cfg.RequireValidation,
	})
	return &result.Order, nil
}

// orderFromSteps pulls the device order out of the primary extractor's
// outputs; a deterministic pass over the note covers every miss.
func (p *Pipeline) orderFromSteps(steps []domain.AgentStep, noteText string) domain.DeviceOrder {
	if len(steps) > primaryStageIndex {
		if order, ok := orderFromOutputs(steps[primaryStageIndex].Outputs); ok {
			return *order
		}
	}
	return p.det.Extract(noteText)
}

// fallbackResult produces the single-step degraded result used when the
// pipeline cannot run at all.
func (p *Pipeline) fallbackResult(ctx context.Context, noteText string, start time.Time, reason string) domain.AgenticExtractionResult {
	order := p.llm.Extract(ctx, noteText)
	return domain.AgenticExtractionResult{
		Order:      order,
		Confidence: 0.5,
		Steps: []domain.AgentStep{{
			Agent:      "fallback_extractor",
			Role:       "Single-step extraction without agent stages",
			Reasoning:  reason,
			Confidence: 0.5,
			Duration:   time.Since(start),
		}},
		Metadata: domain.ExtractionMetadata{Duration: time.Since(start)},
	}
}

// overallConfidence reads the assessor stage's verdict when it ran, and
// settles on 0.8 otherwise.
func overallConfidence(steps []domain.AgentStep) float64 {
	if len(steps) == len(stageSpecs) {
		outputs := steps[len(steps)-1].Outputs
		if f, ok := floatOutput(outputs, "overall_confidence"); ok {
			return clamp01(f)
		}
		if f, ok := floatOutput(outputs, "confidence"); ok {
			return clamp01(f)
		}
	}
	return 0.8
}

func degradedStep(spec agentSpec, elapsed time.Duration) domain.AgentStep {
	return domain.AgentStep{
		Agent:      spec.name,
		Role:       spec.role,
		Reasoning:  "no AI analysis performed",
		Confidence: 0.5,
		Outputs:    map[string]interface{}{"fallback_used": true},
		Duration:   elapsed,
	}
}

func (p *Pipeline) maxTokensFor(mode domain.ProcessingMode) int {
	base := p.cfg.MaxTokens
	if base <= 0 {
		base = 1024
	}
	switch mode {
	case domain.ProcessingModeFast:
		return base / 2
	case domain.ProcessingModeThorough:
		return base * 2
	default:
		return base
	}
}
