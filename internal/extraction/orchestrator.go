// Package extraction wires the three extraction strategies into a single
// entry point. The configured mode decides the chain: agentic runs the
// multi-stage pipeline, llm runs single-shot model extraction with a
// deterministic fallback, deterministic runs pattern matching alone.
package extraction

import (
	"context"
	"errors"
	"log"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/agentic"
	"dmeflow/internal/extraction/llmextract"
	"dmeflow/internal/extraction/rules"
	"dmeflow/internal/llm"
	"dmeflow/internal/port"
)

// Default confidence assigned to non-agentic methods, which produce no
// model-reported confidence of their own.
const (
	confidenceDeterministic = 0.6
	confidenceLLM           = 0.75
)

// Result is what one extraction run produced, whichever strategy won.
type Result struct {
	Order      domain.DeviceOrder
	Method     string
	Confidence float64
	Validation *domain.ValidationResult
	Steps      []domain.AgentStep
	Metadata   domain.ExtractionMetadata
}

// Orchestrator tries strategies in order until one succeeds. The chain
// always ends in the deterministic extractor, which cannot fail, so
// Extract is total: every input, empty or not, yields an order.
type Orchestrator struct {
	chain     []port.Strategy
	pipeline  *agentic.Pipeline
	det       *rules.Extractor
	validator port.OrderValidator
	cfg       config.ExtractionConfig
}

// NewOrchestrator builds the strategy chain for the configured mode.
// A nil client degrades every chain to its deterministic tail.
func NewOrchestrator(cfg config.ExtractionConfig, client port.LLMClient, validator port.OrderValidator) *Orchestrator {
	det := rules.NewExtractor()
	llm := llmextract.NewExtractor(client, det, cfg)

	o := &Orchestrator{det: det, validator: validator, cfg: cfg}
	switch domain.ExtractionMode(cfg.Mode) {
	case domain.ExtractionModeAgentic:
		o.pipeline = agentic.NewPipeline(client, llm, det, validator, cfg)
		o.chain = []port.Strategy{o.pipeline, llm, det}
	case domain.ExtractionModeLLM:
		o.chain = []port.Strategy{llm, det}
	default:
		o.chain = []port.Strategy{det}
	}
	return o
}

// Extract runs the chain against one note. It never fails: unrecognizable
// input comes back as an Unknown-sentinel order from the deterministic tail.
func (o *Orchestrator) Extract(ctx context.Context, noteText string, ectx domain.ExtractionContext) (*Result, error) {
	if o.pipeline != nil {
		res := o.pipeline.ExtractWithAgents(ctx, noteText, ectx)
		return &Result{
			Order:      res.Order,
			Method:     o.pipeline.Name(),
			Confidence: res.Confidence,
			Validation: res.Validation,
			Steps:      res.Steps,
			Metadata:   res.Metadata,
		}, nil
	}

	var rateLimited *domain.RateLimitHint
	for _, strategy := range o.chain {
		order, err := strategy.Attempt(ctx, noteText)
		if err != nil {
			log.Printf("extraction.Orchestrator: strategy %s failed for source=%s: %v", strategy.Name(), ectx.SourceID, err)
			var rlErr *llm.RateLimitError
			if errors.As(err, &rlErr) && rateLimited == nil {
				rateLimited = &domain.RateLimitHint{Provider: rlErr.Provider, RetryAfter: rlErr.RetryAfter}
			}
			continue
		}
		result := &Result{
			Order:      *order,
			Method:     strategy.Name(),
			Confidence: confidenceFor(strategy.Name()),
			Metadata:   domain.ExtractionMetadata{RateLimited: rateLimited},
		}
		if ectx.RequireValidation && o.validator != nil {
			v := o.validator.Validate(ctx, result.Order, noteText)
			result.Validation = &v
		}
		return result, nil
	}

	// Unreachable while the deterministic extractor anchors every chain,
	// but keeps Extract total if the chain is ever reconfigured.
	order := o.det.Extract(noteText)
	return &Result{
		Order:      order,
		Method:     o.det.Name(),
		Confidence: confidenceDeterministic,
		Metadata:   domain.ExtractionMetadata{RateLimited: rateLimited},
	}, nil
}

func confidenceFor(method string) float64 {
	if method == "llm" {
		return confidenceLLM
	}
	return confidenceDeterministic
}
