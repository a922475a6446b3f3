// Package llmextract implements single-shot LLM extraction with a
// deterministic fallback. The caller is never exposed to a model failure:
// anything that goes wrong degrades to pattern-based extraction on the
// original note text.
package llmextract

import (
	"context"
	"fmt"
	"log"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/rules"
	"dmeflow/internal/port"
)

// Extractor sends one structured-output prompt to the model and parses the
// response into a DeviceOrder.
type Extractor struct {
	client   port.LLMClient // nil = no credentials configured
	fallback *rules.Extractor
	cfg      config.ExtractionConfig
}

// NewExtractor creates an LLM Extractor. A nil client short-circuits every
// call to the deterministic fallback without a network attempt.
func NewExtractor(client port.LLMClient, fallback *rules.Extractor, cfg config.ExtractionConfig) *Extractor {
	return &Extractor{client: client, fallback: fallback, cfg: cfg}
}

// Extract produces a DeviceOrder for the note. Total with respect to the
// caller: model or parse failures fall back to deterministic extraction.
func (e *Extractor) Extract(ctx context.Context, noteText string) domain.DeviceOrder {
	order, err := e.ExtractViaModel(ctx, noteText)
	if err != nil {
		log.Printf("llmextract.Extractor: model extraction failed, using deterministic fallback: %v", err)
		return e.fallback.Extract(noteText)
	}
	return *order
}

// ExtractViaModel runs the model path strictly: it returns an error when no
// client is configured, the call fails, or the response cannot be parsed.
// Used by the orchestrator's strategy chain, which owns the fallback.
func (e *Extractor) ExtractViaModel(ctx context.Context, noteText string) (*domain.DeviceOrder, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no llm client configured")
	}

	resp, err := e.client.Complete(ctx, port.CompletionRequest{
		System:      systemRole,
		Prompt:      buildExtractionPrompt(noteText),
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("completing extraction prompt: %w", err)
	}

	order, err := ParseOrderJSON(resp.Text)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Name implements port.Strategy.
func (e *Extractor) Name() string { return "llm" }

// Attempt implements port.Strategy with the strict model path.
func (e *Extractor) Attempt(ctx context.Context, noteText string) (*domain.DeviceOrder, error) {
	return e.ExtractViaModel(ctx, noteText)
}
