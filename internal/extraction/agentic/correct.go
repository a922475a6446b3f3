package agentic

import (
	"context"
	"log"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/llmextract"
	"dmeflow/internal/port"
)

const correctorSystem = "You are a DME order corrector. Given an extracted order, its validation issues, and the source physician note, you produce a corrected order grounded strictly in the note."

// SelfCorrect re-prompts the model to fix validation issues. An order that
// already meets the threshold is returned untouched, so calling this twice
// changes nothing. Correction stops after MaxCorrectionAttempts rounds;
// when a correction call fails or parses badly, the last adopted order is
// kept silently.
func (p *Pipeline) SelfCorrect(ctx context.Context, order domain.DeviceOrder, validation *domain.ValidationResult, noteText string) (domain.DeviceOrder, *domain.ValidationResult) {
	if validation == nil || validation.Score >= p.cfg.ValidationThreshold {
		return order, validation
	}
	if p.client == nil {
		return order, validation
	}

	for attempt := 0; attempt < p.cfg.MaxCorrectionAttempts; attempt++ {
		resp, err := p.client.Complete(ctx, port.CompletionRequest{
			System:      correctorSystem,
			Prompt:      buildCorrectionPrompt(order, validation.Issues, noteText),
			MaxTokens:   p.cfg.MaxTokens,
			Temperature: p.cfg.Temperature,
		})
		if err != nil {
			log.Printf("agentic.Pipeline: correction attempt %d failed: %v", attempt+1, err)
			return order, validation
		}
		corrected, err := llmextract.ParseOrderJSON(resp.Text)
		if err != nil {
			log.Printf("agentic.Pipeline: correction attempt %d returned unparseable order: %v", attempt+1, err)
			return order, validation
		}

		order = corrected
		validation = p.ValidateOrder(ctx, order, noteText)
		if validation.Score >= p.cfg.ValidationThreshold {
			break
		}
	}
	return order, validation
}
