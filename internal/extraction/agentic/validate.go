package agentic

import (
	"context"
	"log"

	"dmeflow/internal/domain"
	"dmeflow/internal/port"
)

const validatorSystem = "You are a DME order auditor. You compare extracted device orders against their source physician notes and report discrepancies."

// ValidateOrder assesses an extracted order against its source note. The
// model's judgment is preferred; the rule-based validator covers any run
// where the model is unavailable or returns garbage.
func (p *Pipeline) ValidateOrder(ctx context.Context, order domain.DeviceOrder, noteText string) *domain.ValidationResult {
	if p.client != nil {
		resp, err := p.client.Complete(ctx, port.CompletionRequest{
			System:      validatorSystem,
			Prompt:      buildValidationPrompt(order, noteText),
			MaxTokens:   p.cfg.MaxTokens,
			Temperature: p.cfg.Temperature,
		})
		if err == nil {
			result, perr := parseValidationJSON(resp.Text)
			if perr == nil {
				return result
			}
			log.Printf("agentic.Pipeline: unparseable validation output: %v", perr)
		} else {
			log.Printf("agentic.Pipeline: validation call failed: %v", err)
		}
	}
	result := p.validator.Validate(ctx, order, noteText)
	return &result
}
