package validator

import (
	"context"

	"dmeflow/internal/domain"
)

// Engine runs every registered rule against an order and aggregates the
// findings into one ValidationResult. It satisfies port.OrderValidator.
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine preloaded with the built-in rule set.
func NewEngine() *Engine {
	registry := NewRegistry()
	for _, rule := range AllBuiltinRules() {
		registry.Register(rule)
	}
	return &Engine{registry: registry}
}

// NewEngineWithRegistry creates an engine over a caller-supplied registry.
func NewEngineWithRegistry(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Validate scores the order as the fraction of passed findings. Rules that
// return no findings for this device do not affect the score.
func (e *Engine) Validate(_ context.Context, order domain.DeviceOrder, noteText string) domain.ValidationResult {
	result := domain.ValidationResult{
		IsValid:         true,
		FieldConfidence: make(map[string]float64),
	}

	total := 0
	passed := 0
	seenSuggestions := make(map[string]bool)

	for _, rule := range e.registry.All() {
		for _, finding := range rule.Check(&order, noteText) {
			total++
			if finding.Passed {
				passed++
				if _, seen := result.FieldConfidence[finding.Field]; !seen {
					result.FieldConfidence[finding.Field] = 1.0
				}
				continue
			}

			result.FieldConfidence[finding.Field] = 0.4
			result.Issues = append(result.Issues, domain.ValidationIssue{
				Field:        finding.Field,
				Description:  finding.Description,
				Severity:     rule.Severity(),
				SuggestedFix: finding.SuggestedFix,
			})
			if finding.SuggestedFix != "" && !seenSuggestions[finding.SuggestedFix] {
				seenSuggestions[finding.SuggestedFix] = true
				result.Suggestions = append(result.Suggestions, finding.SuggestedFix)
			}
		}
	}

	if total == 0 {
		result.Score = 1.0
		return result
	}
	result.Score = float64(passed) / float64(total)
	result.IsValid = !result.HasSeverity(domain.SeverityError)
	return result
}
