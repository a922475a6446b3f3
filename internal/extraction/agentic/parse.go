package agentic

import (
	"encoding/json"
	"fmt"
	"strconv"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/llmextract"
)

// parseStageOutputs decodes one stage's model response into a generic
// key-value bag, stripping any markdown fence first.
func parseStageOutputs(raw string) (map[string]interface{}, error) {
	var outputs map[string]interface{}
	if err := json.Unmarshal([]byte(llmextract.StripCodeFence(raw)), &outputs); err != nil {
		return nil, fmt.Errorf("parsing stage output: %w", err)
	}
	return outputs, nil
}

// stringOutput reads a string value from a stage output bag.
func stringOutput(outputs map[string]interface{}, key string) string {
	if v, ok := outputs[key].(string); ok {
		return v
	}
	return ""
}

// floatOutput reads a numeric value leniently: JSON numbers arrive as
// float64, but models occasionally quote them.
func floatOutput(outputs map[string]interface{}, key string) (float64, bool) {
	switch v := outputs[key].(type) {
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// orderFromOutputs extracts a DeviceOrder from the primary stage's output
// bag. The nested "device_order" layout is tried first; a flat layout
// (order fields at the top level) is tolerated as a fallback.
func orderFromOutputs(outputs map[string]interface{}) (*domain.DeviceOrder, bool) {
	if nested, ok := outputs["device_order"].(map[string]interface{}); ok {
		if order, ok := orderFromMap(nested); ok {
			return order, true
		}
	}
	if _, ok := outputs["device"]; ok {
		if order, ok := orderFromMap(outputs); ok {
			return order, true
		}
	}
	return nil, false
}

func orderFromMap(m map[string]interface{}) (*domain.DeviceOrder, bool) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	order, err := llmextract.ParseOrderJSON(string(raw))
	if err != nil {
		return nil, false
	}
	return &order, true
}

// parseSeverity normalizes a model-reported severity string; anything
// unrecognized is treated as a warning.
func parseSeverity(s string) domain.IssueSeverity {
	switch domain.IssueSeverity(s) {
	case domain.SeverityInfo, domain.SeverityWarning, domain.SeverityError, domain.SeverityCritical:
		return domain.IssueSeverity(s)
	default:
		return domain.SeverityWarning
	}
}

// parseValidationJSON decodes a model validation response into a
// ValidationResult, lenient on every field.
func parseValidationJSON(raw string) (*domain.ValidationResult, error) {
	var payload struct {
		IsValid bool    `json:"is_valid"`
		Score   float64 `json:"score"`
		Issues  []struct {
			Field        string `json:"field"`
			Description  string `json:"description"`
			Severity     string `json:"severity"`
			SuggestedFix string `json:"suggested_fix"`
		} `json:"issues"`
		FieldConfidence map[string]float64 `json:"field_confidence"`
		Suggestions     []string           `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(llmextract.StripCodeFence(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parsing validation output: %w", err)
	}

	result := &domain.ValidationResult{
		IsValid:         payload.IsValid,
		Score:           clamp01(payload.Score),
		FieldConfidence: payload.FieldConfidence,
		Suggestions:     payload.Suggestions,
	}
	for _, issue := range payload.Issues {
		result.Issues = append(result.Issues, domain.ValidationIssue{
			Field:        issue.Field,
			Description:  issue.Description,
			Severity:     parseSeverity(issue.Severity),
			SuggestedFix: issue.SuggestedFix,
		})
	}
	return result, nil
}
