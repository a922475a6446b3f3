package agentic

import (
	"encoding/json"
	"fmt"
	"strings"

	"dmeflow/internal/domain"
)

// buildStagePrompt assembles one stage's user prompt: the original note,
// all prior stages' JSON outputs as context, then the stage task.
func buildStagePrompt(spec agentSpec, noteText string, prior []domain.AgentStep) string {
	var b strings.Builder

	b.WriteString("PHYSICIAN NOTE:\n")
	b.WriteString(noteText)
	b.WriteString("\n")

	for _, step := range prior {
		if len(step.Outputs) == 0 {
			continue
		}
		outJSON, err := json.Marshal(step.Outputs)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s OUTPUT:\n%s\n", strings.ToUpper(step.Agent), outJSON)
	}

	b.WriteString("\n")
	b.WriteString(spec.task)
	return b.String()
}

// buildValidationPrompt asks the model to assess a candidate order against
// its source note.
func buildValidationPrompt(order domain.DeviceOrder, noteText string) string {
	orderJSON, _ := json.Marshal(order)
	return fmt.Sprintf(`Assess whether the extracted device order below is a faithful and complete extraction of the physician note.

PHYSICIAN NOTE:
%s

EXTRACTED ORDER:
%s

Return ONLY a JSON object:
{
  "is_valid": <true|false>,
  "score": <0.0-1.0>,
  "issues": [
    {"field": "", "description": "", "severity": "info|warning|error|critical", "suggested_fix": ""}
  ],
  "field_confidence": {"<field>": <0.0-1.0>},
  "suggestions": ["<free-text suggestions>"]
}`, noteText, orderJSON)
}

// buildCorrectionPrompt asks the model for a corrected order given the
// validation issues found.
func buildCorrectionPrompt(order domain.DeviceOrder, issues []domain.ValidationIssue, noteText string) string {
	orderJSON, _ := json.Marshal(order)
	issuesJSON, _ := json.Marshal(issues)
	return fmt.Sprintf(`The extracted device order below has validation issues. Produce a corrected order that resolves them, using ONLY information present in the physician note.

PHYSICIAN NOTE:
%s

CURRENT ORDER:
%s

VALIDATION ISSUES:
%s

Return ONLY the corrected JSON object with exactly these keys: device, patient_name, dob, diagnosis, ordering_provider, liters, usage, mask_type, add_ons, qualifier. No markdown, no explanation.`, noteText, orderJSON, issuesJSON)
}
