package llmextract

import "strings"

// StripCodeFence removes a markdown code fence wrapper from model output.
// Models frequently wrap JSON in ``` fences despite instructions, so this
// runs before any parse.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line (which may carry a language tag).
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}

	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// CleanFieldValue trims whitespace, trailing commas, and surrounding quotes
// from a model-produced string value. Model output is not fully trusted
// even when it arrives as valid JSON.
func CleanFieldValue(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimRight(cleaned, ",")
	cleaned = strings.Trim(cleaned, `"'`)
	return strings.TrimSpace(cleaned)
}
