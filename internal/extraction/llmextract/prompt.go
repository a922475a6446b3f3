package llmextract

const systemRole = "You are a medical equipment order extraction assistant for a DME supplier."

// buildExtractionPrompt returns the single-shot extraction prompt with the
// fixed field set the parser expects.
func buildExtractionPrompt(noteText string) string {
	return `Extract the durable medical equipment order from the physician note below.

Return ONLY a valid JSON object with no markdown formatting, no code fences, no explanation, just the raw JSON object with exactly these keys:
{
  "device": "",
  "patient_name": "",
  "dob": "",
  "diagnosis": "",
  "ordering_provider": "",
  "liters": "",
  "usage": "",
  "mask_type": "",
  "add_ons": [],
  "qualifier": ""
}

Rules:
- "device" is the normalized device category (e.g., "CPAP", "BiPAP", "Oxygen Tank", "Hospital Bed", "Wheelchair", "Nebulizer", "Glucose Monitor"). Use "Unknown" if no device is identifiable.
- "liters" is the oxygen flow rate formatted as "<number> L" (e.g., "2 L").
- "usage" is the usage schedule (e.g., "sleep and exertion").
- "qualifier" is a severity qualifier phrase quoted verbatim from the note (e.g., "AHI > 20").
- "add_ons" lists accessories (e.g., "humidifier", "side rails").
- Use an empty string (or empty array) for any field not present in the note. Never invent values.

PHYSICIAN NOTE:
` + noteText
}
