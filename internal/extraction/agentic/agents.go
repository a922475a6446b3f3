// Package agentic implements multi-stage LLM extraction: four specialized
// reasoning stages run sequentially, each consuming the previous stages'
// JSON output as prompt context, followed by an optional validation and
// self-correction loop. Every stage degrades independently; the pipeline
// always completes and never raises past its entry point.
package agentic

// agentSpec describes one reasoning stage.
type agentSpec struct {
	name   string // AgentStep.Agent identifier
	role   string // human-readable role description
	system string // system prompt role instructions
	task   string // stage task + requested output schema
}

// stageSpecs lists the four pipeline stages in execution order. The order
// is fixed: each later stage consumes earlier stages' outputs.
var stageSpecs = [4]agentSpec{
	{
		name:   "document_analyzer",
		role:   "Analyzes note structure and identifies relevant sections",
		system: "You are a clinical document analyst. You examine physician notes and identify their structural sections before any data extraction happens.",
		task: `Analyze the structure of the physician note. Identify which sections are present (patient demographics, diagnosis, device request, provider signature) and where the device-related content is.

Return ONLY a JSON object:
{
  "reasoning": "<brief analysis of the note's structure>",
  "confidence": <0.0-1.0>,
  "sections": ["<section names found>"],
  "device_cues": ["<device-related phrases found>"]
}`,
	},
	{
		name:   "primary_extractor",
		role:   "Extracts the structured device order from the note",
		system: "You are a medical equipment order extraction specialist. You produce precise structured data from physician notes, never inventing values that are not in the source text.",
		task: `Extract the complete device order from the physician note, using the document analysis above as a guide.

Return ONLY a JSON object:
{
  "reasoning": "<brief explanation of what was extracted and why>",
  "confidence": <0.0-1.0>,
  "device_order": {
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
}

Use "Unknown" for device if unidentifiable and empty strings for fields not present in the note.`,
	},
	{
		name:   "medical_validator",
		role:   "Reviews the extraction for completeness and clinical plausibility",
		system: "You are a clinical reviewer for a DME supplier. You check extracted orders against their source notes for completeness and plausibility. You report issues; you do not rewrite the order.",
		task: `Review the extracted device order above against the original note. Check that every extracted value appears in the note, that no clearly stated field was missed, and that the device matches the diagnosis.

Return ONLY a JSON object:
{
  "reasoning": "<brief review summary>",
  "confidence": <0.0-1.0>,
  "issues": [
    {"field": "", "description": "", "severity": "info|warning|error|critical"}
  ],
  "complete": <true|false>
}`,
	},
	{
		name:   "confidence_assessor",
		role:   "Scores the overall extraction confidence",
		system: "You are a quality assessor. You produce a single calibrated confidence score for an extraction, given the extraction itself and a reviewer's findings.",
		task: `Assess the overall confidence in the extracted device order, taking the validator's issues above into account.

Return ONLY a JSON object:
{
  "reasoning": "<brief justification of the score>",
  "confidence": <0.0-1.0>,
  "overall_confidence": <0.0-1.0>,
  "field_confidence": {"<field>": <0.0-1.0>}
}`,
	},
}

// Index of the stage whose output carries the candidate device order.
const primaryStageIndex = 1
