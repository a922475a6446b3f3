package patterns

import (
	"regexp"
	"strings"
)

// Labeled-line patterns shared by every device category.
var (
	patientNameRe = regexp.MustCompile(`(?im)^\s*patient name\s*:\s*(.+)$`)
	dobRe         = regexp.MustCompile(`(?im)^\s*dob\s*:\s*(.+)$`)
	diagnosisRe   = regexp.MustCompile(`(?im)^\s*diagnosis\s*:\s*(.+)$`)
)

// providerRes lists ordering-provider patterns in fallback order: the
// explicit label first, then the "Ordered by" phrasing, then any bare
// "Dr. Name" token anywhere in the note. First match wins.
var providerRes = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*ordering physician\s*:\s*(.+)$`),
	regexp.MustCompile(`(?i)ordered by\s+([^\n,]+)`),
	regexp.MustCompile(`\b(Dr\.\s*[A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)*)`),
}

// MatchPatientName extracts the "Patient Name:" line value.
func MatchPatientName(text string) (string, bool) {
	return matchLabeled(patientNameRe, text)
}

// MatchDateOfBirth extracts the "DOB:" line value.
func MatchDateOfBirth(text string) (string, bool) {
	return matchLabeled(dobRe, text)
}

// MatchDiagnosis extracts the "Diagnosis:" line value.
func MatchDiagnosis(text string) (string, bool) {
	return matchLabeled(diagnosisRe, text)
}

// MatchOrderingProvider extracts the prescribing physician's name using the
// fallback patterns, trimmed of trailing punctuation and normalized to start
// with "Dr. " exactly once.
func MatchOrderingProvider(text string) (string, bool) {
	for _, re := range providerRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := TrimFieldValue(m[1])
		if name == "" {
			continue
		}
		return NormalizeProvider(name), true
	}
	return "", false
}

// NormalizeProvider reformats a provider name to carry a single "Dr. "
// prefix (never "Dr. Dr.").
func NormalizeProvider(name string) string {
	trimmed := TrimFieldValue(name)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"dr.", "dr "} {
		if strings.HasPrefix(lower, prefix) {
			trimmed = strings.TrimSpace(trimmed[len(prefix):])
			break
		}
	}
	if trimmed == "" {
		return ""
	}
	return "Dr. " + trimmed
}

// TrimFieldValue strips surrounding whitespace and trailing punctuation
// from a captured field value.
func TrimFieldValue(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;:")
}

func matchLabeled(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	value := TrimFieldValue(m[1])
	return value, value != ""
}
