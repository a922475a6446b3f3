package patterns

import (
	"regexp"
	"strings"
)

// maskTypes lists CPAP/BiPAP mask styles in match priority order. "nasal"
// must come after "nasal pillow" so the more specific style wins.
var maskTypes = []string{
	"full face",
	"nasal pillow",
	"nasal",
}

// MatchMaskType returns the first mask style mentioned in the text.
func MatchMaskType(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, m := range maskTypes {
		if strings.Contains(lower, m) {
			return m, true
		}
	}
	return "", false
}

// cpapAddOns maps accessory cues to their canonical add-on names.
var cpapAddOns = []struct{ cue, name string }{
	{"heated humidifier", "humidifier"},
	{"humidifier", "humidifier"},
	{"heated tubing", "heated tubing"},
	{"chin strap", "chin strap"},
}

// bedAddOns maps hospital bed accessory cues to canonical add-on names.
var bedAddOns = []struct{ cue, name string }{
	{"side rails", "side rails"},
	{"trapeze bar", "trapeze bar"},
	{"overbed table", "overbed table"},
}

func matchAddOns(text string, vocab []struct{ cue, name string }) []string {
	lower := strings.ToLower(text)
	var found []string
	seen := map[string]bool{}
	for _, a := range vocab {
		if strings.Contains(lower, a.cue) && !seen[a.name] {
			found = append(found, a.name)
			seen[a.name] = true
		}
	}
	return found
}

// MatchCPAPAddOns returns CPAP accessories mentioned in the text, in
// vocabulary order, deduplicated. Nil when none are found.
func MatchCPAPAddOns(text string) []string {
	return matchAddOns(text, cpapAddOns)
}

// MatchBedAddOns returns hospital bed accessories mentioned in the text.
func MatchBedAddOns(text string) []string {
	return matchAddOns(text, bedAddOns)
}

// ahiQualifier is matched as a literal clinical phrase. "AHI > 25" does not
// match; only the exact phrase qualifies.
const ahiQualifier = "AHI > 20"

// MatchQualifier returns the severity qualifier phrase if present verbatim.
func MatchQualifier(text string) (string, bool) {
	if strings.Contains(text, ahiQualifier) {
		return ahiQualifier, true
	}
	return "", false
}

// litersRe captures an oxygen flow rate such as "2 L", "2L", or "2.5 L".
var litersRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*L\b`)

// MatchLiters extracts the oxygen flow rate, normalized to "<value> L" with
// the original numeric precision preserved.
func MatchLiters(text string) (string, bool) {
	m := litersRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + " L", true
}

// MatchUsage derives the oxygen usage schedule from the presence of the
// words "sleep" and/or "exertion".
func MatchUsage(text string) (string, bool) {
	lower := strings.ToLower(text)
	sleep := strings.Contains(lower, "sleep")
	exertion := strings.Contains(lower, "exertion")
	switch {
	case sleep && exertion:
		return "sleep and exertion", true
	case sleep:
		return "sleep", true
	case exertion:
		return "exertion", true
	default:
		return "", false
	}
}

// testingFrequencyRe captures a glucose testing schedule, either from a
// labeled "Testing frequency:" segment or a bare "<n> times daily" phrase.
var testingFrequencyRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)testing\s+frequency\s*:?\s*([^\n.;]+)`),
	regexp.MustCompile(`(?i)\b((?:once|twice|three times|four times|\d+\s*times?)\s+(?:daily|a day|per day))\b`),
}

// MatchTestingFrequency extracts a glucose monitor testing schedule.
func MatchTestingFrequency(text string) (string, bool) {
	for _, re := range testingFrequencyRes {
		if m := re.FindStringSubmatch(text); m != nil {
			value := strings.TrimSpace(m[1])
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}
