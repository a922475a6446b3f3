// Package patterns is the pattern library behind deterministic extraction:
// ordered, case-insensitive device and attribute patterns with
// first-match-wins semantics. Pure data and matching rules, no I/O.
package patterns

import (
	"regexp"
	"strings"

	"dmeflow/internal/domain"
)

// Pattern is a single case-insensitive textual pattern: either a plain
// substring or a regular expression.
type Pattern struct {
	substr string
	re     *regexp.Regexp
}

// Substring returns a case-insensitive substring pattern.
func Substring(s string) Pattern {
	return Pattern{substr: strings.ToLower(s)}
}

// Regex returns a case-insensitive regular-expression pattern. The
// expression must compile; patterns are package-level data, so a bad
// expression is a programming error.
func Regex(expr string) Pattern {
	return Pattern{re: regexp.MustCompile("(?i)" + expr)}
}

// Match reports whether the pattern matches anywhere in text.
func (p Pattern) Match(text string) bool {
	if p.re != nil {
		return p.re.MatchString(text)
	}
	return strings.Contains(strings.ToLower(text), p.substr)
}

// DeviceRule binds a device category to its ordered patterns.
type DeviceRule struct {
	Device   string
	Patterns []Pattern
}

// DeviceRules lists device categories in classification priority order.
// CPAP/BiPAP come before anything that could match on generic "bed" or
// "monitor" cues, so notes mentioning several devices resolve to the
// first satisfied category rather than the one with the most cues.
var DeviceRules = []DeviceRule{
	{Device: domain.DeviceCPAP, Patterns: []Pattern{
		Substring("cpap"),
		Substring("continuous positive airway"),
	}},
	{Device: domain.DeviceBiPAP, Patterns: []Pattern{
		Substring("bipap"),
		Substring("bilevel positive airway"),
	}},
	{Device: domain.DeviceOxygenTank, Patterns: []Pattern{
		Substring("oxygen tank"),
		Substring("oxygen concentrator"),
		Substring("oxygen"),
		Substring("portable o2"),
	}},
	{Device: domain.DeviceNebulizer, Patterns: []Pattern{
		Substring("nebulizer"),
		Substring("nebuliser"),
	}},
	{Device: domain.DeviceWheelchair, Patterns: []Pattern{
		Substring("wheelchair"),
	}},
	{Device: domain.DeviceHospitalBed, Patterns: []Pattern{
		Substring("hospital bed"),
		Substring("adjustable bed"),
		Regex(`\bbed\b`),
	}},
	{Device: domain.DeviceGlucoseMonitor, Patterns: []Pattern{
		Substring("glucose monitor"),
		Substring("glucometer"),
		Substring("blood glucose"),
	}},
}

// MatchDevice classifies the note text into a device category, or returns
// ok=false when no pattern matches. Patterns inside a rule and rules
// themselves are tested in order; the first hit wins.
func MatchDevice(text string) (string, bool) {
	for _, rule := range DeviceRules {
		for _, p := range rule.Patterns {
			if p.Match(text) {
				return rule.Device, true
			}
		}
	}
	return "", false
}
