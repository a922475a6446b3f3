// Package validator holds the rule-based validation of extracted device
// orders. Rules are registered in a Registry and run by the Engine, which
// aggregates per-rule findings into a single ValidationResult.
package validator

import (
	"dmeflow/internal/domain"
)

// Finding is the outcome of one rule check against one field.
type Finding struct {
	Passed       bool
	Field        string
	Description  string
	SuggestedFix string
}

// Rule is a single built-in validation rule.
type Rule interface {
	Key() string
	Name() string
	Severity() domain.IssueSeverity
	Check(order *domain.DeviceOrder, noteText string) []Finding
}
