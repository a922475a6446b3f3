package validator

import (
	"fmt"
	"regexp"
	"strings"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/patterns"
)

var (
	providerPattern = regexp.MustCompile(`^Dr\. [A-Z][a-zA-Z'-]*`)
	litersPattern   = regexp.MustCompile(`^\d+(?:\.\d+)? L$`)
	dobPattern      = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$|^\d{4}-\d{2}-\d{2}$`)
)

// builtinRule wraps a check function and its metadata for the registry.
type builtinRule struct {
	key      string
	name     string
	severity domain.IssueSeverity
	check    func(order *domain.DeviceOrder, noteText string) []Finding
}

func (r *builtinRule) Key() string                    { return r.key }
func (r *builtinRule) Name() string                   { return r.name }
func (r *builtinRule) Severity() domain.IssueSeverity { return r.severity }
func (r *builtinRule) Check(order *domain.DeviceOrder, noteText string) []Finding {
	return r.check(order, noteText)
}

func presenceFinding(field, value string) Finding {
	return Finding{
		Passed:       value != "",
		Field:        field,
		Description:  fmt.Sprintf("%s is missing from the extracted order", field),
		SuggestedFix: fmt.Sprintf("re-read the note for a %s line", strings.ReplaceAll(field, "_", " ")),
	}
}

// AllBuiltinRules returns the built-in rule set for device orders,
// ordered roughly by how damning a failure is.
func AllBuiltinRules() []Rule {
	return []Rule{
		&builtinRule{
			key: "device_identified", name: "Device identified",
			severity: domain.SeverityError,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				return []Finding{{
					Passed:       order.Device != domain.DeviceUnknown,
					Field:        "device",
					Description:  "no device could be identified in the note",
					SuggestedFix: "check the note for equipment keywords such as CPAP, oxygen, or wheelchair",
				}}
			},
		},
		&builtinRule{
			key: "device_grounded", name: "Device grounded in note",
			severity: domain.SeverityWarning,
			check: func(order *domain.DeviceOrder, noteText string) []Finding {
				if order.Device == domain.DeviceUnknown {
					return nil
				}
				matched, ok := patterns.MatchDevice(noteText)
				return []Finding{{
					Passed:       !ok || matched == order.Device,
					Field:        "device",
					Description:  fmt.Sprintf("order names %s but the note reads like a %s order", order.Device, matched),
					SuggestedFix: "confirm the device against the note's equipment wording",
				}}
			},
		},
		&builtinRule{
			key: "patient_name_present", name: "Patient name present",
			severity: domain.SeverityWarning,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				return []Finding{presenceFinding("patient_name", order.PatientName)}
			},
		},
		&builtinRule{
			key: "dob_format", name: "Date of birth format",
			severity: domain.SeverityWarning,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				if order.DateOfBirth == "" {
					return []Finding{presenceFinding("dob", order.DateOfBirth)}
				}
				return []Finding{{
					Passed:       dobPattern.MatchString(order.DateOfBirth),
					Field:        "dob",
					Description:  fmt.Sprintf("date of birth %q is not in a recognized format", order.DateOfBirth),
					SuggestedFix: "use MM/DD/YYYY or YYYY-MM-DD",
				}}
			},
		},
		&builtinRule{
			key: "diagnosis_present", name: "Diagnosis present",
			severity: domain.SeverityWarning,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				return []Finding{presenceFinding("diagnosis", order.Diagnosis)}
			},
		},
		&builtinRule{
			key: "provider_identified", name: "Ordering provider identified",
			severity: domain.SeverityWarning,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				return []Finding{{
					Passed:       order.OrderingProvider != domain.ProviderUnknown,
					Field:        "ordering_provider",
					Description:  "no ordering provider could be identified in the note",
					SuggestedFix: "look for a signature line or an 'ordered by' phrase",
				}}
			},
		},
		&builtinRule{
			key: "provider_format", name: "Provider name format",
			severity: domain.SeverityWarning,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				if order.OrderingProvider == domain.ProviderUnknown {
					return nil
				}
				passed := providerPattern.MatchString(order.OrderingProvider) &&
					!strings.Contains(order.OrderingProvider, "Dr. Dr.")
				return []Finding{{
					Passed:       passed,
					Field:        "ordering_provider",
					Description:  fmt.Sprintf("provider name %q is not in the expected 'Dr. <Name>' form", order.OrderingProvider),
					SuggestedFix: "normalize the provider to a single 'Dr. ' prefix",
				}}
			},
		},
		&builtinRule{
			key: "oxygen_flow_rate", name: "Oxygen flow rate",
			severity: domain.SeverityError,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				if order.Device != domain.DeviceOxygenTank {
					return nil
				}
				if order.Liters == "" {
					return []Finding{{
						Passed:       false,
						Field:        "liters",
						Description:  "oxygen order has no flow rate",
						SuggestedFix: "look for a liters-per-minute figure in the note",
					}}
				}
				return []Finding{{
					Passed:       litersPattern.MatchString(order.Liters),
					Field:        "liters",
					Description:  fmt.Sprintf("flow rate %q is not in the expected '<n> L' form", order.Liters),
					SuggestedFix: "format the flow rate as a number followed by ' L'",
				}}
			},
		},
		&builtinRule{
			key: "cpap_mask_type", name: "CPAP mask type",
			severity: domain.SeverityInfo,
			check: func(order *domain.DeviceOrder, _ string) []Finding {
				if order.Device != domain.DeviceCPAP && order.Device != domain.DeviceBiPAP {
					return nil
				}
				return []Finding{{
					Passed:       order.MaskType != "",
					Field:        "mask_type",
					Description:  "positive airway pressure order has no mask type",
					SuggestedFix: "check the note for full face, nasal, or nasal pillow wording",
				}}
			},
		},
	}
}
