// Package rules implements deterministic, pattern-based extraction. It is
// the terminal fallback of every extraction strategy: pure, synchronous,
// and total: any input string yields a populated DeviceOrder.
package rules

import (
	"context"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/patterns"
)

// Extractor turns raw note text into a DeviceOrder using the pattern
// library alone. Stateless; safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a deterministic Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract classifies the device and fills device-specific and generic
// fields. Unrecognized text yields the Unknown sentinels, never an error.
func (e *Extractor) Extract(noteText string) domain.DeviceOrder {
	order := domain.NewDeviceOrder()
	if device, ok := patterns.MatchDevice(noteText); ok {
		order.Device = device
	}

	order = applyDeviceFields(order, noteText)
	order = applyGenericFields(order, noteText)
	return order
}

// Name implements port.Strategy.
func (e *Extractor) Name() string { return "deterministic" }

// Attempt implements port.Strategy. Deterministic extraction cannot fail.
func (e *Extractor) Attempt(_ context.Context, noteText string) (*domain.DeviceOrder, error) {
	order := e.Extract(noteText)
	return &order, nil
}

// applyDeviceFields dispatches to the attribute routine for the classified
// device. Categories with only generic fields pass through unchanged.
func applyDeviceFields(order domain.DeviceOrder, text string) domain.DeviceOrder {
	switch order.Device {
	case domain.DeviceCPAP, domain.DeviceBiPAP:
		return applyCPAPFields(order, text)
	case domain.DeviceOxygenTank:
		return applyOxygenFields(order, text)
	case domain.DeviceHospitalBed:
		return applyBedFields(order, text)
	case domain.DeviceGlucoseMonitor:
		return applyGlucoseFields(order, text)
	default:
		return order
	}
}

func applyCPAPFields(order domain.DeviceOrder, text string) domain.DeviceOrder {
	if mask, ok := patterns.MatchMaskType(text); ok {
		order.MaskType = mask
	}
	if addOns := patterns.MatchCPAPAddOns(text); len(addOns) > 0 {
		order.AddOns = addOns
	}
	if qualifier, ok := patterns.MatchQualifier(text); ok {
		order.Qualifier = qualifier
	}
	return order
}

func applyOxygenFields(order domain.DeviceOrder, text string) domain.DeviceOrder {
	if liters, ok := patterns.MatchLiters(text); ok {
		order.Liters = liters
	}
	if usage, ok := patterns.MatchUsage(text); ok {
		order.Usage = usage
	}
	return order
}

func applyBedFields(order domain.DeviceOrder, text string) domain.DeviceOrder {
	if addOns := patterns.MatchBedAddOns(text); len(addOns) > 0 {
		order.AddOns = addOns
	}
	return order
}

func applyGlucoseFields(order domain.DeviceOrder, text string) domain.DeviceOrder {
	if freq, ok := patterns.MatchTestingFrequency(text); ok {
		order.Specifications = map[string]interface{}{
			"testing_frequency": freq,
		}
	}
	return order
}

func applyGenericFields(order domain.DeviceOrder, text string) domain.DeviceOrder {
	if name, ok := patterns.MatchPatientName(text); ok {
		order.PatientName = name
	}
	if dob, ok := patterns.MatchDateOfBirth(text); ok {
		order.DateOfBirth = dob
	}
	if diagnosis, ok := patterns.MatchDiagnosis(text); ok {
		order.Diagnosis = diagnosis
	}
	if provider, ok := patterns.MatchOrderingProvider(text); ok {
		order.OrderingProvider = provider
	}
	return order
}
