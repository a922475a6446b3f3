package llmextract

import (
	"encoding/json"
	"fmt"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/patterns"
)

// ParseOrderJSON turns raw model output into a DeviceOrder. The fence
// wrapper is stripped first; within the object, any field that is missing,
// null, empty, or of a non-string JSON kind is treated as absent rather
// than an error. Only a completely unparseable object fails.
func ParseOrderJSON(raw string) (domain.DeviceOrder, error) {
	order := domain.NewDeviceOrder()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &fields); err != nil {
		return order, fmt.Errorf("parsing model JSON output: %w", err)
	}

	if device := stringField(fields, "device"); device != "" {
		order.Device = device
	}
	order.PatientName = stringField(fields, "patient_name")
	order.DateOfBirth = stringField(fields, "dob")
	order.Diagnosis = stringField(fields, "diagnosis")
	order.Liters = stringField(fields, "liters")
	order.Usage = stringField(fields, "usage")
	order.MaskType = stringField(fields, "mask_type")
	order.Qualifier = stringField(fields, "qualifier")

	if provider := stringField(fields, "ordering_provider"); provider != "" {
		if normalized := patterns.NormalizeProvider(provider); normalized != "" {
			order.OrderingProvider = normalized
		}
	}

	if addOns := stringSliceField(fields, "add_ons"); len(addOns) > 0 {
		order.AddOns = addOns
	}
	if specs := mapField(fields, "specifications"); len(specs) > 0 {
		order.Specifications = specs
	}

	return order, nil
}

// stringField extracts a string value leniently: a JSON string is cleaned
// and returned; anything else (missing, null, number, object) is absent.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return CleanFieldValue(s)
}

// stringSliceField extracts a string array leniently, skipping non-string
// elements and empty values.
func stringSliceField(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	var out []string
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			continue
		}
		if cleaned := CleanFieldValue(s); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func mapField(fields map[string]json.RawMessage, key string) map[string]interface{} {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
