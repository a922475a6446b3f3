package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/rules"
)

const oxygenNote = `Patient Name: Harold Finch
DOB: 04/12/1952
Diagnosis: COPD
Prescription: Portable oxygen tank delivering 2 L per minute.
Usage: During sleep and exertion.
Ordered by Dr. Cuddy.`

const cpapNote = `Patient Name: Lisa Turner
DOB: 09/23/1984
Diagnosis: Severe obstructive sleep apnea. AHI > 20
Recommended CPAP therapy with full face mask and heated humidifier.
Ordering Physician: Dr. Allison Cameron`

func TestExtractor_Extract_OxygenNote(t *testing.T) {
	e := rules.NewExtractor()

	order := e.Extract(oxygenNote)

	assert.Equal(t, domain.DeviceOxygenTank, order.Device)
	assert.Equal(t, "Harold Finch", order.PatientName)
	assert.Equal(t, "04/12/1952", order.DateOfBirth)
	assert.Equal(t, "COPD", order.Diagnosis)
	assert.Equal(t, "2 L", order.Liters)
	assert.Equal(t, "sleep and exertion", order.Usage)
	assert.Equal(t, "Dr. Cuddy", order.OrderingProvider)
}

func TestExtractor_Extract_CPAPNote(t *testing.T) {
	e := rules.NewExtractor()

	order := e.Extract(cpapNote)

	assert.Equal(t, domain.DeviceCPAP, order.Device)
	assert.Equal(t, "Lisa Turner", order.PatientName)
	assert.Equal(t, "full face", order.MaskType)
	assert.Equal(t, []string{"humidifier"}, order.AddOns)
	assert.Equal(t, "AHI > 20", order.Qualifier)
	assert.Equal(t, "Dr. Allison Cameron", order.OrderingProvider)
}

func TestExtractor_Extract_UnrecognizedText(t *testing.T) {
	e := rules.NewExtractor()

	order := e.Extract("Follow up in two weeks. Continue current medications.")

	assert.Equal(t, domain.DeviceUnknown, order.Device)
	assert.Equal(t, domain.ProviderUnknown, order.OrderingProvider)
	assert.Empty(t, order.PatientName)
	assert.Empty(t, order.Liters)
}

func TestExtractor_Extract_EmptyInput(t *testing.T) {
	e := rules.NewExtractor()

	order := e.Extract("")

	assert.Equal(t, domain.DeviceUnknown, order.Device)
	assert.Equal(t, domain.ProviderUnknown, order.OrderingProvider)
}

func TestExtractor_Extract_Deterministic(t *testing.T) {
	e := rules.NewExtractor()

	first := e.Extract(cpapNote)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(cpapNote))
	}
}

func TestExtractor_Extract_HospitalBedAddOns(t *testing.T) {
	e := rules.NewExtractor()

	order := e.Extract("Hospital bed with side rails and overbed table for home use.")

	assert.Equal(t, domain.DeviceHospitalBed, order.Device)
	assert.Equal(t, []string{"side rails", "overbed table"}, order.AddOns)
}

func TestExtractor_Extract_GlucoseMonitorFrequency(t *testing.T) {
	e := rules.NewExtractor()

	order := e.Extract("Dispense glucose monitor. Testing frequency: twice daily")

	assert.Equal(t, domain.DeviceGlucoseMonitor, order.Device)
	require.NotNil(t, order.Specifications)
	assert.Equal(t, "twice daily", order.Specifications["testing_frequency"])
}

func TestExtractor_Extract_DeviceFieldsScopedToCategory(t *testing.T) {
	e := rules.NewExtractor()

	// A wheelchair note that happens to mention liters must not pick up
	// oxygen-specific fields.
	order := e.Extract("Wheelchair requested. Patient carries a 2 L water bottle.")

	assert.Equal(t, domain.DeviceWheelchair, order.Device)
	assert.Empty(t, order.Liters)
	assert.Empty(t, order.Usage)
}

func TestExtractor_Attempt_NeverFails(t *testing.T) {
	e := rules.NewExtractor()

	order, err := e.Attempt(context.Background(), "nothing recognizable")

	assert.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, domain.DeviceUnknown, order.Device)
}

func TestExtractor_Name(t *testing.T) {
	assert.Equal(t, "deterministic", rules.NewExtractor().Name())
}
