package patterns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction/patterns"
)

func TestMatchDevice_Categories(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"cpap", "Patient requires CPAP therapy.", domain.DeviceCPAP},
		{"cpap long form", "Recommend continuous positive airway pressure.", domain.DeviceCPAP},
		{"bipap", "Switching to BiPAP given intolerance.", domain.DeviceBiPAP},
		{"oxygen tank", "Home oxygen tank requested.", domain.DeviceOxygenTank},
		{"oxygen bare", "Needs supplemental oxygen at night.", domain.DeviceOxygenTank},
		{"nebulizer", "Dispense nebulizer with albuterol.", domain.DeviceNebulizer},
		{"nebuliser spelling", "Order a nebuliser for home use.", domain.DeviceNebulizer},
		{"wheelchair", "Standard wheelchair for mobility.", domain.DeviceWheelchair},
		{"hospital bed", "Semi-electric hospital bed.", domain.DeviceHospitalBed},
		{"bare bed word", "Patient needs a bed with rails.", domain.DeviceHospitalBed},
		{"glucose monitor", "Dispense glucose monitor and strips.", domain.DeviceGlucoseMonitor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			device, ok := patterns.MatchDevice(tc.text)
			assert.True(t, ok)
			assert.Equal(t, tc.want, device)
		})
	}
}

func TestMatchDevice_CaseInsensitive(t *testing.T) {
	device, ok := patterns.MatchDevice("patient started on cPaP last month")
	assert.True(t, ok)
	assert.Equal(t, domain.DeviceCPAP, device)
}

func TestMatchDevice_NoMatch(t *testing.T) {
	device, ok := patterns.MatchDevice("Follow up in two weeks. No equipment needed.")
	assert.False(t, ok)
	assert.Empty(t, device)
}

func TestMatchDevice_PriorityOrder(t *testing.T) {
	// CPAP is listed before Oxygen Tank, so a note that mentions both
	// classifies as CPAP regardless of mention order in the text.
	device, ok := patterns.MatchDevice("Discontinue oxygen; begin CPAP therapy tonight.")
	assert.True(t, ok)
	assert.Equal(t, domain.DeviceCPAP, device)
}

func TestMatchDevice_BedWordBoundary(t *testing.T) {
	// "bedside" must not satisfy the bare \bbed\b regex.
	_, ok := patterns.MatchDevice("Keep water at the bedside.")
	assert.False(t, ok)
}

func TestMatchDevice_Deterministic(t *testing.T) {
	text := "CPAP and oxygen and a hospital bed, all discussed."
	first, ok := patterns.MatchDevice(text)
	assert.True(t, ok)
	for i := 0; i < 10; i++ {
		device, ok := patterns.MatchDevice(text)
		assert.True(t, ok)
		assert.Equal(t, first, device)
	}
}

func TestMatchPatientName(t *testing.T) {
	name, ok := patterns.MatchPatientName("Patient Name: Harold Finch\nDOB: 01/02/1960")
	assert.True(t, ok)
	assert.Equal(t, "Harold Finch", name)
}

func TestMatchPatientName_Missing(t *testing.T) {
	_, ok := patterns.MatchPatientName("No labeled fields here.")
	assert.False(t, ok)
}

func TestMatchDateOfBirth(t *testing.T) {
	dob, ok := patterns.MatchDateOfBirth("DOB: 03/14/1952")
	assert.True(t, ok)
	assert.Equal(t, "03/14/1952", dob)
}

func TestMatchDiagnosis_TrimsTrailingPunctuation(t *testing.T) {
	diagnosis, ok := patterns.MatchDiagnosis("Diagnosis: COPD.\n")
	assert.True(t, ok)
	assert.Equal(t, "COPD", diagnosis)
}

func TestMatchOrderingProvider_LabeledLine(t *testing.T) {
	provider, ok := patterns.MatchOrderingProvider("Ordering Physician: Dr. Allison Cameron")
	assert.True(t, ok)
	assert.Equal(t, "Dr. Allison Cameron", provider)
}

func TestMatchOrderingProvider_OrderedBy(t *testing.T) {
	provider, ok := patterns.MatchOrderingProvider("Ordered by Dr. Cuddy, effective today.")
	assert.True(t, ok)
	assert.Equal(t, "Dr. Cuddy", provider)
}

func TestMatchOrderingProvider_BareDrToken(t *testing.T) {
	provider, ok := patterns.MatchOrderingProvider("Discussed plan with Dr. Ellingham yesterday.")
	assert.True(t, ok)
	assert.Equal(t, "Dr. Ellingham", provider)
}

func TestMatchOrderingProvider_NoDoubleDr(t *testing.T) {
	provider, ok := patterns.MatchOrderingProvider("Ordering Physician: Dr. Gregory House")
	assert.True(t, ok)
	assert.Equal(t, "Dr. Gregory House", provider)
	assert.NotContains(t, provider, "Dr. Dr.")
}

func TestMatchOrderingProvider_Missing(t *testing.T) {
	_, ok := patterns.MatchOrderingProvider("Signed by the attending on duty.")
	assert.False(t, ok)
}

func TestNormalizeProvider(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Dr. Cameron", "Dr. Cameron"},
		{"Cameron", "Dr. Cameron"},
		{"dr. cameron", "Dr. cameron"},
		{"Dr Cameron", "Dr. Cameron"},
		{"  Dr. Cameron.  ", "Dr. Cameron"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, patterns.NormalizeProvider(tc.in), "input %q", tc.in)
	}
}

func TestMatchMaskType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Fit with full face mask.", "full face"},
		{"Prefers nasal pillow interface.", "nasal pillow"},
		{"Standard nasal mask issued.", "nasal"},
	}
	for _, tc := range cases {
		mask, ok := patterns.MatchMaskType(tc.text)
		assert.True(t, ok, tc.text)
		assert.Equal(t, tc.want, mask)
	}
}

func TestMatchMaskType_NasalPillowBeforeNasal(t *testing.T) {
	// "nasal pillow" contains "nasal"; the specific style must win.
	mask, ok := patterns.MatchMaskType("Switch to nasal pillow style.")
	assert.True(t, ok)
	assert.Equal(t, "nasal pillow", mask)
}

func TestMatchCPAPAddOns(t *testing.T) {
	addOns := patterns.MatchCPAPAddOns("Include heated humidifier, heated tubing and chin strap.")
	assert.Equal(t, []string{"humidifier", "heated tubing", "chin strap"}, addOns)
}

func TestMatchCPAPAddOns_Deduplicates(t *testing.T) {
	// Both "heated humidifier" and the bare "humidifier" cue hit; the
	// canonical name appears once.
	addOns := patterns.MatchCPAPAddOns("heated humidifier requested")
	assert.Equal(t, []string{"humidifier"}, addOns)
}

func TestMatchCPAPAddOns_None(t *testing.T) {
	assert.Nil(t, patterns.MatchCPAPAddOns("CPAP alone, no accessories."))
}

func TestMatchBedAddOns(t *testing.T) {
	addOns := patterns.MatchBedAddOns("Bed with side rails and trapeze bar.")
	assert.Equal(t, []string{"side rails", "trapeze bar"}, addOns)
}

func TestMatchQualifier_ExactPhraseOnly(t *testing.T) {
	qualifier, ok := patterns.MatchQualifier("Sleep study shows AHI > 20 events/hour.")
	assert.True(t, ok)
	assert.Equal(t, "AHI > 20", qualifier)

	_, ok = patterns.MatchQualifier("Sleep study shows AHI > 25 events/hour.")
	assert.False(t, ok)
}

func TestMatchLiters(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Oxygen at 2 L via nasal cannula.", "2 L"},
		{"Oxygen at 2L via nasal cannula.", "2 L"},
		{"Titrate to 2.5 L during sleep.", "2.5 L"},
		{"High flow at 10 L as needed.", "10 L"},
	}
	for _, tc := range cases {
		liters, ok := patterns.MatchLiters(tc.text)
		assert.True(t, ok, tc.text)
		assert.Equal(t, tc.want, liters)
	}
}

func TestMatchLiters_WordBoundary(t *testing.T) {
	// "2 Liters-per" style tokens ending in more letters must not match
	// without a boundary after the L.
	_, ok := patterns.MatchLiters("measured 2 Lbs of equipment")
	assert.False(t, ok)
}

func TestMatchUsage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Use during sleep.", "sleep"},
		{"Use with exertion only.", "exertion"},
		{"Use during sleep and exertion.", "sleep and exertion"},
	}
	for _, tc := range cases {
		usage, ok := patterns.MatchUsage(tc.text)
		assert.True(t, ok, tc.text)
		assert.Equal(t, tc.want, usage)
	}
}

func TestMatchUsage_Missing(t *testing.T) {
	_, ok := patterns.MatchUsage("Continuous use around the clock.")
	assert.False(t, ok)
}

func TestMatchTestingFrequency(t *testing.T) {
	freq, ok := patterns.MatchTestingFrequency("Testing frequency: twice daily before meals")
	assert.True(t, ok)
	assert.Equal(t, "twice daily before meals", freq)

	freq, ok = patterns.MatchTestingFrequency("Check blood sugar four times daily.")
	assert.True(t, ok)
	assert.Equal(t, "four times daily", freq)
}
