package export_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmeflow/internal/domain"
	"dmeflow/internal/export"
)

func sampleOrder() domain.Order {
	submitted := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:               uuid.New(),
		NoteID:           uuid.New(),
		Device:           domain.DeviceCPAP,
		PatientName:      "Lisa Turner",
		DateOfBirth:      "09/23/1984",
		Diagnosis:        "Severe OSA",
		OrderingProvider: "Dr. Allison Cameron",
		MaskType:         "full face",
		Qualifier:        "AHI > 20",
		AddOns:           []string{"humidifier", "heated tubing"},
		Confidence:       0.85,
		ExtractionMethod: domain.ExtractionModeAgentic,
		ValidationScore:  0.9,
		ReviewStatus:     domain.ReviewStatusApproved,
		SubmissionStatus: domain.SubmissionStatusSubmitted,
		ExternalOrderID:  "EXT-55",
		SubmittedAt:      &submitted,
		CreatedAt:        time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
	}
}

func TestWriter_HeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteOrders([]domain.Order{sampleOrder()}))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "Order ID", header[0])
	assert.Equal(t, "Created At", header[len(header)-1])
	assert.Len(t, records[1], len(header))

	row := records[1]
	assert.Contains(t, row, "Lisa Turner")
	assert.Contains(t, row, "humidifier; heated tubing")
	assert.Contains(t, row, "0.85")
	assert.Contains(t, row, "agentic")
	assert.Contains(t, row, "EXT-55")
	assert.Contains(t, row, "2026-08-30T10:00:00Z")
}

func TestWriter_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteOrders(nil))
	w.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"orders export", "orders_export"},
		{"orders///export!!", "orders_export"},
		{"__orders__", "orders"},
		{"plain-name_1", "plain-name_1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, export.SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	long := strings.Repeat("a", 150)
	assert.Len(t, export.SanitizeFilename(long), 100)
}

func TestBuildFilename(t *testing.T) {
	name := export.BuildFilename("orders export", "csv")
	assert.True(t, strings.HasPrefix(name, "orders_export_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer

	err := export.WriteXLSX(&buf, []domain.Order{sampleOrder()})

	require.NoError(t, err)
	// XLSX files are ZIP archives; check the magic bytes.
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
