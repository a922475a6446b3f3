// Package export renders extracted orders as CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dmeflow/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the export header row.
var columns = []string{
	"Order ID",
	"Note ID",
	"Device",
	"Patient Name",
	"Date of Birth",
	"Diagnosis",
	"Ordering Provider",
	"Mask Type",
	"Liters",
	"Usage",
	"Qualifier",
	"Add-Ons",
	"Confidence",
	"Extraction Method",
	"Validation Score",
	"Review Status",
	"Reviewer Notes",
	"Submission Status",
	"External Order ID",
	"Submitted At",
	"Created At",
}

// Writer wraps csv.Writer for exporting orders as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteOrders converts a batch of orders to CSV rows and writes them.
func (w *Writer) WriteOrders(orders []domain.Order) error {
	for i := range orders {
		if err := w.csv.Write(orderToRow(&orders[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func orderToRow(order *domain.Order) []string {
	row := make([]string, len(columns))
	row[0] = order.ID.String()
	row[1] = order.NoteID.String()
	row[2] = order.Device
	row[3] = order.PatientName
	row[4] = order.DateOfBirth
	row[5] = order.Diagnosis
	row[6] = order.OrderingProvider
	row[7] = order.MaskType
	row[8] = order.Liters
	row[9] = order.Usage
	row[10] = order.Qualifier
	row[11] = strings.Join(order.AddOns, "; ")
	row[12] = formatScore(order.Confidence)
	row[13] = string(order.ExtractionMethod)
	row[14] = formatScore(order.ValidationScore)
	row[15] = string(order.ReviewStatus)
	row[16] = order.ReviewerNotes
	row[17] = string(order.SubmissionStatus)
	row[18] = order.ExternalOrderID
	row[19] = formatTime(order.SubmittedAt)
	row[20] = order.CreatedAt.Format(time.RFC3339)
	return row
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a label for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for a Content-Disposition
// header. Format: {sanitized_label}_{YYYY-MM-DD}.{ext}
func BuildFilename(label, ext string) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(label), time.Now().Format("2006-01-02"), ext)
}
