package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sentinel values for the two DeviceOrder fields that are never absent.
const (
	DeviceUnknown   = "Unknown"
	ProviderUnknown = "Dr. Unknown"
)

// Known device categories, in classification priority order. Notes that
// mention cues for several categories resolve to the first one listed here.
const (
	DeviceCPAP           = "CPAP"
	DeviceBiPAP          = "BiPAP"
	DeviceOxygenTank     = "Oxygen Tank"
	DeviceNebulizer      = "Nebulizer"
	DeviceWheelchair     = "Wheelchair"
	DeviceHospitalBed    = "Hospital Bed"
	DeviceGlucoseMonitor = "Glucose Monitor"
)

// DeviceOrder is the canonical structured output of an extraction.
//
// Device and OrderingProvider always carry a value ("Unknown" / "Dr. Unknown"
// sentinels when nothing was recognized); every other field is either present
// and non-empty or omitted entirely.
type DeviceOrder struct {
	Device           string                 `json:"device"`
	OrderingProvider string                 `json:"ordering_provider"`
	PatientName      string                 `json:"patient_name,omitempty"`
	DateOfBirth      string                 `json:"dob,omitempty"`
	Diagnosis        string                 `json:"diagnosis,omitempty"`
	MaskType         string                 `json:"mask_type,omitempty"`
	Liters           string                 `json:"liters,omitempty"`
	Usage            string                 `json:"usage,omitempty"`
	Qualifier        string                 `json:"qualifier,omitempty"`
	AddOns           []string               `json:"add_ons,omitempty"`
	Specifications   map[string]interface{} `json:"specifications,omitempty"`
}

// NewDeviceOrder returns a DeviceOrder with the Unknown sentinels set.
func NewDeviceOrder() DeviceOrder {
	return DeviceOrder{
		Device:           DeviceUnknown,
		OrderingProvider: ProviderUnknown,
	}
}

// ExtractionContext carries per-call settings into the agentic pipeline.
// Created fresh for each extraction call, never mutated, never persisted.
type ExtractionContext struct {
	SourceID          string
	DocumentType      string
	Mode              ProcessingMode
	RequireValidation bool
}

// AgentStep records one reasoning stage of the agentic pipeline.
type AgentStep struct {
	Agent      string                 `json:"agent"`
	Role       string                 `json:"role"`
	Reasoning  string                 `json:"reasoning"`
	Confidence float64                `json:"confidence"`
	Outputs    map[string]interface{} `json:"outputs,omitempty"`
	Duration   time.Duration          `json:"duration"`
}

// RateLimitHint records that a model-backed strategy hit a provider rate
// limit and the returned order came from a lower-priority fallback.
// Consumers may requeue the work instead of keeping the degraded result.
type RateLimitHint struct {
	Provider   string        `json:"provider"`
	RetryAfter time.Duration `json:"retry_after"`
}

// ExtractionMetadata describes how an extraction result was produced.
type ExtractionMetadata struct {
	Duration     time.Duration  `json:"duration"`
	Model        string         `json:"model,omitempty"`
	InputTokens  int            `json:"input_tokens,omitempty"`
	OutputTokens int            `json:"output_tokens,omitempty"`
	RateLimited  *RateLimitHint `json:"rate_limited,omitempty"`
}

// AgenticExtractionResult is the full output of one agentic pipeline run.
// It lives only for the duration of the call that produced it.
type AgenticExtractionResult struct {
	Order      DeviceOrder        `json:"order"`
	Confidence float64            `json:"confidence"`
	Steps      []AgentStep        `json:"steps"`
	Validation *ValidationResult  `json:"validation,omitempty"`
	Metadata   ExtractionMetadata `json:"metadata"`
}

// ValidationIssue describes one problem found while validating an order
// against its source note.
type ValidationIssue struct {
	Field        string        `json:"field"`
	Description  string        `json:"description"`
	Severity     IssueSeverity `json:"severity"`
	SuggestedFix string        `json:"suggested_fix,omitempty"`
}

// ValidationResult is the outcome of validating an extracted order.
type ValidationResult struct {
	IsValid         bool               `json:"is_valid"`
	Score           float64            `json:"score"`
	Issues          []ValidationIssue  `json:"issues,omitempty"`
	FieldConfidence map[string]float64 `json:"field_confidence,omitempty"`
	Suggestions     []string           `json:"suggestions,omitempty"`
}

// HasSeverity reports whether any issue is at least as severe as min.
func (r *ValidationResult) HasSeverity(min IssueSeverity) bool {
	for _, issue := range r.Issues {
		if issue.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}

// Note represents an ingested physician note awaiting or past extraction.
type Note struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	Source           string           `db:"source" json:"source"`
	Format           NoteFormat       `db:"format" json:"format"`
	S3Bucket         string           `db:"s3_bucket" json:"-"`
	S3Key            string           `db:"s3_key" json:"-"`
	SizeBytes        int64            `db:"size_bytes" json:"size_bytes"`
	ExtractionStatus ExtractionStatus `db:"extraction_status" json:"extraction_status"`
	ExtractionError  string           `db:"extraction_error" json:"extraction_error,omitempty"`
	ExtractAttempts  int              `db:"extract_attempts" json:"extract_attempts"`
	RetryAfter       *time.Time       `db:"retry_after" json:"retry_after,omitempty"`
	CreatedBy        uuid.UUID        `db:"created_by" json:"created_by"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Order represents a persisted extraction result for a note.
type Order struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	NoteID           uuid.UUID        `db:"note_id" json:"note_id"`
	Device           string           `db:"device" json:"device"`
	OrderingProvider string           `db:"ordering_provider" json:"ordering_provider"`
	PatientName      string           `db:"patient_name" json:"patient_name,omitempty"`
	DateOfBirth      string           `db:"dob" json:"dob,omitempty"`
	Diagnosis        string           `db:"diagnosis" json:"diagnosis,omitempty"`
	MaskType         string           `db:"mask_type" json:"mask_type,omitempty"`
	Liters           string           `db:"liters" json:"liters,omitempty"`
	Usage            string           `db:"usage_schedule" json:"usage,omitempty"`
	Qualifier        string           `db:"qualifier" json:"qualifier,omitempty"`
	AddOns           JSONStringSlice  `db:"add_ons" json:"add_ons,omitempty"`
	Specifications   JSONMap          `db:"specifications" json:"specifications,omitempty"`
	Confidence       float64          `db:"confidence" json:"confidence"`
	ExtractionMethod ExtractionMode   `db:"extraction_method" json:"extraction_method"`
	ModelUsed        string           `db:"model_used" json:"model_used,omitempty"`
	ValidationScore  float64          `db:"validation_score" json:"validation_score"`
	ValidationIssues JSONIssueSlice   `db:"validation_issues" json:"validation_issues,omitempty"`
	ReviewStatus     ReviewStatus     `db:"review_status" json:"review_status"`
	ReviewedBy       *uuid.UUID       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewerNotes    string           `db:"reviewer_notes" json:"reviewer_notes,omitempty"`
	SubmissionStatus SubmissionStatus `db:"submission_status" json:"submission_status"`
	SubmittedAt      *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	ExternalOrderID  string           `db:"external_order_id" json:"external_order_id,omitempty"`
	SubmissionError  string           `db:"submission_error" json:"submission_error,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// DeviceOrder projects the persisted row back into the canonical value type.
func (o *Order) DeviceOrder() DeviceOrder {
	return DeviceOrder{
		Device:           o.Device,
		OrderingProvider: o.OrderingProvider,
		PatientName:      o.PatientName,
		DateOfBirth:      o.DateOfBirth,
		Diagnosis:        o.Diagnosis,
		MaskType:         o.MaskType,
		Liters:           o.Liters,
		Usage:            o.Usage,
		Qualifier:        o.Qualifier,
		AddOns:           o.AddOns,
		Specifications:   o.Specifications,
	}
}

// User represents an authenticated clinic staff member.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
