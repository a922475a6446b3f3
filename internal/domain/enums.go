package domain

// NoteFormat represents the accepted physician note payload formats.
type NoteFormat string

const (
	NoteFormatText NoteFormat = "text"
	NoteFormatJSON NoteFormat = "json"
)

// AllowedContentTypes maps MIME content types back to NoteFormat.
var AllowedContentTypes = map[string]NoteFormat{
	"text/plain":       NoteFormatText,
	"application/json": NoteFormatJSON,
}

// UserRole defines the role hierarchy within a clinic deployment.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleClinician UserRole = "clinician"
)

// ValidUserRoles enumerates the assignable roles.
var ValidUserRoles = map[UserRole]bool{
	RoleAdmin:     true,
	RoleClinician: true,
}

// ExtractionStatus represents the lifecycle of a queued note extraction.
type ExtractionStatus string

const (
	ExtractionStatusQueued     ExtractionStatus = "queued"
	ExtractionStatusProcessing ExtractionStatus = "processing"
	ExtractionStatusExtracted  ExtractionStatus = "extracted"
	ExtractionStatusFailed     ExtractionStatus = "failed"
)

// ReviewStatus represents the human review state of an extracted order.
type ReviewStatus string

const (
	ReviewStatusNone     ReviewStatus = "none"
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// SubmissionStatus represents the state of an order relative to the
// downstream order API.
type SubmissionStatus string

const (
	SubmissionStatusNotSubmitted SubmissionStatus = "not_submitted"
	SubmissionStatusSubmitted    SubmissionStatus = "submitted"
	SubmissionStatusFailed       SubmissionStatus = "failed"
)

// ExtractionMode selects the extraction strategy family.
type ExtractionMode string

const (
	ExtractionModeDeterministic ExtractionMode = "deterministic"
	ExtractionModeLLM           ExtractionMode = "llm"
	ExtractionModeAgentic       ExtractionMode = "agentic"
)

// ProcessingMode tunes how much work the agentic pipeline spends per note.
type ProcessingMode string

const (
	ProcessingModeFast     ProcessingMode = "fast"
	ProcessingModeStandard ProcessingMode = "standard"
	ProcessingModeThorough ProcessingMode = "thorough"
)

// IssueSeverity grades a validation issue.
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityError    IssueSeverity = "error"
	SeverityCritical IssueSeverity = "critical"
)

// severityRank orders severities for comparisons; unknown values rank lowest.
var severityRank = map[IssueSeverity]int{
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// AtLeast reports whether s is at least as severe as min.
func (s IssueSeverity) AtLeast(min IssueSeverity) bool {
	return severityRank[s] >= severityRank[min]
}
