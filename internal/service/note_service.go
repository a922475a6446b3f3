package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction"
	"dmeflow/internal/port"
)

// IngestNoteInput is the DTO for ingesting a physician note.
type IngestNoteInput struct {
	Source      string
	ContentType string
	Content     []byte
	CreatedBy   uuid.UUID
}

// NoteService defines the note ingestion and extraction contract.
type NoteService interface {
	Ingest(ctx context.Context, input *IngestNoteInput) (*domain.Note, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	GetContent(ctx context.Context, id uuid.UUID) ([]byte, error)
	ContentURL(ctx context.Context, id uuid.UUID) (string, error)
	List(ctx context.Context, status domain.ExtractionStatus, offset, limit int) ([]domain.Note, int, error)
	Requeue(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	// ExtractNote runs the full pipeline for one claimed note: fetch text,
	// extract, persist the order, route it for review. Called by the queue
	// worker; errors are recorded on the note, not returned.
	ExtractNote(ctx context.Context, note *domain.Note, maxAttempts int)
}

type noteService struct {
	noteRepo     port.NoteRepository
	orderRepo    port.OrderRepository
	storage      port.ObjectStorage
	orchestrator *extraction.Orchestrator
	email        port.EmailSender
	s3cfg        config.S3Config
	extractCfg   config.ExtractionConfig
}

// NewNoteService creates a new NoteService implementation.
func NewNoteService(
	noteRepo port.NoteRepository,
	orderRepo port.OrderRepository,
	storage port.ObjectStorage,
	orchestrator *extraction.Orchestrator,
	email port.EmailSender,
	s3cfg config.S3Config,
	extractCfg config.ExtractionConfig,
) NoteService {
	return &noteService{
		noteRepo:     noteRepo,
		orderRepo:    orderRepo,
		storage:      storage,
		orchestrator: orchestrator,
		email:        email,
		s3cfg:        s3cfg,
		extractCfg:   extractCfg,
	}
}

func (s *noteService) Ingest(ctx context.Context, input *IngestNoteInput) (*domain.Note, error) {
	if len(bytes.TrimSpace(input.Content)) == 0 {
		return nil, domain.ErrEmptyNote
	}
	format, ok := domain.AllowedContentTypes[input.ContentType]
	if !ok {
		return nil, domain.ErrUnsupportedFormat
	}
	if s.s3cfg.MaxNoteSizeKB > 0 && int64(len(input.Content)) > s.s3cfg.MaxNoteSizeKB*1024 {
		return nil, domain.ErrNoteTooLarge
	}

	note := &domain.Note{
		ID:               uuid.New(),
		Source:           input.Source,
		Format:           format,
		S3Bucket:         s.s3cfg.Bucket,
		SizeBytes:        int64(len(input.Content)),
		ExtractionStatus: domain.ExtractionStatusQueued,
		CreatedBy:        input.CreatedBy,
	}
	note.S3Key = fmt.Sprintf("notes/%s/%s", time.Now().UTC().Format("2006/01/02"), note.ID)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      note.S3Bucket,
		Key:         note.S3Key,
		Body:        bytes.NewReader(input.Content),
		ContentType: input.ContentType,
		Size:        note.SizeBytes,
	}); err != nil {
		log.Printf("noteService.Ingest: upload failed for source=%s: %v", input.Source, err)
		return nil, domain.ErrUploadFailed
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		// The object is already archived; remove it so the bucket does not
		// accumulate notes with no database row.
		if derr := s.storage.Delete(ctx, note.S3Bucket, note.S3Key); derr != nil {
			log.Printf("noteService.Ingest: orphan cleanup failed for %s: %v", note.S3Key, derr)
		}
		return nil, fmt.Errorf("noteService.Ingest: %w", err)
	}
	return note, nil
}

func (s *noteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	return s.noteRepo.GetByID(ctx, id)
}

func (s *noteService) GetContent(ctx context.Context, id uuid.UUID) ([]byte, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.storage.Download(ctx, note.S3Bucket, note.S3Key)
}

// noteText returns the extractable text of an archived payload. JSON notes
// arrive wrapped as {"data": "<note text>"}; anything that does not decode
// that way is treated as plain text.
func noteText(format domain.NoteFormat, content []byte) string {
	if format == domain.NoteFormatJSON {
		var wrapper struct {
			Data string `json:"data"`
		}
		if json.Unmarshal(content, &wrapper) == nil && wrapper.Data != "" {
			return wrapper.Data
		}
	}
	return string(content)
}

// ContentURL returns a short-lived presigned link to the archived note text.
func (s *noteService) ContentURL(ctx context.Context, id uuid.UUID) (string, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, note.S3Bucket, note.S3Key, 300)
}

func (s *noteService) List(ctx context.Context, status domain.ExtractionStatus, offset, limit int) ([]domain.Note, int, error) {
	return s.noteRepo.List(ctx, status, offset, limit)
}

// Requeue puts a failed note back on the extraction queue.
func (s *noteService) Requeue(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.ExtractionStatus != domain.ExtractionStatusFailed {
		return nil, domain.ErrInvalidReviewStatus
	}
	note.ExtractionStatus = domain.ExtractionStatusQueued
	note.ExtractionError = ""
	note.RetryAfter = nil
	if err := s.noteRepo.UpdateExtractionState(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) ExtractNote(ctx context.Context, note *domain.Note, maxAttempts int) {
	content, err := s.storage.Download(ctx, note.S3Bucket, note.S3Key)
	if err != nil {
		s.failExtraction(ctx, note, fmt.Sprintf("fetching note: %v", err))
		return
	}

	text := noteText(note.Format, content)
	if strings.TrimSpace(text) == "" {
		s.failExtraction(ctx, note, "note content is empty")
		return
	}

	result, err := s.orchestrator.Extract(ctx, text, domain.ExtractionContext{
		SourceID:          note.ID.String(),
		DocumentType:      "physician_note",
		Mode:              domain.ProcessingMode(s.extractCfg.ProcessingMode),
		RequireValidation: s.extractCfg.RequireValidation,
	})
	if err != nil {
		s.failExtraction(ctx, note, fmt.Sprintf("extraction: %v", err))
		return
	}

	// A rate-limited model run falls back to a degraded order. Requeue the
	// note for a real retry unless the attempt budget is spent.
	if hint := result.Metadata.RateLimited; hint != nil && note.ExtractAttempts < maxAttempts {
		s.requeueRateLimited(ctx, note, hint)
		return
	}

	order := s.buildOrder(note, result)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.failExtraction(ctx, note, fmt.Sprintf("saving order: %v", err))
		return
	}

	note.ExtractionStatus = domain.ExtractionStatusExtracted
	note.ExtractionError = ""
	note.RetryAfter = nil
	if err := s.noteRepo.UpdateExtractionState(ctx, note); err != nil {
		log.Printf("noteService.ExtractNote: failed to mark note %s extracted: %v", note.ID, err)
		return
	}

	log.Printf("noteService.ExtractNote: note %s extracted via %s (confidence=%.2f)",
		note.ID, result.Method, result.Confidence)

	if order.ReviewStatus == domain.ReviewStatusPending && s.email != nil {
		reason := reviewReason(result)
		if err := s.email.SendReviewAlert(ctx, order, reason); err != nil {
			log.Printf("noteService.ExtractNote: review alert for order %s failed: %v", order.ID, err)
		}
	}
}

// buildOrder maps an extraction result onto a persisted order row and
// routes low-trust results to the review queue.
func (s *noteService) buildOrder(note *domain.Note, result *extraction.Result) *domain.Order {
	order := &domain.Order{
		ID:               uuid.New(),
		NoteID:           note.ID,
		Device:           result.Order.Device,
		OrderingProvider: result.Order.OrderingProvider,
		PatientName:      result.Order.PatientName,
		DateOfBirth:      result.Order.DateOfBirth,
		Diagnosis:        result.Order.Diagnosis,
		MaskType:         result.Order.MaskType,
		Liters:           result.Order.Liters,
		Usage:            result.Order.Usage,
		Qualifier:        result.Order.Qualifier,
		AddOns:           result.Order.AddOns,
		Specifications:   result.Order.Specifications,
		Confidence:       result.Confidence,
		ExtractionMethod: domain.ExtractionMode(result.Method),
		ModelUsed:        result.Metadata.Model,
		ReviewStatus:     domain.ReviewStatusNone,
		SubmissionStatus: domain.SubmissionStatusNotSubmitted,
	}
	if result.Validation != nil {
		order.ValidationScore = result.Validation.Score
		order.ValidationIssues = result.Validation.Issues
	} else {
		order.ValidationScore = 1.0
	}
	if s.needsReview(result) {
		order.ReviewStatus = domain.ReviewStatusPending
	}
	return order
}

func (s *noteService) needsReview(result *extraction.Result) bool {
	if result.Confidence < s.extractCfg.ReviewThreshold {
		return true
	}
	if result.Validation != nil {
		if result.Validation.Score < s.extractCfg.ValidationThreshold {
			return true
		}
		if result.Validation.HasSeverity(domain.SeverityError) {
			return true
		}
	}
	return result.Order.Device == domain.DeviceUnknown
}

func reviewReason(result *extraction.Result) string {
	switch {
	case result.Order.Device == domain.DeviceUnknown:
		return "no device could be identified"
	case result.Validation != nil && result.Validation.HasSeverity(domain.SeverityError):
		return "validation found error-level issues"
	case result.Validation != nil && result.Validation.Score < 1.0:
		return fmt.Sprintf("validation score %.2f", result.Validation.Score)
	default:
		return fmt.Sprintf("low extraction confidence %.2f", result.Confidence)
	}
}

// requeueRateLimited puts the note back on the queue with a retry-after
// hold instead of persisting a degraded fallback order.
func (s *noteService) requeueRateLimited(ctx context.Context, note *domain.Note, hint *domain.RateLimitHint) {
	retryAt := time.Now().Add(hint.RetryAfter)
	note.ExtractionStatus = domain.ExtractionStatusQueued
	note.ExtractionError = fmt.Sprintf("rate limited by %s, queued for retry", hint.Provider)
	note.RetryAfter = &retryAt
	if err := s.noteRepo.UpdateExtractionState(ctx, note); err != nil {
		log.Printf("noteService.requeueRateLimited: failed to requeue note %s: %v", note.ID, err)
		return
	}
	log.Printf("noteService.requeueRateLimited: note %s requeued until %s", note.ID, retryAt.Format(time.RFC3339))
}

func (s *noteService) failExtraction(ctx context.Context, note *domain.Note, reason string) {
	note.ExtractionStatus = domain.ExtractionStatusFailed
	note.ExtractionError = strings.TrimSpace(reason)
	note.RetryAfter = nil
	if err := s.noteRepo.UpdateExtractionState(ctx, note); err != nil {
		log.Printf("noteService.failExtraction: failed to mark note %s failed: %v", note.ID, err)
		return
	}
	log.Printf("noteService.failExtraction: note %s failed: %s", note.ID, reason)
}
