package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction"
	"dmeflow/internal/llm"
	"dmeflow/internal/port"
	"dmeflow/internal/service"
	"dmeflow/internal/validator"
	"dmeflow/mocks"
)

const oxygenNote = `Patient Name: Harold Finch
DOB: 04/12/1952
Diagnosis: COPD
Portable oxygen tank at 2 L during sleep and exertion.
Ordered by Dr. Cuddy.`

func testS3Config() config.S3Config {
	return config.S3Config{Bucket: "dmeflow-notes-test", MaxNoteSizeKB: 64}
}

func testExtractCfg() config.ExtractionConfig {
	return config.ExtractionConfig{
		Mode:                "deterministic",
		ProcessingMode:      "standard",
		RequireValidation:   true,
		ValidationThreshold: 0.7,
		ReviewThreshold:     0.5,
		MaxTokens:           1024,
	}
}

type noteServiceFixture struct {
	noteRepo  *mocks.MockNoteRepo
	orderRepo *mocks.MockOrderRepo
	storage   *mocks.MockObjectStorage
	email     *mocks.MockEmailSender
	svc       service.NoteService
}

func newNoteServiceFixture(t *testing.T) *noteServiceFixture {
	t.Helper()
	f := &noteServiceFixture{
		noteRepo:  new(mocks.MockNoteRepo),
		orderRepo: new(mocks.MockOrderRepo),
		storage:   new(mocks.MockObjectStorage),
		email:     new(mocks.MockEmailSender),
	}
	orchestrator := extraction.NewOrchestrator(testExtractCfg(), nil, validator.NewEngine())
	f.svc = service.NewNoteService(f.noteRepo, f.orderRepo, f.storage, orchestrator, f.email, testS3Config(), testExtractCfg())
	return f
}

func queuedNote() *domain.Note {
	return &domain.Note{
		ID:               uuid.New(),
		Source:           "api",
		Format:           domain.NoteFormatText,
		S3Bucket:         "dmeflow-notes-test",
		S3Key:            "notes/2026/08/30/abc",
		ExtractionStatus: domain.ExtractionStatusProcessing,
		ExtractAttempts:  1,
	}
}

func TestNoteService_Ingest_Success(t *testing.T) {
	f := newNoteServiceFixture(t)
	f.storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{Location: "s3://dmeflow-notes-test/notes/abc"}, nil)
	f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	note, err := f.svc.Ingest(context.Background(), &service.IngestNoteInput{
		Source:      "api",
		ContentType: "text/plain",
		Content:     []byte(oxygenNote),
		CreatedBy:   uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusQueued, note.ExtractionStatus)
	assert.Equal(t, "dmeflow-notes-test", note.S3Bucket)
	assert.Contains(t, note.S3Key, "notes/")
	assert.Equal(t, int64(len(oxygenNote)), note.SizeBytes)
	f.storage.AssertExpectations(t)
	f.noteRepo.AssertExpectations(t)
}

func TestNoteService_Ingest_CreateFailureCleansUpObject(t *testing.T) {
	f := newNoteServiceFixture(t)
	f.storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{Location: "s3://dmeflow-notes-test/notes/abc"}, nil)
	f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	f.storage.On("Delete", mock.Anything, "dmeflow-notes-test", mock.Anything).Return(nil)

	_, err := f.svc.Ingest(context.Background(), &service.IngestNoteInput{
		Source:      "api",
		ContentType: "text/plain",
		Content:     []byte(oxygenNote),
		CreatedBy:   uuid.New(),
	})

	require.Error(t, err)
	f.storage.AssertCalled(t, "Delete", mock.Anything, "dmeflow-notes-test", mock.Anything)
}

func TestNoteService_Ingest_EmptyContent(t *testing.T) {
	f := newNoteServiceFixture(t)

	_, err := f.svc.Ingest(context.Background(), &service.IngestNoteInput{
		Source:      "api",
		ContentType: "text/plain",
		Content:     []byte("   \n "),
	})

	assert.ErrorIs(t, err, domain.ErrEmptyNote)
}

func TestNoteService_Ingest_UnsupportedContentType(t *testing.T) {
	f := newNoteServiceFixture(t)

	_, err := f.svc.Ingest(context.Background(), &service.IngestNoteInput{
		Source:      "api",
		ContentType: "application/pdf",
		Content:     []byte("note body"),
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestNoteService_Ingest_TooLarge(t *testing.T) {
	f := newNoteServiceFixture(t)

	big := make([]byte, 65*1024)
	for i := range big {
		big[i] = 'a'
	}
	_, err := f.svc.Ingest(context.Background(), &service.IngestNoteInput{
		Source:      "api",
		ContentType: "text/plain",
		Content:     big,
	})

	assert.ErrorIs(t, err, domain.ErrNoteTooLarge)
}

func TestNoteService_Ingest_UploadFailure(t *testing.T) {
	f := newNoteServiceFixture(t)
	f.storage.On("Upload", mock.Anything, mock.Anything).
		Return(nil, errors.New("s3 unreachable"))

	_, err := f.svc.Ingest(context.Background(), &service.IngestNoteInput{
		Source:      "api",
		ContentType: "text/plain",
		Content:     []byte("note body"),
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.noteRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNoteService_Requeue_OnlyFromFailed(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	note.ExtractionStatus = domain.ExtractionStatusExtracted
	f.noteRepo.On("GetByID", mock.Anything, note.ID).Return(note, nil)

	_, err := f.svc.Requeue(context.Background(), note.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidReviewStatus)
}

func TestNoteService_ContentURL_Presigns(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	f.noteRepo.On("GetByID", mock.Anything, note.ID).Return(note, nil)
	f.storage.On("GetPresignedURL", mock.Anything, note.S3Bucket, note.S3Key, int64(300)).
		Return("https://s3.example/"+note.S3Key+"?sig=abc", nil)

	url, err := f.svc.ContentURL(context.Background(), note.ID)

	require.NoError(t, err)
	assert.Contains(t, url, note.S3Key)
	f.storage.AssertExpectations(t)
}

func TestNoteService_Requeue_Success(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	note.ExtractionStatus = domain.ExtractionStatusFailed
	note.ExtractionError = "model unavailable"
	f.noteRepo.On("GetByID", mock.Anything, note.ID).Return(note, nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	requeued, err := f.svc.Requeue(context.Background(), note.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusQueued, requeued.ExtractionStatus)
	assert.Empty(t, requeued.ExtractionError)
	assert.Nil(t, requeued.RetryAfter)
}

func TestNoteService_ExtractNote_Success(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return([]byte(oxygenNote), nil)

	var created *domain.Order
	f.orderRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	f.svc.ExtractNote(context.Background(), note, 3)

	assert.Equal(t, domain.ExtractionStatusExtracted, note.ExtractionStatus)
	require.NotNil(t, created)
	assert.Equal(t, note.ID, created.NoteID)
	assert.Equal(t, domain.DeviceOxygenTank, created.Device)
	assert.Equal(t, "2 L", created.Liters)
	assert.Equal(t, domain.ExtractionMode("deterministic"), created.ExtractionMethod)
	// A clean, fully validated extraction skips the review queue.
	assert.Equal(t, domain.ReviewStatusNone, created.ReviewStatus)
	f.email.AssertNotCalled(t, "SendReviewAlert", mock.Anything, mock.Anything, mock.Anything)
}

func TestNoteService_ExtractNote_UnwrapsJSONPayload(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	note.Format = domain.NoteFormatJSON
	wrapped, err := json.Marshal(map[string]string{"data": oxygenNote})
	require.NoError(t, err)
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return(wrapped, nil)

	var created *domain.Order
	f.orderRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	f.svc.ExtractNote(context.Background(), note, 3)

	require.NotNil(t, created)
	assert.Equal(t, domain.DeviceOxygenTank, created.Device)
	assert.Equal(t, "Harold Finch", created.PatientName)
}

func TestNoteService_ExtractNote_UnknownDeviceRoutedToReview(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return([]byte("Patient Name: John Doe\nFollow up in two weeks."), nil)

	var created *domain.Order
	f.orderRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)
	f.email.On("SendReviewAlert", mock.Anything, mock.Anything, "no device could be identified").
		Return(nil)

	f.svc.ExtractNote(context.Background(), note, 3)

	require.NotNil(t, created)
	assert.Equal(t, domain.DeviceUnknown, created.Device)
	assert.Equal(t, domain.ReviewStatusPending, created.ReviewStatus)
	f.email.AssertExpectations(t)
}

func TestNoteService_ExtractNote_DownloadFailure(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return(nil, errors.New("object missing"))
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	f.svc.ExtractNote(context.Background(), note, 3)

	assert.Equal(t, domain.ExtractionStatusFailed, note.ExtractionStatus)
	assert.Contains(t, note.ExtractionError, "fetching note")
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// rateLimitedNoteService builds a NoteService whose llm-mode orchestrator is
// rate limited on every model call, so extraction falls back deterministically
// and surfaces a retry hint.
func rateLimitedNoteService(t *testing.T) (*noteServiceFixture, service.NoteService) {
	t.Helper()
	f := &noteServiceFixture{
		noteRepo:  new(mocks.MockNoteRepo),
		orderRepo: new(mocks.MockOrderRepo),
		storage:   new(mocks.MockObjectStorage),
		email:     new(mocks.MockEmailSender),
	}
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, llm.NewRateLimitError("openai", errors.New("429 too many requests"), 30))

	cfg := testExtractCfg()
	cfg.Mode = "llm"
	orchestrator := extraction.NewOrchestrator(cfg, client, validator.NewEngine())
	svc := service.NewNoteService(f.noteRepo, f.orderRepo, f.storage, orchestrator, f.email, testS3Config(), cfg)
	return f, svc
}

func TestNoteService_ExtractNote_RateLimitedRequeues(t *testing.T) {
	f, svc := rateLimitedNoteService(t)
	note := queuedNote()
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return([]byte(oxygenNote), nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	svc.ExtractNote(context.Background(), note, 3)

	assert.Equal(t, domain.ExtractionStatusQueued, note.ExtractionStatus)
	assert.Contains(t, note.ExtractionError, "rate limited by openai")
	require.NotNil(t, note.RetryAfter)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), *note.RetryAfter, 5*time.Second)
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNoteService_ExtractNote_RateLimitedBudgetSpentKeepsFallback(t *testing.T) {
	f, svc := rateLimitedNoteService(t)
	note := queuedNote()
	note.ExtractAttempts = 3
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return([]byte(oxygenNote), nil)

	var created *domain.Order
	f.orderRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	svc.ExtractNote(context.Background(), note, 3)

	// Out of retries: the deterministic fallback order is kept.
	assert.Equal(t, domain.ExtractionStatusExtracted, note.ExtractionStatus)
	require.NotNil(t, created)
	assert.Equal(t, domain.ExtractionMode("deterministic"), created.ExtractionMethod)
}

func TestNoteService_ExtractNote_EmptyNoteFails(t *testing.T) {
	f := newNoteServiceFixture(t)
	note := queuedNote()
	f.storage.On("Download", mock.Anything, note.S3Bucket, note.S3Key).
		Return([]byte("   "), nil)
	f.noteRepo.On("UpdateExtractionState", mock.Anything, note).Return(nil)

	f.svc.ExtractNote(context.Background(), note, 3)

	assert.Equal(t, domain.ExtractionStatusFailed, note.ExtractionStatus)
}
