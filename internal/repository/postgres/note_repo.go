package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dmeflow/internal/domain"
	"dmeflow/internal/port"
)

type noteRepo struct {
	db *sqlx.DB
}

// NewNoteRepo creates a new PostgreSQL-backed NoteRepository.
func NewNoteRepo(db *sqlx.DB) port.NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, note *domain.Note) error {
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	query := `INSERT INTO notes (
		id, source, format, s3_bucket, s3_key, size_bytes,
		extraction_status, extraction_error, extract_attempts, retry_after,
		created_by, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, $13
	)`

	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.Source, note.Format, note.S3Bucket, note.S3Key, note.SizeBytes,
		note.ExtractionStatus, note.ExtractionError, note.ExtractAttempts, note.RetryAfter,
		note.CreatedBy, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("noteRepo.Create: %w", err)
	}
	return nil
}

func (r *noteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	var note domain.Note
	err := r.db.GetContext(ctx, &note, "SELECT * FROM notes WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("noteRepo.GetByID: %w", err)
	}
	return &note, nil
}

func (r *noteRepo) List(ctx context.Context, status domain.ExtractionStatus, offset, limit int) ([]domain.Note, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = "WHERE extraction_status = $1"
		args = append(args, status)
	}

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notes "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("noteRepo.List count: %w", err)
	}

	query := fmt.Sprintf("SELECT * FROM notes %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var notes []domain.Note
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("noteRepo.List: %w", err)
	}
	return notes, total, nil
}

// ClaimQueued flips up to limit queued notes to processing in one statement.
// SKIP LOCKED keeps concurrent workers from claiming the same note.
func (r *noteRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Note, error) {
	query := `UPDATE notes SET extraction_status = 'processing', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM notes
			WHERE extraction_status = 'queued'
			  AND (retry_after IS NULL OR retry_after <= NOW())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var notes []domain.Note
	if err := r.db.SelectContext(ctx, &notes, query, limit); err != nil {
		return nil, fmt.Errorf("noteRepo.ClaimQueued: %w", err)
	}
	return notes, nil
}

func (r *noteRepo) UpdateExtractionState(ctx context.Context, note *domain.Note) error {
	note.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET
			extraction_status = $1, extraction_error = $2,
			extract_attempts = $3, retry_after = $4, updated_at = $5
		 WHERE id = $6`,
		note.ExtractionStatus, note.ExtractionError,
		note.ExtractAttempts, note.RetryAfter, note.UpdatedAt,
		note.ID)
	if err != nil {
		return fmt.Errorf("noteRepo.UpdateExtractionState: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("noteRepo.UpdateExtractionState rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
