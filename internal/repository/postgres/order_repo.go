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

type orderRepo struct {
	db *sqlx.DB
}

// NewOrderRepo creates a new PostgreSQL-backed OrderRepository.
func NewOrderRepo(db *sqlx.DB) port.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	query := `INSERT INTO orders (
		id, note_id, device, ordering_provider, patient_name, dob, diagnosis,
		mask_type, liters, usage_schedule, qualifier, add_ons, specifications,
		confidence, extraction_method, model_used, validation_score, validation_issues,
		review_status, reviewed_by, reviewed_at, reviewer_notes,
		submission_status, submitted_at, external_order_id, submission_error,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18,
		$19, $20, $21, $22,
		$23, $24, $25, $26,
		$27, $28
	)`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.NoteID, order.Device, order.OrderingProvider, order.PatientName, order.DateOfBirth, order.Diagnosis,
		order.MaskType, order.Liters, order.Usage, order.Qualifier, order.AddOns, order.Specifications,
		order.Confidence, order.ExtractionMethod, order.ModelUsed, order.ValidationScore, order.ValidationIssues,
		order.ReviewStatus, order.ReviewedBy, order.ReviewedAt, order.ReviewerNotes,
		order.SubmissionStatus, order.SubmittedAt, order.ExternalOrderID, order.SubmissionError,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("orderRepo.Create: %w", err)
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("orderRepo.GetByID: %w", err)
	}
	return &order, nil
}

func (r *orderRepo) GetByNoteID(ctx context.Context, noteID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE note_id = $1", noteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("orderRepo.GetByNoteID: %w", err)
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, offset, limit int) ([]domain.Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"); err != nil {
		return nil, 0, fmt.Errorf("orderRepo.List count: %w", err)
	}

	var orders []domain.Order
	err := r.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("orderRepo.List: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepo) ListByReviewStatus(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Order, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM orders WHERE review_status = $1", status)
	if err != nil {
		return nil, 0, fmt.Errorf("orderRepo.ListByReviewStatus count: %w", err)
	}

	var orders []domain.Order
	err = r.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE review_status = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("orderRepo.ListByReviewStatus: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("orderRepo.ListCreatedBetween: %w", err)
	}
	return orders, nil
}

func (r *orderRepo) UpdateReview(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET
			device = $1, ordering_provider = $2, patient_name = $3, dob = $4,
			diagnosis = $5, mask_type = $6, liters = $7, usage_schedule = $8,
			qualifier = $9, add_ons = $10, specifications = $11,
			review_status = $12, reviewed_by = $13, reviewed_at = $14,
			reviewer_notes = $15, updated_at = $16
		 WHERE id = $17`,
		order.Device, order.OrderingProvider, order.PatientName, order.DateOfBirth,
		order.Diagnosis, order.MaskType, order.Liters, order.Usage,
		order.Qualifier, order.AddOns, order.Specifications,
		order.ReviewStatus, order.ReviewedBy, order.ReviewedAt,
		order.ReviewerNotes, order.UpdatedAt,
		order.ID)
	if err != nil {
		return fmt.Errorf("orderRepo.UpdateReview: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("orderRepo.UpdateReview rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) UpdateSubmission(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET
			submission_status = $1, submitted_at = $2,
			external_order_id = $3, submission_error = $4, updated_at = $5
		 WHERE id = $6`,
		order.SubmissionStatus, order.SubmittedAt,
		order.ExternalOrderID, order.SubmissionError, order.UpdatedAt,
		order.ID)
	if err != nil {
		return fmt.Errorf("orderRepo.UpdateSubmission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("orderRepo.UpdateSubmission rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
