package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dmeflow/internal/domain"
)

// NoteRepository defines the contract for note persistence.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	List(ctx context.Context, status domain.ExtractionStatus, offset, limit int) ([]domain.Note, int, error)
	// ClaimQueued atomically marks up to limit queued notes as processing
	// and returns them. Notes with a retry_after in the future are skipped.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Note, error)
	UpdateExtractionState(ctx context.Context, note *domain.Note) error
}

// OrderRepository defines the contract for extracted order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByNoteID(ctx context.Context, noteID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, offset, limit int) ([]domain.Order, int, error)
	ListByReviewStatus(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Order, int, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
	UpdateReview(ctx context.Context, order *domain.Order) error
	UpdateSubmission(ctx context.Context, order *domain.Order) error
}

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
