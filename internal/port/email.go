package port

import (
	"context"

	"dmeflow/internal/domain"
)

// EmailSender defines the contract for operational email notifications.
type EmailSender interface {
	// SendReviewAlert notifies the review team that an extracted order
	// needs human review.
	SendReviewAlert(ctx context.Context, order *domain.Order, reason string) error
}
