package noop

import (
	"context"
	"fmt"
	"log"

	"dmeflow/internal/domain"
	"dmeflow/internal/port"
)

type noopSender struct {
	consoleURL string
}

// NewNoopSender creates a no-op EmailSender that logs review alerts to
// stdout. Used in local development where SES is not configured.
func NewNoopSender(consoleURL string) port.EmailSender {
	return &noopSender{consoleURL: consoleURL}
}

func (s *noopSender) SendReviewAlert(_ context.Context, order *domain.Order, reason string) error {
	reviewURL := fmt.Sprintf("%s/orders/%s/review", s.consoleURL, order.ID)
	log.Printf("[NOOP EMAIL] Review alert for order %s (%s): %s -> %s", order.ID, order.Device, reason, reviewURL)
	return nil
}
