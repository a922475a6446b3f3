package port

import (
	"context"

	"dmeflow/internal/domain"
)

// Strategy is one extraction approach in the orchestrator's fallback chain.
// Attempt returns (nil, err) when the strategy could not produce an order;
// the orchestrator then moves on to the next strategy in the chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, noteText string) (*domain.DeviceOrder, error)
}

// OrderValidator produces a validation verdict for an extracted order
// against its source note.
type OrderValidator interface {
	Validate(ctx context.Context, order domain.DeviceOrder, noteText string) domain.ValidationResult
}
