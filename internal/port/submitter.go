package port

import (
	"context"

	"dmeflow/internal/domain"
)

// SubmitResult is the downstream order API's acknowledgement.
type SubmitResult struct {
	ExternalOrderID string
	Status          string
}

// OrderSubmitter hands a finished DeviceOrder to the downstream order API.
type OrderSubmitter interface {
	Submit(ctx context.Context, order domain.DeviceOrder) (*SubmitResult, error)
}
