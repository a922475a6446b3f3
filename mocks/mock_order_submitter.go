package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dmeflow/internal/domain"
	"dmeflow/internal/port"
)

// MockOrderSubmitter is a mock implementation of port.OrderSubmitter.
type MockOrderSubmitter struct {
	mock.Mock
}

func (m *MockOrderSubmitter) Submit(ctx context.Context, order domain.DeviceOrder) (*port.SubmitResult, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.SubmitResult), args.Error(1)
}
