package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dmeflow/internal/domain"
)

// MockOrderValidator is a mock implementation of port.OrderValidator.
type MockOrderValidator struct {
	mock.Mock
}

func (m *MockOrderValidator) Validate(ctx context.Context, order domain.DeviceOrder, noteText string) domain.ValidationResult {
	args := m.Called(ctx, order, noteText)
	return args.Get(0).(domain.ValidationResult)
}
