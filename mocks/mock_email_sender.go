package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dmeflow/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendReviewAlert(ctx context.Context, order *domain.Order, reason string) error {
	args := m.Called(ctx, order, reason)
	return args.Error(0)
}
