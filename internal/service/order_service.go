package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"dmeflow/internal/domain"
	"dmeflow/internal/export"
	"dmeflow/internal/port"
)

// ReviewOrderInput is the DTO for reviewing an extracted order. Edits, when
// present, replace the extracted device fields before the verdict is
// recorded.
type ReviewOrderInput struct {
	OrderID    uuid.UUID
	ReviewerID uuid.UUID
	Role       domain.UserRole
	Status     domain.ReviewStatus
	Notes      string
	Edits      *domain.DeviceOrder
}

// OrderService defines the order review and submission contract.
type OrderService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByNoteID(ctx context.Context, noteID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, offset, limit int) ([]domain.Order, int, error)
	ListReviewQueue(ctx context.Context, offset, limit int) ([]domain.Order, int, error)
	Review(ctx context.Context, input *ReviewOrderInput) (*domain.Order, error)
	Submit(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error
	ExportXLSX(ctx context.Context, w io.Writer, from, to time.Time) error
}

type orderService struct {
	orderRepo port.OrderRepository
	submitter port.OrderSubmitter
}

// NewOrderService creates a new OrderService implementation.
func NewOrderService(orderRepo port.OrderRepository, submitter port.OrderSubmitter) OrderService {
	return &orderService{orderRepo: orderRepo, submitter: submitter}
}

func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

func (s *orderService) GetByNoteID(ctx context.Context, noteID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.GetByNoteID(ctx, noteID)
}

func (s *orderService) List(ctx context.Context, offset, limit int) ([]domain.Order, int, error) {
	return s.orderRepo.List(ctx, offset, limit)
}

func (s *orderService) ListReviewQueue(ctx context.Context, offset, limit int) ([]domain.Order, int, error) {
	return s.orderRepo.ListByReviewStatus(ctx, domain.ReviewStatusPending, offset, limit)
}

func (s *orderService) Review(ctx context.Context, input *ReviewOrderInput) (*domain.Order, error) {
	if input.Status != domain.ReviewStatusApproved && input.Status != domain.ReviewStatusRejected {
		return nil, domain.ErrInvalidReviewStatus
	}

	order, err := s.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.ReviewStatus != domain.ReviewStatusPending {
		return nil, domain.ErrInvalidReviewStatus
	}

	if input.Edits != nil {
		applyEdits(order, input.Edits)
	}

	now := time.Now().UTC()
	order.ReviewStatus = input.Status
	order.ReviewedBy = &input.ReviewerID
	order.ReviewedAt = &now
	order.ReviewerNotes = input.Notes

	if err := s.orderRepo.UpdateReview(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("orderService.Review: order %s %s by %s", order.ID, input.Status, input.ReviewerID)
	return order, nil
}

// Submit sends the order downstream. Orders that went through review must
// be approved; orders that passed extraction checks without review are
// submittable as-is.
func (s *orderService) Submit(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SubmissionStatus == domain.SubmissionStatusSubmitted {
		return nil, domain.ErrOrderAlreadySent
	}
	if order.ReviewStatus == domain.ReviewStatusPending || order.ReviewStatus == domain.ReviewStatusRejected {
		return nil, domain.ErrOrderNotApproved
	}

	result, submitErr := s.submitter.Submit(ctx, order.DeviceOrder())
	now := time.Now().UTC()
	if submitErr != nil {
		order.SubmissionStatus = domain.SubmissionStatusFailed
		order.SubmissionError = submitErr.Error()
		if err := s.orderRepo.UpdateSubmission(ctx, order); err != nil {
			log.Printf("orderService.Submit: failed to record submission error for %s: %v", order.ID, err)
		}
		return nil, fmt.Errorf("orderService.Submit: %w", submitErr)
	}

	order.SubmissionStatus = domain.SubmissionStatusSubmitted
	order.SubmittedAt = &now
	order.ExternalOrderID = result.ExternalOrderID
	order.SubmissionError = ""
	if err := s.orderRepo.UpdateSubmission(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("orderService.Submit: order %s submitted as %s", order.ID, result.ExternalOrderID)
	return order, nil
}

func (s *orderService) ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	orders, err := s.orderRepo.ListCreatedBetween(ctx, from, to)
	if err != nil {
		return err
	}

	if _, err := w.Write(export.BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	writer := export.NewWriter(w)
	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writer.WriteOrders(orders); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

func (s *orderService) ExportXLSX(ctx context.Context, w io.Writer, from, to time.Time) error {
	orders, err := s.orderRepo.ListCreatedBetween(ctx, from, to)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, orders)
}

func applyEdits(order *domain.Order, edits *domain.DeviceOrder) {
	order.Device = edits.Device
	order.OrderingProvider = edits.OrderingProvider
	order.PatientName = edits.PatientName
	order.DateOfBirth = edits.DateOfBirth
	order.Diagnosis = edits.Diagnosis
	order.MaskType = edits.MaskType
	order.Liters = edits.Liters
	order.Usage = edits.Usage
	order.Qualifier = edits.Qualifier
	order.AddOns = edits.AddOns
	order.Specifications = edits.Specifications
}
