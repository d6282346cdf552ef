package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"booze-courier/internal/model"
	"booze-courier/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService over the append-only ledger.
type paymentService struct {
	paymentRepo repository.PaymentRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(paymentRepo repository.PaymentRepository, logger zerolog.Logger) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		logger:      logger.With().Str("service", "payment").Logger(),
		now:         time.Now,
	}
}

// Authorize appends an AUTHORIZED entry for the order's total. The amount is
// fixed here and never recomputed.
func (s *paymentService) Authorize(ctx context.Context, tx pgx.Tx, order *model.Order, method string) (*model.Payment, error) {
	if strings.TrimSpace(method) == "" {
		return nil, model.NewValidationError("payment method is required")
	}

	existing, err := s.paymentRepo.LatestByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	}
	if existing != nil && existing.Status == model.PaymentStatusAuthorized {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Msg("duplicate payment authorization attempt")
		return nil, model.NewConflictError("active payment already exists for order %s", order.ID)
	}

	payment := &model.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        order.CustomerID,
		Amount:        order.TotalAmount,
		Status:        model.PaymentStatusAuthorized,
		PaymentMethod: method,
		TransactionID: "txn-" + uuid.NewString(),
		CreatedAt:     s.now(),
	}

	if err := s.paymentRepo.Append(ctx, tx, payment); err != nil {
		if model.IsConflict(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to authorize payment")
		return nil, fmt.Errorf("failed to authorize payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Float64("amount", payment.Amount).
		Str("method", method).
		Msg("payment authorized")

	return payment, nil
}

// Refund appends a REFUNDED entry mirroring the authorized amount. Earlier
// entries stay in the ledger for audit.
func (s *paymentService) Refund(ctx context.Context, tx pgx.Tx, order *model.Order, reason string) (*model.Payment, error) {
	latest, err := s.paymentRepo.LatestByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	if latest == nil {
		return nil, model.NewNotFoundError("payment not found for order %s", order.ID)
	}
	if latest.Status == model.PaymentStatusRefunded {
		return nil, model.NewConflictError("payment for order %s is already refunded", order.ID)
	}

	refund := &model.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        latest.UserID,
		Amount:        latest.Amount,
		Status:        model.PaymentStatusRefunded,
		PaymentMethod: latest.PaymentMethod,
		TransactionID: latest.TransactionID,
		RefundReason:  reason,
		CreatedAt:     s.now(),
	}

	if err := s.paymentRepo.Append(ctx, tx, refund); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to append refund")
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Float64("amount", refund.Amount).
		Str("reason", reason).
		Msg("payment refunded")

	return refund, nil
}

// GetByOrderID retrieves the order's current payment state.
func (s *paymentService) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.LatestByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, model.NewNotFoundError("payment not found for order %s", orderID)
	}
	return payment, nil
}

// LedgerByOrder retrieves the order's full payment history, oldest first.
func (s *paymentService) LedgerByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	payments, err := s.paymentRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// HistoryByUser retrieves all ledger entries across a user's orders, newest
// first.
func (s *paymentService) HistoryByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// RevenueBetween sums AUTHORIZED amounts created in [start, end).
func (s *paymentService) RevenueBetween(ctx context.Context, start, end time.Time) (float64, error) {
	if !end.After(start) {
		return 0, model.NewValidationError("end time must be after start time")
	}
	total, err := s.paymentRepo.RevenueBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to compute revenue: %w", err)
	}
	return total, nil
}

// ValidateMethod is the payment-gateway seam. A real integration would check
// the method against the user's stored instruments.
func (s *paymentService) ValidateMethod(user *model.User, method string) error {
	if user == nil {
		return model.NewValidationError("user is required")
	}
	if strings.TrimSpace(method) == "" {
		return model.NewValidationError("payment method is required")
	}
	return nil
}
