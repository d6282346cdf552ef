package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"booze-courier/internal/config"
	"booze-courier/internal/geo"
	"booze-courier/internal/model"
	"booze-courier/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// deliveryService implements DeliveryService. Driver assignment claims the
// order row conditionally, so two concurrent claims on the same order
// resolve to exactly one winner.
type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	orderRepo    repository.OrderRepository
	driverRepo   repository.DriverRepository
	userRepo     repository.UserRepository
	notifier     Notifier
	dispatch     config.DispatchConfig
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	dispatch config.DispatchConfig,
	logger zerolog.Logger,
) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		orderRepo:    orderRepo,
		driverRepo:   driverRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		dispatch:     dispatch,
		logger:       logger.With().Str("service", "delivery").Logger(),
		now:          time.Now,
	}
}

// AssignDriverToOrder claims the order for the driver and moves the order's
// delivery to ASSIGNED. The claim and the delivery update commit together;
// a contended or repeated claim fails with a conflict error and changes
// nothing.
func (s *deliveryService) AssignDriverToOrder(ctx context.Context, orderID, driverID uuid.UUID) (*model.Delivery, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("order not found: %s", orderID)
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, model.NewNotFoundError("driver not found: %s", driverID)
	}

	account, err := s.userRepo.GetByID(ctx, driver.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver account: %w", err)
	}
	if !driver.CanAcceptDeliveries(account) {
		return nil, model.NewValidationError("driver %s cannot accept deliveries", driver.ID)
	}

	delivery, err := s.deliveryRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	if delivery != nil && delivery.DriverID != nil {
		if delivery.Active() {
			return nil, model.NewConflictError("order %s is already assigned to a driver", orderID)
		}
		if !s.dispatch.AllowReassignment {
			return nil, model.NewConflictError("order %s was already dispatched and reassignment is disabled", orderID)
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := s.now()

	if delivery != nil && delivery.DriverID != nil && !delivery.Active() {
		// Re-dispatch after a cancelled or failed run: free the order row so
		// the claim below can take it again.
		if err = s.orderRepo.ReleaseDriver(ctx, tx, orderID, now); err != nil {
			return nil, err
		}
	}

	if err = s.orderRepo.ClaimDriver(ctx, tx, orderID, driverID, now); err != nil {
		return nil, err
	}

	if delivery == nil {
		delivery = &model.Delivery{
			ID:              uuid.New(),
			OrderID:         orderID,
			DeliveryAddress: order.DeliveryAddress,
			CreatedAt:       now,
		}
		s.markAssigned(delivery, driverID, now)
		if err = s.deliveryRepo.Create(ctx, tx, delivery); err != nil {
			return nil, err
		}
	} else {
		s.markAssigned(delivery, driverID, now)
		if err = s.deliveryRepo.UpdateTx(ctx, tx, delivery); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit assignment")
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("driver_id", driverID.String()).
		Str("delivery_id", delivery.ID.String()).
		Msg("driver assigned")

	s.notifier.NotifyDriver(ctx, driver, delivery, "New delivery assigned to you")

	return delivery, nil
}

// markAssigned resets the delivery for a fresh dispatch under the given
// driver, clearing any leftovers from a previous failed run.
func (s *deliveryService) markAssigned(delivery *model.Delivery, driverID uuid.UUID, now time.Time) {
	d := driverID
	delivery.DriverID = &d
	delivery.Status = model.DeliveryStatusAssigned
	delivery.PickupTime = nil
	delivery.DeliveredTime = nil
	delivery.CancellationReason = ""
	delivery.UpdatedAt = now
}

// UpdateStatus advances the delivery through its state machine. Pickup and
// delivered times are stamped on their transitions. A delivery of an order
// containing alcohol cannot reach DELIVERED until age verification is
// recorded.
func (s *deliveryService) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status model.DeliveryStatus) (*model.Delivery, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("unknown delivery status: %s", status)
	}

	delivery, err := s.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if !delivery.Status.CanTransitionTo(status) {
		return nil, model.NewStateTransitionError(
			"invalid delivery status transition from %s to %s", delivery.Status, status)
	}

	if status == model.DeliveryStatusDelivered && !delivery.AgeVerified {
		restricted, err := s.orderNeedsAgeCheck(ctx, delivery.OrderID)
		if err != nil {
			return nil, err
		}
		if restricted {
			s.logger.Warn().
				Str("delivery_id", delivery.ID.String()).
				Msg("delivery completion blocked: age verification missing")
			return nil, model.NewComplianceError(
				"age verification is required before completing an alcohol delivery")
		}
	}

	now := s.now()
	delivery.Status = status
	delivery.UpdatedAt = now

	switch status {
	case model.DeliveryStatusPickedUp:
		delivery.PickupTime = &now
	case model.DeliveryStatusDelivered:
		delivery.DeliveredTime = &now
	}

	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("delivery_id", delivery.ID.String()).
		Str("status", string(status)).
		Msg("delivery status updated")

	if status == model.DeliveryStatusDelivered {
		s.recordCompletedDelivery(ctx, delivery)
	}

	return delivery, nil
}

// VerifyAge records the recipient age check. Only the last 4 characters of
// the scanned ID number are retained.
func (s *deliveryService) VerifyAge(ctx context.Context, deliveryID uuid.UUID, verified bool, idType, idNumber string) (*model.Delivery, error) {
	delivery, err := s.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if !delivery.Active() {
		return nil, model.NewStateTransitionError(
			"cannot verify age on a delivery in status %s", delivery.Status)
	}

	now := s.now()
	delivery.AgeVerified = verified
	delivery.IDType = strings.TrimSpace(idType)
	delivery.IDNumber = lastN(strings.TrimSpace(idNumber), 4)
	delivery.AgeVerifiedAt = &now
	delivery.UpdatedAt = now

	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("delivery_id", delivery.ID.String()).
		Bool("verified", verified).
		Str("id_type", delivery.IDType).
		Msg("age verification recorded")

	return delivery, nil
}

// UpdateLocation overwrites the live tracking coordinates.
func (s *deliveryService) UpdateLocation(ctx context.Context, deliveryID uuid.UUID, lat, lon float64) error {
	if !geo.ValidCoordinates(lat, lon) {
		return model.NewValidationError("coordinates out of range: %f, %f", lat, lon)
	}

	delivery, err := s.GetByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if !delivery.Active() {
		return model.NewStateTransitionError(
			"cannot track a delivery in status %s", delivery.Status)
	}

	now := s.now()
	delivery.CurrentLatitude = &lat
	delivery.CurrentLongitude = &lon
	delivery.LastLocationUpdate = &now
	delivery.UpdatedAt = now

	return s.deliveryRepo.Update(ctx, delivery)
}

// Cancel terminates the delivery, recording the reason verbatim.
func (s *deliveryService) Cancel(ctx context.Context, deliveryID uuid.UUID, reason string) (*model.Delivery, error) {
	delivery, err := s.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if !delivery.Status.CanTransitionTo(model.DeliveryStatusCancelled) {
		return nil, model.NewStateTransitionError(
			"delivery cannot be cancelled in status %s", delivery.Status)
	}

	now := s.now()
	delivery.Status = model.DeliveryStatusCancelled
	delivery.CancellationReason = reason
	delivery.UpdatedAt = now

	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("delivery_id", delivery.ID.String()).
		Str("reason", reason).
		Msg("delivery cancelled")

	return delivery, nil
}

// GetByID retrieves a delivery.
func (s *deliveryService) GetByID(ctx context.Context, deliveryID uuid.UUID) (*model.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if delivery == nil {
		return nil, model.NewNotFoundError("delivery not found: %s", deliveryID)
	}
	return delivery, nil
}

// GetByOrderID retrieves the delivery of an order.
func (s *deliveryService) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if delivery == nil {
		return nil, model.NewNotFoundError("delivery not found for order %s", orderID)
	}
	return delivery, nil
}

// GetByDriver retrieves all deliveries assigned to a driver.
func (s *deliveryService) GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Delivery, error) {
	return s.deliveryRepo.GetByDriver(ctx, driverID)
}

// orderNeedsAgeCheck reports whether the delivery's order contains alcohol.
func (s *deliveryService) orderNeedsAgeCheck(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return false, model.NewNotFoundError("order not found: %s", orderID)
	}
	return order.HasAlcohol(), nil
}

// recordCompletedDelivery bumps the driver's delivery counter. Best effort:
// the delivery itself is already saved.
func (s *deliveryService) recordCompletedDelivery(ctx context.Context, delivery *model.Delivery) {
	if delivery.DriverID == nil {
		return
	}
	driver, err := s.driverRepo.GetByID(ctx, *delivery.DriverID)
	if err != nil || driver == nil {
		return
	}
	driver.TotalDeliveries++
	driver.UpdatedAt = s.now()
	if err := s.driverRepo.Update(ctx, driver); err != nil {
		s.logger.Warn().Err(err).
			Str("driver_id", driver.ID.String()).
			Msg("failed to update driver delivery count")
	}
}

// lastN returns the final n characters of s, or s itself when shorter.
func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
