package service

import (
	"context"
	"fmt"
	"time"

	"booze-courier/internal/model"
	"booze-courier/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ratingService implements RatingService.
type ratingService struct {
	ratingRepo   repository.RatingRepository
	orderRepo    repository.OrderRepository
	driverRepo   repository.DriverRepository
	merchantRepo repository.MerchantRepository
	logger       zerolog.Logger
	now          func() time.Time
}

// NewRatingService creates a new rating service.
func NewRatingService(
	ratingRepo repository.RatingRepository,
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	merchantRepo repository.MerchantRepository,
	logger zerolog.Logger,
) RatingService {
	return &ratingService{
		ratingRepo:   ratingRepo,
		orderRepo:    orderRepo,
		driverRepo:   driverRepo,
		merchantRepo: merchantRepo,
		logger:       logger.With().Str("service", "rating").Logger(),
		now:          time.Now,
	}
}

// RateOrder records the customer's score for the order's driver or merchant.
// Only COMPLETED orders are ratable, only by their own customer, and each
// target once per order. The target's aggregate rating is recomputed from the
// full rating history after the write.
func (s *ratingService) RateOrder(ctx context.Context, orderID, raterID uuid.UUID, req *model.RateOrderRequest) (*model.Rating, error) {
	if req == nil {
		return nil, model.NewValidationError("rating request is required")
	}
	if !req.TargetType.Valid() {
		return nil, model.NewValidationError("unknown rating target type: %s", req.TargetType)
	}
	if req.Score < 1 || req.Score > 5 {
		return nil, model.NewValidationError("score must be between 1 and 5")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("order not found: %s", orderID)
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, model.NewStateTransitionError(
			"order %s cannot be rated in status %s", order.ID, order.Status)
	}
	if raterID != order.CustomerID {
		return nil, model.NewAuthorizationError("only the order's customer can rate it")
	}

	var targetID uuid.UUID
	switch req.TargetType {
	case model.RatingTargetDriver:
		if order.DriverID == nil {
			return nil, model.NewValidationError("order %s has no driver to rate", order.ID)
		}
		targetID = *order.DriverID
	case model.RatingTargetMerchant:
		targetID = order.MerchantID
	}

	now := s.now()
	rating := &model.Rating{
		ID:         uuid.New(),
		OrderID:    order.ID,
		RaterID:    raterID,
		TargetType: req.TargetType,
		TargetID:   targetID,
		Score:      req.Score,
		Comment:    req.Comment,
		CreatedAt:  now,
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	if err := s.refreshAggregate(ctx, req.TargetType, targetID, now); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("target_type", string(req.TargetType)).
		Str("target_id", targetID.String()).
		Int("score", req.Score).
		Msg("order rated")

	return rating, nil
}

// ListByTarget retrieves all ratings for a target, newest first.
func (s *ratingService) ListByTarget(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID) ([]model.Rating, error) {
	if !targetType.Valid() {
		return nil, model.NewValidationError("unknown rating target type: %s", targetType)
	}
	ratings, err := s.ratingRepo.ListByTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}

// refreshAggregate recomputes the target's stored rating from its full
// rating history.
func (s *ratingService) refreshAggregate(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID, now time.Time) error {
	average, count, err := s.ratingRepo.AverageForTarget(ctx, targetType, targetID)
	if err != nil {
		return fmt.Errorf("failed to average ratings: %w", err)
	}
	if count == 0 {
		return nil
	}

	switch targetType {
	case model.RatingTargetDriver:
		return s.driverRepo.UpdateRating(ctx, targetID, average, now)
	case model.RatingTargetMerchant:
		return s.merchantRepo.UpdateRating(ctx, targetID, average, now)
	}
	return nil
}
