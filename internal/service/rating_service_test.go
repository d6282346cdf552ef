package service

import (
	"context"
	"testing"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ratingServiceFixture struct {
	ratingRepo   *MockRatingRepository
	orderRepo    *MockOrderRepository
	driverRepo   *MockDriverRepository
	merchantRepo *MockMerchantRepository
	service      RatingService
}

func newRatingServiceFixture() *ratingServiceFixture {
	f := &ratingServiceFixture{
		ratingRepo:   new(MockRatingRepository),
		orderRepo:    new(MockOrderRepository),
		driverRepo:   new(MockDriverRepository),
		merchantRepo: new(MockMerchantRepository),
	}
	f.service = NewRatingService(f.ratingRepo, f.orderRepo, f.driverRepo, f.merchantRepo, zerolog.Nop())
	return f
}

func completedOrder(customerID uuid.UUID, driverID *uuid.UUID) *model.Order {
	return &model.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		MerchantID: uuid.New(),
		DriverID:   driverID,
		Status:     model.OrderStatusCompleted,
	}
}

func TestRatingService_RateOrder_DriverAggregateRefreshed(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	customerID := uuid.New()
	driverID := uuid.New()
	order := completedOrder(customerID, &driverID)

	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.ratingRepo.On("Create", ctx, mock.AnythingOfType("*model.Rating")).Return(nil)
	f.ratingRepo.On("AverageForTarget", ctx, model.RatingTargetDriver, driverID).Return(4.5, 2, nil)
	f.driverRepo.On("UpdateRating", ctx, driverID, 4.5, mock.AnythingOfType("time.Time")).Return(nil)

	rating, err := f.service.RateOrder(ctx, order.ID, customerID, &model.RateOrderRequest{
		TargetType: model.RatingTargetDriver,
		Score:      5,
		Comment:    "quick and friendly",
	})

	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, driverID, rating.TargetID)
	assert.Equal(t, 5, rating.Score)
	f.ratingRepo.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(r *model.Rating) bool {
		return r.OrderID == order.ID && r.RaterID == customerID && r.TargetType == model.RatingTargetDriver
	}))
	f.driverRepo.AssertExpectations(t)
	f.merchantRepo.AssertNotCalled(t, "UpdateRating")
}

func TestRatingService_RateOrder_MerchantAggregateRefreshed(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	customerID := uuid.New()
	order := completedOrder(customerID, nil)

	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.ratingRepo.On("Create", ctx, mock.AnythingOfType("*model.Rating")).Return(nil)
	f.ratingRepo.On("AverageForTarget", ctx, model.RatingTargetMerchant, order.MerchantID).Return(3.0, 1, nil)
	f.merchantRepo.On("UpdateRating", ctx, order.MerchantID, 3.0, mock.AnythingOfType("time.Time")).Return(nil)

	rating, err := f.service.RateOrder(ctx, order.ID, customerID, &model.RateOrderRequest{
		TargetType: model.RatingTargetMerchant,
		Score:      3,
	})

	require.NoError(t, err)
	assert.Equal(t, order.MerchantID, rating.TargetID)
	f.merchantRepo.AssertExpectations(t)
	f.driverRepo.AssertNotCalled(t, "UpdateRating")
}

func TestRatingService_RateOrder_OnlyCompletedOrders(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	customerID := uuid.New()
	for _, status := range []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusConfirmed,
		model.OrderStatusInTransit,
		model.OrderStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			order := completedOrder(customerID, nil)
			order.Status = status
			f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

			rating, err := f.service.RateOrder(ctx, order.ID, customerID, &model.RateOrderRequest{
				TargetType: model.RatingTargetMerchant,
				Score:      4,
			})

			require.Error(t, err)
			assert.Nil(t, rating)
			assert.True(t, model.IsStateTransition(err))
		})
	}

	f.ratingRepo.AssertNotCalled(t, "Create")
}

func TestRatingService_RateOrder_OnlyTheCustomerRates(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	order := completedOrder(uuid.New(), nil)
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	rating, err := f.service.RateOrder(ctx, order.ID, uuid.New(), &model.RateOrderRequest{
		TargetType: model.RatingTargetMerchant,
		Score:      4,
	})

	require.Error(t, err)
	assert.Nil(t, rating)
	assert.True(t, model.IsAuthorization(err))
	f.ratingRepo.AssertNotCalled(t, "Create")
}

func TestRatingService_RateOrder_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	orderID := uuid.New()
	raterID := uuid.New()

	tests := []struct {
		name string
		req  *model.RateOrderRequest
	}{
		{name: "nil request", req: nil},
		{name: "unknown target", req: &model.RateOrderRequest{TargetType: "COURIER", Score: 3}},
		{name: "score too low", req: &model.RateOrderRequest{TargetType: model.RatingTargetDriver, Score: 0}},
		{name: "score too high", req: &model.RateOrderRequest{TargetType: model.RatingTargetDriver, Score: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, err := f.service.RateOrder(ctx, orderID, raterID, tt.req)

			require.Error(t, err)
			assert.Nil(t, rating)
			assert.True(t, model.IsValidation(err))
		})
	}

	f.orderRepo.AssertNotCalled(t, "GetByID")
}

func TestRatingService_RateOrder_NoDriverToRate(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	customerID := uuid.New()
	order := completedOrder(customerID, nil)
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	rating, err := f.service.RateOrder(ctx, order.ID, customerID, &model.RateOrderRequest{
		TargetType: model.RatingTargetDriver,
		Score:      5,
	})

	require.Error(t, err)
	assert.Nil(t, rating)
	assert.True(t, model.IsValidation(err))
}

func TestRatingService_RateOrder_DuplicateRatingConflicts(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	customerID := uuid.New()
	order := completedOrder(customerID, nil)

	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.ratingRepo.On("Create", ctx, mock.AnythingOfType("*model.Rating")).
		Return(model.NewConflictError("order %s already rated its %s", order.ID, model.RatingTargetMerchant))

	rating, err := f.service.RateOrder(ctx, order.ID, customerID, &model.RateOrderRequest{
		TargetType: model.RatingTargetMerchant,
		Score:      2,
	})

	require.Error(t, err)
	assert.Nil(t, rating)
	assert.True(t, model.IsConflict(err))
	f.merchantRepo.AssertNotCalled(t, "UpdateRating")
}

func TestRatingService_ListByTarget_UnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := newRatingServiceFixture()

	ratings, err := f.service.ListByTarget(ctx, "COURIER", uuid.New())

	require.Error(t, err)
	assert.Nil(t, ratings)
	assert.True(t, model.IsValidation(err))
	f.ratingRepo.AssertNotCalled(t, "ListByTarget")
}
