package service

import (
	"context"
	"errors"
	"testing"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderServiceFixture struct {
	orderRepo    *MockOrderRepository
	deliveryRepo *MockDeliveryRepository
	productRepo  *MockProductRepository
	userRepo     *MockUserRepository
	merchantRepo *MockMerchantRepository
	payments     *MockPaymentService
	service      OrderService
}

func newOrderServiceFixture() *orderServiceFixture {
	f := &orderServiceFixture{
		orderRepo:    new(MockOrderRepository),
		deliveryRepo: new(MockDeliveryRepository),
		productRepo:  new(MockProductRepository),
		userRepo:     new(MockUserRepository),
		merchantRepo: new(MockMerchantRepository),
		payments:     new(MockPaymentService),
	}
	f.service = NewOrderService(
		f.orderRepo, f.deliveryRepo, f.productRepo, f.userRepo, f.merchantRepo,
		f.payments, noopNotifier{}, zerolog.Nop(),
	)
	return f
}

func testCustomer(ageVerified bool) *model.User {
	return &model.User{
		ID:          uuid.New(),
		Email:       "customer@example.com",
		Roles:       []model.Role{model.RoleCustomer},
		AgeVerified: ageVerified,
		Active:      true,
	}
}

func testMerchant() *model.Merchant {
	return &model.Merchant{
		ID:     uuid.New(),
		Name:   "Corner Bottle Shop",
		Active: true,
	}
}

func testProduct(merchantID uuid.UUID, price float64, alcohol bool) *model.Product {
	return &model.Product{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Name:       "Item",
		Price:      price,
		Alcohol:    alcohol,
		Available:  true,
	}
}

func TestOrderService_Create_Success(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customer := testCustomer(true)
	merchant := testMerchant()
	snacks := testProduct(merchant.ID, 10.00, false)
	wine := testProduct(merchant.ID, 25.00, true)

	req := &model.CreateOrderRequest{
		CustomerID:      customer.ID,
		MerchantID:      merchant.ID,
		DeliveryAddress: "1 High Street",
		PaymentMethod:   "card",
		Items: []model.OrderItemRequest{
			{ProductID: snacks.ID, Quantity: 2},
			{ProductID: wine.ID, Quantity: 1},
		},
	}

	mockTx := new(MockTx)
	f.userRepo.On("GetByID", ctx, customer.ID).Return(customer, nil)
	f.merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	f.productRepo.On("GetByID", ctx, snacks.ID).Return(snacks, nil)
	f.productRepo.On("GetByID", ctx, wine.ID).Return(wine, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.payments.On("Authorize", ctx, mockTx, mock.AnythingOfType("*model.Order"), "card").
		Return(&model.Payment{Status: model.PaymentStatusAuthorized, Amount: 45.00}, nil)
	f.deliveryRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Delivery")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	order, err := f.service.Create(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.InDelta(t, 45.00, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[0].LineNo)
	assert.Equal(t, 2, order.Items[1].LineNo)
	assert.InDelta(t, 20.00, order.Items[0].Subtotal, 0.001)
	assert.InDelta(t, 25.00, order.Items[1].Subtotal, 0.001)
	assert.True(t, order.HasAlcohol())
	assert.True(t, mockTx.committed)

	// The pending delivery is created with the order's address.
	f.deliveryRepo.AssertCalled(t, "Create", ctx, mockTx, mock.MatchedBy(func(d *model.Delivery) bool {
		return d.OrderID == order.ID &&
			d.Status == model.DeliveryStatusPending &&
			d.DeliveryAddress == order.DeliveryAddress
	}))

	f.orderRepo.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestOrderService_Create_AlcoholRequiresAgeVerification(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customer := testCustomer(false)
	merchant := testMerchant()
	wine := testProduct(merchant.ID, 25.00, true)

	req := &model.CreateOrderRequest{
		CustomerID:      customer.ID,
		MerchantID:      merchant.ID,
		DeliveryAddress: "1 High Street",
		PaymentMethod:   "card",
		Items: []model.OrderItemRequest{
			{ProductID: wine.ID, Quantity: 1},
		},
	}

	f.userRepo.On("GetByID", ctx, customer.ID).Return(customer, nil)
	f.merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	f.productRepo.On("GetByID", ctx, wine.ID).Return(wine, nil)

	order, err := f.service.Create(ctx, req)

	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, model.IsCompliance(err))

	// Nothing was persisted.
	f.orderRepo.AssertNotCalled(t, "BeginTx")
	f.payments.AssertNotCalled(t, "Authorize")
	f.deliveryRepo.AssertNotCalled(t, "Create")
}

func TestOrderService_Create_AlcoholWithVerifiedCustomer(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customer := testCustomer(true)
	merchant := testMerchant()
	wine := testProduct(merchant.ID, 30.00, true)

	req := &model.CreateOrderRequest{
		CustomerID:      customer.ID,
		MerchantID:      merchant.ID,
		DeliveryAddress: "1 High Street",
		PaymentMethod:   "card",
		Items: []model.OrderItemRequest{
			{ProductID: wine.ID, Quantity: 1},
		},
	}

	mockTx := new(MockTx)
	f.userRepo.On("GetByID", ctx, customer.ID).Return(customer, nil)
	f.merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	f.productRepo.On("GetByID", ctx, wine.ID).Return(wine, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.payments.On("Authorize", ctx, mockTx, mock.AnythingOfType("*model.Order"), "card").
		Return(&model.Payment{Status: model.PaymentStatusAuthorized}, nil)
	f.deliveryRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Delivery")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	order, err := f.service.Create(ctx, req)

	require.NoError(t, err)
	assert.True(t, order.AgeVerified)
}

func TestOrderService_Create_DestinationCoordinates(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customer := testCustomer(true)
	merchant := testMerchant()
	snacks := testProduct(merchant.ID, 10.00, false)

	req := &model.CreateOrderRequest{
		CustomerID:        customer.ID,
		MerchantID:        merchant.ID,
		DeliveryAddress:   "1 High Street",
		DeliveryLatitude:  f64(51.5),
		DeliveryLongitude: f64(-0.12),
		PaymentMethod:     "card",
		Items: []model.OrderItemRequest{
			{ProductID: snacks.ID, Quantity: 1},
		},
	}

	mockTx := new(MockTx)
	f.userRepo.On("GetByID", ctx, customer.ID).Return(customer, nil)
	f.merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	f.productRepo.On("GetByID", ctx, snacks.ID).Return(snacks, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.payments.On("Authorize", ctx, mockTx, mock.AnythingOfType("*model.Order"), "card").
		Return(&model.Payment{Status: model.PaymentStatusAuthorized}, nil)
	f.deliveryRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Delivery")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	order, err := f.service.Create(ctx, req)

	require.NoError(t, err)
	f.deliveryRepo.AssertCalled(t, "Create", ctx, mockTx, mock.MatchedBy(func(d *model.Delivery) bool {
		return d.OrderID == order.ID &&
			d.DeliveryLatitude != nil && *d.DeliveryLatitude == 51.5 &&
			d.DeliveryLongitude != nil && *d.DeliveryLongitude == -0.12
	}))
}

func TestOrderService_Create_RejectsBadDestinationCoordinates(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	base := func() *model.CreateOrderRequest {
		return &model.CreateOrderRequest{
			CustomerID:      uuid.New(),
			MerchantID:      uuid.New(),
			DeliveryAddress: "1 High Street",
			PaymentMethod:   "card",
			Items:           []model.OrderItemRequest{{ProductID: uuid.New(), Quantity: 1}},
		}
	}

	t.Run("latitude without longitude", func(t *testing.T) {
		req := base()
		req.DeliveryLatitude = f64(51.5)

		_, err := f.service.Create(ctx, req)
		assert.True(t, model.IsValidation(err))
	})

	t.Run("out of range", func(t *testing.T) {
		req := base()
		req.DeliveryLatitude = f64(95)
		req.DeliveryLongitude = f64(0)

		_, err := f.service.Create(ctx, req)
		assert.True(t, model.IsValidation(err))
	})

	f.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_Create_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customerID := uuid.New()
	merchantID := uuid.New()
	productID := uuid.New()

	tests := []struct {
		name string
		req  *model.CreateOrderRequest
	}{
		{name: "nil request", req: nil},
		{
			name: "missing customer",
			req: &model.CreateOrderRequest{
				MerchantID:      merchantID,
				DeliveryAddress: "1 High Street",
				Items:           []model.OrderItemRequest{{ProductID: productID, Quantity: 1}},
			},
		},
		{
			name: "missing address",
			req: &model.CreateOrderRequest{
				CustomerID: customerID,
				MerchantID: merchantID,
				Items:      []model.OrderItemRequest{{ProductID: productID, Quantity: 1}},
			},
		},
		{
			name: "empty items",
			req: &model.CreateOrderRequest{
				CustomerID:      customerID,
				MerchantID:      merchantID,
				DeliveryAddress: "1 High Street",
				Items:           []model.OrderItemRequest{},
			},
		},
		{
			name: "zero quantity",
			req: &model.CreateOrderRequest{
				CustomerID:      customerID,
				MerchantID:      merchantID,
				DeliveryAddress: "1 High Street",
				Items:           []model.OrderItemRequest{{ProductID: productID, Quantity: 0}},
			},
		},
		{
			name: "negative quantity",
			req: &model.CreateOrderRequest{
				CustomerID:      customerID,
				MerchantID:      merchantID,
				DeliveryAddress: "1 High Street",
				Items:           []model.OrderItemRequest{{ProductID: productID, Quantity: -3}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := f.service.Create(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, order)
			assert.True(t, model.IsValidation(err))
		})
	}

	f.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_Create_AuthorizationFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customer := testCustomer(true)
	merchant := testMerchant()
	snacks := testProduct(merchant.ID, 10.00, false)

	req := &model.CreateOrderRequest{
		CustomerID:      customer.ID,
		MerchantID:      merchant.ID,
		DeliveryAddress: "1 High Street",
		PaymentMethod:   "card",
		Items: []model.OrderItemRequest{
			{ProductID: snacks.ID, Quantity: 1},
		},
	}

	mockTx := new(MockTx)
	f.userRepo.On("GetByID", ctx, customer.ID).Return(customer, nil)
	f.merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	f.productRepo.On("GetByID", ctx, snacks.ID).Return(snacks, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.payments.On("Authorize", ctx, mockTx, mock.AnythingOfType("*model.Order"), "card").
		Return(nil, errors.New("gateway unavailable"))
	mockTx.On("Rollback", ctx).Return(nil)

	order, err := f.service.Create(ctx, req)

	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
	f.deliveryRepo.AssertNotCalled(t, "Create")
}

func TestOrderService_Cancel_RefundsPayment(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	customer := testCustomer(true)
	order := &model.Order{
		ID:          uuid.New(),
		CustomerID:  customer.ID,
		Status:      model.OrderStatusPending,
		TotalAmount: 45.00,
	}

	mockTx := new(MockTx)
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("UpdateStatus", ctx, mockTx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled, mock.AnythingOfType("time.Time")).Return(nil)
	f.payments.On("Refund", ctx, mockTx, order, "Order cancelled by customer").
		Return(&model.Payment{Status: model.PaymentStatusRefunded, Amount: 45.00}, nil)
	mockTx.On("Commit", ctx).Return(nil)
	f.userRepo.On("GetByID", ctx, customer.ID).Return(customer, nil)

	cancelled, err := f.service.Cancel(ctx, order.ID)

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	f.payments.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestOrderService_Cancel_LostStatusRaceIssuesNoRefund(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	// The order was PENDING when loaded but another writer moved it before
	// the cancel transaction ran. The guarded status write fails and the
	// refund never commits.
	order := &model.Order{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Status:      model.OrderStatusPending,
		TotalAmount: 45.00,
	}

	mockTx := new(MockTx)
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("UpdateStatus", ctx, mockTx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled, mock.AnythingOfType("time.Time")).
		Return(model.NewStateTransitionError("order %s is no longer in status %s", order.ID, order.Status))
	mockTx.On("Rollback", ctx).Return(nil)

	cancelled, err := f.service.Cancel(ctx, order.ID)

	require.Error(t, err)
	assert.Nil(t, cancelled)
	assert.True(t, model.IsStateTransition(err))
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
	f.payments.AssertNotCalled(t, "Refund")
}

func TestOrderService_Cancel_RejectsLateCancellation(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	for _, status := range []model.OrderStatus{
		model.OrderStatusPreparing,
		model.OrderStatusReadyForPickup,
		model.OrderStatusInTransit,
		model.OrderStatusCompleted,
		model.OrderStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			order := &model.Order{ID: uuid.New(), Status: status}
			f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

			cancelled, err := f.service.Cancel(ctx, order.ID)

			require.Error(t, err)
			assert.Nil(t, cancelled)
			assert.True(t, model.IsStateTransition(err))
		})
	}

	f.payments.AssertNotCalled(t, "Refund")
}

func TestOrderService_UpdateStatus_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	order := &model.Order{ID: uuid.New(), Status: model.OrderStatusPending}
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	updated, err := f.service.UpdateStatus(ctx, order.ID, model.OrderStatusInTransit)

	require.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, model.IsStateTransition(err))
	f.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_UpdateStatus_LostRaceDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	// Validated against a CONFIRMED read, but the row moved on before the
	// write. The guarded update refuses to clobber the committed status.
	order := &model.Order{ID: uuid.New(), Status: model.OrderStatusConfirmed}

	mockTx := new(MockTx)
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	f.orderRepo.On("UpdateStatus", ctx, mockTx, order.ID, model.OrderStatusConfirmed, model.OrderStatusPreparing, mock.AnythingOfType("time.Time")).
		Return(model.NewStateTransitionError("order %s is no longer in status %s", order.ID, order.Status))
	mockTx.On("Rollback", ctx).Return(nil)

	updated, err := f.service.UpdateStatus(ctx, order.ID, model.OrderStatusPreparing)

	require.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, model.IsStateTransition(err))
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	missing := uuid.New()
	f.orderRepo.On("GetByID", ctx, missing).Return(nil, nil)

	updated, err := f.service.UpdateStatus(ctx, missing, model.OrderStatusConfirmed)

	require.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, model.IsNotFound(err))
}

func TestOrderService_FindAssignableNear(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	// Search from the origin. One merchant ~111 km east, one at the origin,
	// one with no location.
	nearMerchant := testMerchant()
	nearMerchant.Latitude = f64(0)
	nearMerchant.Longitude = f64(0.01)

	farMerchant := testMerchant()
	farMerchant.Latitude = f64(0)
	farMerchant.Longitude = f64(1)

	unknownMerchant := testMerchant()

	nearOrder := model.Order{ID: uuid.New(), MerchantID: nearMerchant.ID, Status: model.OrderStatusPending}
	farOrder := model.Order{ID: uuid.New(), MerchantID: farMerchant.ID, Status: model.OrderStatusPending}
	unknownOrder := model.Order{ID: uuid.New(), MerchantID: unknownMerchant.ID, Status: model.OrderStatusPending}

	f.orderRepo.On("FindAssignable", ctx).Return([]model.Order{farOrder, nearOrder, unknownOrder}, nil)
	f.merchantRepo.On("GetByID", ctx, nearMerchant.ID).Return(nearMerchant, nil)
	f.merchantRepo.On("GetByID", ctx, farMerchant.ID).Return(farMerchant, nil)
	f.merchantRepo.On("GetByID", ctx, unknownMerchant.ID).Return(unknownMerchant, nil)

	orders, err := f.service.FindAssignableNear(ctx, 0, 0, 10)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, nearOrder.ID, orders[0].ID)

	// Widening the radius includes the far order, sorted closest first.
	orders, err = f.service.FindAssignableNear(ctx, 0, 0, 200)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, nearOrder.ID, orders[0].ID)
	assert.Equal(t, farOrder.ID, orders[1].ID)
}

func TestOrderService_FindAssignableNear_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newOrderServiceFixture()

	_, err := f.service.FindAssignableNear(ctx, 91, 0, 10)
	assert.True(t, model.IsValidation(err))

	_, err = f.service.FindAssignableNear(ctx, 0, 0, -1)
	assert.True(t, model.IsValidation(err))

	f.orderRepo.AssertNotCalled(t, "FindAssignable")
}

func f64(v float64) *float64 { return &v }
