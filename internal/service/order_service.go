package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"booze-courier/internal/geo"
	"booze-courier/internal/model"
	"booze-courier/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService. It orchestrates the payment ledger
// and the delivery record so that order creation and cancellation are
// all-or-nothing.
type orderService struct {
	orderRepo    repository.OrderRepository
	deliveryRepo repository.DeliveryRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	merchantRepo repository.MerchantRepository
	payments     PaymentService
	notifier     Notifier
	logger       zerolog.Logger
	now          func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	deliveryRepo repository.DeliveryRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	payments PaymentService,
	notifier Notifier,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		payments:     payments,
		notifier:     notifier,
		logger:       logger.With().Str("service", "order").Logger(),
		now:          time.Now,
	}
}

// Create validates the request, snapshots catalog data into line items,
// authorizes payment and creates a pending delivery. All writes happen in a
// single transaction: if payment authorization fails, nothing persists.
func (s *orderService) Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	customer, err := s.userRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, model.NewNotFoundError("customer not found: %s", req.CustomerID)
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	if merchant == nil {
		return nil, model.NewNotFoundError("merchant not found: %s", req.MerchantID)
	}
	if !merchant.Active {
		return nil, model.NewValidationError("merchant %s is not accepting orders", merchant.ID)
	}

	now := s.now()
	order := &model.Order{
		ID:                  uuid.New(),
		CustomerID:          customer.ID,
		MerchantID:          merchant.ID,
		Status:              model.OrderStatusPending,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		AgeVerified:         customer.AgeVerified,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	items, hasAlcohol, err := s.buildItems(ctx, order.ID, req.Items)
	if err != nil {
		return nil, err
	}
	if hasAlcohol && !customer.AgeVerified {
		s.logger.Warn().
			Str("customer_id", customer.ID.String()).
			Msg("alcohol order rejected: customer not age verified")
		return nil, model.NewComplianceError("customer must be age verified for alcohol orders")
	}
	order.Items = items
	order.CalculateTotal()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return nil, err
	}

	if _, err = s.payments.Authorize(ctx, tx, order, req.PaymentMethod); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("payment authorization failed")
		return nil, err
	}

	delivery := &model.Delivery{
		ID:                uuid.New(),
		OrderID:           order.ID,
		Status:            model.DeliveryStatusPending,
		DeliveryAddress:   order.DeliveryAddress,
		DeliveryLatitude:  req.DeliveryLatitude,
		DeliveryLongitude: req.DeliveryLongitude,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err = s.deliveryRepo.Create(ctx, tx, delivery); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("customer_id", customer.ID.String()).
		Float64("total", order.TotalAmount).
		Int("item_count", len(order.Items)).
		Msg("order created")

	// Notification is best-effort and outside the transaction: a dispatch
	// failure never rolls back a committed order.
	s.notifier.NotifyUser(ctx, customer, "Your order has been confirmed!")

	return order, nil
}

// GetByID retrieves an order with its items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("order not found: %s", id)
	}
	return order, nil
}

// GetByCustomer retrieves all orders placed by a customer.
func (s *orderService) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.GetByCustomer(ctx, customerID)
}

// GetByMerchant retrieves all orders belonging to a merchant.
func (s *orderService) GetByMerchant(ctx context.Context, merchantID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.GetByMerchant(ctx, merchantID)
}

// GetByDriver retrieves all orders assigned to a driver.
func (s *orderService) GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.GetByDriver(ctx, driverID)
}

// Cancel cancels the order and refunds its payment in one transaction.
// Only PENDING and CONFIRMED orders can be cancelled; a repeated cancel
// fails and issues no second refund.
func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanBeCancelled() {
		return nil, model.NewStateTransitionError(
			"order cannot be cancelled in status %s", order.Status)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := s.now()
	if err = s.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status, model.OrderStatusCancelled, now); err != nil {
		return nil, err
	}

	if _, err = s.payments.Refund(ctx, tx, order, "Order cancelled by customer"); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit cancellation")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order.Status = model.OrderStatusCancelled
	order.UpdatedAt = now

	s.logger.Info().Str("order_id", order.ID.String()).Msg("order cancelled")

	if customer, lookupErr := s.userRepo.GetByID(ctx, order.CustomerID); lookupErr == nil && customer != nil {
		s.notifier.NotifyUser(ctx, customer, "Your order has been cancelled.")
	}

	return order, nil
}

// UpdateStatus advances the order through its state machine. Any transition
// not in the table is rejected with no mutation.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("unknown order status: %s", status)
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, model.NewStateTransitionError(
			"invalid order status transition from %s to %s", order.Status, status)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := s.now()
	if err = s.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status, status, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = status
	order.UpdatedAt = now

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(status)).
		Msg("order status updated")

	s.handleStatusChange(ctx, order, status)

	return order, nil
}

// FindAssignableNear returns unassigned, assignable orders whose merchant is
// within radiusKm of the given point, closest first. Orders whose merchant
// has no known coordinates are skipped.
func (s *orderService) FindAssignableNear(ctx context.Context, lat, lon, radiusKm float64) ([]model.Order, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, model.NewValidationError("coordinates out of range: %f, %f", lat, lon)
	}
	if radiusKm <= 0 {
		return nil, model.NewValidationError("radius must be positive")
	}

	candidates, err := s.orderRepo.FindAssignable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignable orders: %w", err)
	}

	merchants := make(map[uuid.UUID]*model.Merchant)
	type scored struct {
		order    model.Order
		distance float64
	}
	var nearby []scored

	for _, order := range candidates {
		merchant, ok := merchants[order.MerchantID]
		if !ok {
			merchant, err = s.merchantRepo.GetByID(ctx, order.MerchantID)
			if err != nil {
				return nil, fmt.Errorf("failed to load merchant: %w", err)
			}
			merchants[order.MerchantID] = merchant
		}
		if merchant == nil || !merchant.HasLocation() {
			continue
		}
		distance := geo.DistanceKm(lat, lon, *merchant.Latitude, *merchant.Longitude)
		if distance <= radiusKm {
			nearby = append(nearby, scored{order: order, distance: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })

	orders := make([]model.Order, len(nearby))
	for i, n := range nearby {
		orders[i] = n.order
	}
	return orders, nil
}

// UpdateEstimatedDeliveryTime sets the order's delivery estimate.
func (s *orderService) UpdateEstimatedDeliveryTime(ctx context.Context, orderID uuid.UUID, estimate time.Time) error {
	return s.orderRepo.UpdateEstimatedDeliveryTime(ctx, orderID, estimate, s.now())
}

// validateCreateRequest rejects malformed input before any lookups.
func (s *orderService) validateCreateRequest(req *model.CreateOrderRequest) error {
	if req == nil {
		return model.NewValidationError("order request is required")
	}
	if req.CustomerID == uuid.Nil {
		return model.NewValidationError("customer is required")
	}
	if req.MerchantID == uuid.Nil {
		return model.NewValidationError("merchant is required")
	}
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		return model.NewValidationError("delivery address is required")
	}
	if (req.DeliveryLatitude == nil) != (req.DeliveryLongitude == nil) {
		return model.NewValidationError("delivery coordinates must be given together")
	}
	if req.DeliveryLatitude != nil && !geo.ValidCoordinates(*req.DeliveryLatitude, *req.DeliveryLongitude) {
		return model.NewValidationError("delivery coordinates out of range: %f, %f",
			*req.DeliveryLatitude, *req.DeliveryLongitude)
	}
	if len(req.Items) == 0 {
		return model.NewValidationError("order must contain at least one item")
	}
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.NewValidationError("item %d: product is required", i+1)
		}
		if item.Quantity <= 0 {
			return model.NewValidationError("item %d: quantity must be greater than zero", i+1)
		}
	}
	return nil
}

// buildItems resolves each requested product and snapshots its name and
// price into an immutable line item with a sequential line number.
func (s *orderService) buildItems(ctx context.Context, orderID uuid.UUID, reqs []model.OrderItemRequest) ([]model.OrderItem, bool, error) {
	items := make([]model.OrderItem, len(reqs))
	hasAlcohol := false

	for i, req := range reqs {
		product, err := s.productRepo.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return nil, false, model.NewNotFoundError("product not found: %s", req.ProductID)
		}
		if !product.Available {
			return nil, false, model.NewValidationError("product %s is not available", product.Name)
		}

		name := req.Name
		if name == "" {
			name = product.Name
		}
		unitPrice := product.Price
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}

		productID := product.ID
		items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: &productID,
			LineNo:    i + 1,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  req.Quantity,
			Subtotal:  unitPrice * float64(req.Quantity),
			Alcohol:   product.Alcohol,
		}
		if product.Alcohol {
			hasAlcohol = true
		}
	}

	return items, hasAlcohol, nil
}

// handleStatusChange runs per-transition side effects. Most transitions are
// hooks with no effect yet.
func (s *orderService) handleStatusChange(ctx context.Context, order *model.Order, status model.OrderStatus) {
	switch status {
	case model.OrderStatusConfirmed:
		if customer, err := s.userRepo.GetByID(ctx, order.CustomerID); err == nil && customer != nil {
			s.notifier.NotifyUser(ctx, customer, fmt.Sprintf("Your order is now %s.", status))
		}
	default:
	}
}
