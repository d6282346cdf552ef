package service

import (
	"context"
	"time"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderService defines operations for the order lifecycle: creation,
// status transitions, cancellation and proximity-based discovery.
type OrderService interface {
	// Create validates the request, authorizes payment, creates a pending
	// delivery and persists everything atomically.
	Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByCustomer retrieves all orders placed by a customer.
	GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error)

	// GetByMerchant retrieves all orders belonging to a merchant.
	GetByMerchant(ctx context.Context, merchantID uuid.UUID) ([]model.Order, error)

	// GetByDriver retrieves all orders assigned to a driver.
	GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Order, error)

	// Cancel cancels a PENDING or CONFIRMED order and refunds its payment.
	Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// UpdateStatus advances the order through its state machine.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// FindAssignableNear returns unassigned, assignable orders whose merchant
	// is within radiusKm of the given point, closest first.
	FindAssignableNear(ctx context.Context, lat, lon, radiusKm float64) ([]model.Order, error)

	// UpdateEstimatedDeliveryTime sets the order's delivery estimate.
	UpdateEstimatedDeliveryTime(ctx context.Context, orderID uuid.UUID, estimate time.Time) error
}

// DeliveryService defines operations for the delivery lifecycle: driver
// assignment, status progression, compliance capture and live tracking.
type DeliveryService interface {
	// AssignDriverToOrder claims the order for the driver and moves its
	// delivery to ASSIGNED. Contended or repeated claims fail with a
	// conflict error.
	AssignDriverToOrder(ctx context.Context, orderID, driverID uuid.UUID) (*model.Delivery, error)

	// UpdateStatus advances the delivery through its state machine, stamping
	// pickup and delivered times.
	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status model.DeliveryStatus) (*model.Delivery, error)

	// VerifyAge records the recipient age check. Only the last 4 characters
	// of the ID number are retained.
	VerifyAge(ctx context.Context, deliveryID uuid.UUID, verified bool, idType, idNumber string) (*model.Delivery, error)

	// UpdateLocation overwrites the live tracking coordinates.
	UpdateLocation(ctx context.Context, deliveryID uuid.UUID, lat, lon float64) error

	// Cancel terminates the delivery, recording the reason verbatim.
	Cancel(ctx context.Context, deliveryID uuid.UUID, reason string) (*model.Delivery, error)

	// GetByID retrieves a delivery.
	GetByID(ctx context.Context, deliveryID uuid.UUID) (*model.Delivery, error)

	// GetByOrderID retrieves the delivery of an order.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error)

	// GetByDriver retrieves all deliveries assigned to a driver.
	GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Delivery, error)
}

// PaymentService defines operations on the append-only payment ledger. The
// write operations participate in the caller's transaction so order
// orchestration stays all-or-nothing.
type PaymentService interface {
	// Authorize appends an AUTHORIZED entry for the order's total. Fails
	// with a conflict error when an active payment already exists.
	Authorize(ctx context.Context, tx pgx.Tx, order *model.Order, method string) (*model.Payment, error)

	// Refund appends a REFUNDED entry with the authorized amount and the
	// given reason. The original entry is retained for audit.
	Refund(ctx context.Context, tx pgx.Tx, order *model.Order, reason string) (*model.Payment, error)

	// GetByOrderID retrieves the order's current payment state (the most
	// recent ledger entry).
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)

	// LedgerByOrder retrieves the order's full payment history, oldest first.
	LedgerByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error)

	// HistoryByUser retrieves all ledger entries across a user's orders,
	// newest first.
	HistoryByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)

	// RevenueBetween sums AUTHORIZED amounts created in [start, end).
	RevenueBetween(ctx context.Context, start, end time.Time) (float64, error)

	// ValidateMethod is the seam for a real payment gateway; minimally it
	// requires a non-nil user and a non-blank method.
	ValidateMethod(user *model.User, method string) error
}

// DriverService defines driver registration, compliance review, availability
// and proximity matching.
type DriverService interface {
	// Register creates a driver profile with PENDING certification,
	// unavailable until approved.
	Register(ctx context.Context, userID uuid.UUID, vehicleType, licensePlate string) (*model.Driver, error)

	// UpdateCertification records the admin compliance review outcome.
	UpdateCertification(ctx context.Context, driverID uuid.UUID, status model.CertificationStatus) (*model.Driver, error)

	// UpdateAvailability toggles the driver's willingness to take work.
	UpdateAvailability(ctx context.Context, driverID uuid.UUID, available bool) (*model.Driver, error)

	// UpdateLocation records the driver's current coordinates.
	UpdateLocation(ctx context.Context, driverID uuid.UUID, lat, lon float64) (*model.Driver, error)

	// GetByID retrieves a driver profile.
	GetByID(ctx context.Context, driverID uuid.UUID) (*model.Driver, error)

	// GetByUserID retrieves the driver profile linked to a user account.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Driver, error)

	// FindNearbyAvailable returns available, certified drivers within
	// radiusMeters of the given point, closest first.
	FindNearbyAvailable(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Driver, error)
}

// RatingService defines post-completion scoring of an order's driver and
// merchant, feeding the aggregate rating on each profile.
type RatingService interface {
	// RateOrder records the customer's score for the order's driver or
	// merchant and recomputes the target's aggregate rating. Only the
	// order's customer can rate, only COMPLETED orders are ratable, and
	// each target can be rated once per order.
	RateOrder(ctx context.Context, orderID, raterID uuid.UUID, req *model.RateOrderRequest) (*model.Rating, error)

	// ListByTarget retrieves all ratings for a driver or merchant, newest
	// first.
	ListByTarget(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID) ([]model.Rating, error)
}

// Notifier dispatches best-effort messages to marketplace participants.
// Failures are logged by implementations and never propagate into the
// orchestration flow.
type Notifier interface {
	NotifyUser(ctx context.Context, user *model.User, message string)
	NotifyDriver(ctx context.Context, driver *model.Driver, delivery *model.Delivery, message string)
	NotifyMerchant(ctx context.Context, merchant *model.Merchant, message string)
	BroadcastSystemMessage(ctx context.Context, message string)
}
