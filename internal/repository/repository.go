package repository

import (
	"context"
	"time"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's line items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByCustomer retrieves all orders placed by a customer.
	GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error)

	// GetByMerchant retrieves all orders belonging to a merchant.
	GetByMerchant(ctx context.Context, merchantID uuid.UUID) ([]model.Order, error)

	// GetByDriver retrieves all orders assigned to a driver.
	GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Order, error)

	// FindAssignable retrieves orders in an assignable status with no driver.
	FindAssignable(ctx context.Context) ([]model.Order, error)

	// UpdateStatus moves the order from the expected status to the new one
	// within the provided transaction. The expected status guards against
	// concurrent writers: when the row no longer carries it, nothing is
	// updated and a state transition error is returned.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, updatedAt time.Time) error

	// ClaimDriver sets the order's driver reference if and only if no driver
	// is set yet. Returns a conflict error when the claim is contended.
	ClaimDriver(ctx context.Context, tx pgx.Tx, orderID, driverID uuid.UUID, updatedAt time.Time) error

	// ReleaseDriver clears the order's driver reference within the provided
	// transaction, used when re-dispatch is permitted.
	ReleaseDriver(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, updatedAt time.Time) error

	// UpdateEstimatedDeliveryTime sets the order's delivery estimate.
	UpdateEstimatedDeliveryTime(ctx context.Context, id uuid.UUID, estimate time.Time, updatedAt time.Time) error
}

// DeliveryRepository defines the interface for delivery data access operations.
type DeliveryRepository interface {
	// Create inserts a new delivery within the provided transaction. The
	// order reference is unique; inserting a second delivery for an order
	// returns a conflict error.
	Create(ctx context.Context, tx pgx.Tx, delivery *model.Delivery) error

	// GetByID retrieves a delivery. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error)

	// GetByOrderID retrieves the delivery of an order. Returns nil if not found.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error)

	// GetByDriver retrieves all deliveries assigned to a driver.
	GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Delivery, error)

	// Update saves the full delivery row.
	Update(ctx context.Context, delivery *model.Delivery) error

	// UpdateTx saves the full delivery row within the provided transaction.
	UpdateTx(ctx context.Context, tx pgx.Tx, delivery *model.Delivery) error
}

// PaymentRepository defines the interface for the append-only payment ledger.
type PaymentRepository interface {
	// Append inserts a new ledger entry within the provided transaction.
	// At most one AUTHORIZED entry may exist per order; a second returns a
	// conflict error.
	Append(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// LatestByOrder retrieves the most recent ledger entry for an order,
	// which carries the order's current payment status. Returns nil if the
	// order has no payment history.
	LatestByOrder(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)

	// ListByOrder retrieves the full ledger for an order, oldest first.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error)

	// ListByUser retrieves all ledger entries for a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)

	// RevenueBetween sums AUTHORIZED entry amounts created in [start, end).
	RevenueBetween(ctx context.Context, start, end time.Time) (float64, error)
}

// DriverRepository defines the interface for driver profile data access.
type DriverRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new driver profile within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, driver *model.Driver) error

	// GetByID retrieves a driver. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error)

	// GetByUserID retrieves the driver profile linked to a user account.
	// Returns nil if not found.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Driver, error)

	// ListAvailableCertified retrieves drivers that are available and have
	// an approved certification.
	ListAvailableCertified(ctx context.Context) ([]model.Driver, error)

	// Update saves the full driver row.
	Update(ctx context.Context, driver *model.Driver) error

	// UpdateRating sets the driver's aggregate rating.
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, updatedAt time.Time) error
}

// UserRepository defines the interface for actor lookups.
type UserRepository interface {
	// GetByID retrieves a user with their role set. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by unique email with their role set.
	// Returns nil if not found.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// LinkDriverProfile points the user account at its driver profile
	// within the provided transaction.
	LinkDriverProfile(ctx context.Context, tx pgx.Tx, userID, driverID uuid.UUID, updatedAt time.Time) error
}

// ProductRepository defines the interface for catalog lookups used during
// order-item initialization.
type ProductRepository interface {
	// GetByID retrieves a product. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// MerchantRepository defines the interface for merchant lookups.
type MerchantRepository interface {
	// GetByID retrieves a merchant. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error)

	// UpdateRating sets the merchant's aggregate rating.
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, updatedAt time.Time) error
}

// RatingRepository defines the interface for order rating data access. Each
// order can rate a given target type at most once; a second rating returns a
// conflict error.
type RatingRepository interface {
	// Create inserts a new rating.
	Create(ctx context.Context, rating *model.Rating) error

	// AverageForTarget computes the average score and rating count for a
	// rated driver or merchant. Returns 0, 0 when the target has no ratings.
	AverageForTarget(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID) (float64, int, error)

	// ListByTarget retrieves all ratings for a target, newest first.
	ListByTarget(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID) ([]model.Rating, error)
}
