package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, customer_id, merchant_id, driver_id, status, total_amount,
		delivery_address, special_instructions, age_verified, estimated_delivery_time,
		created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, merchant_id, driver_id, status, total_amount,
			delivery_address, special_instructions, age_verified, estimated_delivery_time,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.CustomerID, order.MerchantID, order.DriverID, order.Status,
		order.TotalAmount, order.DeliveryAddress, order.SpecialInstructions,
		order.AgeVerified, order.EstimatedDeliveryTime, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// CreateOrderItems inserts the order's line items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, line_no, name, unit_price, quantity, subtotal, alcohol)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.LineNo,
			item.Name, item.UnitPrice, item.Quantity, item.Subtotal, item.Alcohol)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int("line_no", items[i].LineNo).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order with its items. Returns nil if not found.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.CustomerID, &order.MerchantID, &order.DriverID,
		&order.Status, &order.TotalAmount, &order.DeliveryAddress,
		&order.SpecialInstructions, &order.AgeVerified, &order.EstimatedDeliveryTime,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.itemsByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

// GetByCustomer retrieves all orders placed by a customer.
func (r *orderRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, customerID)
}

// GetByMerchant retrieves all orders belonging to a merchant.
func (r *orderRepository) GetByMerchant(ctx context.Context, merchantID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE merchant_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, merchantID)
}

// GetByDriver retrieves all orders assigned to a driver.
func (r *orderRepository) GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, driverID)
}

// FindAssignable retrieves orders in an assignable status with no driver.
func (r *orderRepository) FindAssignable(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE driver_id IS NULL AND status = ANY($1)
		ORDER BY created_at`
	statuses := make([]string, len(model.AssignableOrderStatuses))
	for i, s := range model.AssignableOrderStatuses {
		statuses[i] = string(s)
	}
	return r.queryOrders(ctx, query, statuses)
}

// UpdateStatus moves the order from the expected status to the new one
// within the provided transaction. The status guard serializes concurrent
// transitions the same way ClaimDriver serializes claims: a writer that
// validated against a stale read updates zero rows and gets a state
// transition error instead of overwriting the committed status.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, updatedAt time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, updatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewStateTransitionError("order %s is no longer in status %s", id, from)
	}
	return nil
}

// ClaimDriver sets the order's driver reference if and only if no driver is
// set yet. The driver_id IS NULL guard serializes concurrent claims: the
// loser updates zero rows and gets a conflict error.
func (r *orderRepository) ClaimDriver(ctx context.Context, tx pgx.Tx, orderID, driverID uuid.UUID, updatedAt time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET driver_id = $2, updated_at = $3 WHERE id = $1 AND driver_id IS NULL`,
		orderID, driverID, updatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to claim driver")
		return fmt.Errorf("failed to claim driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError("order %s already has a driver assigned", orderID)
	}
	return nil
}

// ReleaseDriver clears the order's driver reference within the provided transaction.
func (r *orderRepository) ReleaseDriver(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, updatedAt time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET driver_id = NULL, updated_at = $2 WHERE id = $1`,
		orderID, updatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to release driver")
		return fmt.Errorf("failed to release driver: %w", err)
	}
	return nil
}

// UpdateEstimatedDeliveryTime sets the order's delivery estimate.
func (r *orderRepository) UpdateEstimatedDeliveryTime(ctx context.Context, id uuid.UUID, estimate time.Time, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET estimated_delivery_time = $2, updated_at = $3 WHERE id = $1`,
		id, estimate, updatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update delivery estimate")
		return fmt.Errorf("failed to update delivery estimate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("order not found: %s", id)
	}
	return nil
}

// queryOrders runs a multi-row order query. Items are not loaded for lists.
func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.ID, &order.CustomerID, &order.MerchantID, &order.DriverID,
			&order.Status, &order.TotalAmount, &order.DeliveryAddress,
			&order.SpecialInstructions, &order.AgeVerified, &order.EstimatedDeliveryTime,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) itemsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, line_no, name, unit_price, quantity, subtotal, alcohol
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.LineNo,
			&item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal, &item.Alcohol)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
