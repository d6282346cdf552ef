package repository

import (
	"context"
	"errors"
	"fmt"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const deliveryColumns = `id, order_id, driver_id, status, delivery_address,
		delivery_latitude, delivery_longitude, pickup_time, delivered_time,
		estimated_delivery_time, age_verified, id_type, id_number, age_verified_at,
		current_latitude, current_longitude, last_location_update,
		cancellation_reason, created_at, updated_at`

// deliveryRepository implements the DeliveryRepository interface using PostgreSQL.
type deliveryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDeliveryRepository creates a new PostgreSQL-backed delivery repository.
func NewDeliveryRepository(pool *pgxpool.Pool, logger zerolog.Logger) DeliveryRepository {
	return &deliveryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "delivery").Logger(),
	}
}

// Create inserts a new delivery within the provided transaction. The unique
// constraint on order_id enforces one delivery per order at the storage level.
func (r *deliveryRepository) Create(ctx context.Context, tx pgx.Tx, delivery *model.Delivery) error {
	query := `
		INSERT INTO deliveries (id, order_id, driver_id, status, delivery_address,
			delivery_latitude, delivery_longitude, pickup_time, delivered_time,
			estimated_delivery_time, age_verified, id_type, id_number, age_verified_at,
			current_latitude, current_longitude, last_location_update,
			cancellation_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := tx.Exec(ctx, query,
		delivery.ID, delivery.OrderID, delivery.DriverID, delivery.Status,
		delivery.DeliveryAddress, delivery.DeliveryLatitude, delivery.DeliveryLongitude,
		delivery.PickupTime, delivery.DeliveredTime, delivery.EstimatedDeliveryTime,
		delivery.AgeVerified, delivery.IDType, delivery.IDNumber, delivery.AgeVerifiedAt,
		delivery.CurrentLatitude, delivery.CurrentLongitude, delivery.LastLocationUpdate,
		delivery.CancellationReason, delivery.CreatedAt, delivery.UpdatedAt,
	)
	if err != nil {
		err = mapConflict(err, fmt.Sprintf("delivery already exists for order %s", delivery.OrderID))
		if !model.IsConflict(err) {
			r.logger.Error().
				Err(err).
				Str("delivery_id", delivery.ID.String()).
				Msg("failed to create delivery")
			return fmt.Errorf("failed to create delivery: %w", err)
		}
		return err
	}

	return nil
}

// GetByID retrieves a delivery. Returns nil if not found.
func (r *deliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// GetByOrderID retrieves the delivery of an order. Returns nil if not found.
func (r *deliveryRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE order_id = $1`
	return r.queryOne(ctx, query, orderID)
}

// GetByDriver retrieves all deliveries assigned to a driver.
func (r *deliveryRepository) GetByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE driver_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, driverID)
	if err != nil {
		r.logger.Error().Err(err).Str("driver_id", driverID.String()).Msg("failed to query deliveries")
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err := scanDelivery(rows, &d); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan delivery row")
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating delivery rows")
		return nil, fmt.Errorf("error iterating deliveries: %w", err)
	}

	return deliveries, nil
}

// Update saves the full delivery row.
func (r *deliveryRepository) Update(ctx context.Context, delivery *model.Delivery) error {
	return r.update(ctx, r.pool, delivery)
}

// UpdateTx saves the full delivery row within the provided transaction.
func (r *deliveryRepository) UpdateTx(ctx context.Context, tx pgx.Tx, delivery *model.Delivery) error {
	return r.update(ctx, tx, delivery)
}

// execer is the subset of pgxpool.Pool and pgx.Tx used by update.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *deliveryRepository) update(ctx context.Context, db execer, delivery *model.Delivery) error {
	query := `
		UPDATE deliveries SET driver_id = $2, status = $3, delivery_address = $4,
			delivery_latitude = $5, delivery_longitude = $6, pickup_time = $7,
			delivered_time = $8, estimated_delivery_time = $9, age_verified = $10,
			id_type = $11, id_number = $12, age_verified_at = $13,
			current_latitude = $14, current_longitude = $15, last_location_update = $16,
			cancellation_reason = $17, updated_at = $18
		WHERE id = $1
	`

	tag, err := db.Exec(ctx, query,
		delivery.ID, delivery.DriverID, delivery.Status, delivery.DeliveryAddress,
		delivery.DeliveryLatitude, delivery.DeliveryLongitude, delivery.PickupTime,
		delivery.DeliveredTime, delivery.EstimatedDeliveryTime, delivery.AgeVerified,
		delivery.IDType, delivery.IDNumber, delivery.AgeVerifiedAt,
		delivery.CurrentLatitude, delivery.CurrentLongitude, delivery.LastLocationUpdate,
		delivery.CancellationReason, delivery.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("delivery_id", delivery.ID.String()).Msg("failed to update delivery")
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("delivery not found: %s", delivery.ID)
	}
	return nil
}

func (r *deliveryRepository) queryOne(ctx context.Context, query string, arg any) (*model.Delivery, error) {
	var d model.Delivery
	err := scanDelivery(r.pool.QueryRow(ctx, query, arg), &d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query delivery")
		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}
	return &d, nil
}

func scanDelivery(row pgx.Row, d *model.Delivery) error {
	return row.Scan(
		&d.ID, &d.OrderID, &d.DriverID, &d.Status, &d.DeliveryAddress,
		&d.DeliveryLatitude, &d.DeliveryLongitude, &d.PickupTime, &d.DeliveredTime,
		&d.EstimatedDeliveryTime, &d.AgeVerified, &d.IDType, &d.IDNumber, &d.AgeVerifiedAt,
		&d.CurrentLatitude, &d.CurrentLongitude, &d.LastLocationUpdate,
		&d.CancellationReason, &d.CreatedAt, &d.UpdatedAt,
	)
}
