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

const driverColumns = `id, user_id, vehicle_type, license_plate, available,
		certification_status, current_latitude, current_longitude, rating,
		total_deliveries, created_at, updated_at`

// driverRepository implements the DriverRepository interface using PostgreSQL.
type driverRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDriverRepository creates a new PostgreSQL-backed driver repository.
func NewDriverRepository(pool *pgxpool.Pool, logger zerolog.Logger) DriverRepository {
	return &driverRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "driver").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *driverRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new driver profile within the provided transaction. The
// unique constraint on user_id keeps driver profiles 1:1 with user accounts.
func (r *driverRepository) Create(ctx context.Context, tx pgx.Tx, driver *model.Driver) error {
	query := `
		INSERT INTO drivers (id, user_id, vehicle_type, license_plate, available,
			certification_status, current_latitude, current_longitude, rating,
			total_deliveries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(ctx, query,
		driver.ID, driver.UserID, driver.VehicleType, driver.LicensePlate,
		driver.Available, driver.CertificationStatus, driver.CurrentLatitude,
		driver.CurrentLongitude, driver.Rating, driver.TotalDeliveries,
		driver.CreatedAt, driver.UpdatedAt,
	)
	if err != nil {
		err = mapConflict(err, fmt.Sprintf("driver profile already exists for user %s", driver.UserID))
		if !model.IsConflict(err) {
			r.logger.Error().Err(err).Str("driver_id", driver.ID.String()).Msg("failed to create driver")
			return fmt.Errorf("failed to create driver: %w", err)
		}
		return err
	}

	return nil
}

// GetByID retrieves a driver. Returns nil if not found.
func (r *driverRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// GetByUserID retrieves the driver profile linked to a user account. Returns
// nil if not found.
func (r *driverRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	return r.queryOne(ctx, query, userID)
}

// ListAvailableCertified retrieves drivers that are available and approved.
func (r *driverRepository) ListAvailableCertified(ctx context.Context) ([]model.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers
		WHERE available = TRUE AND certification_status = $1`

	rows, err := r.pool.Query(ctx, query, model.CertificationApproved)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query drivers")
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []model.Driver
	for rows.Next() {
		var d model.Driver
		if err := scanDriver(rows, &d); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan driver row")
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating driver rows")
		return nil, fmt.Errorf("error iterating drivers: %w", err)
	}

	return drivers, nil
}

// Update saves the full driver row.
func (r *driverRepository) Update(ctx context.Context, driver *model.Driver) error {
	query := `
		UPDATE drivers SET vehicle_type = $2, license_plate = $3, available = $4,
			certification_status = $5, current_latitude = $6, current_longitude = $7,
			rating = $8, total_deliveries = $9, updated_at = $10
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		driver.ID, driver.VehicleType, driver.LicensePlate, driver.Available,
		driver.CertificationStatus, driver.CurrentLatitude, driver.CurrentLongitude,
		driver.Rating, driver.TotalDeliveries, driver.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("driver_id", driver.ID.String()).Msg("failed to update driver")
		return fmt.Errorf("failed to update driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("driver not found: %s", driver.ID)
	}
	return nil
}

// UpdateRating sets the driver's aggregate rating.
func (r *driverRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, updatedAt time.Time) error {
	query := `UPDATE drivers SET rating = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, rating, updatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("driver_id", id.String()).Msg("failed to update driver rating")
		return fmt.Errorf("failed to update driver rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("driver not found: %s", id)
	}
	return nil
}

func (r *driverRepository) queryOne(ctx context.Context, query string, arg any) (*model.Driver, error) {
	var d model.Driver
	err := scanDriver(r.pool.QueryRow(ctx, query, arg), &d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query driver")
		return nil, fmt.Errorf("failed to query driver: %w", err)
	}
	return &d, nil
}

func scanDriver(row pgx.Row, d *model.Driver) error {
	return row.Scan(
		&d.ID, &d.UserID, &d.VehicleType, &d.LicensePlate, &d.Available,
		&d.CertificationStatus, &d.CurrentLatitude, &d.CurrentLongitude,
		&d.Rating, &d.TotalDeliveries, &d.CreatedAt, &d.UpdatedAt,
	)
}
