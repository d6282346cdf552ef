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

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetByID retrieves a product. Returns nil if not found.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `
		SELECT id, merchant_id, name, description, price, alcohol, available, created_at
		FROM products
		WHERE id = $1
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.MerchantID, &p.Name, &p.Description, &p.Price,
		&p.Alcohol, &p.Available, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// merchantRepository implements the MerchantRepository interface using PostgreSQL.
type merchantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMerchantRepository creates a new PostgreSQL-backed merchant repository.
func NewMerchantRepository(pool *pgxpool.Pool, logger zerolog.Logger) MerchantRepository {
	return &merchantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "merchant").Logger(),
	}
}

// GetByID retrieves a merchant. Returns nil if not found.
func (r *merchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	query := `
		SELECT id, name, description, address, phone, email, opening_time, closing_time,
			active, latitude, longitude, rating, created_at, updated_at
		FROM merchants
		WHERE id = $1
	`

	var m model.Merchant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Description, &m.Address, &m.Phone, &m.Email,
		&m.OpeningTime, &m.ClosingTime, &m.Active, &m.Latitude, &m.Longitude,
		&m.Rating, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("merchant_id", id.String()).Msg("failed to query merchant")
		return nil, fmt.Errorf("failed to query merchant: %w", err)
	}

	return &m, nil
}

// UpdateRating sets the merchant's aggregate rating.
func (r *merchantRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, updatedAt time.Time) error {
	query := `UPDATE merchants SET rating = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, rating, updatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("merchant_id", id.String()).Msg("failed to update merchant rating")
		return fmt.Errorf("failed to update merchant rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("merchant not found: %s", id)
	}
	return nil
}
