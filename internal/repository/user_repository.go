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

const userColumns = `id, name, email, phone, age_verified, active, merchant_id,
		driver_id, created_at, updated_at`

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// GetByID retrieves a user with their role set. Returns nil if not found.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// GetByEmail retrieves a user by unique email with their role set. Returns
// nil if not found.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

// LinkDriverProfile points the user account at its driver profile within the
// provided transaction, so ownership checks can resolve the link without a
// join and the link commits or rolls back with the profile itself.
func (r *userRepository) LinkDriverProfile(ctx context.Context, tx pgx.Tx, userID, driverID uuid.UUID, updatedAt time.Time) error {
	query := `UPDATE users SET driver_id = $2, updated_at = $3 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, userID, driverID, updatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to link driver profile")
		return fmt.Errorf("failed to link driver profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("user not found: %s", userID)
	}
	return nil
}

func (r *userRepository) queryOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.AgeVerified, &u.Active,
		&u.MerchantID, &u.DriverID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	roles, err := r.rolesByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles

	return &u, nil
}

func (r *userRepository) rolesByUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query user roles")
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan role row")
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating role rows")
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}
