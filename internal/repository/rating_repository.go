package repository

import (
	"context"
	"fmt"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const ratingColumns = `id, order_id, rater_id, target_type, target_id, score, comment, created_at`

// ratingRepository implements the RatingRepository interface using PostgreSQL.
type ratingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(pool *pgxpool.Pool, logger zerolog.Logger) RatingRepository {
	return &ratingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "rating").Logger(),
	}
}

// Create inserts a new rating. The unique constraint on (order_id,
// target_type) keeps ratings one-per-order-per-target.
func (r *ratingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO ratings (id, order_id, rater_id, target_type, target_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		rating.ID, rating.OrderID, rating.RaterID, rating.TargetType,
		rating.TargetID, rating.Score, rating.Comment, rating.CreatedAt,
	)
	if err != nil {
		err = mapConflict(err, fmt.Sprintf("order %s already rated its %s",
			rating.OrderID, rating.TargetType))
		if !model.IsConflict(err) {
			r.logger.Error().Err(err).Str("rating_id", rating.ID.String()).Msg("failed to create rating")
			return fmt.Errorf("failed to create rating: %w", err)
		}
		return err
	}

	return nil
}

// AverageForTarget computes the average score and rating count for a target.
// Returns 0, 0 when the target has no ratings.
func (r *ratingRepository) AverageForTarget(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID) (float64, int, error) {
	query := `SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings
		WHERE target_type = $1 AND target_id = $2`

	var average float64
	var count int
	err := r.pool.QueryRow(ctx, query, targetType, targetID).Scan(&average, &count)
	if err != nil {
		r.logger.Error().Err(err).Str("target_id", targetID.String()).Msg("failed to average ratings")
		return 0, 0, fmt.Errorf("failed to average ratings: %w", err)
	}

	return average, count, nil
}

// ListByTarget retrieves all ratings for a target, newest first.
func (r *ratingRepository) ListByTarget(ctx context.Context, targetType model.RatingTargetType, targetID uuid.UUID) ([]model.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings
		WHERE target_type = $1 AND target_id = $2 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, targetType, targetID)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query ratings")
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []model.Rating
	for rows.Next() {
		var rating model.Rating
		err := rows.Scan(
			&rating.ID, &rating.OrderID, &rating.RaterID, &rating.TargetType,
			&rating.TargetID, &rating.Score, &rating.Comment, &rating.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan rating row")
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating rating rows")
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}
