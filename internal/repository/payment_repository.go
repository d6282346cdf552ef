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

const paymentColumns = `id, order_id, user_id, amount, status, payment_method,
		transaction_id, failure_reason, refund_reason, created_at`

// paymentRepository implements the PaymentRepository interface using
// PostgreSQL. Entries are append-only; rows are never updated or deleted.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// Append inserts a new ledger entry within the provided transaction. A
// partial unique index on (order_id) WHERE status = 'AUTHORIZED' serializes
// authorization per order at the storage level.
func (r *paymentRepository) Append(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, user_id, amount, status, payment_method,
			transaction_id, failure_reason, refund_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Status,
		payment.PaymentMethod, payment.TransactionID, payment.FailureReason,
		payment.RefundReason, payment.CreatedAt,
	)
	if err != nil {
		err = mapConflict(err, fmt.Sprintf("active payment already exists for order %s", payment.OrderID))
		if !model.IsConflict(err) {
			r.logger.Error().
				Err(err).
				Str("payment_id", payment.ID.String()).
				Msg("failed to append payment")
			return fmt.Errorf("failed to append payment: %w", err)
		}
		return err
	}

	return nil
}

// LatestByOrder retrieves the most recent ledger entry for an order. Returns
// nil if the order has no payment history.
func (r *paymentRepository) LatestByOrder(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE order_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	var p model.Payment
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Status, &p.PaymentMethod,
		&p.TransactionID, &p.FailureReason, &p.RefundReason, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &p, nil
}

// ListByOrder retrieves the full ledger for an order, oldest first.
func (r *paymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at`
	return r.queryPayments(ctx, query, orderID)
}

// ListByUser retrieves all ledger entries for a user, newest first.
func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryPayments(ctx, query, userID)
}

// RevenueBetween sums AUTHORIZED entry amounts created in [start, end).
func (r *paymentRepository) RevenueBetween(ctx context.Context, start, end time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE status = $1 AND created_at >= $2 AND created_at < $3`

	var total float64
	err := r.pool.QueryRow(ctx, query, model.PaymentStatusAuthorized, start, end).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to compute revenue")
		return 0, fmt.Errorf("failed to compute revenue: %w", err)
	}

	return total, nil
}

func (r *paymentRepository) queryPayments(ctx context.Context, query string, arg any) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query payments")
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		err := rows.Scan(
			&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Status, &p.PaymentMethod,
			&p.TransactionID, &p.FailureReason, &p.RefundReason, &p.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan payment row")
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating payment rows")
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}
