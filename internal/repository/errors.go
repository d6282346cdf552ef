package repository

import (
	"errors"

	"booze-courier/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapConflict converts a Postgres unique-violation into a typed conflict
// error so storage-enforced invariants (one delivery per order, one active
// payment per order) surface the same way as in-code checks.
func mapConflict(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return model.NewConflictError("%s", message)
	}
	return err
}
