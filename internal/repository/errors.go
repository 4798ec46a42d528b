package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikolayk812/storefront/internal/domain"
)

const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgNumericOutOfRange    = "22003"

	productsQuantityCheck = "products_quantity_check"
)

// mapDBError translates storage failures that carry domain meaning into domain errors.
// The original error stays in the chain for logging.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	case pgCheckViolation:
		if pgErr.ConstraintName == productsQuantityCheck {
			return fmt.Errorf("%w: %w", domain.ErrInsufficientStock, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case pgNumericOutOfRange:
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	return err
}

// toDBQuantity narrows a quantity to the int4 column type.
func toDBQuantity(quantity int) (int32, error) {
	if quantity < 0 || quantity > domain.MaxQuantity {
		return 0, fmt.Errorf("quantity[%d] is out of range [0, %d]: %w", quantity, domain.MaxQuantity, domain.ErrInvalidRequest)
	}
	return int32(quantity), nil
}
