package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/port"
)

// withTx executes fn within a new transaction if dbtx is a pool,
// or within the existing transaction if dbtx already is one
func withTx[T any](ctx context.Context, dbtx db.DBTX, fn func(tx db.DBTX) (T, error)) (_ T, txErr error) {
	var zero T

	// Already in a transaction, just use it
	if tx, ok := dbtx.(pgx.Tx); ok {
		return fn(tx)
	}

	// Must be a pool, create a new transaction
	pool, ok := dbtx.(*pgxpool.Pool)
	if !ok {
		return zero, fmt.Errorf("dbtx is neither pgx.Tx nor *pgxpool.Pool: %T", dbtx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("pool.Begin: %w", err)
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, mapDBError(fmt.Errorf("tx.Commit: %w", err))
	}

	return result, nil
}

type transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) port.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) InTx(ctx context.Context, fn func(repos port.Repositories) error) error {
	_, err := withTx(ctx, t.pool, func(tx db.DBTX) (struct{}, error) {
		return struct{}{}, fn(newRepositories(tx))
	})
	return err
}

func (t *transactor) Repositories() port.Repositories {
	return newRepositories(t.pool)
}

func newRepositories(dbtx db.DBTX) port.Repositories {
	return port.Repositories{
		Orders:    newOrderRepository(dbtx),
		Payments:  newPaymentRepository(dbtx),
		Catalog:   newCatalogRepository(dbtx),
		Inventory: newInventoryLedger(dbtx),
	}
}
