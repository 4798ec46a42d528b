package repository

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
)

type inventoryLedger struct {
	dbtx db.DBTX
}

// NewInventoryLedger returns a ledger that opens its own transaction per call.
// Use port.Transactor to combine a reservation with other writes.
func NewInventoryLedger(pool *pgxpool.Pool) port.InventoryLedger {
	return newInventoryLedger(pool)
}

func newInventoryLedger(dbtx db.DBTX) *inventoryLedger {
	return &inventoryLedger{dbtx: dbtx}
}

func (l *inventoryLedger) Reserve(ctx context.Context, reservations []domain.Reservation) ([]domain.Product, error) {
	merged, err := validReservations(reservations)
	if err != nil {
		return nil, err
	}

	products, err := withTx(ctx, l.dbtx, func(tx db.DBTX) ([]domain.Product, error) {
		q := db.New(tx)

		ids := lo.Map(merged, func(r domain.Reservation, _ int) uuid.UUID { return r.ProductID })
		slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

		locked, err := q.LockProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("q.LockProducts: %w", mapDBError(err))
		}

		byID := lo.KeyBy(locked, func(p db.Product) uuid.UUID { return p.ID })

		// every product must exist before any stock is checked
		for _, r := range merged {
			if _, ok := byID[r.ProductID]; !ok {
				return nil, fmt.Errorf("product[%s]: %w", r.ProductID, domain.ErrNotFound)
			}
		}

		for _, r := range merged {
			available := int(byID[r.ProductID].Quantity)
			if available < r.Quantity {
				return nil, &domain.InsufficientStockError{
					ProductID: r.ProductID,
					Requested: r.Quantity,
					Available: available,
				}
			}
		}

		snapshots := make([]domain.Product, 0, len(merged))
		for _, r := range merged {
			quantity, err := toDBQuantity(r.Quantity)
			if err != nil {
				return nil, err
			}

			cmdTag, err := q.DecrementProductQuantity(ctx, db.AdjustProductQuantityParams{
				ID:       r.ProductID,
				Quantity: quantity,
			})
			if err != nil {
				return nil, fmt.Errorf("q.DecrementProductQuantity: %w", mapDBError(err))
			}

			// unreachable while the row lock is held, kept as a guard for callers outside a transaction
			if cmdTag.RowsAffected() == 0 {
				return nil, &domain.InsufficientStockError{
					ProductID: r.ProductID,
					Requested: r.Quantity,
					Available: int(byID[r.ProductID].Quantity),
				}
			}

			snapshot, err := mapDBProductToDomain(byID[r.ProductID])
			if err != nil {
				return nil, fmt.Errorf("mapDBProductToDomain: %w", err)
			}
			snapshots = append(snapshots, snapshot)
		}

		return snapshots, nil
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return products, nil
}

func (l *inventoryLedger) Release(ctx context.Context, reservations []domain.Reservation) error {
	merged, err := validReservations(reservations)
	if err != nil {
		return err
	}

	_, err = withTx(ctx, l.dbtx, func(tx db.DBTX) (struct{}, error) {
		q := db.New(tx)

		for _, r := range merged {
			quantity, err := toDBQuantity(r.Quantity)
			if err != nil {
				return struct{}{}, err
			}

			cmdTag, err := q.IncrementProductQuantity(ctx, db.AdjustProductQuantityParams{
				ID:       r.ProductID,
				Quantity: quantity,
			})
			if err != nil {
				return struct{}{}, fmt.Errorf("q.IncrementProductQuantity: %w", mapDBError(err))
			}

			if cmdTag.RowsAffected() == 0 {
				return struct{}{}, fmt.Errorf("product[%s]: %w", r.ProductID, domain.ErrNotFound)
			}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func validReservations(reservations []domain.Reservation) ([]domain.Reservation, error) {
	if len(reservations) == 0 {
		return nil, fmt.Errorf("no reservations: %w", domain.ErrInvalidRequest)
	}

	for _, r := range reservations {
		if r.ProductID == uuid.Nil {
			return nil, fmt.Errorf("productID is empty: %w", domain.ErrInvalidRequest)
		}
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("quantity[%d] for product[%s] must be positive: %w", r.Quantity, r.ProductID, domain.ErrInvalidRequest)
		}
	}

	merged := domain.MergeReservations(reservations)
	for _, r := range merged {
		if r.Quantity > domain.MaxQuantity {
			return nil, fmt.Errorf("quantity[%d] for product[%s] exceeds %d: %w", r.Quantity, r.ProductID, domain.MaxQuantity, domain.ErrInvalidRequest)
		}
	}

	return merged, nil
}
