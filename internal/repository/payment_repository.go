package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/text/currency"
)

type paymentRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewPayment(pool *pgxpool.Pool) port.PaymentRepository {
	return newPaymentRepository(pool)
}

func NewPaymentWithTx(tx pgx.Tx) port.PaymentRepository {
	return newPaymentRepository(tx)
}

func newPaymentRepository(dbtx db.DBTX) *paymentRepository {
	return &paymentRepository{
		q:    db.New(dbtx),
		dbtx: dbtx,
	}
}

func (r *paymentRepository) GetPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error) {
	dbPayment, err := r.q.GetPayment(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("q.GetPayment: %w", mapDBError(err))
	}

	return mapDBPaymentToDomain(dbPayment)
}

func (r *paymentRepository) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (domain.Payment, error) {
	dbPayment, err := r.q.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("q.GetPaymentByOrderID: %w", mapDBError(err))
	}

	return mapDBPaymentToDomain(dbPayment)
}

func (r *paymentRepository) LockPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error) {
	if _, ok := r.dbtx.(pgx.Tx); !ok {
		return domain.Payment{}, errors.New("LockPayment requires a transaction")
	}

	dbPayment, err := r.q.GetPaymentForUpdate(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("q.GetPaymentForUpdate: %w", mapDBError(err))
	}

	return mapDBPaymentToDomain(dbPayment)
}

func (r *paymentRepository) InsertPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	if payment.OrderID == uuid.Nil {
		return domain.Payment{}, fmt.Errorf("orderID is empty: %w", domain.ErrInvalidRequest)
	}

	dbPayment, err := r.q.InsertPayment(ctx, db.InsertPaymentParams{
		OrderID:       payment.OrderID,
		Amount:        payment.Amount.Amount,
		Currency:      payment.Amount.Currency.String(),
		Method:        string(payment.Method),
		Status:        string(payment.Status),
		TransactionID: payment.TransactionID,
		PaidAt:        payment.PaidAt,
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("q.InsertPayment: %w", mapDBError(err))
	}

	return mapDBPaymentToDomain(dbPayment)
}

func (r *paymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, from, to domain.PaymentStatus, paidAt *time.Time) error {
	if paymentID == uuid.Nil {
		return fmt.Errorf("paymentID is empty: %w", domain.ErrInvalidRequest)
	}

	cmdTag, err := r.q.UpdatePaymentStatus(ctx, db.UpdatePaymentStatusParams{
		ID:         paymentID,
		FromStatus: string(from),
		ToStatus:   string(to),
		PaidAt:     paidAt,
	})
	if err != nil {
		return fmt.Errorf("q.UpdatePaymentStatus: %w", mapDBError(err))
	}

	if cmdTag.RowsAffected() == 0 {
		if _, err := r.q.GetPayment(ctx, paymentID); err != nil {
			return fmt.Errorf("q.GetPayment: %w", mapDBError(err))
		}
		return fmt.Errorf("q.UpdatePaymentStatus: status is no longer %s: %w", from, domain.ErrConflict)
	}

	return nil
}

func mapDBPaymentToDomain(row db.Payment) (domain.Payment, error) {
	parsedCurrency, err := currency.ParseISO(row.Currency)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("currency[%s] is not valid: %w", row.Currency, err)
	}

	method, err := domain.ToPaymentMethod(row.Method)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("domain.ToPaymentMethod[%s]: %w", row.Method, err)
	}

	status, err := domain.ToPaymentStatus(row.Status)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", row.Status, err)
	}

	return domain.Payment{
		ID:            row.ID,
		OrderID:       row.OrderID,
		Amount:        domain.Money{Amount: row.Amount, Currency: parsedCurrency},
		Method:        method,
		Status:        status,
		TransactionID: row.TransactionID,
		PaidAt:        row.PaidAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
