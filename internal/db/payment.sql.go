package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, order_id, amount, currency, method, status, transaction_id, paid_at, created_at, updated_at`

func scanPayment(row rowScanner) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Amount,
		&i.Currency,
		&i.Method,
		&i.Status,
		&i.TransactionID,
		&i.PaidAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertPayment = `-- name: InsertPayment :one
INSERT INTO payments (order_id, amount, currency, method, status, transaction_id, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + paymentColumns + `
`

type InsertPaymentParams struct {
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Method        string
	Status        string
	TransactionID string
	PaidAt        *time.Time
}

func (q *Queries) InsertPayment(ctx context.Context, arg InsertPaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, insertPayment,
		arg.OrderID,
		arg.Amount,
		arg.Currency,
		arg.Method,
		arg.Status,
		arg.TransactionID,
		arg.PaidAt,
	)
	return scanPayment(row)
}

const getPayment = `-- name: GetPayment :one
SELECT ` + paymentColumns + `
FROM payments
WHERE id = $1
`

func (q *Queries) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, getPayment, id)
	return scanPayment(row)
}

const getPaymentForUpdate = `-- name: GetPaymentForUpdate :one
SELECT ` + paymentColumns + `
FROM payments
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetPaymentForUpdate(ctx context.Context, id uuid.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentForUpdate, id)
	return scanPayment(row)
}

const getPaymentByOrderID = `-- name: GetPaymentByOrderID :one
SELECT ` + paymentColumns + `
FROM payments
WHERE order_id = $1
`

func (q *Queries) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByOrderID, orderID)
	return scanPayment(row)
}

const updatePaymentStatus = `-- name: UpdatePaymentStatus :execresult
UPDATE payments
SET status = $3, paid_at = COALESCE($4, paid_at), updated_at = now()
WHERE id = $1 AND status = $2
`

type UpdatePaymentStatusParams struct {
	ID         uuid.UUID
	FromStatus string
	ToStatus   string
	PaidAt     *time.Time
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updatePaymentStatus, arg.ID, arg.FromStatus, arg.ToStatus, arg.PaidAt)
}
