package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, number, owner_id, status, total_amount, total_currency, shipping_address, billing_address, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, price_amount, price_currency, quantity, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.OwnerID,
		&i.Status,
		&i.TotalAmount,
		&i.TotalCurrency,
		&i.ShippingAddress,
		&i.BillingAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanOrderItem(row rowScanner) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.ProductName,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Quantity,
		&i.CreatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	return scanOrder(row)
}

const getOrderByNumber = `-- name: GetOrderByNumber :one
SELECT ` + orderColumns + `
FROM orders
WHERE number = $1
`

func (q *Queries) GetOrderByNumber(ctx context.Context, number string) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByNumber, number)
	return scanOrder(row)
}

const getOrderItems = `-- name: GetOrderItems :many
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, created_at, id
`

func (q *Queries) GetOrderItems(ctx context.Context, orderIDs []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertOrder = `-- name: InsertOrder :one
INSERT INTO orders (number, owner_id, status, total_amount, total_currency, shipping_address, billing_address)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + orderColumns + `
`

type InsertOrderParams struct {
	Number          string
	OwnerID         string
	Status          string
	TotalAmount     decimal.Decimal
	TotalCurrency   string
	ShippingAddress string
	BillingAddress  string
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, insertOrder,
		arg.Number,
		arg.OwnerID,
		arg.Status,
		arg.TotalAmount,
		arg.TotalCurrency,
		arg.ShippingAddress,
		arg.BillingAddress,
	)
	return scanOrder(row)
}

const insertOrderItem = `-- name: InsertOrderItem :one
INSERT INTO order_items (order_id, product_id, product_name, price_amount, price_currency, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderItemColumns + `
`

type InsertOrderItemParams struct {
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	ProductName   string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Quantity      int32
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, insertOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.ProductName,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Quantity,
	)
	return scanOrderItem(row)
}

const searchOrders = `-- name: SearchOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::uuid[] IS NULL OR id = ANY($1::uuid[]))
  AND ($2::text[] IS NULL OR owner_id = ANY($2::text[]))
  AND ($3::text[] IS NULL OR status = ANY($3::text[]))
  AND ($4::timestamptz IS NULL OR created_at > $4::timestamptz)
  AND ($5::timestamptz IS NULL OR created_at < $5::timestamptz)
ORDER BY created_at DESC, id
`

type SearchOrdersParams struct {
	Ids           []uuid.UUID
	OwnerIds      []string
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (q *Queries) SearchOrders(ctx context.Context, arg SearchOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, searchOrders,
		arg.Ids,
		arg.OwnerIds,
		arg.Statuses,
		arg.CreatedAfter,
		arg.CreatedBefore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :execresult
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	FromStatus string
	ToStatus   string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderStatus, arg.ID, arg.FromStatus, arg.ToStatus)
}
