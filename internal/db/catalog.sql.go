package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const shopColumns = `id, owner_id, name, description, created_at, updated_at`

const productColumns = `id, shop_id, name, price_amount, price_currency, quantity, created_at, updated_at`

func scanShop(row rowScanner) (Shop, error) {
	var i Shop
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Description,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanProduct(row rowScanner) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.ShopID,
		&i.Name,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertShop = `-- name: InsertShop :one
INSERT INTO shops (owner_id, name, description)
VALUES ($1, $2, $3)
RETURNING ` + shopColumns + `
`

type InsertShopParams struct {
	OwnerID     string
	Name        string
	Description string
}

func (q *Queries) InsertShop(ctx context.Context, arg InsertShopParams) (Shop, error) {
	row := q.db.QueryRow(ctx, insertShop, arg.OwnerID, arg.Name, arg.Description)
	return scanShop(row)
}

const getShop = `-- name: GetShop :one
SELECT ` + shopColumns + `
FROM shops
WHERE id = $1
`

func (q *Queries) GetShop(ctx context.Context, id uuid.UUID) (Shop, error) {
	row := q.db.QueryRow(ctx, getShop, id)
	return scanShop(row)
}

const getShopByOwner = `-- name: GetShopByOwner :one
SELECT ` + shopColumns + `
FROM shops
WHERE owner_id = $1
`

func (q *Queries) GetShopByOwner(ctx context.Context, ownerID string) (Shop, error) {
	row := q.db.QueryRow(ctx, getShopByOwner, ownerID)
	return scanShop(row)
}

const insertProduct = `-- name: InsertProduct :one
INSERT INTO products (shop_id, name, price_amount, price_currency, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + productColumns + `
`

type InsertProductParams struct {
	ShopID        uuid.UUID
	Name          string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Quantity      int32
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, insertProduct,
		arg.ShopID,
		arg.Name,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Quantity,
	)
	return scanProduct(row)
}

const getProduct = `-- name: GetProduct :one
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	return scanProduct(row)
}

const getProductsByShop = `-- name: GetProductsByShop :many
SELECT ` + productColumns + `
FROM products
WHERE shop_id = $1
ORDER BY created_at, id
`

func (q *Queries) GetProductsByShop(ctx context.Context, shopID uuid.UUID) ([]Product, error) {
	return q.queryProducts(ctx, getProductsByShop, shopID)
}

const lockProducts = `-- name: LockProducts :many
SELECT ` + productColumns + `
FROM products
WHERE id = ANY($1::uuid[])
ORDER BY id
FOR UPDATE
`

// LockProducts takes row locks in ascending id order so concurrent callers cannot deadlock.
func (q *Queries) LockProducts(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	return q.queryProducts(ctx, lockProducts, ids)
}

func (q *Queries) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		i, err := scanProduct(rows)
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

const decrementProductQuantity = `-- name: DecrementProductQuantity :execresult
UPDATE products
SET quantity = quantity - $2, updated_at = now()
WHERE id = $1 AND quantity >= $2
`

type AdjustProductQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) DecrementProductQuantity(ctx context.Context, arg AdjustProductQuantityParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, decrementProductQuantity, arg.ID, arg.Quantity)
}

const incrementProductQuantity = `-- name: IncrementProductQuantity :execresult
UPDATE products
SET quantity = quantity + $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) IncrementProductQuantity(ctx context.Context, arg AdjustProductQuantityParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, incrementProductQuantity, arg.ID, arg.Quantity)
}
