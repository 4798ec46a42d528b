package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Shop struct {
	ID          uuid.UUID
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID            uuid.UUID
	ShopID        uuid.UUID
	Name          string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Quantity      int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID              uuid.UUID
	Number          string
	OwnerID         string
	Status          string
	TotalAmount     decimal.Decimal
	TotalCurrency   string
	ShippingAddress string
	BillingAddress  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	ProductName   string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Quantity      int32
	CreatedAt     time.Time
}

type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Method        string
	Status        string
	TransactionID string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
