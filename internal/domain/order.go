package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uuid.UUID
	Number          string
	OwnerID         string
	Items           []OrderItem
	Status          OrderStatus
	Total           Money
	ShippingAddress string
	BillingAddress  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem captures the product name and unit price at the moment the order was placed.
type OrderItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Price       Money
	Quantity    int

	CreatedAt time.Time
}

func (i OrderItem) Subtotal() Money {
	return Money{
		Amount:   i.Price.Amount.Mul(decimal.NewFromInt(int64(i.Quantity))),
		Currency: i.Price.Currency,
	}
}

// CalculateTotal sums item subtotals. All items must share one currency.
func CalculateTotal(items []OrderItem) (Money, error) {
	if len(items) == 0 {
		return Money{}, ErrNoItems
	}

	total := Money{Amount: decimal.Zero, Currency: items[0].Price.Currency}
	for _, item := range items {
		sum, err := total.Add(item.Subtotal())
		if err != nil {
			return Money{}, err
		}
		total = sum
	}

	return total, nil
}

// Reservations aggregates the requested quantity per product.
func (o Order) Reservations() []Reservation {
	return ReservationsFromItems(o.Items)
}
