package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Shop struct {
	ID          uuid.UUID
	OwnerID     string
	Name        string
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID       uuid.UUID
	ShopID   uuid.UUID
	Name     string
	Price    Money
	Quantity int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxQuantity is the largest stock or item quantity storage can hold.
const MaxQuantity = math.MaxInt32

// Reservation is a request to take Quantity units of a product out of available stock.
type Reservation struct {
	ProductID uuid.UUID
	Quantity  int
}

// ReservationsFromItems sums quantities per product, preserving first-seen order.
func ReservationsFromItems(items []OrderItem) []Reservation {
	reservations := make([]Reservation, 0, len(items))
	for _, item := range items {
		reservations = append(reservations, Reservation{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return MergeReservations(reservations)
}

// MergeReservations collapses duplicate product ids into one reservation, preserving first-seen order.
func MergeReservations(reservations []Reservation) []Reservation {
	index := make(map[uuid.UUID]int, len(reservations))
	var result []Reservation

	for _, r := range reservations {
		if i, ok := index[r.ProductID]; ok {
			result[i].Quantity += r.Quantity
			continue
		}
		index[r.ProductID] = len(result)
		result = append(result, r)
	}

	return result
}
