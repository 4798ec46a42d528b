package port

import "context"

type Repositories struct {
	Orders    OrderRepository
	Payments  PaymentRepository
	Catalog   CatalogRepository
	Inventory InventoryLedger
}

// Transactor runs fn against repositories bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(repos Repositories) error) error
	Repositories() Repositories
}
