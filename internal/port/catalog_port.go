package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type CatalogRepository interface {
	InsertShop(ctx context.Context, shop domain.Shop) (domain.Shop, error)
	GetShop(ctx context.Context, shopID uuid.UUID) (domain.Shop, error)
	GetShopByOwner(ctx context.Context, ownerID string) (domain.Shop, error)

	InsertProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	GetProductsByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Product, error)
}

// InventoryLedger owns per-product available quantity.
// Both methods must run inside a transaction to be atomic across products.
type InventoryLedger interface {
	// Reserve locks every referenced product, verifies availability for all of them and
	// only then decrements. It returns the product snapshots taken before the decrement.
	Reserve(ctx context.Context, reservations []domain.Reservation) ([]domain.Product, error)
	Release(ctx context.Context, reservations []domain.Reservation) error
}
