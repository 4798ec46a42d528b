package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/text/currency"
)

type catalogRepository struct {
	q *db.Queries
}

func NewCatalog(pool *pgxpool.Pool) port.CatalogRepository {
	return newCatalogRepository(pool)
}

func newCatalogRepository(dbtx db.DBTX) *catalogRepository {
	return &catalogRepository{q: db.New(dbtx)}
}

func (r *catalogRepository) InsertShop(ctx context.Context, shop domain.Shop) (domain.Shop, error) {
	if shop.OwnerID == "" {
		return domain.Shop{}, fmt.Errorf("ownerID is empty: %w", domain.ErrInvalidRequest)
	}

	dbShop, err := r.q.InsertShop(ctx, db.InsertShopParams{
		OwnerID:     shop.OwnerID,
		Name:        shop.Name,
		Description: shop.Description,
	})
	if err != nil {
		return domain.Shop{}, fmt.Errorf("q.InsertShop: %w", mapDBError(err))
	}

	return mapDBShopToDomain(dbShop), nil
}

func (r *catalogRepository) GetShop(ctx context.Context, shopID uuid.UUID) (domain.Shop, error) {
	dbShop, err := r.q.GetShop(ctx, shopID)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("q.GetShop: %w", mapDBError(err))
	}

	return mapDBShopToDomain(dbShop), nil
}

func (r *catalogRepository) GetShopByOwner(ctx context.Context, ownerID string) (domain.Shop, error) {
	dbShop, err := r.q.GetShopByOwner(ctx, ownerID)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("q.GetShopByOwner: %w", mapDBError(err))
	}

	return mapDBShopToDomain(dbShop), nil
}

func (r *catalogRepository) InsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	quantity, err := toDBQuantity(product.Quantity)
	if err != nil {
		return domain.Product{}, err
	}

	dbProduct, err := r.q.InsertProduct(ctx, db.InsertProductParams{
		ShopID:        product.ShopID,
		Name:          product.Name,
		PriceAmount:   product.Price.Amount,
		PriceCurrency: product.Price.Currency.String(),
		Quantity:      quantity,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.InsertProduct: %w", mapDBError(err))
	}

	return mapDBProductToDomain(dbProduct)
}

func (r *catalogRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	dbProduct, err := r.q.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.GetProduct: %w", mapDBError(err))
	}

	return mapDBProductToDomain(dbProduct)
}

func (r *catalogRepository) GetProductsByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Product, error) {
	dbProducts, err := r.q.GetProductsByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("q.GetProductsByShop: %w", err)
	}

	return mapDBProductsToDomain(dbProducts)
}

func mapDBShopToDomain(row db.Shop) domain.Shop {
	return domain.Shop{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func mapDBProductToDomain(row db.Product) (domain.Product, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.Product{
		ID:        row.ID,
		ShopID:    row.ShopID,
		Name:      row.Name,
		Price:     domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		Quantity:  int(row.Quantity),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func mapDBProductsToDomain(rows []db.Product) ([]domain.Product, error) {
	var products []domain.Product

	for _, row := range rows {
		product, err := mapDBProductToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBProductToDomain: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}
