package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/authz"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	useCaseShopCreate       = "shop.create"
	useCaseProductAdd       = "product.add"
	useCaseProductRestock   = "product.restock"
	useCaseProductGet       = "product.get"
	useCaseShopListProducts = "shop.list_products"
)

type CreateShopInput struct {
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
}

type AddProductInput struct {
	Name     string       `validate:"required,max=200"`
	Price    domain.Money `validate:"-"`
	Quantity int          `validate:"gte=0,lte=2147483647"`
}

// CatalogService manages the shops and products that orders reserve stock from.
type CatalogService struct {
	tx  port.Transactor
	obs observer
}

func NewCatalogService(tx port.Transactor, m *metrics.Metrics) *CatalogService {
	return &CatalogService{
		tx:  tx,
		obs: newObserver(m),
	}
}

// CreateShop opens the principal's shop. A user owns at most one shop.
func (s *CatalogService) CreateShop(ctx context.Context, p domain.Principal, in CreateShopInput) (_ domain.Shop, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCaseShopCreate, "CreateShop", attribute.String("shop.owner_id", p.UserID))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Shop{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return domain.Shop{}, err
	}

	shop, err := s.tx.Repositories().Catalog.InsertShop(ctx, domain.Shop{
		OwnerID:     p.UserID,
		Name:        in.Name,
		Description: in.Description,
	})
	if err != nil {
		return domain.Shop{}, fmt.Errorf("Catalog.InsertShop: %w", err)
	}

	logger.Info("shop_created", zap.Stringer("shop_id", shop.ID))

	return shop, nil
}

func (s *CatalogService) AddProduct(ctx context.Context, p domain.Principal, shopID uuid.UUID, in AddProductInput) (_ domain.Product, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCaseProductAdd, "AddProduct", attribute.String("shop.id", shopID.String()))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Product{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return domain.Product{}, err
	}

	if in.Price.Amount.IsNegative() {
		return domain.Product{}, fmt.Errorf("price %s is negative: %w", in.Price, domain.ErrInvalidRequest)
	}

	catalog := s.tx.Repositories().Catalog

	shop, err := catalog.GetShop(ctx, shopID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("Catalog.GetShop: %w", err)
	}

	if err := authz.Authorize(p, shop.OwnerID); err != nil {
		return domain.Product{}, fmt.Errorf("authz.Authorize: %w", err)
	}

	product, err := catalog.InsertProduct(ctx, domain.Product{
		ShopID:   shop.ID,
		Name:     in.Name,
		Price:    in.Price,
		Quantity: in.Quantity,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("Catalog.InsertProduct: %w", err)
	}

	logger.Info("product_added",
		zap.Stringer("product_id", product.ID),
		zap.Int("quantity", product.Quantity),
	)

	return product, nil
}

// Restock adds quantity units to the product's available stock. Only the shop owner may restock.
func (s *CatalogService) Restock(ctx context.Context, p domain.Principal, productID uuid.UUID, quantity int) (_ domain.Product, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCaseProductRestock, "RestockProduct",
		attribute.String("product.id", productID.String()),
		attribute.Int("product.quantity_delta", quantity),
	)
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Product{}, err
	}

	if quantity <= 0 || quantity > domain.MaxQuantity {
		return domain.Product{}, fmt.Errorf("quantity[%d] must be in [1, %d]: %w", quantity, domain.MaxQuantity, domain.ErrInvalidRequest)
	}

	var restocked domain.Product

	err = s.tx.InTx(ctx, func(repos port.Repositories) error {
		product, err := repos.Catalog.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("repos.Catalog.GetProduct: %w", err)
		}

		shop, err := repos.Catalog.GetShop(ctx, product.ShopID)
		if err != nil {
			return fmt.Errorf("repos.Catalog.GetShop: %w", err)
		}

		if err := authz.Authorize(p, shop.OwnerID); err != nil {
			return fmt.Errorf("authz.Authorize: %w", err)
		}

		if err := repos.Inventory.Release(ctx, []domain.Reservation{{ProductID: product.ID, Quantity: quantity}}); err != nil {
			return fmt.Errorf("repos.Inventory.Release: %w", err)
		}

		restocked, err = repos.Catalog.GetProduct(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("repos.Catalog.GetProduct: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("tx.InTx: %w", err)
	}

	logger.Info("product_restocked",
		zap.Stringer("product_id", restocked.ID),
		zap.Int("quantity", restocked.Quantity),
	)

	return restocked, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (_ domain.Product, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCaseProductGet, "GetProduct", attribute.String("product.id", productID.String()))
	defer func() { finish(err) }()

	product, err := s.tx.Repositories().Catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("Catalog.GetProduct: %w", err)
	}

	return product, nil
}

// ListShopProducts fails with ErrNotFound for an unknown shop, an existing shop may have no products.
func (s *CatalogService) ListShopProducts(ctx context.Context, shopID uuid.UUID) (_ []domain.Product, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCaseShopListProducts, "ListShopProducts", attribute.String("shop.id", shopID.String()))
	defer func() { finish(err) }()

	catalog := s.tx.Repositories().Catalog

	if _, err := catalog.GetShop(ctx, shopID); err != nil {
		return nil, fmt.Errorf("Catalog.GetShop: %w", err)
	}

	products, err := catalog.GetProductsByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("Catalog.GetProductsByShop: %w", err)
	}

	return products, nil
}
