package service_test

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func (suite *serviceSuite) TestCreateShop() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	assert.Equal(t, merchant.UserID, shop.OwnerID)

	_, err := suite.catalog.CreateShop(ctx, merchant, service.CreateShopInput{Name: gofakeit.Company()})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = suite.catalog.CreateShop(ctx, domain.Anonymous(), service.CreateShopInput{Name: gofakeit.Company()})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = suite.catalog.CreateShop(ctx, randomPrincipal(), service.CreateShopInput{Name: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func (suite *serviceSuite) TestAddProduct() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()

	tests := []struct {
		name      string
		principal domain.Principal
		shopID    uuid.UUID
		input     service.AddProductInput
		wantError error
	}{
		{
			name:      "owner adds product: ok",
			principal: merchant,
			shopID:    shop.ID,
			input:     service.AddProductInput{Name: gofakeit.ProductName(), Price: money("4.99", currency.USD), Quantity: 3},
		},
		{
			name:      "another user: forbidden",
			principal: randomPrincipal(),
			shopID:    shop.ID,
			input:     service.AddProductInput{Name: gofakeit.ProductName(), Price: money("4.99", currency.USD), Quantity: 3},
			wantError: domain.ErrForbidden,
		},
		{
			name:      "unknown shop: not found",
			principal: merchant,
			shopID:    uuid.MustParse(gofakeit.UUID()),
			input:     service.AddProductInput{Name: gofakeit.ProductName(), Price: money("4.99", currency.USD), Quantity: 3},
			wantError: domain.ErrNotFound,
		},
		{
			name:      "negative quantity: invalid",
			principal: merchant,
			shopID:    shop.ID,
			input:     service.AddProductInput{Name: gofakeit.ProductName(), Price: money("4.99", currency.USD), Quantity: -1},
			wantError: domain.ErrInvalidRequest,
		},
		{
			name:      "quantity above storage range: invalid",
			principal: merchant,
			shopID:    shop.ID,
			input:     service.AddProductInput{Name: gofakeit.ProductName(), Price: money("4.99", currency.USD), Quantity: domain.MaxQuantity + 1},
			wantError: domain.ErrInvalidRequest,
		},
		{
			name:      "negative price: invalid",
			principal: merchant,
			shopID:    shop.ID,
			input:     service.AddProductInput{Name: gofakeit.ProductName(), Price: money("-1", currency.USD), Quantity: 1},
			wantError: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			product, err := suite.catalog.AddProduct(ctx, tt.principal, tt.shopID, tt.input)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, shop.ID, product.ShopID)
			assert.Equal(t, tt.input.Quantity, product.Quantity)
			assert.True(t, product.Price.Equal(tt.input.Price))
		})
	}

	products, err := suite.catalog.ListShopProducts(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	_, err = suite.catalog.ListShopProducts(ctx, uuid.MustParse(gofakeit.UUID()))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *serviceSuite) TestRestock() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "1.00", 2)

	restocked, err := suite.catalog.Restock(ctx, merchant, product.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, restocked.Quantity)

	_, err = suite.catalog.Restock(ctx, randomPrincipal(), product.ID, 5)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = suite.catalog.Restock(ctx, merchant, product.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = suite.catalog.Restock(ctx, merchant, uuid.MustParse(gofakeit.UUID()), 1)
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 7, suite.productQuantity(ctx, product))
}

func (suite *serviceSuite) TestRestock_QuantityOutOfRange() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "1.00", 7)

	for _, quantity := range []int{
		1<<32 + 5,              // would wrap to 5 as int32
		1 << 31,                // would wrap to a negative delta
		domain.MaxQuantity,     // fits the parameter, overflows the stored sum
		domain.MaxQuantity - 6, // stored sum is MaxQuantity + 1
	} {
		_, err := suite.catalog.Restock(ctx, merchant, product.ID, quantity)
		require.ErrorIs(t, err, domain.ErrInvalidRequest, "quantity %d", quantity)
		assert.NotErrorIs(t, err, domain.ErrInsufficientStock, "quantity %d", quantity)
	}

	assert.Equal(t, 7, suite.productQuantity(ctx, product))

	restocked, err := suite.catalog.Restock(ctx, merchant, product.ID, domain.MaxQuantity-7)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxQuantity, restocked.Quantity)
}
