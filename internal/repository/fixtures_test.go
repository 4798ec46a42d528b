package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

var currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
	return x.String() == y.String()
})

var decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool {
	return x.Equal(y)
})

func randomCurrency() currency.Unit {
	var (
		result currency.Unit
		err    error
	)

	for {
		// tag is not a recognized currency
		result, err = currency.ParseISO(gofakeit.CurrencyShort())
		if err == nil {
			break
		}
	}

	return result
}

func randomPrice(unit currency.Unit) domain.Money {
	return domain.Money{
		Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		Currency: unit,
	}
}

func randomShop() domain.Shop {
	return domain.Shop{
		OwnerID:     gofakeit.UUID(),
		Name:        gofakeit.Company(),
		Description: gofakeit.Sentence(8),
	}
}

func randomProduct(shopID uuid.UUID, unit currency.Unit) domain.Product {
	return domain.Product{
		ShopID:   shopID,
		Name:     gofakeit.ProductName(),
		Price:    randomPrice(unit),
		Quantity: gofakeit.Number(10, 100),
	}
}

// seedProducts creates one shop with n products in a single currency.
func seedProducts(t *testing.T, catalog port.CatalogRepository, n int) []domain.Product {
	t.Helper()
	ctx := t.Context()

	shop, err := catalog.InsertShop(ctx, randomShop())
	require.NoError(t, err)

	unit := randomCurrency()

	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		product, err := catalog.InsertProduct(ctx, randomProduct(shop.ID, unit))
		require.NoError(t, err)
		products = append(products, product)
	}

	return products
}

func randomOrder(products []domain.Product) domain.Order {
	var items []domain.OrderItem
	for _, product := range products {
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    gofakeit.Number(1, 5),
		})
	}

	total, _ := domain.CalculateTotal(items)

	return domain.Order{
		Number:          domain.NewOrderNumber(gofakeit.Date()),
		OwnerID:         gofakeit.UUID(),
		Items:           items,
		Status:          domain.OrderStatusPending,
		Total:           total,
		ShippingAddress: gofakeit.Address().Address,
		BillingAddress:  gofakeit.Address().Address,
	}
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.OrderItem{}, "ID", "CreatedAt"),
		cmpopts.IgnoreFields(domain.Order{}, "ID", "CreatedAt", "UpdatedAt"),
		cmpopts.SortSlices(func(a, b domain.OrderItem) bool {
			return a.ProductID.String() < b.ProductID.String()
		}),
		currencyComparer,
		decimalComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
	assert.NotEqual(t, uuid.Nil, actual.ID)
	for _, item := range actual.Items {
		assert.NotEqual(t, uuid.Nil, item.ID)
	}
}

func assertProduct(t *testing.T, expected, actual domain.Product) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Product{}, "ID", "CreatedAt", "UpdatedAt"),
		currencyComparer,
		decimalComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.NotEqual(t, uuid.Nil, actual.ID)
	assert.False(t, actual.CreatedAt.IsZero())
}
