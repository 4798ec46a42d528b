package service_test

import (
	"errors"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func (suite *serviceSuite) TestScenario_InsufficientStock() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "10.00", 5)
	user := randomPrincipal()

	rejectedBefore := testutil.ToFloat64(suite.metrics.StockRejections)

	_, err := suite.orders.CreateOrder(ctx, user, orderInput(service.CreateOrderItem{ProductID: product.ID, Quantity: 10}))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, product.ID, stockErr.ProductID)

	orders, err := suite.orders.ListOrders(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, orders)

	assert.Equal(t, 5, suite.productQuantity(ctx, product))
	assert.InDelta(t, rejectedBefore+1, testutil.ToFloat64(suite.metrics.StockRejections), 0)
}

func (suite *serviceSuite) TestCreateOrder() {
	defer suite.deleteAll()

	merchant, shop := suite.newShop()
	cheap := suite.newProduct(merchant, shop, "0.10", 100)
	pricey := suite.newProduct(merchant, shop, "19.99", 100)

	tests := []struct {
		name           string
		principal      domain.Principal
		inputFunc      func() service.CreateOrderInput
		wantTotal      string
		wantQuantities []int
		wantError      error
	}{
		{
			name:      "two products: exact total",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput(
					service.CreateOrderItem{ProductID: cheap.ID, Quantity: 3},
					service.CreateOrderItem{ProductID: pricey.ID, Quantity: 2},
				)
			},
			wantTotal:      "40.28",
			wantQuantities: []int{97, 98},
		},
		{
			name:      "same product twice: reserved together",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput(
					service.CreateOrderItem{ProductID: cheap.ID, Quantity: 1},
					service.CreateOrderItem{ProductID: cheap.ID, Quantity: 2},
				)
			},
			wantTotal:      "0.30",
			wantQuantities: []int{97, 100},
		},
		{
			name:      "anonymous: unauthenticated",
			principal: domain.Anonymous(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput(service.CreateOrderItem{ProductID: cheap.ID, Quantity: 1})
			},
			wantError: domain.ErrUnauthenticated,
		},
		{
			name:      "no items: invalid",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput()
			},
			wantError: domain.ErrInvalidRequest,
		},
		{
			name:      "zero quantity: invalid",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput(service.CreateOrderItem{ProductID: cheap.ID, Quantity: 0})
			},
			wantError: domain.ErrInvalidRequest,
		},
		{
			name:      "blank shipping address: invalid",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				in := orderInput(service.CreateOrderItem{ProductID: cheap.ID, Quantity: 1})
				in.ShippingAddress = "   "
				return in
			},
			wantError: domain.ErrInvalidRequest,
		},
		{
			name:      "address too long: invalid",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				in := orderInput(service.CreateOrderItem{ProductID: cheap.ID, Quantity: 1})
				in.BillingAddress = strings.Repeat("a", 501)
				return in
			},
			wantError: domain.ErrInvalidRequest,
		},
		{
			name:      "unknown product: not found, nothing reserved",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput(
					service.CreateOrderItem{ProductID: cheap.ID, Quantity: 1},
					service.CreateOrderItem{ProductID: uuid.MustParse(gofakeit.UUID()), Quantity: 1},
				)
			},
			wantError: domain.ErrNotFound,
		},
		{
			name:      "second item short: nothing reserved",
			principal: randomPrincipal(),
			inputFunc: func() service.CreateOrderInput {
				return orderInput(
					service.CreateOrderItem{ProductID: cheap.ID, Quantity: 1},
					service.CreateOrderItem{ProductID: pricey.ID, Quantity: 101},
				)
			},
			wantError: domain.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			// every case starts from full stock
			_, err := suite.pool.Exec(ctx, "UPDATE products SET quantity = 100")
			require.NoError(t, err)

			input := tt.inputFunc()

			order, err := suite.orders.CreateOrder(ctx, tt.principal, input)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				assert.Equal(t, 100, suite.productQuantity(ctx, cheap))
				assert.Equal(t, 100, suite.productQuantity(ctx, pricey))
				return
			}
			require.NoError(t, err)

			assert.Equal(t, domain.OrderStatusPending, order.Status)
			assert.Equal(t, tt.principal.UserID, order.OwnerID)
			assert.True(t, strings.HasPrefix(order.Number, "ORD-"))
			assert.Equal(t, currency.USD, order.Total.Currency)
			assert.True(t, order.Total.Amount.Equal(money(tt.wantTotal, currency.USD).Amount), "total %s", order.Total)
			require.Len(t, order.Items, len(input.Items))

			sum, err := domain.CalculateTotal(order.Items)
			require.NoError(t, err)
			assert.True(t, sum.Equal(order.Total))

			assert.Equal(t, tt.wantQuantities[0], suite.productQuantity(ctx, cheap))
			assert.Equal(t, tt.wantQuantities[1], suite.productQuantity(ctx, pricey))
		})
	}
}

func (suite *serviceSuite) TestCreateOrder_MixedCurrencies() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	usd := suite.newProduct(merchant, shop, "1.00", 10)

	eur, err := suite.catalog.AddProduct(ctx, merchant, shop.ID, service.AddProductInput{
		Name:     gofakeit.ProductName(),
		Price:    money("1.00", currency.EUR),
		Quantity: 10,
	})
	require.NoError(t, err)

	_, err = suite.orders.CreateOrder(ctx, randomPrincipal(), orderInput(
		service.CreateOrderItem{ProductID: usd.ID, Quantity: 1},
		service.CreateOrderItem{ProductID: eur.ID, Quantity: 1},
	))
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	assert.Equal(t, 10, suite.productQuantity(ctx, usd))
	assert.Equal(t, 10, suite.productQuantity(ctx, eur))
}

// N concurrent single-unit orders against Q units: min(N, Q) succeed, the rest are InsufficientStock.
func (suite *serviceSuite) TestCreateOrder_Concurrent() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	const (
		stock   = 7
		callers = 20
	)

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "2.50", stock)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    []domain.Order
		stockFails int
		otherErrs  []error
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			order, err := suite.orders.CreateOrder(ctx, randomPrincipal(), orderInput(
				service.CreateOrderItem{ProductID: product.ID, Quantity: 1},
			))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				created = append(created, order)
			case errors.Is(err, domain.ErrInsufficientStock):
				stockFails++
			default:
				otherErrs = append(otherErrs, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, otherErrs)
	assert.Len(t, created, stock)
	assert.Equal(t, callers-stock, stockFails)
	assert.Equal(t, 0, suite.productQuantity(ctx, product))

	numbers := make(map[string]struct{}, len(created))
	for _, order := range created {
		numbers[order.Number] = struct{}{}
	}
	assert.Len(t, numbers, len(created))
}

func (suite *serviceSuite) TestGetOrder() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "3.00", 10)

	owner := randomPrincipal()
	order := suite.placeOrder(owner, service.CreateOrderItem{ProductID: product.ID, Quantity: 2})

	first, err := suite.orders.GetOrder(ctx, owner, order.ID)
	require.NoError(t, err)

	second, err := suite.orders.GetOrder(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	byNumber, err := suite.orders.GetOrderByNumber(ctx, owner, order.Number)
	require.NoError(t, err)
	assert.Equal(t, first, byNumber)

	_, err = suite.orders.GetOrder(ctx, owner, uuid.MustParse(gofakeit.UUID()))
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = suite.orders.GetOrderByNumber(ctx, owner, "ORD-unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = suite.orders.GetOrder(ctx, domain.Anonymous(), order.ID)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func (suite *serviceSuite) TestListOrders() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "1.00", 10)

	owner := randomPrincipal()
	first := suite.placeOrder(owner, service.CreateOrderItem{ProductID: product.ID, Quantity: 1})
	second := suite.placeOrder(owner, service.CreateOrderItem{ProductID: product.ID, Quantity: 1})
	suite.placeOrder(randomPrincipal(), service.CreateOrderItem{ProductID: product.ID, Quantity: 1})

	orders, err := suite.orders.ListOrders(ctx, owner)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// newest first
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	_, err = suite.orders.ListOrders(ctx, domain.Anonymous())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func (suite *serviceSuite) TestUpdateStatus() {
	defer suite.deleteAll()

	merchant, shop := suite.newShop()
	product := suite.newProduct(merchant, shop, "5.00", 1000)

	tests := []struct {
		name      string
		path      []domain.OrderStatus // applied before the transition under test
		next      domain.OrderStatus
		wantError error
	}{
		{name: "pending to processing: ok", next: domain.OrderStatusProcessing},
		{name: "pending to cancelled: ok", next: domain.OrderStatusCancelled},
		{name: "processing to shipped: ok", path: []domain.OrderStatus{domain.OrderStatusProcessing}, next: domain.OrderStatusShipped},
		{name: "processing to cancelled: ok", path: []domain.OrderStatus{domain.OrderStatusProcessing}, next: domain.OrderStatusCancelled},
		{
			name: "shipped to delivered: ok",
			path: []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped},
			next: domain.OrderStatusDelivered,
		},
		{name: "pending to shipped: invalid transition", next: domain.OrderStatusShipped, wantError: domain.ErrInvalidTransition},
		{name: "pending to delivered: invalid transition", next: domain.OrderStatusDelivered, wantError: domain.ErrInvalidTransition},
		{name: "pending to pending: invalid transition", next: domain.OrderStatusPending, wantError: domain.ErrInvalidTransition},
		{
			name:      "shipped to cancelled: invalid transition",
			path:      []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped},
			next:      domain.OrderStatusCancelled,
			wantError: domain.ErrInvalidTransition,
		},
		{
			name:      "cancelled is terminal: invalid transition",
			path:      []domain.OrderStatus{domain.OrderStatusCancelled},
			next:      domain.OrderStatusProcessing,
			wantError: domain.ErrInvalidTransition,
		},
		{
			name:      "delivered is terminal: invalid transition",
			path:      []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered},
			next:      domain.OrderStatusCancelled,
			wantError: domain.ErrInvalidTransition,
		},
		{name: "unknown status: invalid request", next: "LOST", wantError: domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			owner := randomPrincipal()
			order := suite.placeOrder(owner, service.CreateOrderItem{ProductID: product.ID, Quantity: 1})

			for _, status := range tt.path {
				_, err := suite.orders.UpdateStatus(ctx, owner, order.ID, status)
				require.NoError(t, err)
			}

			before, err := suite.orders.GetOrder(ctx, owner, order.ID)
			require.NoError(t, err)

			updated, err := suite.orders.UpdateStatus(ctx, owner, order.ID, tt.next)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)

				after, err := suite.orders.GetOrder(ctx, owner, order.ID)
				require.NoError(t, err)
				assert.Equal(t, before.Status, after.Status)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.next, updated.Status)
			assert.Equal(t, order.ID, updated.ID)
		})
	}
}

func (suite *serviceSuite) TestUpdateStatus_CancelReleasesStock() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	merchant, shop := suite.newShop()
	first := suite.newProduct(merchant, shop, "1.00", 10)
	second := suite.newProduct(merchant, shop, "2.00", 10)

	owner := randomPrincipal()
	order := suite.placeOrder(owner,
		service.CreateOrderItem{ProductID: first.ID, Quantity: 4},
		service.CreateOrderItem{ProductID: second.ID, Quantity: 1},
		service.CreateOrderItem{ProductID: first.ID, Quantity: 2},
	)

	assert.Equal(t, 4, suite.productQuantity(ctx, first))
	assert.Equal(t, 9, suite.productQuantity(ctx, second))

	_, err := suite.orders.UpdateStatus(ctx, owner, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, 10, suite.productQuantity(ctx, first))
	assert.Equal(t, 10, suite.productQuantity(ctx, second))

	// a second cancel must not release twice
	_, err = suite.orders.UpdateStatus(ctx, owner, order.ID, domain.OrderStatusCancelled)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 10, suite.productQuantity(ctx, first))
}
