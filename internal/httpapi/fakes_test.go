package httpapi_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/service"
)

type fakeOrders struct {
	create   func(context.Context, domain.Principal, service.CreateOrderInput) (domain.Order, error)
	get      func(context.Context, domain.Principal, uuid.UUID) (domain.Order, error)
	byNumber func(context.Context, domain.Principal, string) (domain.Order, error)
	list     func(context.Context, domain.Principal) ([]domain.Order, error)
	update   func(context.Context, domain.Principal, uuid.UUID, domain.OrderStatus) (domain.Order, error)
}

func (f *fakeOrders) CreateOrder(ctx context.Context, p domain.Principal, in service.CreateOrderInput) (domain.Order, error) {
	return f.create(ctx, p, in)
}

func (f *fakeOrders) GetOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (domain.Order, error) {
	return f.get(ctx, p, orderID)
}

func (f *fakeOrders) GetOrderByNumber(ctx context.Context, p domain.Principal, number string) (domain.Order, error) {
	return f.byNumber(ctx, p, number)
}

func (f *fakeOrders) ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	return f.list(ctx, p)
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, p domain.Principal, orderID uuid.UUID, next domain.OrderStatus) (domain.Order, error) {
	return f.update(ctx, p, orderID, next)
}

type fakePayments struct {
	process func(context.Context, domain.Principal, service.ProcessPaymentInput) (domain.Payment, error)
	get     func(context.Context, domain.Principal, uuid.UUID) (domain.Payment, error)
	byOrder func(context.Context, domain.Principal, uuid.UUID) (domain.Payment, error)
	update  func(context.Context, domain.Principal, uuid.UUID, domain.PaymentStatus) (domain.Payment, error)
}

func (f *fakePayments) ProcessPayment(ctx context.Context, p domain.Principal, in service.ProcessPaymentInput) (domain.Payment, error) {
	return f.process(ctx, p, in)
}

func (f *fakePayments) GetPayment(ctx context.Context, p domain.Principal, paymentID uuid.UUID) (domain.Payment, error) {
	return f.get(ctx, p, paymentID)
}

func (f *fakePayments) GetPaymentByOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (domain.Payment, error) {
	return f.byOrder(ctx, p, orderID)
}

func (f *fakePayments) UpdatePaymentStatus(ctx context.Context, p domain.Principal, paymentID uuid.UUID, next domain.PaymentStatus) (domain.Payment, error) {
	return f.update(ctx, p, paymentID, next)
}

type fakeCatalog struct {
	createShop func(context.Context, domain.Principal, service.CreateShopInput) (domain.Shop, error)
	addProduct func(context.Context, domain.Principal, uuid.UUID, service.AddProductInput) (domain.Product, error)
	restock    func(context.Context, domain.Principal, uuid.UUID, int) (domain.Product, error)
	get        func(context.Context, uuid.UUID) (domain.Product, error)
	list       func(context.Context, uuid.UUID) ([]domain.Product, error)
}

func (f *fakeCatalog) CreateShop(ctx context.Context, p domain.Principal, in service.CreateShopInput) (domain.Shop, error) {
	return f.createShop(ctx, p, in)
}

func (f *fakeCatalog) AddProduct(ctx context.Context, p domain.Principal, shopID uuid.UUID, in service.AddProductInput) (domain.Product, error) {
	return f.addProduct(ctx, p, shopID, in)
}

func (f *fakeCatalog) Restock(ctx context.Context, p domain.Principal, productID uuid.UUID, quantity int) (domain.Product, error) {
	return f.restock(ctx, p, productID, quantity)
}

func (f *fakeCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	return f.get(ctx, productID)
}

func (f *fakeCatalog) ListShopProducts(ctx context.Context, shopID uuid.UUID) ([]domain.Product, error) {
	return f.list(ctx, shopID)
}
