package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/time/rate"
)

type OrderService interface {
	CreateOrder(ctx context.Context, p domain.Principal, in service.CreateOrderInput) (domain.Order, error)
	GetOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, p domain.Principal, number string) (domain.Order, error)
	ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, p domain.Principal, orderID uuid.UUID, next domain.OrderStatus) (domain.Order, error)
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, p domain.Principal, in service.ProcessPaymentInput) (domain.Payment, error)
	GetPayment(ctx context.Context, p domain.Principal, paymentID uuid.UUID) (domain.Payment, error)
	GetPaymentByOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, p domain.Principal, paymentID uuid.UUID, next domain.PaymentStatus) (domain.Payment, error)
}

type CatalogService interface {
	CreateShop(ctx context.Context, p domain.Principal, in service.CreateShopInput) (domain.Shop, error)
	AddProduct(ctx context.Context, p domain.Principal, shopID uuid.UUID, in service.AddProductInput) (domain.Product, error)
	Restock(ctx context.Context, p domain.Principal, productID uuid.UUID, quantity int) (domain.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	ListShopProducts(ctx context.Context, shopID uuid.UUID) ([]domain.Product, error)
}

type PrincipalResolver interface {
	ResolveHeader(header string) domain.Principal
}

type Deps struct {
	Orders   OrderService
	Payments PaymentService
	Catalog  CatalogService
	Identity PrincipalResolver

	// Currency applies to money fields sent without one.
	Currency currency.Unit

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
}

type handler struct {
	orders   OrderService
	payments PaymentService
	catalog  CatalogService
	currency currency.Unit
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestContext(deps.Logger))
	r.Use(accessLog(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/")
	if deps.RateLimit > 0 {
		api.Use(rateLimit(newIPLimiter(deps.RateLimit, deps.RateBurst)))
	}
	api.Use(identity(deps.Identity))

	h := handler{
		orders:   deps.Orders,
		payments: deps.Payments,
		catalog:  deps.Catalog,
		currency: deps.Currency,
	}

	orders := api.Group("/orders")
	orders.POST("", h.createOrder)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.GET("/number/:number", h.getOrderByNumber)
	orders.PUT("/:id/status", h.updateOrderStatus)

	payments := api.Group("/payments")
	payments.POST("", h.processPayment)
	payments.GET("/:id", h.getPayment)
	payments.GET("/order/:orderId", h.getPaymentByOrder)
	payments.PUT("/:id/status", h.updatePaymentStatus)

	shops := api.Group("/shops")
	shops.POST("", h.createShop)
	shops.POST("/:id/products", h.addProduct)
	shops.GET("/:id/products", h.listShopProducts)

	products := api.Group("/products")
	products.GET("/:id", h.getProduct)
	products.POST("/:id/restock", h.restock)

	return r
}
