package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/authz"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	useCaseOrderCreate       = "order.create"
	useCaseOrderGet          = "order.get"
	useCaseOrderGetByNumber  = "order.get_by_number"
	useCaseOrderList         = "order.list"
	useCaseOrderUpdateStatus = "order.update_status"
)

type CreateOrderItem struct {
	ProductID uuid.UUID `validate:"required"`
	Quantity  int       `validate:"gte=1,lte=2147483647"`
}

type CreateOrderInput struct {
	Items           []CreateOrderItem `validate:"required,min=1,dive"`
	ShippingAddress string            `validate:"required,max=500"`
	BillingAddress  string            `validate:"required,max=500"`
}

type OrderService struct {
	tx  port.Transactor
	obs observer
	now func() time.Time
}

func NewOrderService(tx port.Transactor, m *metrics.Metrics) *OrderService {
	return &OrderService{
		tx:  tx,
		obs: newObserver(m),
		now: time.Now,
	}
}

// CreateOrder reserves stock for every item and persists the order in one transaction.
// Either all items are reserved and the order is stored, or nothing changes.
func (s *OrderService) CreateOrder(ctx context.Context, p domain.Principal, in CreateOrderInput) (_ domain.Order, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.owner_id", p.UserID),
		attribute.Int("order.items", len(in.Items)),
	)
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Order{}, err
	}

	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.BillingAddress = strings.TrimSpace(in.BillingAddress)

	if len(in.Items) == 0 {
		return domain.Order{}, domain.ErrNoItems
	}
	if err := validateInput(in); err != nil {
		return domain.Order{}, err
	}

	reservations := domain.MergeReservations(lo.Map(in.Items, func(item CreateOrderItem, _ int) domain.Reservation {
		return domain.Reservation{ProductID: item.ProductID, Quantity: item.Quantity}
	}))

	var created domain.Order

	err = s.tx.InTx(ctx, func(repos port.Repositories) error {
		products, err := repos.Inventory.Reserve(ctx, reservations)
		if err != nil {
			return fmt.Errorf("repos.Inventory.Reserve: %w", err)
		}

		// prices are frozen from the locked snapshots
		byID := lo.KeyBy(products, func(p domain.Product) uuid.UUID { return p.ID })

		items := make([]domain.OrderItem, 0, len(in.Items))
		for _, item := range in.Items {
			product := byID[item.ProductID]
			items = append(items, domain.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Price:       product.Price,
				Quantity:    item.Quantity,
			})
		}

		total, err := domain.CalculateTotal(items)
		if err != nil {
			return fmt.Errorf("domain.CalculateTotal: %w", err)
		}

		created, err = repos.Orders.InsertOrder(ctx, domain.Order{
			Number:          domain.NewOrderNumber(s.now()),
			OwnerID:         p.UserID,
			Items:           items,
			Status:          domain.OrderStatusPending,
			Total:           total,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
		})
		if err != nil {
			return fmt.Errorf("repos.Orders.InsertOrder: %w", err)
		}

		return nil
	})
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.obs.metrics.StockRejections.Inc()
			logger.Info("insufficient_stock",
				zap.Stringer("product_id", stockErr.ProductID),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available),
			)
		}
		return domain.Order{}, fmt.Errorf("tx.InTx: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", created.ID.String()),
		attribute.String("order.number", created.Number),
	)
	logger.Info("order_created",
		zap.Stringer("order_id", created.ID),
		zap.String("order_number", created.Number),
		zap.Stringer("total", created.Total),
	)

	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (_ domain.Order, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", orderID.String()))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Order{}, err
	}

	order, err := s.tx.Repositories().Orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("Orders.GetOrder: %w", err)
	}

	if err := authz.Authorize(p, order.OwnerID); err != nil {
		return domain.Order{}, fmt.Errorf("authz.Authorize: %w", err)
	}

	return order, nil
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, p domain.Principal, number string) (_ domain.Order, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCaseOrderGetByNumber, "GetOrderByNumber", attribute.String("order.number", number))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Order{}, err
	}

	order, err := s.tx.Repositories().Orders.GetOrderByNumber(ctx, number)
	if err != nil {
		return domain.Order{}, fmt.Errorf("Orders.GetOrderByNumber: %w", err)
	}

	if err := authz.Authorize(p, order.OwnerID); err != nil {
		return domain.Order{}, fmt.Errorf("authz.Authorize: %w", err)
	}

	return order, nil
}

// ListOrders returns the principal's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, p domain.Principal) (_ []domain.Order, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCaseOrderList, "ListOrders", attribute.String("order.owner_id", p.UserID))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	orders, err := s.tx.Repositories().Orders.SearchOrders(ctx, domain.OrderFilter{OwnerIDs: []string{p.UserID}})
	if err != nil {
		return nil, fmt.Errorf("Orders.SearchOrders: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves the order along its transition table.
// Cancelling returns the reserved stock in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, p domain.Principal, orderID uuid.UUID, next domain.OrderStatus) (_ domain.Order, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCaseOrderUpdateStatus, "UpdateOrderStatus",
		attribute.String("order.id", orderID.String()),
		attribute.String("order.next_status", string(next)),
	)
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Order{}, err
	}

	if _, err := domain.ToOrderStatus(string(next)); err != nil {
		return domain.Order{}, fmt.Errorf("domain.ToOrderStatus: %w", err)
	}

	var (
		updated  domain.Order
		previous domain.OrderStatus
	)

	err = s.tx.InTx(ctx, func(repos port.Repositories) error {
		order, err := repos.Orders.LockOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("repos.Orders.LockOrder: %w", err)
		}

		if err := authz.Authorize(p, order.OwnerID); err != nil {
			return fmt.Errorf("authz.Authorize: %w", err)
		}

		if err := order.Status.ValidateTransition(next); err != nil {
			return err
		}

		if err := repos.Orders.UpdateOrderStatus(ctx, order.ID, order.Status, next); err != nil {
			return fmt.Errorf("repos.Orders.UpdateOrderStatus: %w", err)
		}

		if next == domain.OrderStatusCancelled {
			if err := repos.Inventory.Release(ctx, order.Reservations()); err != nil {
				return fmt.Errorf("repos.Inventory.Release: %w", err)
			}
		}

		updated, err = repos.Orders.GetOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("repos.Orders.GetOrder: %w", err)
		}
		previous = order.Status

		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("tx.InTx: %w", err)
	}

	logger.Info("order_status_changed",
		zap.Stringer("order_id", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Status)),
	)

	return updated, nil
}
