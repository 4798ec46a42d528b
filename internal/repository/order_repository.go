package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type orderRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return newOrderRepository(pool)
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return newOrderRepository(tx)
}

func newOrderRepository(dbtx db.DBTX) *orderRepository {
	return &orderRepository{
		q:    db.New(dbtx),
		dbtx: dbtx,
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	order, err := withTx(ctx, r.dbtx, func(tx db.DBTX) (domain.Order, error) {
		q := db.New(tx)

		dbOrder, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("q.GetOrder: %w", mapDBError(err))
		}

		return r.withItems(ctx, q, dbOrder)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, number string) (domain.Order, error) {
	if number == "" {
		return domain.Order{}, fmt.Errorf("number is empty: %w", domain.ErrInvalidRequest)
	}

	order, err := withTx(ctx, r.dbtx, func(tx db.DBTX) (domain.Order, error) {
		q := db.New(tx)

		dbOrder, err := q.GetOrderByNumber(ctx, number)
		if err != nil {
			return domain.Order{}, fmt.Errorf("q.GetOrderByNumber: %w", mapDBError(err))
		}

		return r.withItems(ctx, q, dbOrder)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) LockOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	if _, ok := r.dbtx.(pgx.Tx); !ok {
		return domain.Order{}, errors.New("LockOrder requires a transaction")
	}

	dbOrder, err := r.q.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrderForUpdate: %w", mapDBError(err))
	}

	return r.withItems(ctx, r.q, dbOrder)
}

func (r *orderRepository) withItems(ctx context.Context, q *db.Queries, dbOrder db.Order) (domain.Order, error) {
	dbOrderItems, err := q.GetOrderItems(ctx, []uuid.UUID{dbOrder.ID})
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	order, err := mapDBOrderToDomain(dbOrder, dbOrderItems)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mapDBOrderToDomain: %w", err)
	}

	return order, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if len(order.Items) == 0 {
		return domain.Order{}, domain.ErrNoItems
	}

	quantities := make([]int32, 0, len(order.Items))
	for _, item := range order.Items {
		quantity, err := toDBQuantity(item.Quantity)
		if err != nil {
			return domain.Order{}, fmt.Errorf("item[%s]: %w", item.ProductID, err)
		}
		quantities = append(quantities, quantity)
	}

	inserted, err := withTx(ctx, r.dbtx, func(tx db.DBTX) (domain.Order, error) {
		q := db.New(tx)

		dbOrder, err := q.InsertOrder(ctx, db.InsertOrderParams{
			Number:          order.Number,
			OwnerID:         order.OwnerID,
			Status:          string(order.Status),
			TotalAmount:     order.Total.Amount,
			TotalCurrency:   order.Total.Currency.String(),
			ShippingAddress: order.ShippingAddress,
			BillingAddress:  order.BillingAddress,
		})
		if err != nil {
			return domain.Order{}, fmt.Errorf("q.InsertOrder: %w", mapDBError(err))
		}

		dbOrderItems := make([]db.OrderItem, 0, len(order.Items))
		for i, item := range order.Items {
			dbItem, err := q.InsertOrderItem(ctx, db.InsertOrderItemParams{
				OrderID:       dbOrder.ID,
				ProductID:     item.ProductID,
				ProductName:   item.ProductName,
				PriceAmount:   item.Price.Amount,
				PriceCurrency: item.Price.Currency.String(),
				Quantity:      quantities[i],
			})
			if err != nil {
				return domain.Order{}, fmt.Errorf("q.InsertOrderItem: %w", mapDBError(err))
			}
			dbOrderItems = append(dbOrderItems, dbItem)
		}

		return mapDBOrderToDomain(dbOrder, dbOrderItems)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return inserted, nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) db.SearchOrdersParams {
	var createdAfter, createdBefore *time.Time

	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string {
		return string(s)
	})

	return db.SearchOrdersParams{
		Ids:           nilSliceIfEmpty(filter.IDs),
		OwnerIds:      nilSliceIfEmpty(filter.OwnerIDs),
		Statuses:      nilSliceIfEmpty(statuses),
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
	}
}

// SearchOrders returns matching orders newest first.
func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w: %w", domain.ErrInvalidRequest, err)
	}

	orders, err := withTx(ctx, r.dbtx, func(tx db.DBTX) ([]domain.Order, error) {
		q := db.New(tx)

		dbOrders, err := q.SearchOrders(ctx, mapDomainOrderFilterToDBFilter(filter))
		if err != nil {
			return nil, fmt.Errorf("q.SearchOrders: %w", err)
		}

		if len(dbOrders) == 0 {
			return nil, nil
		}

		orderIDs := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID { return o.ID })

		dbOrderItems, err := q.GetOrderItems(ctx, orderIDs)
		if err != nil {
			return nil, fmt.Errorf("q.GetOrderItems: %w", err)
		}

		itemsByOrder := lo.GroupBy(dbOrderItems, func(i db.OrderItem) uuid.UUID { return i.OrderID })

		result := make([]domain.Order, 0, len(dbOrders))
		for _, dbOrder := range dbOrders {
			order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
			if err != nil {
				return nil, fmt.Errorf("mapDBOrderToDomain: %w", err)
			}
			result = append(result, order)
		}

		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty: %w", domain.ErrInvalidRequest)
	}

	if to == "" {
		return fmt.Errorf("status is empty: %w", domain.ErrInvalidRequest)
	}

	cmdTag, err := r.q.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{
		ID:         orderID,
		FromStatus: string(from),
		ToStatus:   string(to),
	})
	if err != nil {
		return fmt.Errorf("q.UpdateOrderStatus: %w", mapDBError(err))
	}

	if cmdTag.RowsAffected() == 0 {
		if _, err := r.q.GetOrder(ctx, orderID); err != nil {
			return fmt.Errorf("q.GetOrder: %w", mapDBError(err))
		}
		return fmt.Errorf("q.UpdateOrderStatus: status is no longer %s: %w", from, domain.ErrConflict)
	}

	return nil
}

func mapDBOrderItemToDomain(row db.OrderItem) (domain.OrderItem, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.OrderItem{
		ID:          row.ID,
		ProductID:   row.ProductID,
		ProductName: row.ProductName,
		Price:       domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		Quantity:    int(row.Quantity),
		CreatedAt:   row.CreatedAt,
	}, nil
}

func mapDBOrderItemsToDomain(rows []db.OrderItem) ([]domain.OrderItem, error) {
	var items []domain.OrderItem

	for _, row := range rows {
		item, err := mapDBOrderItemToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBOrderItemToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func mapDBOrderToDomain(dbOrder db.Order, dbOrderItems []db.OrderItem) (domain.Order, error) {
	var o domain.Order

	items, err := mapDBOrderItemsToDomain(dbOrderItems)
	if err != nil {
		return o, fmt.Errorf("mapDBOrderItemsToDomain: %w", err)
	}

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	totalCurrency, err := currency.ParseISO(dbOrder.TotalCurrency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", dbOrder.TotalCurrency, err)
	}

	return domain.Order{
		ID:              dbOrder.ID,
		Number:          dbOrder.Number,
		OwnerID:         dbOrder.OwnerID,
		Items:           items,
		Status:          status,
		Total:           domain.Money{Amount: dbOrder.TotalAmount, Currency: totalCurrency},
		ShippingAddress: dbOrder.ShippingAddress,
		BillingAddress:  dbOrder.BillingAddress,
		CreatedAt:       dbOrder.CreatedAt,
		UpdatedAt:       dbOrder.UpdatedAt,
	}, nil
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
