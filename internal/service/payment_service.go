package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/authz"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	useCasePaymentProcess      = "payment.process"
	useCasePaymentUpdateStatus = "payment.update_status"
	useCasePaymentGet          = "payment.get"
	useCasePaymentGetByOrder   = "payment.get_by_order"

	settleEndpoint = "settle"

	// DefaultSettleTimeout bounds a settlement call made while the order row is locked.
	DefaultSettleTimeout = 10 * time.Second
)

type ProcessPaymentInput struct {
	OrderID uuid.UUID            `validate:"required"`
	Amount  domain.Money         `validate:"-"`
	Method  domain.PaymentMethod `validate:"required"`
}

type PaymentService struct {
	tx            port.Transactor
	strategy      port.SettlementStrategy
	settleTimeout time.Duration
	obs           observer
	now           func() time.Time
}

// NewPaymentService uses DefaultSettleTimeout when settleTimeout is not positive.
func NewPaymentService(tx port.Transactor, strategy port.SettlementStrategy, settleTimeout time.Duration, m *metrics.Metrics) *PaymentService {
	if settleTimeout <= 0 {
		settleTimeout = DefaultSettleTimeout
	}

	return &PaymentService{
		tx:            tx,
		strategy:      strategy,
		settleTimeout: settleTimeout,
		obs:           newObserver(m),
		now:           time.Now,
	}
}

// ProcessPayment settles the order's single payment. The order row stays locked
// until the payment and the order status change are committed together.
func (s *PaymentService) ProcessPayment(ctx context.Context, p domain.Principal, in ProcessPaymentInput) (_ domain.Payment, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCasePaymentProcess, "ProcessPayment",
		attribute.String("order.id", in.OrderID.String()),
		attribute.String("payment.method", string(in.Method)),
		attribute.String("payment.strategy", s.strategy.Name()),
	)
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Payment{}, err
	}

	if err := validateInput(in); err != nil {
		return domain.Payment{}, err
	}

	if _, err := domain.ToPaymentMethod(string(in.Method)); err != nil {
		return domain.Payment{}, fmt.Errorf("domain.ToPaymentMethod: %w", err)
	}

	var created domain.Payment

	err = s.tx.InTx(ctx, func(repos port.Repositories) error {
		order, err := repos.Orders.LockOrder(ctx, in.OrderID)
		if err != nil {
			return fmt.Errorf("repos.Orders.LockOrder: %w", err)
		}

		if err := authz.Authorize(p, order.OwnerID); err != nil {
			return fmt.Errorf("authz.Authorize: %w", err)
		}

		existing, err := repos.Payments.GetPaymentByOrder(ctx, order.ID)
		switch {
		case err == nil:
			return fmt.Errorf("payment[%s] already exists for order[%s]: %w", existing.ID, order.ID, domain.ErrConflict)
		case errors.Is(err, domain.ErrNotFound):
		default:
			return fmt.Errorf("repos.Payments.GetPaymentByOrder: %w", err)
		}

		if order.Status != domain.OrderStatusPending {
			return fmt.Errorf("order[%s] is %s, only pending orders can be paid: %w", order.ID, order.Status, domain.ErrInvalidTransition)
		}

		if !in.Amount.IsPositive() {
			return fmt.Errorf("amount %s must be positive: %w", in.Amount, domain.ErrInvalidRequest)
		}

		if !in.Amount.Equal(order.Total) {
			return fmt.Errorf("amount %s does not match order total %s: %w", in.Amount, order.Total, domain.ErrInvalidRequest)
		}

		transactionID := domain.NewTransactionID()

		settleCtx, cancel := context.WithTimeout(ctx, s.settleTimeout)
		defer cancel()

		settleStart := time.Now()
		status, err := s.strategy.Settle(settleCtx, port.SettlementRequest{
			Order:         order,
			Amount:        in.Amount,
			Method:        in.Method,
			TransactionID: transactionID,
		})
		s.obs.external(s.strategy.Name(), settleEndpoint, settleStart, err)
		if err != nil {
			return fmt.Errorf("strategy.Settle: %w", err)
		}

		var paidAt *time.Time
		if status == domain.PaymentStatusCompleted {
			now := s.now().UTC()
			paidAt = &now
		}

		created, err = repos.Payments.InsertPayment(ctx, domain.Payment{
			OrderID:       order.ID,
			Amount:        in.Amount,
			Method:        in.Method,
			Status:        status,
			TransactionID: transactionID,
			PaidAt:        paidAt,
		})
		if err != nil {
			return fmt.Errorf("repos.Payments.InsertPayment: %w", err)
		}

		if status == domain.PaymentStatusCompleted {
			if err := repos.Orders.UpdateOrderStatus(ctx, order.ID, order.Status, domain.OrderStatusProcessing); err != nil {
				return fmt.Errorf("repos.Orders.UpdateOrderStatus: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("tx.InTx: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("payment.id", created.ID.String()),
		attribute.String("payment.status", string(created.Status)),
	)
	logger.Info("payment_processed",
		zap.Stringer("payment_id", created.ID),
		zap.Stringer("order_id", created.OrderID),
		zap.String("transaction_id", created.TransactionID),
		zap.String("status", string(created.Status)),
	)

	return created, nil
}

// UpdatePaymentStatus is authorized against the owner of the paid order.
// It does not touch the order or inventory.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, p domain.Principal, paymentID uuid.UUID, next domain.PaymentStatus) (_ domain.Payment, err error) {
	ctx, logger, finish := s.obs.begin(ctx, useCasePaymentUpdateStatus, "UpdatePaymentStatus",
		attribute.String("payment.id", paymentID.String()),
		attribute.String("payment.next_status", string(next)),
	)
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Payment{}, err
	}

	if _, err := domain.ToPaymentStatus(string(next)); err != nil {
		return domain.Payment{}, fmt.Errorf("domain.ToPaymentStatus: %w", err)
	}

	var (
		updated  domain.Payment
		previous domain.PaymentStatus
	)

	err = s.tx.InTx(ctx, func(repos port.Repositories) error {
		payment, err := repos.Payments.LockPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("repos.Payments.LockPayment: %w", err)
		}

		order, err := repos.Orders.GetOrder(ctx, payment.OrderID)
		if err != nil {
			return fmt.Errorf("repos.Orders.GetOrder: %w", err)
		}

		if err := authz.Authorize(p, order.OwnerID); err != nil {
			return fmt.Errorf("authz.Authorize: %w", err)
		}

		if err := payment.Status.ValidateTransition(next); err != nil {
			return err
		}

		// TODO: decide whether a refund should release stock and cancel the order, refunds currently change the payment only
		var paidAt *time.Time
		if next == domain.PaymentStatusCompleted {
			now := s.now().UTC()
			paidAt = &now
		}

		if err := repos.Payments.UpdatePaymentStatus(ctx, payment.ID, payment.Status, next, paidAt); err != nil {
			return fmt.Errorf("repos.Payments.UpdatePaymentStatus: %w", err)
		}

		updated, err = repos.Payments.GetPayment(ctx, payment.ID)
		if err != nil {
			return fmt.Errorf("repos.Payments.GetPayment: %w", err)
		}
		previous = payment.Status

		return nil
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("tx.InTx: %w", err)
	}

	logger.Info("payment_status_changed",
		zap.Stringer("payment_id", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Status)),
	)

	return updated, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, p domain.Principal, paymentID uuid.UUID) (_ domain.Payment, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCasePaymentGet, "GetPayment", attribute.String("payment.id", paymentID.String()))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Payment{}, err
	}

	repos := s.tx.Repositories()

	payment, err := repos.Payments.GetPayment(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("Payments.GetPayment: %w", err)
	}

	if err := s.authorizeOrderOwner(ctx, repos, p, payment.OrderID); err != nil {
		return domain.Payment{}, err
	}

	return payment, nil
}

func (s *PaymentService) GetPaymentByOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (_ domain.Payment, err error) {
	ctx, _, finish := s.obs.begin(ctx, useCasePaymentGetByOrder, "GetPaymentByOrder", attribute.String("order.id", orderID.String()))
	defer func() { finish(err) }()

	if err := authz.RequireAuthenticated(p); err != nil {
		return domain.Payment{}, err
	}

	repos := s.tx.Repositories()

	// ownership first, so a foreign order does not reveal whether it was paid
	if err := s.authorizeOrderOwner(ctx, repos, p, orderID); err != nil {
		return domain.Payment{}, err
	}

	payment, err := repos.Payments.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("Payments.GetPaymentByOrder: %w", err)
	}

	return payment, nil
}

func (s *PaymentService) authorizeOrderOwner(ctx context.Context, repos port.Repositories, p domain.Principal, orderID uuid.UUID) error {
	order, err := repos.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("Orders.GetOrder: %w", err)
	}

	if err := authz.Authorize(p, order.OwnerID); err != nil {
		return fmt.Errorf("authz.Authorize: %w", err)
	}

	return nil
}
