package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type PaymentRepository interface {
	GetPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (domain.Payment, error)
	LockPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error)

	InsertPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)

	UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, from, to domain.PaymentStatus, paidAt *time.Time) error
}

type SettlementRequest struct {
	Order         domain.Order
	Amount        domain.Money
	Method        domain.PaymentMethod
	TransactionID string
}

// SettlementStrategy decides the initial status of a new payment.
type SettlementStrategy interface {
	Name() string
	Settle(ctx context.Context, req SettlementRequest) (domain.PaymentStatus, error)
}
