package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Amount        Money
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	PaidAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodPaypal       PaymentMethod = "PAYPAL"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

var validPaymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodCreditCard:   {},
	PaymentMethodDebitCard:    {},
	PaymentMethodPaypal:       {},
	PaymentMethodBankTransfer: {},
}

func ToPaymentMethod(s string) (PaymentMethod, error) {
	method := PaymentMethod(s)
	if _, ok := validPaymentMethods[method]; ok {
		return method, nil
	}

	return "", fmt.Errorf("invalid payment method[%s]: %w", s, ErrInvalidRequest)
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {PaymentStatusRefunded},
	PaymentStatusFailed:    nil,
	PaymentStatusRefunded:  nil,
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := paymentTransitions[status]; ok {
		return status, nil
	}

	return "", fmt.Errorf("invalid payment status[%s]: %w", s, ErrInvalidRequest)
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) ValidateTransition(next PaymentStatus) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("payment status %s -> %s: %w", s, next, ErrInvalidTransition)
	}
	return nil
}
