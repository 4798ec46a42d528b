package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"golang.org/x/text/currency"
)

// Stripe settles payments by creating and confirming a PaymentIntent.
type Stripe struct {
	client        *paymentintent.Client
	paymentMethod string
}

// NewStripe builds a Stripe strategy. A nil backend means the default Stripe API backend.
func NewStripe(secretKey, paymentMethod string, backend stripe.Backend) (*Stripe, error) {
	if secretKey == "" {
		return nil, errors.New("secretKey is empty")
	}

	if paymentMethod == "" {
		return nil, errors.New("paymentMethod is empty")
	}

	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}

	return &Stripe{
		client:        &paymentintent.Client{B: backend, Key: secretKey},
		paymentMethod: paymentMethod,
	}, nil
}

func (s *Stripe) Name() string {
	return "stripe"
}

func (s *Stripe) Settle(ctx context.Context, req port.SettlementRequest) (domain.PaymentStatus, error) {
	minor, err := minorUnits(req.Amount)
	if err != nil {
		return "", fmt.Errorf("minorUnits: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minor),
		Currency:      stripe.String(strings.ToLower(req.Amount.Currency.String())),
		PaymentMethod: stripe.String(s.paymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.TransactionID)
	params.AddMetadata("order_id", req.Order.ID.String())
	params.AddMetadata("order_number", req.Order.Number)
	params.AddMetadata("transaction_id", req.TransactionID)

	pi, err := s.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			// declined cards are a settlement outcome, not a failure of the call
			return domain.PaymentStatusFailed, nil
		}
		return "", fmt.Errorf("paymentintent.New: %w", err)
	}

	return mapIntentStatus(pi.Status), nil
}

func mapIntentStatus(status stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentStatusCompleted
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return domain.PaymentStatusFailed
	default:
		return domain.PaymentStatusPending
	}
}

// minorUnits converts an amount to the smallest currency unit, e.g. cents.
func minorUnits(m domain.Money) (int64, error) {
	scale, _ := currency.Standard.Rounding(m.Currency)

	shifted := m.Amount.Shift(int32(scale))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimals: %w", m, scale, domain.ErrInvalidRequest)
	}

	return shifted.IntPart(), nil
}
