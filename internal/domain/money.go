package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch %s != %s: %w", m.Currency, other.Currency, ErrInvalidRequest)
	}

	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency.String()
}

func ParseMoney(amount, isoCurrency string) (Money, error) {
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, ErrInvalidRequest)
	}

	parsedCurrency, err := currency.ParseISO(isoCurrency)
	if err != nil {
		return Money{}, fmt.Errorf("currency[%s] is not valid: %w", isoCurrency, ErrInvalidRequest)
	}

	return Money{Amount: parsedAmount, Currency: parsedCurrency}, nil
}
