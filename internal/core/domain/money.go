package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount is returned when constructing Money with a negative amount.
	ErrNegativeAmount = errors.New("amount must be non-negative")
	// ErrCurrencyRequired is returned when constructing Money with a blank currency.
	ErrCurrencyRequired = errors.New("currency is required")
	// ErrCurrencyMismatch is returned for arithmetic between different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidQuantity is returned when constructing a non-positive Quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

// Money is an immutable monetary value: a non-negative decimal amount paired
// with a normalized uppercase currency code. Amounts are treated as fixed to
// 2 decimal places for currency arithmetic; there is no currency conversion,
// so operations between different currencies fail.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates and constructs a Money value.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Money{}, ErrCurrencyRequired
	}
	return Money{amount: amount, currency: currency}, nil
}

// Zero returns a zero-amount Money in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the normalized currency code.
func (m Money) Currency() string {
	return m.currency
}

// Add returns m + other. Fails when currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other, floored at zero. The floor is intentional:
// a receipt value can never go negative. Fails when currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	value := m.amount.Sub(other.amount)
	if value.IsNegative() {
		value = decimal.Zero
	}
	return Money{amount: value, currency: m.currency}, nil
}

// Equal reports whether two Money values have the same amount and currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.currency != other.currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// Quantity is a strictly positive decimal scalar.
type Quantity struct {
	value decimal.Decimal
}

// NewQuantity validates and constructs a Quantity.
func NewQuantity(value decimal.Decimal) (Quantity, error) {
	if !value.IsPositive() {
		return Quantity{}, ErrInvalidQuantity
	}
	return Quantity{value: value}, nil
}

// QuantityOne returns the default quantity of 1.
func QuantityOne() Quantity {
	return Quantity{value: decimal.NewFromInt(1)}
}

// Value returns the decimal value.
func (q Quantity) Value() decimal.Decimal {
	return q.value
}
