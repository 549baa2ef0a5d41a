// Package money provides the value object used for all balance math.
//
// Invariants:
//   - Amount is always stored in the smallest currency unit (e.g., cents for USD).
//   - Currency code must be valid ISO 4217 (3 uppercase letters).
//   - All arithmetic operations require matching currencies.
package money

import (
	"encoding/json"
	"fmt"
	"math"
)

// Amount represents a monetary amount as an integer in the
// smallest currency unit (e.g., cents for USD).
type Amount = int64

// Code represents a currency code (e.g., "USD", "EUR").
type Code string

// Common currency codes
const (
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
	JPY Code = "JPY" // Japanese Yen
	GBP Code = "GBP" // British Pound
)

// DefaultCode is the currency used when a caller supplies none.
const DefaultCode = USD

// IsValid checks if the currency code is three uppercase ASCII letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// String returns the string representation of the currency code.
func (c Code) String() string { return string(c) }

// Decimals returns the number of minor-unit digits for the code.
func (c Code) Decimals() int {
	if c == JPY {
		return 0
	}
	return 2
}

// Money represents a monetary value in a specific currency.
type Money struct {
	amount   Amount
	currency Code
}

// New creates a Money value from a major-unit float amount
// (e.g., dollars for USD), converting to the smallest unit.
func New(amount float64, currency Code) (Money, error) {
	if currency == "" {
		currency = DefaultCode
	}
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrInvalidAmount
	}
	scaled := amount * math.Pow10(currency.Decimals())
	if scaled > math.MaxInt64 || scaled < math.MinInt64 {
		return Money{}, ErrAmountExceedsMaxSafeInt
	}
	return Money{amount: Amount(math.Round(scaled)), currency: currency}, nil
}

// NewFromSmallestUnit creates a Money value already expressed in the
// smallest currency unit. This is the constructor used for DB hydration.
func NewFromSmallestUnit(amount int64, currency Code) (Money, error) {
	if currency == "" {
		currency = DefaultCode
	}
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency Code) Money {
	if currency == "" {
		currency = DefaultCode
	}
	return Money{amount: 0, currency: currency}
}

// Must creates a Money value and panics on invalid input. Test helper.
func Must(amount float64, currency Code) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(fmt.Sprintf("money.Must(%v, %v): %v", amount, currency, err))
	}
	return m
}

// Amount returns the amount in the smallest currency unit.
func (m Money) Amount() Amount { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Code { return m.currency }

// AmountFloat returns the amount in the major currency unit.
func (m Money) AmountFloat() float64 {
	return float64(m.amount) / math.Pow10(m.currency.Decimals())
}

// IsSameCurrency reports whether both values share a currency.
func (m Money) IsSameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Add returns the sum of two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract returns the difference of two amounts of the same currency.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Negate returns the amount with its sign flipped.
func (m Money) Negate() Money {
	return Money{amount: -m.amount, currency: m.currency}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount > 0 }

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// GreaterThan reports whether m exceeds other. Both must share a currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.IsSameCurrency(other) {
		return false, ErrMismatchedCurrencies
	}
	return m.amount > other.amount, nil
}

// String renders the amount with its currency, e.g. "12.50 USD".
func (m Money) String() string {
	return fmt.Sprintf("%.*f %s", m.currency.Decimals(), m.AmountFloat(), m.currency)
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":   m.amount,
		"currency": m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux struct {
		Amount   int64 `json:"amount"`
		Currency Code  `json:"currency"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if !aux.Currency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, aux.Currency)
	}
	m.amount = aux.Amount
	m.currency = aux.Currency
	return nil
}
