package money

import "errors"

// Common money package errors
var (
	// ErrInvalidAmount is returned when an amount is NaN or infinite.
	ErrInvalidAmount = errors.New("invalid amount float")

	// ErrAmountExceedsMaxSafeInt is returned when an amount exceeds the
	// maximum safe integer value in the smallest currency unit.
	ErrAmountExceedsMaxSafeInt = errors.New("amount exceeds maximum safe integer value")

	// ErrInvalidCurrency is returned when a currency code is not valid ISO 4217.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrMismatchedCurrencies is returned when performing operations on money
	// with different currencies.
	ErrMismatchedCurrencies = errors.New("mismatched currencies")
)
