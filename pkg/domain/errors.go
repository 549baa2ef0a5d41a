// Package domain holds errors and types shared by all aggregates.
package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a caller is not authorized to perform an action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInsufficientBalance is returned when a debit would take a wallet
	// below zero (or below its credit limit when negative balances are allowed).
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrCurrencyMismatch is returned when wallets or transfer parameters
	// disagree on currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrConcurrentModification is returned when a conditional wallet update
	// matched zero rows because another writer changed the wallet first.
	// Callers should retry the whole transfer attempt.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrWalletInactive is returned when a transfer touches a frozen or closed wallet.
	ErrWalletInactive = errors.New("wallet is not active")
)
