// Package wallet defines the balance-bearing aggregate: one wallet per
// (user, currency, tenant) triple, with three independently incrementable
// balance buckets.
//
// Invariants:
//   - Balance buckets are only mutated via atomic increments paired with a
//     ledger transaction justifying the change.
//   - A wallet is never deleted, only frozen or closed.
//   - Version is a monotonic counter bumped by every balance write; it is
//     the guard for conditional (optimistic) updates.
package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain"
	"github.com/solventhq/walletcore/pkg/money"
)

// BalanceType selects which of a wallet's three buckets a credit or debit affects.
type BalanceType string

// Balance buckets
const (
	BalanceReal   BalanceType = "real"
	BalanceBonus  BalanceType = "bonus"
	BalanceLocked BalanceType = "locked"
)

// IsValid reports whether the balance type is one of the known buckets.
func (b BalanceType) IsValid() bool {
	switch b {
	case BalanceReal, BalanceBonus, BalanceLocked:
		return true
	}
	return false
}

// String returns the balance type as a string.
func (b BalanceType) String() string { return string(b) }

// Status is the wallet lifecycle state.
type Status string

// Wallet statuses
const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
	StatusClosed Status = "closed"
)

// ErrUnknownBalanceType is returned when a caller names a bucket that does not exist.
var ErrUnknownBalanceType = errors.New("unknown balance type")

// Wallet is the per-(user, currency, tenant) balance record.
type Wallet struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	TenantID uuid.UUID
	Currency money.Code

	RealBalance   money.Amount
	BonusBalance  money.Amount
	LockedBalance money.Amount

	// AllowNegative permits debits below zero, optionally bounded by
	// CreditLimit (0 means unbounded). The tenant's system account is
	// granted this lazily on first use.
	AllowNegative bool
	CreditLimit   money.Amount

	// Lifetime counters, reporting only. Never used for balance decisions.
	TotalDeposits    money.Amount
	TotalWithdrawals money.Amount
	TotalFees        money.Amount

	Status  Status
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance returns the amount held in the given bucket.
func (w *Wallet) Balance(bt BalanceType) (money.Amount, error) {
	switch bt {
	case BalanceReal:
		return w.RealBalance, nil
	case BalanceBonus:
		return w.BonusBalance, nil
	case BalanceLocked:
		return w.LockedBalance, nil
	}
	return 0, ErrUnknownBalanceType
}

// IsActive reports whether the wallet accepts transfers.
func (w *Wallet) IsActive() bool { return w.Status == StatusActive }

// CanDebit checks whether debiting amount from the given bucket is allowed.
// Returns domain.ErrInsufficientBalance when the post-debit balance would
// fall below zero (or below -CreditLimit for negative-allowed wallets).
func (w *Wallet) CanDebit(bt BalanceType, amount money.Amount) error {
	balance, err := w.Balance(bt)
	if err != nil {
		return err
	}
	after := balance - amount
	if after >= 0 {
		return nil
	}
	if !w.AllowNegative {
		return domain.ErrInsufficientBalance
	}
	if w.CreditLimit > 0 && after < -w.CreditLimit {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Builder provides a fluent API for constructing Wallet instances.
type Builder struct {
	id            uuid.UUID
	userID        uuid.UUID
	tenantID      uuid.UUID
	currency      money.Code
	allowNegative bool
	creditLimit   money.Amount
	status        Status
	createdAt     time.Time
}

// New creates a Builder with a fresh UUID, the default currency and
// an active status.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		currency:  money.DefaultCode,
		status:    StatusActive,
		createdAt: time.Now().UTC(),
	}
}

// WithID sets the wallet id.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithUserID sets the owning user. Mandatory.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

// WithTenantID sets the owning tenant. Mandatory.
func (b *Builder) WithTenantID(tenantID uuid.UUID) *Builder {
	b.tenantID = tenantID
	return b
}

// WithCurrency sets the wallet currency.
func (b *Builder) WithCurrency(c money.Code) *Builder {
	b.currency = c
	return b
}

// WithAllowNegative marks the wallet as allowed to go below zero,
// bounded by creditLimit (0 = unbounded).
func (b *Builder) WithAllowNegative(creditLimit money.Amount) *Builder {
	b.allowNegative = true
	b.creditLimit = creditLimit
	return b
}

// Build validates invariants and returns the wallet with zero balances.
func (b *Builder) Build() (*Wallet, error) {
	if !b.currency.IsValid() {
		return nil, money.ErrInvalidCurrency
	}
	if b.userID == uuid.Nil {
		return nil, errors.New("userID is required")
	}
	if b.tenantID == uuid.Nil {
		return nil, errors.New("tenantID is required")
	}
	return &Wallet{
		ID:            b.id,
		UserID:        b.userID,
		TenantID:      b.tenantID,
		Currency:      b.currency,
		AllowNegative: b.allowNegative,
		CreditLimit:   b.creditLimit,
		Status:        b.status,
		Version:       1,
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.createdAt,
	}, nil
}
