// Package wallet defines the wallet persistence contract.
package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
)

// CounterDeltas are increments to the wallet's lifetime reporting counters,
// applied in the same write as a balance change.
type CounterDeltas struct {
	Deposits    money.Amount
	Withdrawals money.Amount
	Fees        money.Amount
}

// BucketDeltas are per-bucket balance increments, positive for a credit and
// negative for a debit. A same-wallet transfer folds both sides into one
// BucketDeltas value so the row is written exactly once.
type BucketDeltas struct {
	Real   money.Amount
	Bonus  money.Amount
	Locked money.Amount
}

// Add accumulates a delta into the named bucket.
func (d *BucketDeltas) Add(bt wallet.BalanceType, delta money.Amount) error {
	switch bt {
	case wallet.BalanceReal:
		d.Real += delta
	case wallet.BalanceBonus:
		d.Bonus += delta
	case wallet.BalanceLocked:
		d.Locked += delta
	default:
		return wallet.ErrUnknownBalanceType
	}
	return nil
}

// IsZero reports whether no bucket changes.
func (d BucketDeltas) IsZero() bool {
	return d.Real == 0 && d.Bonus == 0 && d.Locked == 0
}

// BalanceChange is one conditional wallet update. ExpectedVersion guards
// against lost updates: the change only applies when the row still carries
// that version, and bumps it by one.
type BalanceChange struct {
	WalletID        uuid.UUID
	ExpectedVersion int64
	Deltas          BucketDeltas
	Counters        CounterDeltas
}

// Repository is the wallet store contract. Balance mutations happen only
// through ApplyBalanceChange, only inside the orchestrator's transaction.
type Repository interface {
	// Create inserts a new wallet. A uniqueness violation on
	// (tenant, user, currency) surfaces as domain.ErrAlreadyExists so the
	// get-or-create race loser can re-fetch.
	Create(ctx context.Context, w *wallet.Wallet) error

	// Get fetches a wallet by id.
	Get(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)

	// GetByUser fetches the wallet for a (tenant, user, currency) triple.
	GetByUser(
		ctx context.Context,
		tenantID, userID uuid.UUID,
		currency money.Code,
	) (*wallet.Wallet, error)

	// ApplyBalanceChange performs the conditional increment. Returns
	// domain.ErrConcurrentModification when the version guard matched zero
	// rows.
	ApplyBalanceChange(ctx context.Context, change BalanceChange) error

	// SetAllowNegative grants the wallet a negative-balance allowance with
	// the given credit limit. A no-op if already set.
	SetAllowNegative(ctx context.Context, id uuid.UUID, creditLimit money.Amount) error
}
