// Package ledger defines the immutable ledger entry: a single credit or
// debit tied to one wallet and one transfer.
//
// Invariants:
//   - Entries are inserted only in balanced pairs, only by the transfer
//     orchestrator, inside the same atomic write as their parent transfer.
//   - Status transitions exactly once, from pending to completed or failed,
//     and never back. Nothing else is mutated after insert.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
)

// Charge is the direction of a ledger entry.
type Charge string

// Charge directions
const (
	ChargeCredit Charge = "credit"
	ChargeDebit  Charge = "debit"
)

// IsValid reports whether the charge direction is known.
func (c Charge) IsValid() bool {
	return c == ChargeCredit || c == ChargeDebit
}

// Status is the ledger entry state.
type Status string

// Ledger entry statuses
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrInvalidStatusTransition is returned when an entry is moved out of a
// terminal status, or into an unknown one.
var ErrInvalidStatusTransition = fmt.Errorf("invalid ledger status transition")

// Transaction is one immutable ledger entry.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	WalletID    uuid.UUID
	TenantID    uuid.UUID
	TransferID  uuid.UUID
	Amount      money.Amount
	Currency    money.Code
	Charge      Charge
	BalanceType wallet.BalanceType
	Status      Status

	// Balance snapshot of the wallet bucket immediately before and after
	// this entry, stamped for audit.
	BalanceBefore money.Amount
	BalanceAfter  money.Amount

	CreatedAt time.Time
}

// CanTransitionTo reports whether the status change is legal.
func (t *Transaction) CanTransitionTo(next Status) bool {
	if t.Status != StatusPending {
		return false
	}
	return next == StatusCompleted || next == StatusFailed
}

// TransitionTo applies the single permitted status transition.
func (t *Transaction) TransitionTo(next Status) error {
	if !t.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, t.Status, next)
	}
	t.Status = next
	return nil
}

// CreateParams carries everything needed to build a ledger entry.
type CreateParams struct {
	UserID      uuid.UUID
	TransferID  uuid.UUID
	Amount      money.Amount
	Currency    money.Code
	Charge      Charge
	BalanceType wallet.BalanceType
}

// NewTransaction builds (but does not persist) a ledger entry for the given
// wallet, stamping the before/after balance snapshot from the bucket balance
// the orchestrator read just before the entry.
func NewTransaction(p CreateParams, w *wallet.Wallet, currentBalance money.Amount) (*Transaction, error) {
	if !p.Charge.IsValid() {
		return nil, fmt.Errorf("invalid charge %q", p.Charge)
	}
	if !p.BalanceType.IsValid() {
		return nil, wallet.ErrUnknownBalanceType
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("ledger amount must be positive, got %d", p.Amount)
	}
	balance, err := money.NewFromSmallestUnit(currentBalance, p.Currency)
	if err != nil {
		return nil, err
	}
	delta, err := money.NewFromSmallestUnit(p.Amount, p.Currency)
	if err != nil {
		return nil, err
	}
	after, err := balance.Add(delta)
	if p.Charge == ChargeDebit {
		after, err = balance.Subtract(delta)
	}
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:            uuid.New(),
		UserID:        p.UserID,
		WalletID:      w.ID,
		TenantID:      w.TenantID,
		TransferID:    p.TransferID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Charge:        p.Charge,
		BalanceType:   p.BalanceType,
		Status:        StatusPending,
		BalanceBefore: currentBalance,
		BalanceAfter:  after.Amount(),
		CreatedAt:     time.Now().UTC(),
	}, nil
}
