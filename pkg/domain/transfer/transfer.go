// Package transfer defines the user-to-user funds movement aggregate.
//
// Invariants:
//   - Every transfer that reaches approved has exactly two ledger entries,
//     one debit and one credit, whose amounts balance: the debited amount
//     equals the credited net amount plus the fee.
//   - A transfer with an external reference is unique on
//     (tenant, externalRef); the database enforces this as the backstop.
//   - Status transitions: pending -> approved | failed, with canceled and
//     recovered as terminal variants. A transfer is never deleted.
package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
)

// Status is the transfer lifecycle state.
type Status string

// Transfer statuses
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	// StatusRecovered marks a transfer flagged by the crash-recovery sweep.
	// Monitoring-only terminal state; balances were never applied.
	StatusRecovered Status = "recovered"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// ApprovalMode selects the settlement path.
type ApprovalMode string

// Approval modes
const (
	// ApprovalDirect applies both wallet balance changes in the same atomic
	// write that creates the transfer.
	ApprovalDirect ApprovalMode = "direct"
	// ApprovalPending records the transfer and its entries but defers the
	// wallet balance changes to an explicit approve call.
	ApprovalPending ApprovalMode = "pending"
)

// ErrInvalidStatusTransition is returned when approve/decline is called on a
// transfer that is not pending.
var ErrInvalidStatusTransition = fmt.Errorf("invalid transfer status transition")

// Transfer moves funds between two wallets through two balanced ledger entries.
type Transfer struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID

	// Amount is the gross amount debited from the source wallet.
	Amount   money.Amount
	Currency money.Code

	Status       Status
	ApprovalMode ApprovalMode

	Meta Meta

	// DeclineReason is set when the transfer is declined or recovered.
	DeclineReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meta holds the transfer's bookkeeping: fee split, idempotency reference,
// and references to the child ledger entries and wallets.
type Meta struct {
	FeeAmount money.Amount `json:"feeAmount"`
	// NetAmount is the amount credited to the destination: Amount - FeeAmount.
	NetAmount   money.Amount `json:"netAmount"`
	Method      Method       `json:"method"`
	ExternalRef string       `json:"externalRef,omitempty"`

	DebitTxID    uuid.UUID `json:"debitTxId"`
	CreditTxID   uuid.UUID `json:"creditTxId"`
	FromWalletID uuid.UUID `json:"fromWalletId"`
	ToWalletID   uuid.UUID `json:"toWalletId"`

	FromBalanceType wallet.BalanceType `json:"fromBalanceType"`
	ToBalanceType   wallet.BalanceType `json:"toBalanceType"`

	// Extension carries the method-specific payload, if any.
	Extension Extension `json:"extension,omitempty"`
}

// CanTransitionTo reports whether the status change is legal.
func (t *Transfer) CanTransitionTo(next Status) bool {
	if t.Status != StatusPending {
		return false
	}
	switch next {
	case StatusApproved, StatusFailed, StatusCanceled, StatusRecovered:
		return true
	}
	return false
}

// TransitionTo applies a status transition out of pending.
func (t *Transfer) TransitionTo(next Status) error {
	if !t.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// DeriveExternalRef deterministically derives an idempotency reference for a
// transfer whose caller supplied none, so retries with identical parameters
// collapse onto one reference.
func DeriveExternalRef(
	tenantID, fromUserID, toUserID uuid.UUID,
	amount money.Amount,
	currency money.Code,
	method Method,
) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s", tenantID, fromUserID, toUserID, amount, currency, method)
	return "derived:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// DeriveRetryRef derives the successor to a derived reference already held
// by a failed transfer. Folding in the failed attempt's id keeps the
// reference deterministic: concurrent identical retries still collapse onto
// one key, while the failed attempt no longer blocks them.
func DeriveRetryRef(prev string, failedID uuid.UUID) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", prev, failedID)
	return "derived:" + hex.EncodeToString(h.Sum(nil))[:32]
}
