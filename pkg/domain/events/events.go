// Package events defines the post-commit domain events emitted by the
// transfer engine. Events are published outside the atomic boundary;
// handlers are best-effort collaborators (cache invalidation, webhooks).
package events

import (
	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/money"
)

// Event is the marker interface for all domain events.
type Event interface {
	Type() string
}

// TransferApproved is emitted after a transfer commits with approved status,
// either directly or through an explicit approve call.
type TransferApproved struct {
	TransferID   uuid.UUID
	TenantID     uuid.UUID
	FromUserID   uuid.UUID
	ToUserID     uuid.UUID
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       money.Amount
	FeeAmount    money.Amount
	Currency     money.Code
}

// Type implements Event.
func (TransferApproved) Type() string { return "TransferApproved" }

// TransferDeclined is emitted after a pending transfer is declined.
type TransferDeclined struct {
	TransferID uuid.UUID
	TenantID   uuid.UUID
	Reason     string
}

// Type implements Event.
func (TransferDeclined) Type() string { return "TransferDeclined" }

// TransferPending is emitted after a pending-mode transfer commits its
// reservation bookkeeping.
type TransferPending struct {
	TransferID uuid.UUID
	TenantID   uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     money.Amount
	Currency   money.Code
}

// Type implements Event.
func (TransferPending) Type() string { return "TransferPending" }

// WalletBalancesChanged is emitted whenever a committed write moved wallet
// balances. The cache invalidation handler subscribes to it.
type WalletBalancesChanged struct {
	TenantID  uuid.UUID
	WalletIDs []uuid.UUID
}

// Type implements Event.
func (WalletBalancesChanged) Type() string { return "WalletBalancesChanged" }
