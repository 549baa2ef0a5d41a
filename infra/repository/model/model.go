// Package model holds the gorm table models for the three persisted
// collections. Domain entities are mapped in the repository packages;
// nothing outside infra imports these types.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the persisted balance record, unique per
// (tenant, user, currency).
type Wallet struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wallets_tenant_user_currency,priority:1"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wallets_tenant_user_currency,priority:2"`
	Currency string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_wallets_tenant_user_currency,priority:3"`

	RealBalance   int64 `gorm:"not null;default:0"`
	BonusBalance  int64 `gorm:"not null;default:0"`
	LockedBalance int64 `gorm:"not null;default:0"`

	AllowNegative bool  `gorm:"not null;default:false"`
	CreditLimit   int64 `gorm:"not null;default:0"`

	TotalDeposits    int64 `gorm:"not null;default:0"`
	TotalWithdrawals int64 `gorm:"not null;default:0"`
	TotalFees        int64 `gorm:"not null;default:0"`

	Status string `gorm:"type:varchar(16);not null;default:'active'"`

	// Version is the optimistic-concurrency guard, bumped by every
	// balance write.
	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Wallet model.
func (Wallet) TableName() string { return "wallets" }

// Transaction is one persisted ledger entry. Immutable after insert except
// for the single status transition.
type Transaction struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	WalletID   uuid.UUID `gorm:"type:uuid;not null;index"`
	TransferID uuid.UUID `gorm:"type:uuid;not null;index"`

	Amount      int64  `gorm:"not null"`
	Currency    string `gorm:"type:varchar(3);not null"`
	Charge      string `gorm:"type:varchar(8);not null"`
	BalanceType string `gorm:"type:varchar(8);not null"`
	Status      string `gorm:"type:varchar(16);not null;default:'pending'"`

	BalanceBefore int64 `gorm:"not null"`
	BalanceAfter  int64 `gorm:"not null"`

	CreatedAt time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// Transfer is the persisted transfer record. ExternalRef carries the
// idempotency key; its uniqueness per tenant is the schema-level backstop.
type Transfer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_transfers_tenant_external_ref,priority:1"`
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	ToUserID   uuid.UUID `gorm:"type:uuid;not null;index"`

	Amount   int64  `gorm:"not null"`
	Currency string `gorm:"type:varchar(3);not null"`

	Status       string `gorm:"type:varchar(16);not null;default:'pending'"`
	ApprovalMode string `gorm:"type:varchar(8);not null;default:'direct'"`

	ExternalRef string `gorm:"type:varchar(128);not null;uniqueIndex:idx_transfers_tenant_external_ref,priority:2"`

	Meta []byte `gorm:"type:jsonb"`

	DeclineReason string `gorm:"type:varchar(256)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Transfer model.
func (Transfer) TableName() string { return "transfers" }
