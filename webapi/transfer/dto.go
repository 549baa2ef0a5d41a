package transfer

import (
	"encoding/json"
	"time"

	ledgerdomain "github.com/solventhq/walletcore/pkg/domain/ledger"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	"github.com/solventhq/walletcore/pkg/money"
	transfersvc "github.com/solventhq/walletcore/pkg/service/transfer"
)

//revive:disable

// CreateTransferRequest represents the request body for creating a transfer.
// Amounts are in the smallest currency unit.
type CreateTransferRequest struct {
	ToUserID     string          `json:"to_user_id" validate:"required,uuid4"`
	Amount       int64           `json:"amount" validate:"required,gt=0"`
	Currency     string          `json:"currency" validate:"omitempty,len=3,uppercase,alpha"`
	FeeAmount    int64           `json:"fee_amount" validate:"omitempty,gte=0"`
	Method       string          `json:"method" validate:"omitempty,oneof=standard bonus_conversion card_payment"`
	ApprovalMode string          `json:"approval_mode" validate:"omitempty,oneof=direct pending"`
	ExternalRef  string          `json:"external_ref" validate:"omitempty,max=128"`
	FromBucket   string          `json:"from_bucket" validate:"omitempty,oneof=real bonus locked"`
	ToBucket     string          `json:"to_bucket" validate:"omitempty,oneof=real bonus locked"`
	Extension    json.RawMessage `json:"extension" validate:"omitempty"`
}

// DeclineTransferRequest represents the request body for declining a transfer.
type DeclineTransferRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=256"`
}

// TransferDTO is the API response representation of a transfer.
// AmountDisplay renders the gross amount in major units, e.g. "40.00 USD".
type TransferDTO struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	FromUserID    string    `json:"from_user_id"`
	ToUserID      string    `json:"to_user_id"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display,omitempty"`
	FeeAmount     int64     `json:"fee_amount"`
	NetAmount     int64     `json:"net_amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	ApprovalMode  string    `json:"approval_mode"`
	Method        string    `json:"method"`
	ExternalRef   string    `json:"external_ref,omitempty"`
	DeclineReason string    `json:"decline_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// LedgerEntryDTO is the API response representation of one ledger entry.
type LedgerEntryDTO struct {
	ID            string `json:"id"`
	WalletID      string `json:"wallet_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Charge        string `json:"charge"`
	BalanceType   string `json:"balance_type"`
	Status        string `json:"status"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
}

// TransferResultDTO bundles the transfer with its two ledger entries.
type TransferResultDTO struct {
	Transfer TransferDTO     `json:"transfer"`
	DebitTx  *LedgerEntryDTO `json:"debit_tx,omitempty"`
	CreditTx *LedgerEntryDTO `json:"credit_tx,omitempty"`
}

func toTransferDTO(t *transferdomain.Transfer) TransferDTO {
	display := ""
	if m, err := money.NewFromSmallestUnit(t.Amount, t.Currency); err == nil {
		display = m.String()
	}
	return TransferDTO{
		ID:            t.ID.String(),
		TenantID:      t.TenantID.String(),
		FromUserID:    t.FromUserID.String(),
		ToUserID:      t.ToUserID.String(),
		Amount:        t.Amount,
		AmountDisplay: display,
		FeeAmount:     t.Meta.FeeAmount,
		NetAmount:     t.Meta.NetAmount,
		Currency:      string(t.Currency),
		Status:        string(t.Status),
		ApprovalMode:  string(t.ApprovalMode),
		Method:        string(t.Meta.Method),
		ExternalRef:   t.Meta.ExternalRef,
		DeclineReason: t.DeclineReason,
		CreatedAt:     t.CreatedAt,
	}
}

func toLedgerEntryDTO(tx *ledgerdomain.Transaction) *LedgerEntryDTO {
	if tx == nil {
		return nil
	}
	return &LedgerEntryDTO{
		ID:            tx.ID.String(),
		WalletID:      tx.WalletID.String(),
		Amount:        tx.Amount,
		Currency:      string(tx.Currency),
		Charge:        string(tx.Charge),
		BalanceType:   string(tx.BalanceType),
		Status:        string(tx.Status),
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
	}
}

func toResultDTO(r *transfersvc.Result) TransferResultDTO {
	return TransferResultDTO{
		Transfer: toTransferDTO(r.Transfer),
		DebitTx:  toLedgerEntryDTO(r.DebitTx),
		CreditTx: toLedgerEntryDTO(r.CreditTx),
	}
}
