package wallet

import (
	"time"

	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
)

//revive:disable

// WalletDTO is the API response representation of a wallet.
type WalletDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Currency      string    `json:"currency"`
	RealBalance   int64     `json:"real_balance"`
	BonusBalance  int64     `json:"bonus_balance"`
	LockedBalance int64     `json:"locked_balance"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// BalanceDTO is the API response representation of one bucket balance.
// AmountDisplay renders the amount in major units, e.g. "25.00 USD".
type BalanceDTO struct {
	WalletID      string `json:"wallet_id"`
	Bucket        string `json:"bucket"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display,omitempty"`
	Currency      string `json:"currency"`
}

func toBalanceDTO(
	w *walletdomain.Wallet,
	bucket walletdomain.BalanceType,
	amount money.Amount,
) BalanceDTO {
	dto := BalanceDTO{
		WalletID: w.ID.String(),
		Bucket:   string(bucket),
		Amount:   amount,
		Currency: string(w.Currency),
	}
	if m, err := money.NewFromSmallestUnit(amount, w.Currency); err == nil {
		dto.AmountDisplay = m.String()
	}
	return dto
}

func toWalletDTO(w *walletdomain.Wallet) WalletDTO {
	return WalletDTO{
		ID:            w.ID.String(),
		UserID:        w.UserID.String(),
		Currency:      string(w.Currency),
		RealBalance:   w.RealBalance,
		BonusBalance:  w.BonusBalance,
		LockedBalance: w.LockedBalance,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
	}
}
