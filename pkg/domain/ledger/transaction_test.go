package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solventhq/walletcore/pkg/domain/ledger"
	"github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
)

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New().
		WithUserID(uuid.New()).
		WithTenantID(uuid.New()).
		Build()
	require.NoError(t, err)
	return w
}

func TestNewTransaction(t *testing.T) {
	w := testWallet(t)

	t.Run("credit stamps before/after snapshot", func(t *testing.T) {
		tx, err := ledger.NewTransaction(ledger.CreateParams{
			UserID:      w.UserID,
			TransferID:  uuid.New(),
			Amount:      500,
			Currency:    money.USD,
			Charge:      ledger.ChargeCredit,
			BalanceType: wallet.BalanceReal,
		}, w, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), tx.BalanceBefore)
		assert.Equal(t, int64(1500), tx.BalanceAfter)
		assert.Equal(t, ledger.StatusPending, tx.Status)
		assert.Equal(t, w.ID, tx.WalletID)
		assert.Equal(t, w.TenantID, tx.TenantID)
	})

	t.Run("debit decrements the snapshot", func(t *testing.T) {
		tx, err := ledger.NewTransaction(ledger.CreateParams{
			UserID:      w.UserID,
			TransferID:  uuid.New(),
			Amount:      300,
			Currency:    money.USD,
			Charge:      ledger.ChargeDebit,
			BalanceType: wallet.BalanceReal,
		}, w, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), tx.BalanceBefore)
		assert.Equal(t, int64(700), tx.BalanceAfter)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := ledger.NewTransaction(ledger.CreateParams{
			Charge: "sideways", BalanceType: wallet.BalanceReal, Amount: 1,
		}, w, 0)
		assert.Error(t, err)

		_, err = ledger.NewTransaction(ledger.CreateParams{
			Charge: ledger.ChargeCredit, BalanceType: "imaginary", Amount: 1,
		}, w, 0)
		assert.ErrorIs(t, err, wallet.ErrUnknownBalanceType)

		_, err = ledger.NewTransaction(ledger.CreateParams{
			Charge: ledger.ChargeCredit, BalanceType: wallet.BalanceReal, Amount: 0,
		}, w, 0)
		assert.Error(t, err)
	})
}

func TestTransitionTo(t *testing.T) {
	w := testWallet(t)
	tx, err := ledger.NewTransaction(ledger.CreateParams{
		UserID:      w.UserID,
		TransferID:  uuid.New(),
		Amount:      100,
		Currency:    money.USD,
		Charge:      ledger.ChargeCredit,
		BalanceType: wallet.BalanceReal,
	}, w, 0)
	require.NoError(t, err)

	require.NoError(t, tx.TransitionTo(ledger.StatusCompleted))
	assert.Equal(t, ledger.StatusCompleted, tx.Status)

	// Terminal entries never transition again.
	err = tx.TransitionTo(ledger.StatusFailed)
	assert.ErrorIs(t, err, ledger.ErrInvalidStatusTransition)
	err = tx.TransitionTo(ledger.StatusPending)
	assert.ErrorIs(t, err, ledger.ErrInvalidStatusTransition)
}
