package wallet_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solventhq/walletcore/pkg/domain"
	"github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
)

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New().
		WithUserID(uuid.New()).
		WithTenantID(uuid.New()).
		WithCurrency(money.USD).
		Build()
	require.NoError(t, err)
	return w
}

func TestBuilder(t *testing.T) {
	t.Run("builds an active wallet with zero balances and version 1", func(t *testing.T) {
		w := newWallet(t)
		assert.Equal(t, wallet.StatusActive, w.Status)
		assert.Equal(t, int64(1), w.Version)
		assert.Zero(t, w.RealBalance)
		assert.Zero(t, w.BonusBalance)
		assert.Zero(t, w.LockedBalance)
		assert.False(t, w.AllowNegative)
	})

	t.Run("requires user and tenant", func(t *testing.T) {
		_, err := wallet.New().WithTenantID(uuid.New()).Build()
		assert.Error(t, err)
		_, err = wallet.New().WithUserID(uuid.New()).Build()
		assert.Error(t, err)
	})

	t.Run("rejects invalid currency", func(t *testing.T) {
		_, err := wallet.New().
			WithUserID(uuid.New()).
			WithTenantID(uuid.New()).
			WithCurrency("nope").
			Build()
		assert.ErrorIs(t, err, money.ErrInvalidCurrency)
	})

	t.Run("allow negative sets the credit limit", func(t *testing.T) {
		w, err := wallet.New().
			WithUserID(uuid.New()).
			WithTenantID(uuid.New()).
			WithAllowNegative(5000).
			Build()
		require.NoError(t, err)
		assert.True(t, w.AllowNegative)
		assert.Equal(t, int64(5000), w.CreditLimit)
	})
}

func TestBalance(t *testing.T) {
	w := newWallet(t)
	w.RealBalance = 100
	w.BonusBalance = 50
	w.LockedBalance = 25

	for bt, want := range map[wallet.BalanceType]money.Amount{
		wallet.BalanceReal:   100,
		wallet.BalanceBonus:  50,
		wallet.BalanceLocked: 25,
	} {
		got, err := w.Balance(bt)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := w.Balance("imaginary")
	assert.ErrorIs(t, err, wallet.ErrUnknownBalanceType)
}

func TestCanDebit(t *testing.T) {
	t.Run("sufficient balance", func(t *testing.T) {
		w := newWallet(t)
		w.RealBalance = 100
		assert.NoError(t, w.CanDebit(wallet.BalanceReal, 100))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		w := newWallet(t)
		w.RealBalance = 100
		assert.ErrorIs(t, w.CanDebit(wallet.BalanceReal, 101), domain.ErrInsufficientBalance)
	})

	t.Run("allow negative unbounded", func(t *testing.T) {
		w := newWallet(t)
		w.AllowNegative = true
		assert.NoError(t, w.CanDebit(wallet.BalanceReal, 1_000_000))
	})

	t.Run("allow negative bounded by credit limit", func(t *testing.T) {
		w := newWallet(t)
		w.AllowNegative = true
		w.CreditLimit = 500
		assert.NoError(t, w.CanDebit(wallet.BalanceReal, 500))
		assert.ErrorIs(t, w.CanDebit(wallet.BalanceReal, 501), domain.ErrInsufficientBalance)
	})

	t.Run("unknown bucket", func(t *testing.T) {
		w := newWallet(t)
		assert.ErrorIs(t, w.CanDebit("imaginary", 1), wallet.ErrUnknownBalanceType)
	})
}

func TestIsActive(t *testing.T) {
	w := newWallet(t)
	assert.True(t, w.IsActive())
	w.Status = wallet.StatusFrozen
	assert.False(t, w.IsActive())
	w.Status = wallet.StatusClosed
	assert.False(t, w.IsActive())
}
