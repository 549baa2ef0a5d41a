package wallet_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	infracache "github.com/solventhq/walletcore/infra/cache"
	"github.com/solventhq/walletcore/internal/fixtures/mocks"
	"github.com/solventhq/walletcore/pkg/domain"
	"github.com/solventhq/walletcore/pkg/domain/events"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	t.Run("returns the existing wallet", func(t *testing.T) {
		repo := mocks.NewMockWalletRepository(t)
		existing := &walletdomain.Wallet{
			ID: uuid.New(), TenantID: tenantID, UserID: userID,
			Currency: money.USD, Status: walletdomain.StatusActive, Version: 1,
		}
		repo.On("GetByUser", ctx, tenantID, userID, money.USD).Return(existing, nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard())
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID, Currency: money.USD,
		})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, w.ID)
	})

	t.Run("creates on first reference", func(t *testing.T) {
		repo := mocks.NewMockWalletRepository(t)
		repo.On("GetByUser", ctx, tenantID, userID, money.USD).
			Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*wallet.Wallet")).Return(nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard())
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID, Currency: money.USD,
		})
		require.NoError(t, err)
		assert.Equal(t, tenantID, w.TenantID)
		assert.Equal(t, userID, w.UserID)
		assert.Equal(t, int64(1), w.Version)
		assert.Zero(t, w.RealBalance)
		assert.False(t, w.AllowNegative)
	})

	t.Run("defaults the currency", func(t *testing.T) {
		repo := mocks.NewMockWalletRepository(t)
		repo.On("GetByUser", ctx, tenantID, userID, money.DefaultCode).
			Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*wallet.Wallet")).Return(nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard())
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID,
		})
		require.NoError(t, err)
		assert.Equal(t, money.DefaultCode, w.Currency)
	})

	t.Run("rejects an unknown currency", func(t *testing.T) {
		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{}, discard())
		_, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID, Currency: "DOGE",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("losing the creation race re-fetches the winner", func(t *testing.T) {
		winner := &walletdomain.Wallet{
			ID: uuid.New(), TenantID: tenantID, UserID: userID,
			Currency: money.USD, Status: walletdomain.StatusActive, Version: 1,
		}
		repo := mocks.NewMockWalletRepository(t)
		repo.On("GetByUser", ctx, tenantID, userID, money.USD).
			Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*wallet.Wallet")).
			Return(domain.ErrAlreadyExists).Once()
		repo.On("GetByUser", ctx, tenantID, userID, money.USD).
			Return(winner, nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard())
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID, Currency: money.USD,
		})
		require.NoError(t, err)
		assert.Equal(t, winner.ID, w.ID)
	})

	t.Run("propagates store failures", func(t *testing.T) {
		repo := mocks.NewMockWalletRepository(t)
		boom := errors.New("connection reset")
		repo.On("GetByUser", ctx, tenantID, userID, money.USD).Return(nil, boom).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard())
		_, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID, Currency: money.USD,
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetOrCreateSystemAccount(t *testing.T) {
	ctx := context.Background()
	tenantID, houseID := uuid.New(), uuid.New()
	resolver := walletsvc.StaticSystemAccounts{tenantID: houseID}

	t.Run("new system wallet is created with allowNegative", func(t *testing.T) {
		repo := mocks.NewMockWalletRepository(t)
		repo.On("GetByUser", ctx, tenantID, houseID, money.USD).
			Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(w *walletdomain.Wallet) bool {
			return w.AllowNegative
		})).Return(nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard(),
			walletsvc.WithSystemAccounts(resolver))
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: houseID, Currency: money.USD,
		})
		require.NoError(t, err)
		assert.True(t, w.AllowNegative)
	})

	t.Run("existing system wallet is granted lazily", func(t *testing.T) {
		existing := &walletdomain.Wallet{
			ID: uuid.New(), TenantID: tenantID, UserID: houseID,
			Currency: money.USD, Status: walletdomain.StatusActive, Version: 1,
		}
		repo := mocks.NewMockWalletRepository(t)
		repo.On("GetByUser", ctx, tenantID, houseID, money.USD).Return(existing, nil).Once()
		repo.On("SetAllowNegative", ctx, existing.ID, money.Amount(0)).Return(nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard(),
			walletsvc.WithSystemAccounts(resolver))
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: houseID, Currency: money.USD,
		})
		require.NoError(t, err)
		assert.True(t, w.AllowNegative)
	})

	t.Run("ordinary users get no grant", func(t *testing.T) {
		userID := uuid.New()
		existing := &walletdomain.Wallet{
			ID: uuid.New(), TenantID: tenantID, UserID: userID,
			Currency: money.USD, Status: walletdomain.StatusActive, Version: 1,
		}
		repo := mocks.NewMockWalletRepository(t)
		repo.On("GetByUser", ctx, tenantID, userID, money.USD).Return(existing, nil).Once()

		svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard(),
			walletsvc.WithSystemAccounts(resolver))
		w, err := svc.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
			TenantID: tenantID, UserID: userID, Currency: money.USD,
		})
		require.NoError(t, err)
		assert.False(t, w.AllowNegative)
	})
}

func TestBalanceCacheAside(t *testing.T) {
	ctx := context.Background()
	w := &walletdomain.Wallet{
		ID: uuid.New(), TenantID: uuid.New(), UserID: uuid.New(),
		Currency: money.USD, Status: walletdomain.StatusActive,
		RealBalance: 7500, Version: 1,
	}

	repo := mocks.NewMockWalletRepository(t)
	// One store read; the second call must be served from the cache.
	repo.On("Get", ctx, w.ID).Return(w, nil).Once()

	svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard(),
		walletsvc.WithBalanceCache(infracache.NewMemoryCache(), "balance:", time.Minute))

	for range 2 {
		amount, err := svc.Balance(ctx, w.ID, walletdomain.BalanceReal)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(7500), amount)
	}
}

func TestInvalidateBalances(t *testing.T) {
	ctx := context.Background()
	w := &walletdomain.Wallet{
		ID: uuid.New(), TenantID: uuid.New(), UserID: uuid.New(),
		Currency: money.USD, Status: walletdomain.StatusActive,
		RealBalance: 7500, Version: 1,
	}

	repo := mocks.NewMockWalletRepository(t)
	repo.On("Get", ctx, w.ID).Return(w, nil).Twice()

	svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard(),
		walletsvc.WithBalanceCache(infracache.NewMemoryCache(), "balance:", time.Minute))

	_, err := svc.Balance(ctx, w.ID, walletdomain.BalanceReal)
	require.NoError(t, err)

	// Invalidation forces the next read back to the store. The event-bus
	// handler is the production path for this.
	require.NoError(t, svc.HandleBalancesChanged(ctx, events.WalletBalancesChanged{
		TenantID:  w.TenantID,
		WalletIDs: []uuid.UUID{w.ID},
	}))

	_, err = svc.Balance(ctx, w.ID, walletdomain.BalanceReal)
	require.NoError(t, err)
}

func TestBalanceWithoutCache(t *testing.T) {
	ctx := context.Background()
	w := &walletdomain.Wallet{
		ID: uuid.New(), Status: walletdomain.StatusActive,
		Currency: money.USD, BonusBalance: 300, Version: 1,
	}
	repo := mocks.NewMockWalletRepository(t)
	repo.On("Get", ctx, w.ID).Return(w, nil).Once()

	svc := walletsvc.NewService(&mocks.FakeUnitOfWork{Wallets: repo}, discard())
	amount, err := svc.Balance(ctx, w.ID, walletdomain.BalanceBonus)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(300), amount)

	t.Run("unknown bucket", func(t *testing.T) {
		repo.On("Get", ctx, w.ID).Return(w, nil).Once()
		_, err := svc.Balance(ctx, w.ID, "imaginary")
		assert.ErrorIs(t, err, walletdomain.ErrUnknownBalanceType)
	})
}

func TestCachedSystemAccounts(t *testing.T) {
	ctx := context.Background()
	tenantID, houseID := uuid.New(), uuid.New()

	t.Run("caches within the refresh interval", func(t *testing.T) {
		inner := &countingResolver{id: houseID, ok: true}
		cached := walletsvc.NewCachedSystemAccounts(inner, time.Hour)

		for range 3 {
			id, ok, err := cached.SystemUserID(ctx, tenantID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, houseID, id)
		}
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("serves stale on lookup failure", func(t *testing.T) {
		inner := &countingResolver{id: houseID, ok: true}
		cached := walletsvc.NewCachedSystemAccounts(inner, 0)

		_, _, err := cached.SystemUserID(ctx, tenantID)
		require.NoError(t, err)

		inner.err = errors.New("lookup down")
		id, ok, err := cached.SystemUserID(ctx, tenantID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, houseID, id)
	})

	t.Run("fails when no entry exists to fall back on", func(t *testing.T) {
		inner := &countingResolver{err: errors.New("lookup down")}
		cached := walletsvc.NewCachedSystemAccounts(inner, time.Hour)

		_, _, err := cached.SystemUserID(ctx, uuid.New())
		assert.Error(t, err)
	})
}

type countingResolver struct {
	id    uuid.UUID
	ok    bool
	err   error
	calls int
}

func (r *countingResolver) SystemUserID(context.Context, uuid.UUID) (uuid.UUID, bool, error) {
	r.calls++
	if r.err != nil {
		return uuid.Nil, false, r.err
	}
	return r.id, r.ok, nil
}

func TestParseStaticSystemAccounts(t *testing.T) {
	tenantID, houseID := uuid.New(), uuid.New()

	t.Run("builds the tenant mapping", func(t *testing.T) {
		accounts, err := walletsvc.ParseStaticSystemAccounts(map[string]string{
			tenantID.String(): houseID.String(),
		})
		require.NoError(t, err)

		id, ok, err := accounts.SystemUserID(context.Background(), tenantID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, houseID, id)

		_, ok, err = accounts.SystemUserID(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects a malformed tenant id", func(t *testing.T) {
		_, err := walletsvc.ParseStaticSystemAccounts(map[string]string{
			"not-a-uuid": houseID.String(),
		})
		assert.Error(t, err)
	})

	t.Run("rejects a malformed user id", func(t *testing.T) {
		_, err := walletsvc.ParseStaticSystemAccounts(map[string]string{
			tenantID.String(): "house",
		})
		assert.Error(t, err)
	})
}
