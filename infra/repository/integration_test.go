package repository_test

// End-to-end exercise of the gorm layer against real postgres and redis,
// via testcontainers. Run with -short (or without docker) to skip.

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/solventhq/walletcore/infra"
	infracache "github.com/solventhq/walletcore/infra/cache"
	infraopstate "github.com/solventhq/walletcore/infra/opstate"
	infrarepository "github.com/solventhq/walletcore/infra/repository"
	"github.com/solventhq/walletcore/pkg/config"
	"github.com/solventhq/walletcore/pkg/domain"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	"github.com/solventhq/walletcore/pkg/money"
	"github.com/solventhq/walletcore/pkg/opstate"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
	transfersvc "github.com/solventhq/walletcore/pkg/service/transfer"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("walletcore"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func startRedis(t *testing.T, ctx context.Context) *redis.Client {
	t.Helper()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("could not start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTransferEngineIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipped in short mode")
	}
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	dbURL := startPostgres(t, ctx)
	redisClient := startRedis(t, ctx)

	dbCfg := config.DB{Url: dbURL}
	require.NoError(t, infra.RunMigrations(dbCfg, "file://../../migrations"))
	db, err := infra.NewDBConnection(dbCfg, "test")
	require.NoError(t, err)

	uow := infrarepository.NewUoW(db)
	opStore := infraopstate.NewRedisStore(redisClient, "test:op:", time.Minute, logger)
	idemCache := infracache.NewRedisCache(redisClient, "test:xref:", logger)

	wallets := walletsvc.NewService(uow, logger)
	transfers := transfersvc.NewService(config.Deps{
		Uow:              uow,
		OpStateStore:     opStore,
		IdempotencyCache: idemCache,
		Logger:           logger,
	}, wallets)

	tenantID, alice, bob := uuid.New(), uuid.New(), uuid.New()

	aliceWallet, err := wallets.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
		TenantID: tenantID, UserID: alice, Currency: money.USD,
	})
	require.NoError(t, err)

	// Fund the sender through the version-guarded conditional update.
	repo, err := uow.WalletRepository()
	require.NoError(t, err)
	topUp := walletrepo.BalanceChange{
		WalletID:        aliceWallet.ID,
		ExpectedVersion: aliceWallet.Version,
		Counters:        walletrepo.CounterDeltas{Deposits: 10000},
	}
	topUp.Deltas.Real = 10000
	require.NoError(t, repo.ApplyBalanceChange(ctx, topUp))

	t.Run("stale version is rejected", func(t *testing.T) {
		stale := walletrepo.BalanceChange{
			WalletID:        aliceWallet.ID,
			ExpectedVersion: aliceWallet.Version, // already bumped by the top-up
		}
		stale.Deltas.Real = 1
		assert.ErrorIs(t, repo.ApplyBalanceChange(ctx, stale), domain.ErrConcurrentModification)
	})

	var transferID uuid.UUID
	t.Run("direct transfer settles atomically", func(t *testing.T) {
		result, err := transfers.CreateTransferWithTransactions(ctx, transfersvc.CreateParams{
			TenantID:    tenantID,
			FromUserID:  alice,
			ToUserID:    bob,
			Amount:      4000,
			FeeAmount:   500,
			Currency:    money.USD,
			ExternalRef: "it-order-1",
		}, transfersvc.Opts{})
		require.NoError(t, err)
		transferID = result.Transfer.ID

		assert.Equal(t, transferdomain.StatusApproved, result.Transfer.Status)
		assert.Equal(t, money.Amount(6000), result.DebitTx.BalanceAfter)
		assert.Equal(t, money.Amount(3500), result.CreditTx.BalanceAfter)

		after, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(6000), after.RealBalance)
		assert.Equal(t, aliceWallet.Version+2, after.Version)

		state, found, err := opStore.GetState(ctx, transferID.String())
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, opstate.StatusCompleted, state.Status)
	})

	t.Run("replay deduplicates on the unique index", func(t *testing.T) {
		result, err := transfers.CreateTransferWithTransactions(ctx, transfersvc.CreateParams{
			TenantID:    tenantID,
			FromUserID:  alice,
			ToUserID:    bob,
			Amount:      4000,
			FeeAmount:   500,
			Currency:    money.USD,
			ExternalRef: "it-order-1",
		}, transfersvc.Opts{})
		require.NoError(t, err)
		assert.Equal(t, transferID, result.Transfer.ID)

		after, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(6000), after.RealBalance)
	})

	t.Run("insufficient balance rolls everything back", func(t *testing.T) {
		_, err := transfers.CreateTransferWithTransactions(ctx, transfersvc.CreateParams{
			TenantID:    tenantID,
			FromUserID:  alice,
			ToUserID:    bob,
			Amount:      1000000,
			Currency:    money.USD,
			ExternalRef: "it-order-2",
		}, transfersvc.Opts{})
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)

		after, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(6000), after.RealBalance)
	})

	t.Run("pending transfer approves later", func(t *testing.T) {
		result, err := transfers.CreateTransferWithTransactions(ctx, transfersvc.CreateParams{
			TenantID:     tenantID,
			FromUserID:   alice,
			ToUserID:     bob,
			Amount:       1000,
			Currency:     money.USD,
			ApprovalMode: transferdomain.ApprovalPending,
			ExternalRef:  "it-order-3",
		}, transfersvc.Opts{})
		require.NoError(t, err)
		require.Equal(t, transferdomain.StatusPending, result.Transfer.Status)

		before, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(6000), before.RealBalance)

		approved, err := transfers.Approve(ctx, result.Transfer.ID, transfersvc.Opts{})
		require.NoError(t, err)
		assert.Equal(t, transferdomain.StatusApproved, approved.Status)

		after, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(5000), after.RealBalance)
	})

	t.Run("concurrent debits race on the version guard", func(t *testing.T) {
		current, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)

		// Two writers debit against the same observed version; the row
		// update serializes them and the guard fails the loser.
		results := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				change := walletrepo.BalanceChange{
					WalletID:        aliceWallet.ID,
					ExpectedVersion: current.Version,
				}
				change.Deltas.Real = -100
				results <- repo.ApplyBalanceChange(ctx, change)
			}()
		}
		wg.Wait()
		close(results)

		var wins, losses int
		for werr := range results {
			if werr == nil {
				wins++
			} else {
				require.ErrorIs(t, werr, domain.ErrConcurrentModification)
				losses++
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, 1, losses)

		after, err := repo.Get(ctx, aliceWallet.ID)
		require.NoError(t, err)
		assert.Equal(t, current.RealBalance-100, after.RealBalance)
		assert.Equal(t, current.Version+1, after.Version)
	})

	t.Run("redis cache round trip", func(t *testing.T) {
		require.NoError(t, idemCache.Set(ctx, "ping", "1", time.Minute))
		v, found, err := idemCache.Get(ctx, "ping")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "1", v)
		require.NoError(t, idemCache.DeletePattern(ctx, "ping*"))
		_, found, err = idemCache.Get(ctx, "ping")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
