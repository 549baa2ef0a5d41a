package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/charmbracelet/log"

	"github.com/solventhq/walletcore/infra"
	"github.com/solventhq/walletcore/infra/initializer"
	"github.com/solventhq/walletcore/pkg/config"
	"github.com/solventhq/walletcore/pkg/domain/events"
	"github.com/solventhq/walletcore/pkg/service/recovery"
	transfersvc "github.com/solventhq/walletcore/pkg/service/transfer"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
	"github.com/solventhq/walletcore/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	if err := infra.RunMigrations(*cfg.DB, "file://migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	walletOpts := []walletsvc.Option{
		walletsvc.WithBalanceCache(deps.BalanceCache, cfg.BalanceCache.Prefix, cfg.BalanceCache.TTL),
	}
	if len(cfg.System.Accounts) > 0 {
		systemAccounts, err := walletsvc.ParseStaticSystemAccounts(cfg.System.Accounts)
		if err != nil {
			return fmt.Errorf("failed to parse system accounts: %w", err)
		}
		walletOpts = append(walletOpts, walletsvc.WithSystemAccounts(
			walletsvc.NewCachedSystemAccounts(systemAccounts, cfg.System.RefreshInterval)))
		logger.Info("system accounts configured", "tenants", len(systemAccounts))
	}
	walletSvc := walletsvc.NewService(deps.Uow, logger, walletOpts...)
	transferSvc := transfersvc.NewService(*deps, walletSvc)
	deps.EventBus.Register(events.WalletBalancesChanged{}.Type(), walletSvc.HandleBalancesChanged)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := recovery.NewSweeper(
		deps.OpStateStore,
		cfg.OpState.SweepInterval,
		cfg.OpState.StuckAge,
		logger,
	)
	go sweeper.Run(ctx)

	fiberApp := webapi.NewApp(cfg, walletSvc, transferSvc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return fiberApp.Shutdown()
	}
}
