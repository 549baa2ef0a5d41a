// walletctl is the operator CLI: run migrations, sweep stuck operations,
// and inspect wallet balances without going through the HTTP surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/solventhq/walletcore/infra"
	"github.com/solventhq/walletcore/infra/initializer"
	infrarepository "github.com/solventhq/walletcore/infra/repository"
	"github.com/solventhq/walletcore/pkg/config"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/service/recovery"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fail("failed to load configuration: %v", err)
	}

	switch os.Args[1] {
	case "migrate":
		runMigrate(cfg)
	case "sweep":
		runSweep(cfg)
	case "balance":
		if len(os.Args) < 3 {
			fail("usage: walletctl balance <wallet_id> [bucket]")
		}
		bucket := walletdomain.BalanceReal
		if len(os.Args) > 3 {
			bucket = walletdomain.BalanceType(os.Args[3])
		}
		runBalance(cfg, os.Args[2], bucket)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: walletctl <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  migrate                        apply pending schema migrations")
	fmt.Println("  sweep                          recover stuck operation states once")
	fmt.Println("  balance <wallet_id> [bucket]   print one bucket balance")
}

func runMigrate(cfg *config.App) {
	if err := infra.RunMigrations(*cfg.DB, "file://migrations"); err != nil {
		fail("migration failed: %v", err)
	}
	color.Green("migrations applied")
}

func runSweep(cfg *config.App) {
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		fail("failed to initialize dependencies: %v", err)
	}
	sweeper := recovery.NewSweeper(
		deps.OpStateStore,
		cfg.OpState.SweepInterval,
		cfg.OpState.StuckAge,
		deps.Logger,
	)
	recovered, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		fail("sweep failed: %v", err)
	}
	if len(recovered) == 0 {
		color.Green("no stuck operations")
		return
	}
	color.Yellow("recovered %d stuck operation(s):", len(recovered))
	for _, id := range recovered {
		fmt.Printf("  %s\n", id)
	}
}

func runBalance(cfg *config.App, rawID string, bucket walletdomain.BalanceType) {
	walletID, err := uuid.Parse(rawID)
	if err != nil {
		fail("invalid wallet id: %v", err)
	}
	db, err := infra.NewDBConnection(*cfg.DB, cfg.Env)
	if err != nil {
		fail("failed to connect to database: %v", err)
	}
	svc := walletsvc.NewService(infrarepository.NewUoW(db), slog.Default())

	amount, err := svc.Balance(context.Background(), walletID, bucket)
	if err != nil {
		fail("failed to read balance: %v", err)
	}
	color.Cyan("wallet %s %s balance: %d", walletID, bucket, amount)
}

func fail(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}
