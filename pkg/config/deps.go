package config

import (
	"log/slog"

	"github.com/solventhq/walletcore/pkg/cache"
	"github.com/solventhq/walletcore/pkg/eventbus"
	"github.com/solventhq/walletcore/pkg/opstate"
	"github.com/solventhq/walletcore/pkg/repository"
)

// Deps bundles the injected infrastructure dependencies for building
// services. Nothing here is an ambient singleton; tests substitute
// in-memory fakes.
type Deps struct {
	Uow              repository.UnitOfWork
	OpStateStore     opstate.Store
	IdempotencyCache cache.Cache
	BalanceCache     cache.Cache
	EventBus         eventbus.EventBus
	Logger           *slog.Logger
	Config           *App
}
