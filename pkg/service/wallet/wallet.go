// Package wallet provides the wallet store operations: race-tolerant
// get-or-create, balance reads with an advisory cache, and the lazy
// negative-balance grant for tenant system accounts.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/cache"
	"github.com/solventhq/walletcore/pkg/domain"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
	"github.com/solventhq/walletcore/pkg/repository"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

// Service implements the wallet store operations.
type Service struct {
	uow          repository.UnitOfWork
	balanceCache cache.Cache
	cachePrefix  string
	cacheTTL     time.Duration
	system       SystemAccountResolver
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBalanceCache enables the advisory balance read cache.
func WithBalanceCache(c cache.Cache, prefix string, ttl time.Duration) Option {
	return func(s *Service) {
		s.balanceCache = c
		s.cachePrefix = prefix
		s.cacheTTL = ttl
	}
}

// WithSystemAccounts sets the system-account resolver.
func WithSystemAccounts(r SystemAccountResolver) Option {
	return func(s *Service) { s.system = r }
}

// NewService creates a wallet service.
func NewService(uow repository.UnitOfWork, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetOrCreateParams identifies the wallet triple.
type GetOrCreateParams struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Currency money.Code
}

// GetOrCreate returns the wallet for the (tenant, user, currency) triple,
// creating it with zero balances on first reference. Two concurrent calls
// may both attempt creation; the loser detects the uniqueness violation and
// re-fetches rather than erroring. When the user is the tenant's system
// account, the wallet is granted allowNegative on first detection.
func (s *Service) GetOrCreate(
	ctx context.Context,
	p GetOrCreateParams,
) (*walletdomain.Wallet, error) {
	if p.Currency == "" {
		p.Currency = money.DefaultCode
	}
	if !p.Currency.IsValid() {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, money.ErrInvalidCurrency)
	}
	repo, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}

	w, err := repo.GetByUser(ctx, p.TenantID, p.UserID, p.Currency)
	switch {
	case err == nil:
		return s.ensureSystemAllowance(ctx, repo, w)
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	builder := walletdomain.New().
		WithTenantID(p.TenantID).
		WithUserID(p.UserID).
		WithCurrency(p.Currency)
	if s.isSystemAccount(ctx, p.TenantID, p.UserID) {
		builder = builder.WithAllowNegative(0)
	}
	w, err = builder.Build()
	if err != nil {
		return nil, err
	}

	if err := repo.Create(ctx, w); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the creation race, the other writer's row wins.
			return repo.GetByUser(ctx, p.TenantID, p.UserID, p.Currency)
		}
		return nil, err
	}
	s.logger.Info("wallet created",
		"walletID", w.ID, "tenantID", p.TenantID, "userID", p.UserID, "currency", p.Currency)
	return w, nil
}

// Get fetches a wallet by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*walletdomain.Wallet, error) {
	repo, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// Balance returns the amount held in one bucket, going through the advisory
// cache when one is configured. The cache is never authoritative for a
// balance decision; the orchestrator always validates against the store.
func (s *Service) Balance(
	ctx context.Context,
	walletID uuid.UUID,
	bt walletdomain.BalanceType,
) (money.Amount, error) {
	key := s.balanceKey(walletID, bt)
	if s.balanceCache != nil {
		if v, found, err := s.balanceCache.Get(ctx, key); err == nil && found {
			if amount, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				return amount, nil
			}
		}
	}

	w, err := s.Get(ctx, walletID)
	if err != nil {
		return 0, err
	}
	amount, err := w.Balance(bt)
	if err != nil {
		return 0, err
	}
	if s.balanceCache != nil {
		if err := s.balanceCache.Set(ctx, key, strconv.FormatInt(amount, 10), s.cacheTTL); err != nil {
			s.logger.Warn("balance cache set failed", "walletID", walletID, "error", err)
		}
	}
	return amount, nil
}

// InvalidateBalances drops cached balances for the given wallets.
// Best-effort: failures are logged, never raised.
func (s *Service) InvalidateBalances(ctx context.Context, walletIDs ...uuid.UUID) {
	if s.balanceCache == nil {
		return
	}
	for _, id := range walletIDs {
		pattern := s.cachePrefix + id.String() + ":*"
		if err := s.balanceCache.DeletePattern(ctx, pattern); err != nil {
			s.logger.Warn("balance cache invalidation failed", "walletID", id, "error", err)
		}
	}
}

func (s *Service) balanceKey(walletID uuid.UUID, bt walletdomain.BalanceType) string {
	return s.cachePrefix + walletID.String() + ":" + bt.String()
}

func (s *Service) isSystemAccount(ctx context.Context, tenantID, userID uuid.UUID) bool {
	if s.system == nil {
		return false
	}
	systemID, ok, err := s.system.SystemUserID(ctx, tenantID)
	if err != nil {
		s.logger.Warn("system account lookup failed", "tenantID", tenantID, "error", err)
		return false
	}
	return ok && systemID == userID
}

// ensureSystemAllowance grants allowNegative to an existing system-account
// wallet that does not carry it yet. Idempotent.
func (s *Service) ensureSystemAllowance(
	ctx context.Context,
	repo walletrepo.Repository,
	w *walletdomain.Wallet,
) (*walletdomain.Wallet, error) {
	if w.AllowNegative || !s.isSystemAccount(ctx, w.TenantID, w.UserID) {
		return w, nil
	}
	if err := repo.SetAllowNegative(ctx, w.ID, 0); err != nil {
		return nil, err
	}
	w.AllowNegative = true
	w.CreditLimit = 0
	s.logger.Info("system wallet granted negative balance", "walletID", w.ID)
	return w, nil
}
