// Package transfer implements the transfer orchestrator: the protocol that
// validates balances, opens one atomic write for the transfer record, its
// two ledger entries and both wallet updates, and resolves pending
// transfers through approve/decline.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/cache"
	"github.com/solventhq/walletcore/pkg/config"
	"github.com/solventhq/walletcore/pkg/domain"
	"github.com/solventhq/walletcore/pkg/domain/events"
	"github.com/solventhq/walletcore/pkg/domain/ledger"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/eventbus"
	"github.com/solventhq/walletcore/pkg/money"
	"github.com/solventhq/walletcore/pkg/opstate"
	"github.com/solventhq/walletcore/pkg/repository"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
)

// Service orchestrates transfers. All dependencies are injected; tests
// substitute in-memory fakes.
type Service struct {
	uow      repository.UnitOfWork
	wallets  *walletsvc.Service
	opStates opstate.Store
	idem     cache.Cache
	bus      eventbus.EventBus
	logger   *slog.Logger

	idemPrefix    string
	idemTTL       time.Duration
	inProgressTTL time.Duration
	feePercent    float64
}

// NewService creates a transfer orchestrator from the injected dependencies.
func NewService(deps config.Deps, wallets *walletsvc.Service) *Service {
	s := &Service{
		uow:           deps.Uow,
		wallets:       wallets,
		opStates:      deps.OpStateStore,
		idem:          deps.IdempotencyCache,
		bus:           deps.EventBus,
		logger:        deps.Logger,
		idemPrefix:    "xref:",
		idemTTL:       10 * time.Minute,
		inProgressTTL: opstate.InProgressTTL,
	}
	if cfg := deps.Config; cfg != nil {
		if cfg.Idempotency != nil {
			s.idemPrefix = cfg.Idempotency.Prefix
			s.idemTTL = cfg.Idempotency.CacheTTL
		}
		if cfg.OpState != nil {
			s.inProgressTTL = cfg.OpState.InProgressTTL
		}
		if cfg.Fee != nil {
			s.feePercent = cfg.Fee.ServiceFeePercentage
		}
	}
	return s
}

// CreateParams are the inputs of CreateTransferWithTransactions.
type CreateParams struct {
	TenantID   uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID

	// Amount is the gross amount, in the smallest currency unit. Must be
	// positive.
	Amount   money.Amount
	Currency money.Code

	// FeeAmount is the explicit fee. When zero, the configured service fee
	// percentage applies.
	FeeAmount money.Amount

	Method       transferdomain.Method
	ApprovalMode transferdomain.ApprovalMode

	// ExternalRef is the caller-supplied idempotency key. When empty, one
	// is deterministically derived from the parameters.
	ExternalRef string

	// FromBalanceType / ToBalanceType override the buckets implied by the
	// method.
	FromBalanceType walletdomain.BalanceType
	ToBalanceType   walletdomain.BalanceType

	// Extension is the method-specific meta payload, if any.
	Extension transferdomain.Extension

	// derivedRef records that ExternalRef was derived rather than supplied;
	// a failed transfer then does not consume the reference.
	derivedRef bool
}

// Opts modify a single orchestrator call.
type Opts struct {
	// Session, when set, composes this call into the caller's transaction.
	// The orchestrator then skips its own state tracking and transaction
	// lifecycle and defers both to the caller.
	Session repository.Session
}

// Result is the outcome of a created transfer.
type Result struct {
	Transfer *transferdomain.Transfer
	DebitTx  *ledger.Transaction
	CreditTx *ledger.Transaction
}

// errDuplicateRef aborts the atomic write when the uniqueness constraint on
// (tenant, externalRef) fires; the orchestrator resolves it by re-reading
// the committed transfer.
var errDuplicateRef = errors.New("duplicate external reference")

// CreateTransferWithTransactions is the primary entry point. It validates
// the parameters, deduplicates on the external reference, and performs the
// atomic write described in the package comment. Balance changes apply
// immediately in direct mode; in pending mode only the reservation
// bookkeeping is recorded, to be applied by Approve.
func (s *Service) CreateTransferWithTransactions(
	ctx context.Context,
	p CreateParams,
	opts Opts,
) (*Result, error) {
	if err := s.normalize(&p); err != nil {
		return nil, err
	}

	// Idempotency guard, fast path then authoritative query.
	existing, err := s.findExisting(ctx, p.TenantID, p.ExternalRef)
	if err != nil {
		return nil, err
	}
	// A failed transfer does not consume a derived reference: salt it with
	// the failed attempt's id so an identical retry proceeds. A
	// caller-supplied reference stays consumed, whatever the outcome.
	for existing != nil && p.derivedRef && existing.Transfer.Status == transferdomain.StatusFailed {
		p.ExternalRef = transferdomain.DeriveRetryRef(p.ExternalRef, existing.Transfer.ID)
		if existing, err = s.findExisting(ctx, p.TenantID, p.ExternalRef); err != nil {
			return nil, err
		}
	}
	logger := s.logger.With(
		"tenantID", p.TenantID,
		"fromUserID", p.FromUserID,
		"toUserID", p.ToUserID,
		"amount", p.Amount,
		"currency", p.Currency,
		"externalRef", p.ExternalRef,
	)
	if existing != nil {
		logger.Info("transfer deduplicated on external reference", "transferID", existing.Transfer.ID)
		return existing, nil
	}

	// Precondition reads happen before the atomic write opens: resolve or
	// create both wallets, then validate status, currency and balance.
	fromWallet, toWallet, err := s.resolveWallets(ctx, p)
	if err != nil {
		return nil, err
	}

	split := transferdomain.SplitFee(p.Amount, p.FeeAmount)
	if p.FeeAmount == 0 && s.feePercent > 0 && p.Method == transferdomain.MethodStandard {
		split = transferdomain.SplitFeePercent(p.Amount, s.feePercent)
	}

	if err := s.validateWallets(p, fromWallet, toWallet, split); err != nil {
		return nil, err
	}

	transferID := uuid.New()

	if opts.Session != nil {
		// Composed call: the caller owns the transaction and its recovery
		// tracking. A duplicate reference surfaces as the stable domain
		// error; resolution belongs to the caller.
		result, werr := s.performAtomicWrite(ctx, opts.Session, transferID, p, split, fromWallet, toWallet)
		if errors.Is(werr, errDuplicateRef) {
			return nil, fmt.Errorf("%w: external reference %q", domain.ErrAlreadyExists, p.ExternalRef)
		}
		return result, werr
	}

	s.trackStart(ctx, transferID)

	var result *Result
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		var werr error
		result, werr = s.performAtomicWrite(ctx, uow, transferID, p, split, fromWallet, toWallet)
		return werr
	})
	s.heartbeat(ctx, transferID)

	if err != nil {
		if errors.Is(err, errDuplicateRef) {
			// Raced another writer on the uniqueness constraint; the
			// committed transfer is the result.
			s.trackStatus(ctx, transferID, opstate.StatusCompleted, "resolved duplicate external reference")
			existing, ferr := s.findExisting(ctx, p.TenantID, p.ExternalRef)
			if ferr != nil {
				return nil, ferr
			}
			if existing == nil {
				return nil, fmt.Errorf("duplicate external reference %q vanished", p.ExternalRef)
			}
			logger.Info("transfer race resolved to existing record", "transferID", existing.Transfer.ID)
			return existing, nil
		}
		s.trackStatus(ctx, transferID, opstate.StatusFailed, err.Error())
		logger.Error("transfer failed", "transferID", transferID, "error", err)
		return nil, err
	}

	s.trackStatus(ctx, transferID, opstate.StatusCompleted, "")
	s.cacheRef(ctx, p.TenantID, p.ExternalRef, transferID)
	s.publishCreateEvents(ctx, result)
	logger.Info("transfer committed",
		"transferID", transferID, "status", result.Transfer.Status)
	return result, nil
}

// normalize validates parameters and fills derived defaults. Validation
// errors are deterministic and reported before any write.
func (s *Service) normalize(p *CreateParams) error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if p.FeeAmount < 0 || p.FeeAmount >= p.Amount {
		return fmt.Errorf("%w: fee must be non-negative and below the amount", domain.ErrValidation)
	}
	if p.TenantID == uuid.Nil || p.FromUserID == uuid.Nil || p.ToUserID == uuid.Nil {
		return fmt.Errorf("%w: tenant and both users are required", domain.ErrValidation)
	}
	if p.Currency == "" {
		p.Currency = money.DefaultCode
	}
	if !p.Currency.IsValid() {
		return fmt.Errorf("%w: %w", domain.ErrValidation, money.ErrInvalidCurrency)
	}
	if p.Method == "" {
		p.Method = transferdomain.MethodStandard
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("%w: unknown method %q", domain.ErrValidation, p.Method)
	}
	if p.ApprovalMode == "" {
		p.ApprovalMode = transferdomain.ApprovalDirect
	}
	if p.ApprovalMode != transferdomain.ApprovalDirect && p.ApprovalMode != transferdomain.ApprovalPending {
		return fmt.Errorf("%w: unknown approval mode %q", domain.ErrValidation, p.ApprovalMode)
	}
	defaultFrom, defaultTo := p.Method.DefaultBalanceTypes()
	if p.FromBalanceType == "" {
		p.FromBalanceType = defaultFrom
	}
	if p.ToBalanceType == "" {
		p.ToBalanceType = defaultTo
	}
	if !p.FromBalanceType.IsValid() || !p.ToBalanceType.IsValid() {
		return fmt.Errorf("%w: %w", domain.ErrValidation, walletdomain.ErrUnknownBalanceType)
	}
	if p.FromUserID == p.ToUserID && p.FromBalanceType == p.ToBalanceType {
		return fmt.Errorf("%w: transfer to the same wallet bucket", domain.ErrValidation)
	}
	if p.ExternalRef == "" {
		p.ExternalRef = transferdomain.DeriveExternalRef(
			p.TenantID, p.FromUserID, p.ToUserID, p.Amount, p.Currency, p.Method)
		p.derivedRef = true
	}
	return nil
}

// performAtomicWrite runs the write protocol on the given session: insert
// the transfer and its two ledger entries, and in direct mode apply both
// conditional wallet increments and flip the transfer to approved.
func (s *Service) performAtomicWrite(
	ctx context.Context,
	uow repository.UnitOfWork,
	transferID uuid.UUID,
	p CreateParams,
	split transferdomain.FeeSplit,
	fromWallet, toWallet *walletdomain.Wallet,
) (*Result, error) {
	transferRepo, err := uow.TransferRepository()
	if err != nil {
		return nil, err
	}
	ledgerRepo, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	walletRepo, err := uow.WalletRepository()
	if err != nil {
		return nil, err
	}

	debitTx, creditTx, err := s.buildLedgerPair(transferID, p, split, fromWallet, toWallet)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &transferdomain.Transfer{
		ID:           transferID,
		TenantID:     p.TenantID,
		FromUserID:   p.FromUserID,
		ToUserID:     p.ToUserID,
		Amount:       split.Gross,
		Currency:     p.Currency,
		Status:       transferdomain.StatusPending,
		ApprovalMode: p.ApprovalMode,
		Meta: transferdomain.Meta{
			FeeAmount:       split.Fee,
			NetAmount:       split.Net,
			Method:          p.Method,
			ExternalRef:     p.ExternalRef,
			DebitTxID:       debitTx.ID,
			CreditTxID:      creditTx.ID,
			FromWalletID:    fromWallet.ID,
			ToWalletID:      toWallet.ID,
			FromBalanceType: p.FromBalanceType,
			ToBalanceType:   p.ToBalanceType,
			Extension:       p.Extension,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := transferRepo.Create(ctx, t); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %q", errDuplicateRef, p.ExternalRef)
		}
		return nil, err
	}

	direct := p.ApprovalMode == transferdomain.ApprovalDirect
	if direct {
		// Direct entries settle in the same write; no update-after-insert.
		debitTx.Status = ledger.StatusCompleted
		creditTx.Status = ledger.StatusCompleted
	}
	if err := ledgerRepo.Create(ctx, debitTx); err != nil {
		return nil, err
	}
	if err := ledgerRepo.Create(ctx, creditTx); err != nil {
		return nil, err
	}

	if direct {
		if err := s.applyWalletChanges(ctx, walletRepo, p, split, fromWallet, toWallet); err != nil {
			return nil, err
		}
		if err := t.TransitionTo(transferdomain.StatusApproved); err != nil {
			return nil, err
		}
		if err := transferRepo.UpdateStatus(ctx, t.ID, transferdomain.StatusApproved, ""); err != nil {
			return nil, err
		}
	}

	s.heartbeat(ctx, transferID)
	return &Result{Transfer: t, DebitTx: debitTx, CreditTx: creditTx}, nil
}

// resolveWallets gets or creates both wallets. A same-user transfer (e.g. a
// bonus-to-real conversion) resolves to one wallet object.
func (s *Service) resolveWallets(
	ctx context.Context,
	p CreateParams,
) (fromWallet, toWallet *walletdomain.Wallet, err error) {
	fromWallet, err = s.wallets.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
		TenantID: p.TenantID,
		UserID:   p.FromUserID,
		Currency: p.Currency,
	})
	if err != nil {
		return nil, nil, err
	}
	if p.FromUserID == p.ToUserID {
		return fromWallet, fromWallet, nil
	}
	toWallet, err = s.wallets.GetOrCreate(ctx, walletsvc.GetOrCreateParams{
		TenantID: p.TenantID,
		UserID:   p.ToUserID,
		Currency: p.Currency,
	})
	if err != nil {
		return nil, nil, err
	}
	return fromWallet, toWallet, nil
}

// validateWallets runs the precondition reads: wallet status, currency
// agreement, and the post-debit balance check. The system account passes
// the balance check through its allowNegative grant.
func (s *Service) validateWallets(
	p CreateParams,
	fromWallet, toWallet *walletdomain.Wallet,
	split transferdomain.FeeSplit,
) error {
	if !fromWallet.IsActive() || !toWallet.IsActive() {
		return domain.ErrWalletInactive
	}
	if fromWallet.Currency != p.Currency || toWallet.Currency != p.Currency {
		return domain.ErrCurrencyMismatch
	}
	if fromWallet.ID != toWallet.ID && fromWallet.Currency != toWallet.Currency {
		return domain.ErrCurrencyMismatch
	}
	return fromWallet.CanDebit(p.FromBalanceType, split.Gross)
}

// buildLedgerPair constructs the balanced debit/credit pair with balance
// snapshots from the wallets as read before the write.
func (s *Service) buildLedgerPair(
	transferID uuid.UUID,
	p CreateParams,
	split transferdomain.FeeSplit,
	fromWallet, toWallet *walletdomain.Wallet,
) (debitTx, creditTx *ledger.Transaction, err error) {
	fromBalance, err := fromWallet.Balance(p.FromBalanceType)
	if err != nil {
		return nil, nil, err
	}
	debitTx, err = ledger.NewTransaction(ledger.CreateParams{
		UserID:      p.FromUserID,
		TransferID:  transferID,
		Amount:      split.Gross,
		Currency:    p.Currency,
		Charge:      ledger.ChargeDebit,
		BalanceType: p.FromBalanceType,
	}, fromWallet, fromBalance)
	if err != nil {
		return nil, nil, err
	}

	toBalance, err := toWallet.Balance(p.ToBalanceType)
	if err != nil {
		return nil, nil, err
	}
	if fromWallet.ID == toWallet.ID && p.FromBalanceType == p.ToBalanceType {
		toBalance -= split.Gross
	}
	creditTx, err = ledger.NewTransaction(ledger.CreateParams{
		UserID:      p.ToUserID,
		TransferID:  transferID,
		Amount:      split.Net,
		Currency:    p.Currency,
		Charge:      ledger.ChargeCredit,
		BalanceType: p.ToBalanceType,
	}, toWallet, toBalance)
	if err != nil {
		return nil, nil, err
	}
	return debitTx, creditTx, nil
}

// applyWalletChanges performs the conditional increments. A same-wallet
// transfer folds both sides into a single update so the row is written
// exactly once.
func (s *Service) applyWalletChanges(
	ctx context.Context,
	walletRepo walletrepo.Repository,
	p CreateParams,
	split transferdomain.FeeSplit,
	fromWallet, toWallet *walletdomain.Wallet,
) error {
	if fromWallet.ID == toWallet.ID {
		change := walletrepo.BalanceChange{
			WalletID:        fromWallet.ID,
			ExpectedVersion: fromWallet.Version,
			Counters: walletrepo.CounterDeltas{
				Withdrawals: split.Gross,
				Deposits:    split.Net,
				Fees:        split.Fee,
			},
		}
		if err := change.Deltas.Add(p.FromBalanceType, -split.Gross); err != nil {
			return err
		}
		if err := change.Deltas.Add(p.ToBalanceType, split.Net); err != nil {
			return err
		}
		return walletRepo.ApplyBalanceChange(ctx, change)
	}

	debit := walletrepo.BalanceChange{
		WalletID:        fromWallet.ID,
		ExpectedVersion: fromWallet.Version,
		Counters: walletrepo.CounterDeltas{
			Withdrawals: split.Gross,
			Fees:        split.Fee,
		},
	}
	if err := debit.Deltas.Add(p.FromBalanceType, -split.Gross); err != nil {
		return err
	}
	if err := walletRepo.ApplyBalanceChange(ctx, debit); err != nil {
		return err
	}

	credit := walletrepo.BalanceChange{
		WalletID:        toWallet.ID,
		ExpectedVersion: toWallet.Version,
		Counters:        walletrepo.CounterDeltas{Deposits: split.Net},
	}
	if err := credit.Deltas.Add(p.ToBalanceType, split.Net); err != nil {
		return err
	}
	return walletRepo.ApplyBalanceChange(ctx, credit)
}

// Get fetches a transfer by id.
func (s *Service) Get(ctx context.Context, transferID uuid.UUID) (*transferdomain.Transfer, error) {
	transferRepo, err := s.uow.TransferRepository()
	if err != nil {
		return nil, err
	}
	return transferRepo.Get(ctx, transferID)
}

// GetWithTransactions fetches a transfer together with its two ledger
// entries.
func (s *Service) GetWithTransactions(ctx context.Context, transferID uuid.UUID) (*Result, error) {
	return s.loadResult(ctx, transferID)
}

// findExisting runs the idempotency guard: cache fast path, then the
// authoritative query against the transfer collection.
func (s *Service) findExisting(
	ctx context.Context,
	tenantID uuid.UUID,
	externalRef string,
) (*Result, error) {
	if externalRef == "" {
		return nil, nil
	}

	if s.idem != nil {
		if v, found, err := s.idem.Get(ctx, s.idemKey(tenantID, externalRef)); err == nil && found {
			if id, perr := uuid.Parse(v); perr == nil {
				if result, rerr := s.loadResult(ctx, id); rerr == nil {
					return result, nil
				}
				// Stale cache entry; fall through to the authoritative query.
			}
		}
	}

	transferRepo, err := s.uow.TransferRepository()
	if err != nil {
		return nil, err
	}
	t, err := transferRepo.GetByExternalRef(ctx, tenantID, externalRef)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cacheRef(ctx, tenantID, externalRef, t.ID)
	return s.resultFor(ctx, t)
}

// loadResult assembles a Result for a committed transfer id.
func (s *Service) loadResult(ctx context.Context, transferID uuid.UUID) (*Result, error) {
	transferRepo, err := s.uow.TransferRepository()
	if err != nil {
		return nil, err
	}
	t, err := transferRepo.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	return s.resultFor(ctx, t)
}

func (s *Service) resultFor(ctx context.Context, t *transferdomain.Transfer) (*Result, error) {
	ledgerRepo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	result := &Result{Transfer: t}
	if result.DebitTx, err = ledgerRepo.Get(ctx, t.Meta.DebitTxID); err != nil {
		return nil, err
	}
	if result.CreditTx, err = ledgerRepo.Get(ctx, t.Meta.CreditTxID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) idemKey(tenantID uuid.UUID, externalRef string) string {
	return s.idemPrefix + tenantID.String() + ":" + externalRef
}

// cacheRef stores the externalRef -> transfer id mapping. Best-effort.
func (s *Service) cacheRef(ctx context.Context, tenantID uuid.UUID, externalRef string, id uuid.UUID) {
	if s.idem == nil || externalRef == "" {
		return
	}
	if err := s.idem.Set(ctx, s.idemKey(tenantID, externalRef), id.String(), s.idemTTL); err != nil {
		s.logger.Warn("idempotency cache set failed", "externalRef", externalRef, "error", err)
	}
}

// publishCreateEvents emits the post-commit notifications. Best-effort,
// outside the atomic boundary.
func (s *Service) publishCreateEvents(ctx context.Context, result *Result) {
	if s.bus == nil {
		return
	}
	t := result.Transfer
	var evt events.Event
	if t.Status == transferdomain.StatusApproved {
		evt = events.TransferApproved{
			TransferID:   t.ID,
			TenantID:     t.TenantID,
			FromUserID:   t.FromUserID,
			ToUserID:     t.ToUserID,
			FromWalletID: t.Meta.FromWalletID,
			ToWalletID:   t.Meta.ToWalletID,
			Amount:       t.Amount,
			FeeAmount:    t.Meta.FeeAmount,
			Currency:     t.Currency,
		}
	} else {
		evt = events.TransferPending{
			TransferID: t.ID,
			TenantID:   t.TenantID,
			FromUserID: t.FromUserID,
			ToUserID:   t.ToUserID,
			Amount:     t.Amount,
			Currency:   t.Currency,
		}
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed", "event", evt.Type(), "error", err)
	}
	if t.Status == transferdomain.StatusApproved {
		s.publishBalancesChanged(ctx, t)
	}
}

func (s *Service) publishBalancesChanged(ctx context.Context, t *transferdomain.Transfer) {
	if s.bus == nil {
		return
	}
	evt := events.WalletBalancesChanged{
		TenantID:  t.TenantID,
		WalletIDs: []uuid.UUID{t.Meta.FromWalletID, t.Meta.ToWalletID},
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed", "event", evt.Type(), "error", err)
	}
}
