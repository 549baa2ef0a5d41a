// Package memrepo is an in-memory implementation of the persistence
// contracts with the same observable semantics as the gorm layer: the
// version-guarded conditional increments and the unique indexes on
// (tenant, user, currency) and (tenant, externalRef). Used by service tests.
package memrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain"
	ledgerdomain "github.com/solventhq/walletcore/pkg/domain/ledger"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
	"github.com/solventhq/walletcore/pkg/repository"
	ledgerrepo "github.com/solventhq/walletcore/pkg/repository/ledger"
	transferrepo "github.com/solventhq/walletcore/pkg/repository/transfer"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

// Store holds all three collections behind one mutex. It implements
// repository.UnitOfWork directly; Do is a plain closure call, as rollback
// emulation is not needed for the scenarios the tests assert.
type Store struct {
	mu sync.Mutex

	wallets   map[uuid.UUID]walletdomain.Wallet
	ledgers   map[uuid.UUID]ledgerdomain.Transaction
	ledgerSeq []uuid.UUID
	transfers map[uuid.UUID]transferdomain.Transfer
	refIndex  map[string]uuid.UUID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		wallets:   make(map[uuid.UUID]walletdomain.Wallet),
		ledgers:   make(map[uuid.UUID]ledgerdomain.Transaction),
		transfers: make(map[uuid.UUID]transferdomain.Transfer),
		refIndex:  make(map[string]uuid.UUID),
	}
}

// Do implements repository.UnitOfWork.
func (s *Store) Do(_ context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(s)
}

// WalletRepository implements repository.UnitOfWork.
func (s *Store) WalletRepository() (walletrepo.Repository, error) {
	return (*walletStore)(s), nil
}

// TransactionRepository implements repository.UnitOfWork.
func (s *Store) TransactionRepository() (ledgerrepo.Repository, error) {
	return (*ledgerStore)(s), nil
}

// TransferRepository implements repository.UnitOfWork.
func (s *Store) TransferRepository() (transferrepo.Repository, error) {
	return (*transferStore)(s), nil
}

var _ repository.UnitOfWork = (*Store)(nil)

func refKey(tenantID uuid.UUID, ref string) string {
	return tenantID.String() + "|" + ref
}

type walletStore Store

func (s *walletStore) Create(_ context.Context, w *walletdomain.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.wallets {
		if existing.TenantID == w.TenantID &&
			existing.UserID == w.UserID &&
			existing.Currency == w.Currency {
			return domain.ErrAlreadyExists
		}
	}
	s.wallets[w.ID] = *w
	return nil
}

func (s *walletStore) Get(_ context.Context, id uuid.UUID) (*walletdomain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &w, nil
}

func (s *walletStore) GetByUser(
	_ context.Context,
	tenantID, userID uuid.UUID,
	currency money.Code,
) (*walletdomain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.TenantID == tenantID && w.UserID == userID && w.Currency == currency {
			out := w
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *walletStore) ApplyBalanceChange(_ context.Context, change walletrepo.BalanceChange) error {
	if change.Deltas.IsZero() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[change.WalletID]
	if !ok || w.Version != change.ExpectedVersion {
		return domain.ErrConcurrentModification
	}
	w.RealBalance += change.Deltas.Real
	w.BonusBalance += change.Deltas.Bonus
	w.LockedBalance += change.Deltas.Locked
	w.TotalDeposits += change.Counters.Deposits
	w.TotalWithdrawals += change.Counters.Withdrawals
	w.TotalFees += change.Counters.Fees
	w.Version++
	s.wallets[change.WalletID] = w
	return nil
}

func (s *walletStore) SetAllowNegative(
	_ context.Context,
	id uuid.UUID,
	creditLimit money.Amount,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok || w.AllowNegative {
		return nil
	}
	w.AllowNegative = true
	w.CreditLimit = creditLimit
	s.wallets[id] = w
	return nil
}

type ledgerStore Store

func (s *ledgerStore) Create(_ context.Context, tx *ledgerdomain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ledgers[tx.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.ledgers[tx.ID] = *tx
	s.ledgerSeq = append(s.ledgerSeq, tx.ID)
	return nil
}

func (s *ledgerStore) Get(_ context.Context, id uuid.UUID) (*ledgerdomain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.ledgers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &tx, nil
}

func (s *ledgerStore) ListByTransfer(
	_ context.Context,
	transferID uuid.UUID,
) ([]*ledgerdomain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledgerdomain.Transaction
	for _, id := range s.ledgerSeq {
		if tx := s.ledgers[id]; tx.TransferID == transferID {
			cp := tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *ledgerStore) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	status ledgerdomain.Status,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.ledgers[id]
	if !ok {
		return domain.ErrNotFound
	}
	if tx.Status == ledgerdomain.StatusPending {
		tx.Status = status
		s.ledgers[id] = tx
	}
	return nil
}

type transferStore Store

func (s *transferStore) Create(_ context.Context, t *transferdomain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := refKey(t.TenantID, t.Meta.ExternalRef)
	if t.Meta.ExternalRef != "" {
		if _, exists := s.refIndex[key]; exists {
			return domain.ErrAlreadyExists
		}
	}
	s.transfers[t.ID] = *t
	if t.Meta.ExternalRef != "" {
		s.refIndex[key] = t.ID
	}
	return nil
}

func (s *transferStore) Get(_ context.Context, id uuid.UUID) (*transferdomain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *transferStore) GetByExternalRef(
	_ context.Context,
	tenantID uuid.UUID,
	ref string,
) (*transferdomain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.refIndex[refKey(tenantID, ref)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := s.transfers[id]
	return &t, nil
}

func (s *transferStore) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	status transferdomain.Status,
	reason string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != transferdomain.StatusPending {
		return transferdomain.ErrInvalidStatusTransition
	}
	t.Status = status
	if reason != "" {
		t.DeclineReason = reason
	}
	s.transfers[id] = t
	return nil
}
