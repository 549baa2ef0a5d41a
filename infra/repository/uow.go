// Package repository implements the persistence contracts on gorm.
package repository

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	ledgerinfra "github.com/solventhq/walletcore/infra/repository/ledger"
	transferinfra "github.com/solventhq/walletcore/infra/repository/transfer"
	walletinfra "github.com/solventhq/walletcore/infra/repository/wallet"
	"github.com/solventhq/walletcore/pkg/repository"
	ledgerrepo "github.com/solventhq/walletcore/pkg/repository/ledger"
	transferrepo "github.com/solventhq/walletcore/pkg/repository/transfer"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

// ErrNestedSession is returned when Begin is called on a unit of work that
// is already bound to a transaction.
var ErrNestedSession = errors.New("session already started")

// UoW provides the transaction boundary and repository access in one
// abstraction. Repositories resolved inside Do are bound to the running
// transaction; resolved outside, they run on the base connection in
// auto-commit mode.
type UoW struct {
	db   *gorm.DB
	inTx bool
}

// NewUoW creates a unit of work on the given database handle.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do implements repository.UnitOfWork. A nested Do joins the outer
// transaction rather than opening a savepoint.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.inTx {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: tx, inTx: true})
	})
}

// WalletRepository implements repository.UnitOfWork.
func (u *UoW) WalletRepository() (walletrepo.Repository, error) {
	return walletinfra.New(u.db), nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *UoW) TransactionRepository() (ledgerrepo.Repository, error) {
	return ledgerinfra.New(u.db), nil
}

// TransferRepository implements repository.UnitOfWork.
func (u *UoW) TransferRepository() (transferrepo.Repository, error) {
	return transferinfra.New(u.db), nil
}

// Begin implements repository.SessionStarter: it opens a transaction whose
// lifecycle the caller owns, for composing transfer writes with unrelated
// writes in one commit.
func (u *UoW) Begin(ctx context.Context) (repository.Session, error) {
	if u.inTx {
		return nil, ErrNestedSession
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &session{UoW: UoW{db: tx, inTx: true}}, nil
}

// session is a caller-owned transaction. Commit and Rollback are idempotent;
// the first call to either settles the transaction.
type session struct {
	UoW
	once sync.Once
}

// Commit implements repository.Session.
func (s *session) Commit() error {
	var err error
	s.once.Do(func() {
		err = s.db.Commit().Error
	})
	return err
}

// Rollback implements repository.Session.
func (s *session) Rollback() error {
	var err error
	s.once.Do(func() {
		err = s.db.Rollback().Error
	})
	return err
}
