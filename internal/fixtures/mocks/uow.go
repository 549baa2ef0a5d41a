package mocks

import (
	"context"

	"github.com/solventhq/walletcore/pkg/repository"
	ledgerrepo "github.com/solventhq/walletcore/pkg/repository/ledger"
	transferrepo "github.com/solventhq/walletcore/pkg/repository/transfer"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

// FakeUnitOfWork is a unit of work over injected repositories. Do runs the
// closure against the fake itself, so service logic and repository
// expectations are exercised without a database.
type FakeUnitOfWork struct {
	Wallets   walletrepo.Repository
	Ledgers   ledgerrepo.Repository
	Transfers transferrepo.Repository

	// DoErr, when set, fails Do before the closure runs.
	DoErr error
}

// Do implements repository.UnitOfWork.
func (u *FakeUnitOfWork) Do(_ context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.DoErr != nil {
		return u.DoErr
	}
	return fn(u)
}

// WalletRepository implements repository.UnitOfWork.
func (u *FakeUnitOfWork) WalletRepository() (walletrepo.Repository, error) {
	return u.Wallets, nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *FakeUnitOfWork) TransactionRepository() (ledgerrepo.Repository, error) {
	return u.Ledgers, nil
}

// TransferRepository implements repository.UnitOfWork.
func (u *FakeUnitOfWork) TransferRepository() (transferrepo.Repository, error) {
	return u.Transfers, nil
}

var _ repository.UnitOfWork = (*FakeUnitOfWork)(nil)
