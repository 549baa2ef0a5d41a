// Package repository defines the persistence contracts consumed by the
// transfer engine. Implementations live under infra/repository.
package repository

import (
	"context"

	ledgerrepo "github.com/solventhq/walletcore/pkg/repository/ledger"
	transferrepo "github.com/solventhq/walletcore/pkg/repository/transfer"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

// UnitOfWork is the transaction boundary plus repository access in one
// abstraction. All repositories obtained inside Do share one database
// session, which is what makes the transfer write atomic.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. The UnitOfWork passed
	// to fn resolves repositories bound to that transaction. If fn returns
	// an error the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// WalletRepository returns the wallet repository bound to the current
	// session.
	WalletRepository() (walletrepo.Repository, error)

	// TransactionRepository returns the ledger-entry repository bound to
	// the current session.
	TransactionRepository() (ledgerrepo.Repository, error)

	// TransferRepository returns the transfer repository bound to the
	// current session.
	TransferRepository() (transferrepo.Repository, error)
}
