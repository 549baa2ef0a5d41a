// Package mocks holds testify mocks for the persistence contracts, in the
// style generated by mockery.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	ledgerdomain "github.com/solventhq/walletcore/pkg/domain/ledger"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
	walletrepo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

// MockWalletRepository is a mock for wallet.Repository.
type MockWalletRepository struct {
	mock.Mock
}

// NewMockWalletRepository creates a mock wired to the test lifecycle.
func NewMockWalletRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWalletRepository {
	m := &MockWalletRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockWalletRepository) Create(ctx context.Context, w *walletdomain.Wallet) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWalletRepository) Get(ctx context.Context, id uuid.UUID) (*walletdomain.Wallet, error) {
	ret := m.Called(ctx, id)
	var w *walletdomain.Wallet
	if ret.Get(0) != nil {
		w = ret.Get(0).(*walletdomain.Wallet)
	}
	return w, ret.Error(1)
}

func (m *MockWalletRepository) GetByUser(
	ctx context.Context,
	tenantID, userID uuid.UUID,
	currency money.Code,
) (*walletdomain.Wallet, error) {
	ret := m.Called(ctx, tenantID, userID, currency)
	var w *walletdomain.Wallet
	if ret.Get(0) != nil {
		w = ret.Get(0).(*walletdomain.Wallet)
	}
	return w, ret.Error(1)
}

func (m *MockWalletRepository) ApplyBalanceChange(
	ctx context.Context,
	change walletrepo.BalanceChange,
) error {
	return m.Called(ctx, change).Error(0)
}

func (m *MockWalletRepository) SetAllowNegative(
	ctx context.Context,
	id uuid.UUID,
	creditLimit money.Amount,
) error {
	return m.Called(ctx, id, creditLimit).Error(0)
}

// MockLedgerRepository is a mock for ledger.Repository.
type MockLedgerRepository struct {
	mock.Mock
}

// NewMockLedgerRepository creates a mock wired to the test lifecycle.
func NewMockLedgerRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLedgerRepository {
	m := &MockLedgerRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLedgerRepository) Create(ctx context.Context, tx *ledgerdomain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockLedgerRepository) Get(ctx context.Context, id uuid.UUID) (*ledgerdomain.Transaction, error) {
	ret := m.Called(ctx, id)
	var tx *ledgerdomain.Transaction
	if ret.Get(0) != nil {
		tx = ret.Get(0).(*ledgerdomain.Transaction)
	}
	return tx, ret.Error(1)
}

func (m *MockLedgerRepository) ListByTransfer(
	ctx context.Context,
	transferID uuid.UUID,
) ([]*ledgerdomain.Transaction, error) {
	ret := m.Called(ctx, transferID)
	var txs []*ledgerdomain.Transaction
	if ret.Get(0) != nil {
		txs = ret.Get(0).([]*ledgerdomain.Transaction)
	}
	return txs, ret.Error(1)
}

func (m *MockLedgerRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status ledgerdomain.Status,
) error {
	return m.Called(ctx, id, status).Error(0)
}

// MockTransferRepository is a mock for transfer.Repository.
type MockTransferRepository struct {
	mock.Mock
}

// NewMockTransferRepository creates a mock wired to the test lifecycle.
func NewMockTransferRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransferRepository {
	m := &MockTransferRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransferRepository) Create(ctx context.Context, t *transferdomain.Transfer) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTransferRepository) Get(ctx context.Context, id uuid.UUID) (*transferdomain.Transfer, error) {
	ret := m.Called(ctx, id)
	var t *transferdomain.Transfer
	if ret.Get(0) != nil {
		t = ret.Get(0).(*transferdomain.Transfer)
	}
	return t, ret.Error(1)
}

func (m *MockTransferRepository) GetByExternalRef(
	ctx context.Context,
	tenantID uuid.UUID,
	ref string,
) (*transferdomain.Transfer, error) {
	ret := m.Called(ctx, tenantID, ref)
	var t *transferdomain.Transfer
	if ret.Get(0) != nil {
		t = ret.Get(0).(*transferdomain.Transfer)
	}
	return t, ret.Error(1)
}

func (m *MockTransferRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status transferdomain.Status,
	reason string,
) error {
	return m.Called(ctx, id, status, reason).Error(0)
}
