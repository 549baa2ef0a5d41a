// Package ledger is the gorm implementation of the append-only ledger.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solventhq/walletcore/infra/repository/model"
	"github.com/solventhq/walletcore/infra/repository/shared"
	ledgerdomain "github.com/solventhq/walletcore/pkg/domain/ledger"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
	repo "github.com/solventhq/walletcore/pkg/repository/ledger"
)

type repository struct {
	db *gorm.DB
}

// New creates a ledger repository bound to the given session.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements ledger.Repository.
func (r *repository) Create(ctx context.Context, tx *ledgerdomain.Transaction) error {
	m := toModel(tx)
	return shared.MapGormErrorToDomain(
		r.db.WithContext(ctx).Create(m).Error,
	)
}

// Get implements ledger.Repository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*ledgerdomain.Transaction, error) {
	var m model.Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, shared.MapGormErrorToDomain(err)
	}
	return toDomain(&m), nil
}

// ListByTransfer implements ledger.Repository. Entries come back in insert
// order, debit first.
func (r *repository) ListByTransfer(
	ctx context.Context,
	transferID uuid.UUID,
) ([]*ledgerdomain.Transaction, error) {
	var ms []model.Transaction
	err := r.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, shared.MapGormErrorToDomain(err)
	}
	out := make([]*ledgerdomain.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, toDomain(&ms[i]))
	}
	return out, nil
}

// UpdateStatus implements ledger.Repository. Only the pending -> terminal
// transition matches; anything else is a no-op at the schema level because
// the domain layer already rejected it.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status ledgerdomain.Status,
) error {
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, string(ledgerdomain.StatusPending)).
		Update("status", string(status))
	return shared.MapGormErrorToDomain(res.Error)
}

func toModel(tx *ledgerdomain.Transaction) *model.Transaction {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &model.Transaction{
		ID:            tx.ID,
		TenantID:      tx.TenantID,
		UserID:        tx.UserID,
		WalletID:      tx.WalletID,
		TransferID:    tx.TransferID,
		Amount:        tx.Amount,
		Currency:      string(tx.Currency),
		Charge:        string(tx.Charge),
		BalanceType:   string(tx.BalanceType),
		Status:        string(tx.Status),
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		CreatedAt:     createdAt,
	}
}

func toDomain(m *model.Transaction) *ledgerdomain.Transaction {
	return &ledgerdomain.Transaction{
		ID:            m.ID,
		TenantID:      m.TenantID,
		UserID:        m.UserID,
		WalletID:      m.WalletID,
		TransferID:    m.TransferID,
		Amount:        m.Amount,
		Currency:      money.Code(m.Currency),
		Charge:        ledgerdomain.Charge(m.Charge),
		BalanceType:   walletdomain.BalanceType(m.BalanceType),
		Status:        ledgerdomain.Status(m.Status),
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		CreatedAt:     m.CreatedAt,
	}
}
