// Package wallet is the gorm implementation of the wallet store.
package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solventhq/walletcore/infra/repository/model"
	"github.com/solventhq/walletcore/infra/repository/shared"
	"github.com/solventhq/walletcore/pkg/domain"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/money"
	repo "github.com/solventhq/walletcore/pkg/repository/wallet"
)

type repository struct {
	db *gorm.DB
}

// New creates a wallet repository bound to the given session.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements wallet.Repository.
func (r *repository) Create(ctx context.Context, w *walletdomain.Wallet) error {
	m := toModel(w)
	return shared.MapGormErrorToDomain(
		r.db.WithContext(ctx).Create(m).Error,
	)
}

// Get implements wallet.Repository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*walletdomain.Wallet, error) {
	var m model.Wallet
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, shared.MapGormErrorToDomain(err)
	}
	return toDomain(&m), nil
}

// GetByUser implements wallet.Repository.
func (r *repository) GetByUser(
	ctx context.Context,
	tenantID, userID uuid.UUID,
	currency money.Code,
) (*walletdomain.Wallet, error) {
	var m model.Wallet
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND currency = ?", tenantID, userID, string(currency)).
		First(&m).Error
	if err != nil {
		return nil, shared.MapGormErrorToDomain(err)
	}
	return toDomain(&m), nil
}

// ApplyBalanceChange implements wallet.Repository. The update is
// conditional on the version guard; zero matched rows surface as
// domain.ErrConcurrentModification so the caller retries the whole
// transfer attempt.
func (r *repository) ApplyBalanceChange(ctx context.Context, change repo.BalanceChange) error {
	if change.Deltas.IsZero() {
		return nil
	}
	updates := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	}
	if change.Deltas.Real != 0 {
		updates["real_balance"] = gorm.Expr("real_balance + ?", change.Deltas.Real)
	}
	if change.Deltas.Bonus != 0 {
		updates["bonus_balance"] = gorm.Expr("bonus_balance + ?", change.Deltas.Bonus)
	}
	if change.Deltas.Locked != 0 {
		updates["locked_balance"] = gorm.Expr("locked_balance + ?", change.Deltas.Locked)
	}
	if change.Counters.Deposits != 0 {
		updates["total_deposits"] = gorm.Expr("total_deposits + ?", change.Counters.Deposits)
	}
	if change.Counters.Withdrawals != 0 {
		updates["total_withdrawals"] = gorm.Expr("total_withdrawals + ?", change.Counters.Withdrawals)
	}
	if change.Counters.Fees != 0 {
		updates["total_fees"] = gorm.Expr("total_fees + ?", change.Counters.Fees)
	}

	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("id = ? AND version = ?", change.WalletID, change.ExpectedVersion).
		Updates(updates)
	if res.Error != nil {
		return shared.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// SetAllowNegative implements wallet.Repository. Idempotent: a wallet that
// already carries the grant matches zero rows and that is not an error.
func (r *repository) SetAllowNegative(
	ctx context.Context,
	id uuid.UUID,
	creditLimit money.Amount,
) error {
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("id = ? AND allow_negative = ?", id, false).
		Updates(map[string]any{
			"allow_negative": true,
			"credit_limit":   creditLimit,
			"updated_at":     time.Now().UTC(),
		})
	return shared.MapGormErrorToDomain(res.Error)
}

func toModel(w *walletdomain.Wallet) *model.Wallet {
	return &model.Wallet{
		ID:               w.ID,
		TenantID:         w.TenantID,
		UserID:           w.UserID,
		Currency:         string(w.Currency),
		RealBalance:      w.RealBalance,
		BonusBalance:     w.BonusBalance,
		LockedBalance:    w.LockedBalance,
		AllowNegative:    w.AllowNegative,
		CreditLimit:      w.CreditLimit,
		TotalDeposits:    w.TotalDeposits,
		TotalWithdrawals: w.TotalWithdrawals,
		TotalFees:        w.TotalFees,
		Status:           string(w.Status),
		Version:          w.Version,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func toDomain(m *model.Wallet) *walletdomain.Wallet {
	return &walletdomain.Wallet{
		ID:               m.ID,
		TenantID:         m.TenantID,
		UserID:           m.UserID,
		Currency:         money.Code(m.Currency),
		RealBalance:      m.RealBalance,
		BonusBalance:     m.BonusBalance,
		LockedBalance:    m.LockedBalance,
		AllowNegative:    m.AllowNegative,
		CreditLimit:      m.CreditLimit,
		TotalDeposits:    m.TotalDeposits,
		TotalWithdrawals: m.TotalWithdrawals,
		TotalFees:        m.TotalFees,
		Status:           walletdomain.Status(m.Status),
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
