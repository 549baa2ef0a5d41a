// Package transfer is the gorm implementation of the transfer store.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solventhq/walletcore/infra/repository/model"
	"github.com/solventhq/walletcore/infra/repository/shared"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	"github.com/solventhq/walletcore/pkg/money"
	repo "github.com/solventhq/walletcore/pkg/repository/transfer"
)

type repository struct {
	db *gorm.DB
}

// New creates a transfer repository bound to the given session.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements transfer.Repository. A duplicate (tenant, externalRef)
// surfaces as domain.ErrAlreadyExists via the error mapper.
func (r *repository) Create(ctx context.Context, t *transferdomain.Transfer) error {
	m, err := toModel(t)
	if err != nil {
		return err
	}
	return shared.MapGormErrorToDomain(
		r.db.WithContext(ctx).Create(m).Error,
	)
}

// Get implements transfer.Repository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*transferdomain.Transfer, error) {
	var m model.Transfer
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, shared.MapGormErrorToDomain(err)
	}
	return toDomain(&m)
}

// GetByExternalRef implements transfer.Repository.
func (r *repository) GetByExternalRef(
	ctx context.Context,
	tenantID uuid.UUID,
	ref string,
) (*transferdomain.Transfer, error) {
	var m model.Transfer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_ref = ?", tenantID, ref).
		First(&m).Error
	if err != nil {
		return nil, shared.MapGormErrorToDomain(err)
	}
	return toDomain(&m)
}

// UpdateStatus implements transfer.Repository. The guard on the current
// pending status keeps concurrent approve/decline calls from both winning.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status transferdomain.Status,
	reason string,
) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if reason != "" {
		updates["decline_reason"] = reason
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transfer{}).
		Where("id = ? AND status = ?", id, string(transferdomain.StatusPending)).
		Updates(updates)
	if res.Error != nil {
		return shared.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return transferdomain.ErrInvalidStatusTransition
	}
	return nil
}

func toModel(t *transferdomain.Transfer) (*model.Transfer, error) {
	meta, err := json.Marshal(t.Meta)
	if err != nil {
		return nil, fmt.Errorf("marshal transfer meta: %w", err)
	}
	return &model.Transfer{
		ID:            t.ID,
		TenantID:      t.TenantID,
		FromUserID:    t.FromUserID,
		ToUserID:      t.ToUserID,
		Amount:        t.Amount,
		Currency:      string(t.Currency),
		Status:        string(t.Status),
		ApprovalMode:  string(t.ApprovalMode),
		ExternalRef:   t.Meta.ExternalRef,
		Meta:          meta,
		DeclineReason: t.DeclineReason,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}, nil
}

func toDomain(m *model.Transfer) (*transferdomain.Transfer, error) {
	var meta transferdomain.Meta
	if len(m.Meta) > 0 {
		if err := json.Unmarshal(m.Meta, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal transfer meta: %w", err)
		}
	}
	// The column is authoritative for the reference; meta mirrors it.
	meta.ExternalRef = m.ExternalRef
	return &transferdomain.Transfer{
		ID:            m.ID,
		TenantID:      m.TenantID,
		FromUserID:    m.FromUserID,
		ToUserID:      m.ToUserID,
		Amount:        m.Amount,
		Currency:      money.Code(m.Currency),
		Status:        transferdomain.Status(m.Status),
		ApprovalMode:  transferdomain.ApprovalMode(m.ApprovalMode),
		Meta:          meta,
		DeclineReason: m.DeclineReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}
