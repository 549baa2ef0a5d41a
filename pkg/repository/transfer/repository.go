// Package transfer defines the transfer persistence contract.
package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain/transfer"
)

// Repository is the transfer store contract. Transfers are created by the
// orchestrator and mutated only through status updates; never deleted.
type Repository interface {
	// Create inserts a new transfer. A uniqueness violation on
	// (tenant, externalRef) surfaces as domain.ErrAlreadyExists; the
	// orchestrator resolves it by re-reading the committed transfer.
	Create(ctx context.Context, t *transfer.Transfer) error

	// Get fetches a transfer by id.
	Get(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error)

	// GetByExternalRef fetches the transfer carrying the idempotency
	// reference for a tenant, or domain.ErrNotFound.
	GetByExternalRef(ctx context.Context, tenantID uuid.UUID, ref string) (*transfer.Transfer, error)

	// UpdateStatus applies a status transition, recording the decline
	// reason when one is given.
	UpdateStatus(ctx context.Context, id uuid.UUID, status transfer.Status, reason string) error
}
