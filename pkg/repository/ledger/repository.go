// Package ledger defines the ledger-entry persistence contract.
package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain/ledger"
)

// Repository is the append-only ledger store contract. The only permitted
// update after insert is the single pending -> completed|failed status
// transition.
type Repository interface {
	// Create inserts a new ledger entry.
	Create(ctx context.Context, tx *ledger.Transaction) error

	// Get fetches a ledger entry by id.
	Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)

	// ListByTransfer returns both entries of a transfer.
	ListByTransfer(ctx context.Context, transferID uuid.UUID) ([]*ledger.Transaction, error)

	// UpdateStatus applies the status transition for one entry.
	UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.Status) error
}
