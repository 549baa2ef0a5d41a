// Package opstate defines the crash-recovery state tracker: a TTL-backed
// record of the liveness and progress of an in-flight multi-step write.
//
// Operation state is metadata about the attempt, never the source of truth
// for balances. It lives outside the primary data store so it can be read
// and written without opening a database transaction.
package opstate

import (
	"context"
	"time"
)

// Status is the lifecycle of one tracked operation.
type Status string

// Operation statuses
const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	// StatusRecovered marks an operation flagged by the stuck-operation
	// sweep. Terminal, monitoring only.
	StatusRecovered Status = "recovered"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool { return s != StatusInProgress }

// TTL policy: a crashed worker's abandoned in-progress record self-expires
// quickly; terminal records linger long enough for a monitoring sweep.
const (
	InProgressTTL = 60 * time.Second
	TerminalTTL   = 300 * time.Second
)

// State is one operation record, keyed by the transfer id.
type State struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	StartedAt     time.Time `json:"startedAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Steps         []string  `json:"steps,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Store is the operation-state tracker contract.
type Store interface {
	// SetState writes a state record with the given TTL.
	SetState(ctx context.Context, id string, state State, ttl time.Duration) error

	// GetState reads a state record; found=false when it expired or never
	// existed.
	GetState(ctx context.Context, id string) (state State, found bool, err error)

	// UpdateHeartbeat refreshes both the heartbeat timestamp and the TTL
	// of an in-progress record.
	UpdateHeartbeat(ctx context.Context, id string) error

	// UpdateStatus transitions a record, appends a step, and switches the
	// TTL to the terminal policy when the status is terminal. The error
	// message is attached for failed/recovered states.
	UpdateStatus(ctx context.Context, id string, status Status, opErr string) error

	// FindStuck returns in-progress records whose heartbeat is older than
	// maxAge.
	FindStuck(ctx context.Context, maxAge time.Duration) ([]State, error)

	// RecoverStuck marks each stuck record as recovered with an
	// explanatory error. It does not roll back or retry the underlying
	// financial write, which is expected to have already aborted if the
	// process died mid-transaction. Returns the recovered ids.
	RecoverStuck(ctx context.Context, maxAge time.Duration) ([]string, error)
}
