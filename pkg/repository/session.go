package repository

import "context"

// Session is an explicitly managed transaction, used when a caller composes
// a transfer into a larger atomic write alongside unrelated writes. The
// caller owns the lifecycle: the orchestrator performs no commit, rollback
// or state tracking on a supplied session.
type Session interface {
	UnitOfWork

	// Commit finalizes the transaction.
	Commit() error

	// Rollback aborts the transaction. Safe to call after Commit; it then
	// does nothing.
	Rollback() error
}

// SessionStarter is implemented by UnitOfWork implementations that support
// explicit session composition.
type SessionStarter interface {
	// Begin opens a transaction and returns the session bound to it.
	Begin(ctx context.Context) (Session, error)
}
