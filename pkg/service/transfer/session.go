package transfer

import (
	"context"
	"fmt"

	"github.com/solventhq/walletcore/pkg/repository"
)

// StartSession opens an explicitly managed transaction so a caller can
// compose a transfer with unrelated writes (e.g. creating an order record)
// in one atomic unit. Pass the session through Opts and finish with
// EndSession.
func (s *Service) StartSession(ctx context.Context) (repository.Session, error) {
	starter, ok := s.uow.(repository.SessionStarter)
	if !ok {
		return nil, fmt.Errorf("unit of work %T does not support sessions", s.uow)
	}
	return starter.Begin(ctx)
}

// EndSession finalizes a session: commit when commit is true, rollback
// otherwise.
func (s *Service) EndSession(session repository.Session, commit bool) error {
	if session == nil {
		return nil
	}
	if commit {
		return session.Commit()
	}
	return session.Rollback()
}
