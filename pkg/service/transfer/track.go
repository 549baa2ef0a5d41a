package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/opstate"
)

// Crash-recovery tracking. Operation state is advisory metadata about the
// attempt; every helper here is best-effort and never fails the transfer.

func (s *Service) trackStart(ctx context.Context, transferID uuid.UUID) {
	if s.opStates == nil {
		return
	}
	now := time.Now().UTC()
	state := opstate.State{
		ID:            transferID.String(),
		Status:        opstate.StatusInProgress,
		StartedAt:     now,
		LastHeartbeat: now,
		Steps:         []string{"started"},
	}
	if err := s.opStates.SetState(ctx, transferID.String(), state, s.inProgressTTL); err != nil {
		s.logger.Warn("operation state set failed", "transferID", transferID, "error", err)
	}
}

func (s *Service) heartbeat(ctx context.Context, transferID uuid.UUID) {
	if s.opStates == nil {
		return
	}
	if err := s.opStates.UpdateHeartbeat(ctx, transferID.String()); err != nil {
		s.logger.Warn("operation heartbeat failed", "transferID", transferID, "error", err)
	}
}

func (s *Service) trackStatus(
	ctx context.Context,
	transferID uuid.UUID,
	status opstate.Status,
	opErr string,
) {
	if s.opStates == nil {
		return
	}
	if err := s.opStates.UpdateStatus(ctx, transferID.String(), status, opErr); err != nil {
		s.logger.Warn("operation state update failed",
			"transferID", transferID, "status", status, "error", err)
	}
}
