// Package recovery runs the periodic stuck-operation sweep: operations
// whose heartbeat went stale are flagged recovered for operators. The sweep
// is advisory; the state store's own TTL already bounds staleness, and no
// financial write is rolled back or retried here.
package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/solventhq/walletcore/pkg/opstate"
)

// Sweeper periodically recovers stuck operation states.
type Sweeper struct {
	store    opstate.Store
	interval time.Duration
	stuckAge time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. interval is how often the sweep runs,
// stuckAge the heartbeat staleness threshold.
func NewSweeper(
	store opstate.Store,
	interval, stuckAge time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		stuckAge: stuckAge,
		logger:   logger,
	}
}

// SweepOnce runs one recovery pass and returns the recovered operation ids.
func (s *Sweeper) SweepOnce(ctx context.Context) ([]string, error) {
	recovered, err := s.store.RecoverStuck(ctx, s.stuckAge)
	if err != nil {
		s.logger.Error("stuck operation sweep failed", "error", err)
		return nil, err
	}
	if len(recovered) > 0 {
		s.logger.Warn("recovered stuck operations",
			"count", len(recovered), "ids", recovered)
	}
	return recovered, nil
}

// Run sweeps on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("stuck operation sweeper started",
		"interval", s.interval, "stuck_age", s.stuckAge)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stuck operation sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}
