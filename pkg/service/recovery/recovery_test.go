package recovery_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraopstate "github.com/solventhq/walletcore/infra/opstate"
	"github.com/solventhq/walletcore/pkg/opstate"
	"github.com/solventhq/walletcore/pkg/service/recovery"
)

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	store := infraopstate.NewMemoryStore(0)
	sweeper := recovery.NewSweeper(store, time.Minute, 30*time.Second, slog.New(slog.DiscardHandler))

	now := time.Now().UTC()

	// Heartbeat stale beyond the threshold: must be recovered.
	require.NoError(t, store.SetState(ctx, "stale-op", opstate.State{
		ID:            "stale-op",
		Status:        opstate.StatusInProgress,
		StartedAt:     now.Add(-5 * time.Minute),
		LastHeartbeat: now.Add(-5 * time.Minute),
	}, time.Hour))

	// Fresh heartbeat: left alone.
	require.NoError(t, store.SetState(ctx, "live-op", opstate.State{
		ID:            "live-op",
		Status:        opstate.StatusInProgress,
		StartedAt:     now,
		LastHeartbeat: now,
	}, time.Hour))

	// Terminal record: never swept regardless of age.
	require.NoError(t, store.SetState(ctx, "done-op", opstate.State{
		ID:            "done-op",
		Status:        opstate.StatusCompleted,
		StartedAt:     now.Add(-5 * time.Minute),
		LastHeartbeat: now.Add(-5 * time.Minute),
	}, time.Hour))

	recovered, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale-op"}, recovered)

	state, found, err := store.GetState(ctx, "stale-op")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, opstate.StatusRecovered, state.Status)
	assert.Contains(t, state.Error, "heartbeat stale")

	state, _, err = store.GetState(ctx, "live-op")
	require.NoError(t, err)
	assert.Equal(t, opstate.StatusInProgress, state.Status)

	t.Run("second sweep finds nothing", func(t *testing.T) {
		recovered, err := sweeper.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Empty(t, recovered)
	})
}
