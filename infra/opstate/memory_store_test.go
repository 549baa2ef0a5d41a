package opstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solventhq/walletcore/pkg/opstate"
)

func inProgress(id string, heartbeatAge time.Duration) opstate.State {
	now := time.Now().UTC()
	return opstate.State{
		ID:            id,
		Status:        opstate.StatusInProgress,
		StartedAt:     now.Add(-heartbeatAge),
		LastHeartbeat: now.Add(-heartbeatAge),
	}
}

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, found, err := s.GetState(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetState(ctx, "op", inProgress("op", 0), time.Minute))
	state, found, err := s.GetState(ctx, "op")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, opstate.StatusInProgress, state.Status)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.SetState(ctx, "op", inProgress("op", 0), -time.Second))
	_, found, err := s.GetState(ctx, "op")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreHeartbeat(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.SetState(ctx, "op", inProgress("op", time.Minute), time.Minute))
	require.NoError(t, s.UpdateHeartbeat(ctx, "op"))

	state, found, err := s.GetState(ctx, "op")
	require.NoError(t, err)
	require.True(t, found)
	assert.WithinDuration(t, time.Now().UTC(), state.LastHeartbeat, 5*time.Second)

	t.Run("missing record is a no-op", func(t *testing.T) {
		assert.NoError(t, s.UpdateHeartbeat(ctx, "ghost"))
	})

	t.Run("terminal record is not revived", func(t *testing.T) {
		require.NoError(t, s.UpdateStatus(ctx, "op", opstate.StatusCompleted, ""))
		require.NoError(t, s.UpdateHeartbeat(ctx, "op"))
		state, _, err := s.GetState(ctx, "op")
		require.NoError(t, err)
		assert.Equal(t, opstate.StatusCompleted, state.Status)
	})
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.SetState(ctx, "op", inProgress("op", 0), time.Minute))
	require.NoError(t, s.UpdateStatus(ctx, "op", opstate.StatusFailed, "balance check failed"))

	state, found, err := s.GetState(ctx, "op")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, opstate.StatusFailed, state.Status)
	assert.Equal(t, "balance check failed", state.Error)
	assert.Contains(t, state.Steps, "failed")
}

func TestMemoryStoreFindAndRecoverStuck(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.SetState(ctx, "stale", inProgress("stale", 10*time.Minute), time.Hour))
	require.NoError(t, s.SetState(ctx, "fresh", inProgress("fresh", 0), time.Hour))

	stuck, err := s.FindStuck(ctx, time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "stale", stuck[0].ID)

	recovered, err := s.RecoverStuck(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, recovered)

	state, found, err := s.GetState(ctx, "stale")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, opstate.StatusRecovered, state.Status)
	assert.Contains(t, state.Error, "heartbeat stale")
}
