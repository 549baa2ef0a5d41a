package opstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/solventhq/walletcore/pkg/opstate"
)

// MemoryStore implements opstate.Store using in-memory storage. TTL is
// honored lazily on read.
type MemoryStore struct {
	records     map[string]memoryRecord
	terminalTTL time.Duration
	mu          sync.RWMutex
}

type memoryRecord struct {
	state     opstate.State
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory operation state store.
func NewMemoryStore(terminalTTL time.Duration) *MemoryStore {
	if terminalTTL <= 0 {
		terminalTTL = opstate.TerminalTTL
	}
	return &MemoryStore{
		records:     make(map[string]memoryRecord),
		terminalTTL: terminalTTL,
	}
}

// SetState implements opstate.Store.
func (s *MemoryStore) SetState(
	_ context.Context,
	id string,
	state opstate.State,
	ttl time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = memoryRecord{
		state:     state,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// GetState implements opstate.Store.
func (s *MemoryStore) GetState(
	_ context.Context,
	id string,
) (opstate.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || time.Now().After(rec.expiresAt) {
		return opstate.State{}, false, nil
	}
	return rec.state, true, nil
}

// UpdateHeartbeat implements opstate.Store.
func (s *MemoryStore) UpdateHeartbeat(ctx context.Context, id string) error {
	state, found, err := s.GetState(ctx, id)
	if err != nil {
		return err
	}
	if !found || state.Status.IsTerminal() {
		return nil
	}
	state.LastHeartbeat = time.Now().UTC()
	return s.SetState(ctx, id, state, opstate.InProgressTTL)
}

// UpdateStatus implements opstate.Store.
func (s *MemoryStore) UpdateStatus(
	ctx context.Context,
	id string,
	status opstate.Status,
	opErr string,
) error {
	state, found, err := s.GetState(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		state = opstate.State{ID: id, StartedAt: time.Now().UTC()}
	}
	state.Status = status
	state.LastHeartbeat = time.Now().UTC()
	state.Steps = append(state.Steps, string(status))
	if opErr != "" {
		state.Error = opErr
	}
	ttl := opstate.InProgressTTL
	if status.IsTerminal() {
		ttl = s.terminalTTL
	}
	return s.SetState(ctx, id, state, ttl)
}

// FindStuck implements opstate.Store.
func (s *MemoryStore) FindStuck(
	_ context.Context,
	maxAge time.Duration,
) ([]opstate.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	cutoff := now.UTC().Add(-maxAge)
	var stuck []opstate.State
	for _, rec := range s.records {
		if now.After(rec.expiresAt) {
			continue
		}
		if rec.state.Status == opstate.StatusInProgress &&
			rec.state.LastHeartbeat.Before(cutoff) {
			stuck = append(stuck, rec.state)
		}
	}
	return stuck, nil
}

// RecoverStuck implements opstate.Store.
func (s *MemoryStore) RecoverStuck(
	ctx context.Context,
	maxAge time.Duration,
) ([]string, error) {
	stuck, err := s.FindStuck(ctx, maxAge)
	if err != nil {
		return nil, err
	}
	recovered := make([]string, 0, len(stuck))
	for _, state := range stuck {
		err := s.UpdateStatus(ctx, state.ID, opstate.StatusRecovered,
			fmt.Sprintf("heartbeat stale for over %s", maxAge))
		if err != nil {
			return recovered, err
		}
		recovered = append(recovered, state.ID)
	}
	return recovered, nil
}

var _ opstate.Store = (*MemoryStore)(nil)
