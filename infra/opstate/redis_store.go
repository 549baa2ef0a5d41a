// Package opstate implements the operation-state tracker on Redis, with an
// in-memory variant for tests. Records are JSON payloads whose liveness is
// carried by the key TTL itself.
package opstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solventhq/walletcore/pkg/opstate"
)

// RedisStore implements opstate.Store using Redis.
type RedisStore struct {
	client      *redis.Client
	prefix      string
	terminalTTL time.Duration
	logger      *slog.Logger
}

// NewRedisStore creates a store on an existing client. prefix namespaces the
// operation keys; terminalTTL is the retention of completed/failed records.
func NewRedisStore(
	client *redis.Client,
	prefix string,
	terminalTTL time.Duration,
	logger *slog.Logger,
) *RedisStore {
	if terminalTTL <= 0 {
		terminalTTL = opstate.TerminalTTL
	}
	return &RedisStore{
		client:      client,
		prefix:      prefix,
		terminalTTL: terminalTTL,
		logger:      logger,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// SetState implements opstate.Store.
func (s *RedisStore) SetState(
	ctx context.Context,
	id string,
	state opstate.State,
	ttl time.Duration,
) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal operation state: %w", err)
	}
	return s.client.Set(ctx, s.key(id), payload, ttl).Err()
}

// GetState implements opstate.Store.
func (s *RedisStore) GetState(
	ctx context.Context,
	id string,
) (opstate.State, bool, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return opstate.State{}, false, nil
	}
	if err != nil {
		return opstate.State{}, false, err
	}
	var state opstate.State
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return opstate.State{}, false, fmt.Errorf("unmarshal operation state: %w", err)
	}
	return state, true, nil
}

// UpdateHeartbeat implements opstate.Store. A heartbeat on an expired or
// terminal record is a no-op.
func (s *RedisStore) UpdateHeartbeat(ctx context.Context, id string) error {
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
func (s *RedisStore) UpdateStatus(
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

// FindStuck implements opstate.Store, scanning the prefix keyspace for
// in-progress records with a stale heartbeat.
func (s *RedisStore) FindStuck(
	ctx context.Context,
	maxAge time.Duration,
) ([]opstate.State, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	var stuck []opstate.State

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, err
		}
		var state opstate.State
		if err := json.Unmarshal([]byte(val), &state); err != nil {
			s.logger.Warn("skipping malformed operation state",
				"key", iter.Val(), "error", err)
			continue
		}
		if state.Status == opstate.StatusInProgress && state.LastHeartbeat.Before(cutoff) {
			stuck = append(stuck, state)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return stuck, nil
}

// RecoverStuck implements opstate.Store.
func (s *RedisStore) RecoverStuck(
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
			s.logger.Error("failed to mark operation recovered",
				"id", state.ID, "error", err)
			continue
		}
		recovered = append(recovered, state.ID)
	}
	return recovered, nil
}

var _ opstate.Store = (*RedisStore)(nil)
