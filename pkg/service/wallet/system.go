package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SystemAccountResolver answers which user, if any, is the tenant's system
// (house) account. The system account is the one principal exempted from
// ordinary balance checks.
type SystemAccountResolver interface {
	// SystemUserID returns the system user for a tenant; ok is false when
	// the tenant has none.
	SystemUserID(ctx context.Context, tenantID uuid.UUID) (id uuid.UUID, ok bool, err error)
}

// StaticSystemAccounts resolves system accounts from a fixed tenant -> user
// mapping, typically loaded at startup.
type StaticSystemAccounts map[uuid.UUID]uuid.UUID

// SystemUserID implements SystemAccountResolver.
func (m StaticSystemAccounts) SystemUserID(
	_ context.Context,
	tenantID uuid.UUID,
) (uuid.UUID, bool, error) {
	id, ok := m[tenantID]
	return id, ok, nil
}

// ParseStaticSystemAccounts builds the static mapping from the raw
// tenant -> user pairs carried by configuration.
func ParseStaticSystemAccounts(raw map[string]string) (StaticSystemAccounts, error) {
	out := make(StaticSystemAccounts, len(raw))
	for tenant, user := range raw {
		tenantID, err := uuid.Parse(tenant)
		if err != nil {
			return nil, fmt.Errorf("system account tenant %q: %w", tenant, err)
		}
		userID, err := uuid.Parse(user)
		if err != nil {
			return nil, fmt.Errorf("system account user %q for tenant %s: %w", user, tenantID, err)
		}
		out[tenantID] = userID
	}
	return out, nil
}

// CachedSystemAccounts wraps a resolver with a per-tenant cache refreshed on
// a slow interval. Resolving the system account happens outside the transfer
// hot path and outside any transaction; a role change takes effect within
// one refresh interval rather than mid-transfer.
type CachedSystemAccounts struct {
	inner           SystemAccountResolver
	refreshInterval time.Duration

	mu      sync.RWMutex
	entries map[uuid.UUID]cachedSystemEntry
}

type cachedSystemEntry struct {
	id        uuid.UUID
	ok        bool
	fetchedAt time.Time
}

// NewCachedSystemAccounts wraps resolver with interval-based caching.
func NewCachedSystemAccounts(
	resolver SystemAccountResolver,
	refreshInterval time.Duration,
) *CachedSystemAccounts {
	return &CachedSystemAccounts{
		inner:           resolver,
		refreshInterval: refreshInterval,
		entries:         make(map[uuid.UUID]cachedSystemEntry),
	}
}

// SystemUserID implements SystemAccountResolver.
func (c *CachedSystemAccounts) SystemUserID(
	ctx context.Context,
	tenantID uuid.UUID,
) (uuid.UUID, bool, error) {
	c.mu.RLock()
	entry, found := c.entries[tenantID]
	c.mu.RUnlock()
	if found && time.Since(entry.fetchedAt) < c.refreshInterval {
		return entry.id, entry.ok, nil
	}

	id, ok, err := c.inner.SystemUserID(ctx, tenantID)
	if err != nil {
		// Serve the stale entry rather than failing a transfer over a
		// lookup hiccup.
		if found {
			return entry.id, entry.ok, nil
		}
		return uuid.Nil, false, err
	}

	c.mu.Lock()
	c.entries[tenantID] = cachedSystemEntry{id: id, ok: ok, fetchedAt: time.Now()}
	c.mu.Unlock()
	return id, ok, nil
}
