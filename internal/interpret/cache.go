// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache.go holds the ephemeral interpretation cache. Generated text is keyed
// by fingerprint and bound by a TTL; entries are a pre-save convenience, not
// a source of truth, so backend failures degrade to a miss instead of
// failing the request.
package interpret

import (
	"context"
	"log/slog"
)

// Backend is the storage behind the interpretation cache. Implementations:
// an in-memory map for development and tests, and Valkey for deployments
// that share the cache across processes.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, text string) error
	Delete(ctx context.Context, key string) error
}

// Cache fronts a Backend with the cache-enabled policy and soft error
// handling. Callers never special-case a disabled cache: Get reports absent
// and Put is a no-op.
type Cache struct {
	backend Backend
	enabled bool
}

// NewCache wraps the given backend. When enabled is false the cache is inert.
func NewCache(backend Backend, enabled bool) *Cache {
	return &Cache{backend: backend, enabled: enabled}
}

// Enabled reports whether caching is active.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Get returns the cached text for a fingerprint. Backend errors are treated
// as a miss — the system degrades to "always regenerate" rather than failing
// the request.
func (c *Cache) Get(ctx context.Context, fingerprint string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	text, ok, err := c.backend.Get(ctx, fingerprint)
	if err != nil {
		slog.Warn("interpretation cache get failed", "fingerprint", fingerprint, "error", err)
		return "", false
	}
	if ok {
		slog.Debug("interpretation cache hit", "fingerprint", fingerprint)
	}
	return text, ok
}

// Put stores generated text under a fingerprint. Concurrent puts for the
// same fingerprint are last-write-wins; both writers produced the same
// semantic content for the same key, so the overwrite is idempotent.
func (c *Cache) Put(ctx context.Context, fingerprint, text string) {
	if !c.enabled {
		return
	}
	if err := c.backend.Put(ctx, fingerprint, text); err != nil {
		slog.Warn("interpretation cache put failed", "fingerprint", fingerprint, "error", err)
	}
}

// Invalidate removes the entry for a fingerprint. Called when text is
// persisted to durable storage, so a stale ephemeral copy cannot resurface
// ahead of the durable one.
func (c *Cache) Invalidate(ctx context.Context, fingerprint string) error {
	if !c.enabled {
		return nil
	}
	return c.backend.Delete(ctx, fingerprint)
}
