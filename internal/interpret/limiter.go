// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package interpret

import (
	"log/slog"
	"sync"
	"time"
)

// Tier is an independently-budgeted class of rate-limited operation.
// Exhausting one tier never affects another for the same identity.
type Tier string

const (
	// TierStandard gates cheap, read-ish operations.
	TierStandard Tier = "standard"

	// TierStrict gates expensive or mutating operations: AI generation and
	// destructive writes.
	TierStrict Tier = "strict"
)

// TierConfig defines one tier's request ceiling and window length.
type TierConfig struct {
	Limit  int
	Window time.Duration
}

// Decision is the admission controller's answer for a single request.
// Remaining never goes negative. ResetAt tells a rejected client when the
// oldest in-window request falls out of the window.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// limiterEntry tracks request timestamps for a single (identity, tier) pair.
type limiterEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// Limiter provides per-identity, per-tier admission control using a sliding
// window. Sliding windows were chosen over fixed windows because they do not
// permit the 2x burst a fixed window allows at its boundary.
type Limiter struct {
	mu      sync.RWMutex
	tiers   map[Tier]TierConfig
	entries map[string]*limiterEntry
	stopCh  chan struct{}

	// now is swappable in tests.
	now func() time.Time
}

// NewLimiter creates a limiter with the given tier budgets. It starts a
// background goroutine to clean up idle entries; call Stop to terminate it.
func NewLimiter(tiers map[Tier]TierConfig) *Limiter {
	l := &Limiter{
		tiers:   tiers,
		entries: make(map[string]*limiterEntry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	// Periodic cleanup of idle entries every 5 minutes.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.cleanup()
			case <-l.stopCh:
				return
			}
		}
	}()

	return l
}

// Stop terminates the background cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// Check records a request for (identity, tier) and decides whether it may
// proceed. The decision is immediate and synchronous; backoff policy belongs
// to the caller, informed by ResetAt.
func (l *Limiter) Check(identity string, tier Tier) Decision {
	cfg, ok := l.tiers[tier]
	if !ok {
		slog.Warn("admission check for unconfigured tier", "tier", tier)
		return Decision{Allowed: false, ResetAt: l.now()}
	}

	entry := l.entry(identity, tier)
	now := l.now()
	cutoff := now.Add(-cfg.Window)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Drop timestamps that have slid out of the window.
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= cfg.Limit {
		return Decision{
			Allowed:   false,
			Limit:     cfg.Limit,
			Remaining: 0,
			ResetAt:   entry.timestamps[0].Add(cfg.Window),
		}
	}

	entry.timestamps = append(entry.timestamps, now)
	return Decision{
		Allowed:   true,
		Limit:     cfg.Limit,
		Remaining: cfg.Limit - len(entry.timestamps),
		ResetAt:   entry.timestamps[0].Add(cfg.Window),
	}
}

// Peek reports the current budget for (identity, tier) without consuming
// quota. Used on cache hits, which bypass admission control entirely.
func (l *Limiter) Peek(identity string, tier Tier) Decision {
	cfg, ok := l.tiers[tier]
	if !ok {
		return Decision{Allowed: false, ResetAt: l.now()}
	}

	entry := l.entry(identity, tier)
	now := l.now()
	cutoff := now.Add(-cfg.Window)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	inWindow := 0
	var oldest time.Time
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			if inWindow == 0 || ts.Before(oldest) {
				oldest = ts
			}
			inWindow++
		}
	}

	remaining := cfg.Limit - inWindow
	if remaining < 0 {
		remaining = 0
	}
	resetAt := now
	if inWindow > 0 {
		resetAt = oldest.Add(cfg.Window)
	}
	return Decision{
		Allowed:   remaining > 0,
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// entry returns the tracking entry for (identity, tier), creating it if needed.
func (l *Limiter) entry(identity string, tier Tier) *limiterEntry {
	key := identity + "|" + string(tier)

	l.mu.RLock()
	entry, exists := l.entries[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		// Double-check after acquiring write lock.
		entry, exists = l.entries[key]
		if !exists {
			entry = &limiterEntry{}
			l.entries[key] = entry
		}
		l.mu.Unlock()
	}
	return entry
}

// cleanup removes entries with no in-window activity for any tier.
func (l *Limiter) cleanup() {
	now := l.now()

	// The widest window bounds how long a timestamp can stay relevant.
	var maxWindow time.Duration
	for _, cfg := range l.tiers {
		if cfg.Window > maxWindow {
			maxWindow = cfg.Window
		}
	}
	cutoff := now.Add(-maxWindow)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		entry.mu.Lock()
		hasRecent := false
		for _, ts := range entry.timestamps {
			if ts.After(cutoff) {
				hasRecent = true
				break
			}
		}
		entry.mu.Unlock()

		if !hasRecent {
			delete(l.entries, key)
		}
	}
}
