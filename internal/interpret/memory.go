package interpret

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	text      string
	expiresAt time.Time
}

// memoryBackend is the in-process cache backend. Expiry is lazy: entries are
// checked and evicted at read time, which is sufficient for correctness; no
// background sweep runs.
type memoryBackend struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swappable in tests to exercise TTL expiry without sleeping.
	now func() time.Time
}

// NewMemoryBackend creates an in-memory cache backend with the given TTL.
func NewMemoryBackend(ttl time.Duration) Backend {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryBackend{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if m.now().After(entry.expiresAt) {
		// Opportunistic eviction on expired read.
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.text, true, nil
}

func (m *memoryBackend) Put(_ context.Context, key, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		text:      text,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
