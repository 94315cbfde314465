package interpret

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewCache(NewMemoryBackend(time.Minute), true)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "fp-1"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Put(ctx, "fp-1", "the moon in cancer suggests...")

	text, ok := c.Get(ctx, "fp-1")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if text != "the moon in cancer suggests..." {
		t.Errorf("text mismatch: got %q", text)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	backend := NewMemoryBackend(time.Minute).(*memoryBackend)
	c := NewCache(backend, true)
	ctx := context.Background()

	base := time.Now()
	backend.now = func() time.Time { return base }

	c.Put(ctx, "fp-ttl", "text")

	// Just inside the TTL: still present.
	backend.now = func() time.Time { return base.Add(time.Minute) }
	if _, ok := c.Get(ctx, "fp-ttl"); !ok {
		t.Error("entry should survive until TTL elapses")
	}

	// Past the TTL: treated as absent and evicted.
	backend.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	if _, ok := c.Get(ctx, "fp-ttl"); ok {
		t.Error("entry should expire after TTL")
	}

	backend.mu.RLock()
	_, still := backend.entries["fp-ttl"]
	backend.mu.RUnlock()
	if still {
		t.Error("expired entry should be evicted on read")
	}
}

func TestMemoryCacheLastWriteWins(t *testing.T) {
	c := NewCache(NewMemoryBackend(time.Minute), true)
	ctx := context.Background()

	c.Put(ctx, "fp-lww", "first")
	c.Put(ctx, "fp-lww", "second")

	text, ok := c.Get(ctx, "fp-lww")
	if !ok || text != "second" {
		t.Errorf("expected last write to win, got %q (ok=%v)", text, ok)
	}
}

func TestDisabledCacheIsInert(t *testing.T) {
	c := NewCache(NewMemoryBackend(time.Minute), false)
	ctx := context.Background()

	c.Put(ctx, "fp-off", "text")

	if _, ok := c.Get(ctx, "fp-off"); ok {
		t.Error("disabled cache must always report absent")
	}
	if err := c.Invalidate(ctx, "fp-off"); err != nil {
		t.Errorf("disabled invalidate should be a no-op, got %v", err)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(NewMemoryBackend(time.Minute), true)
	ctx := context.Background()

	c.Put(ctx, "fp-inv", "draft")
	if err := c.Invalidate(ctx, "fp-inv"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Get(ctx, "fp-inv"); ok {
		t.Error("expected miss after invalidation")
	}
}

// erroringBackend simulates unreachable backing storage.
type erroringBackend struct{ err error }

func (b erroringBackend) Get(context.Context, string) (string, bool, error) { return "", false, b.err }
func (b erroringBackend) Put(context.Context, string, string) error         { return b.err }
func (b erroringBackend) Delete(context.Context, string) error              { return b.err }

func TestCacheDegradesToMissOnBackendError(t *testing.T) {
	c := NewCache(erroringBackend{err: context.DeadlineExceeded}, true)
	ctx := context.Background()

	// Unreachable storage degrades to "always miss" — no panic, no error
	// surfaced to the caller.
	c.Put(ctx, "fp-err", "text")
	if _, ok := c.Get(ctx, "fp-err"); ok {
		t.Error("backend error should present as a miss")
	}

	// Invalidation does surface the error so the invalidator can log it.
	if err := c.Invalidate(ctx, "fp-err"); err == nil {
		t.Error("expected invalidation error to propagate")
	}
}

// --- Valkey backend ---

func testValkey(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestValkeyBackendRoundTrip(t *testing.T) {
	_, client := testValkey(t)
	c := NewCache(NewValkeyBackend(client, time.Hour), true)
	ctx := context.Background()

	c.Put(ctx, "fp-v1", "saturn square sun...")

	text, ok := c.Get(ctx, "fp-v1")
	if !ok || text != "saturn square sun..." {
		t.Errorf("expected hit with stored text, got %q (ok=%v)", text, ok)
	}
}

func TestValkeyBackendTTLExpiry(t *testing.T) {
	mr, client := testValkey(t)
	c := NewCache(NewValkeyBackend(client, 24*time.Hour), true)
	ctx := context.Background()

	c.Put(ctx, "fp-v2", "text")

	mr.FastForward(24*time.Hour + time.Minute)

	if _, ok := c.Get(ctx, "fp-v2"); ok {
		t.Error("entry should expire after TTL")
	}
}

func TestValkeyBackendInvalidate(t *testing.T) {
	_, client := testValkey(t)
	c := NewCache(NewValkeyBackend(client, time.Hour), true)
	ctx := context.Background()

	c.Put(ctx, "fp-v3", "draft")
	if err := c.Invalidate(ctx, "fp-v3"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Get(ctx, "fp-v3"); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestValkeyBackendKeyPrefix(t *testing.T) {
	mr, client := testValkey(t)
	c := NewCache(NewValkeyBackend(client, time.Hour), true)

	c.Put(context.Background(), "fp-v4", "text")

	if !mr.Exists("interp:fp-v4") {
		t.Error("entries should be namespaced under the interp: prefix")
	}
}
