package interpret

import (
	"testing"
	"time"
)

func testLimiter(t *testing.T) *Limiter {
	t.Helper()

	l := NewLimiter(map[Tier]TierConfig{
		TierStandard: {Limit: 5, Window: time.Minute},
		TierStrict:   {Limit: 3, Window: time.Minute},
	})
	t.Cleanup(l.Stop)
	return l
}

func TestLimiterCeiling(t *testing.T) {
	l := testLimiter(t)

	// Exactly limit requests are allowed, with remaining counting down to 0.
	for i := 0; i < 3; i++ {
		d := l.Check("user-1", TierStrict)
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if want := 3 - (i + 1); d.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}

	// The limit+1-th request is rejected with remaining 0 and a reset time.
	d := l.Check("user-1", TierStrict)
	if d.Allowed {
		t.Error("request over the ceiling should be rejected")
	}
	if d.Remaining != 0 {
		t.Errorf("rejected remaining = %d, want 0", d.Remaining)
	}
	if d.ResetAt.IsZero() {
		t.Error("rejected decision should carry a reset time")
	}
}

func TestLimiterTierIndependence(t *testing.T) {
	l := testLimiter(t)

	// Exhaust the strict tier.
	for i := 0; i < 3; i++ {
		l.Check("user-1", TierStrict)
	}
	if l.Check("user-1", TierStrict).Allowed {
		t.Fatal("strict tier should be exhausted")
	}

	// Standard accounting for the same identity is unaffected.
	d := l.Check("user-1", TierStandard)
	if !d.Allowed {
		t.Error("standard tier should be unaffected by strict exhaustion")
	}
	if d.Remaining != 4 {
		t.Errorf("standard remaining = %d, want 4", d.Remaining)
	}
}

func TestLimiterIdentityIsolation(t *testing.T) {
	l := testLimiter(t)

	for i := 0; i < 3; i++ {
		l.Check("user-1", TierStrict)
	}

	if !l.Check("user-2", TierStrict).Allowed {
		t.Error("another identity should have its own budget")
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	l := testLimiter(t)

	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		l.Check("user-1", TierStrict)
	}
	if l.Check("user-1", TierStrict).Allowed {
		t.Fatal("should be rejected at the ceiling")
	}

	// After the window slides past the oldest request, one slot frees up.
	l.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	d := l.Check("user-1", TierStrict)
	if !d.Allowed {
		t.Error("should be allowed after the window slides")
	}
}

func TestLimiterResetAt(t *testing.T) {
	l := testLimiter(t)

	base := time.Now()
	l.now = func() time.Time { return base }

	first := l.Check("user-1", TierStrict)
	want := base.Add(time.Minute)
	if !first.ResetAt.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", first.ResetAt, want)
	}
}

func TestLimiterPeekDoesNotConsume(t *testing.T) {
	l := testLimiter(t)

	for i := 0; i < 10; i++ {
		if d := l.Peek("user-1", TierStrict); d.Remaining != 3 {
			t.Fatalf("peek %d consumed quota: remaining = %d", i, d.Remaining)
		}
	}

	l.Check("user-1", TierStrict)

	d := l.Peek("user-1", TierStrict)
	if d.Remaining != 2 {
		t.Errorf("after one check, peek remaining = %d, want 2", d.Remaining)
	}
	if !d.Allowed {
		t.Error("peek with budget left should report allowed")
	}
}

func TestLimiterUnknownTier(t *testing.T) {
	l := testLimiter(t)

	if l.Check("user-1", Tier("premium")).Allowed {
		t.Error("unconfigured tier should be rejected")
	}
}

func TestLimiterCleanup(t *testing.T) {
	l := testLimiter(t)

	base := time.Now()
	l.now = func() time.Time { return base }

	l.Check("idle-user", TierStandard)
	l.Check("active-user", TierStandard)

	// Slide past the widest window for the idle user, keep the active one fresh.
	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	l.Check("active-user", TierStandard)

	l.cleanup()

	l.mu.RLock()
	_, idleExists := l.entries["idle-user|standard"]
	_, activeExists := l.entries["active-user|standard"]
	l.mu.RUnlock()

	if idleExists {
		t.Error("idle entry should be cleaned up")
	}
	if !activeExists {
		t.Error("active entry should be retained")
	}
}
