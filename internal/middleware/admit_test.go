package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"astrodesk/internal/interpret"
)

func testLimiter(t *testing.T, limit int) *interpret.Limiter {
	t.Helper()
	l := interpret.NewLimiter(map[interpret.Tier]interpret.TierConfig{
		interpret.TierStandard: {Limit: limit, Window: time.Minute},
	})
	t.Cleanup(l.Stop)
	return l
}

func TestIdentity(t *testing.T) {
	t.Run("authenticated user", func(t *testing.T) {
		sess := newTestSession("member")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ctxWithSession(req.Context(), sess))

		got := Identity(req)
		want := "user:" + sess.UserID.String()
		if got != want {
			t.Errorf("Identity = %q, want %q", got, want)
		}
	})

	t.Run("anonymous falls back to IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:51234"

		if got := Identity(req); got != "ip:203.0.113.7" {
			t.Errorf("Identity = %q, want ip:203.0.113.7", got)
		}
	})

	t.Run("honours X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")

		if got := Identity(req); got != "ip:198.51.100.4" {
			t.Errorf("Identity = %q, want ip:198.51.100.4", got)
		}
	})
}

func TestAdmitAllowsUnderLimit(t *testing.T) {
	limiter := testLimiter(t, 3)
	inner, called := okHandler()
	handler := Admit(limiter, interpret.TierStandard)(inner)

	req := httptest.NewRequest(http.MethodPost, "/api/subjects", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !*called {
		t.Error("handler should have been called")
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Errorf("X-RateLimit-Limit = %q, want 3", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Errorf("X-RateLimit-Remaining = %q, want 2", got)
	}
}

func TestAdmitRejectsOverLimit(t *testing.T) {
	limiter := testLimiter(t, 2)
	inner, _ := okHandler()
	handler := Admit(limiter, interpret.TierStandard)(inner)

	var rr *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/subjects", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"rate_limited"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset should be set on rejection")
	}
}

func TestAdmitSeparatesClients(t *testing.T) {
	limiter := testLimiter(t, 1)
	inner, _ := okHandler()
	handler := Admit(limiter, interpret.TierStandard)(inner)

	first := httptest.NewRequest(http.MethodPost, "/", nil)
	first.RemoteAddr = "203.0.113.7:1"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("first client: got %d", rr.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/", nil)
	second.RemoteAddr = "198.51.100.9:1"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, second)
	if rr.Code != http.StatusOK {
		t.Errorf("a different client must have its own bucket, got %d", rr.Code)
	}
}
