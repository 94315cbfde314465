// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"astrodesk/internal/interpret"
)

// Identity returns the admission-control identity for a request: the
// authenticated user's ID when a session is loaded, otherwise the client
// IP. Anonymous and authenticated traffic never share a bucket.
func Identity(r *http.Request) string {
	if sess := SessionFromCtx(r.Context()); sess != nil {
		return "user:" + sess.UserID.String()
	}
	return "ip:" + clientIP(r)
}

// Admit returns a middleware that consumes one token from the given tier
// for each request. Denied requests get a 429 with rate-limit headers;
// allowed requests carry the remaining quota in their response headers.
func Admit(limiter *interpret.Limiter, tier interpret.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.Check(Identity(r), tier)
			SetRateLimitHeaders(w, d)
			if !d.Allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"rate_limited","remaining":0,"resetAt":%d}`, d.ResetAt.Unix())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetRateLimitHeaders writes the standard X-RateLimit-* headers for a
// limiter decision.
func SetRateLimitHeaders(w http.ResponseWriter, d interpret.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For first (may contain multiple IPs).
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first (leftmost) IP — the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP.
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr (strip port).
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
