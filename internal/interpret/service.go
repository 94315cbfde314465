// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package interpret

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// GenerateFunc produces interpretation text for a chart. It is the expensive
// AI call, invoked only after an admission-control pass and a cache miss.
type GenerateFunc func(ctx context.Context) (string, error)

// Result is the outcome of an interpretation request.
type Result struct {
	Text      string
	FromCache bool
	Decision  Decision
}

// Service orchestrates the generation flow: fingerprint, cache lookup,
// admission control, generation, cache write. Concurrent requests for the
// same fingerprint are collapsed into a single generation via singleflight;
// the cache itself only guarantees last-write-wins.
type Service struct {
	cache   *Cache
	limiter *Limiter
	flight  singleflight.Group
}

// NewService creates the interpretation service.
func NewService(cache *Cache, limiter *Limiter) *Service {
	return &Service{cache: cache, limiter: limiter}
}

// Limiter exposes the admission controller for non-generation callers
// (route middleware gating mutation endpoints).
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Cached returns the ephemeral cached text for a request, if any, along
// with a non-consuming snapshot of the strict-tier budget. Read paths call
// this after checking durable storage; a lookup never consumes quota.
func (s *Service) Cached(ctx context.Context, identity string, req ChartRequest) (string, bool, Decision, error) {
	fp, err := Fingerprint(req)
	if err != nil {
		return "", false, Decision{}, err
	}
	text, ok := s.cache.Get(ctx, fp)
	return text, ok, s.limiter.Peek(identity, TierStrict), nil
}

// Generate returns interpretation text for the request, preferring the
// ephemeral cache. A cache hit bypasses admission control entirely — no
// generation occurs, so no quota is consumed. A miss consumes one unit of
// the identity's strict-tier budget before generate is invoked.
//
// Returns *ValidationError for malformed requests, *RateLimitError when the
// strict tier is exhausted, and *GenerationError when the AI call fails
// (the cache is left untouched — failures are never cached).
func (s *Service) Generate(ctx context.Context, identity string, req ChartRequest, generate GenerateFunc) (Result, error) {
	fp, err := Fingerprint(req)
	if err != nil {
		return Result{}, err
	}

	if text, ok := s.cache.Get(ctx, fp); ok {
		return Result{
			Text:      text,
			FromCache: true,
			Decision:  s.limiter.Peek(identity, TierStrict),
		}, nil
	}

	decision := s.limiter.Check(identity, TierStrict)
	if !decision.Allowed {
		return Result{Decision: decision}, &RateLimitError{
			Tier:    TierStrict,
			Limit:   decision.Limit,
			ResetAt: decision.ResetAt,
		}
	}

	// Collapse concurrent generations for the same fingerprint. Each caller
	// has already paid its admission cost; singleflight only avoids the
	// duplicate provider call.
	text, err, shared := s.flight.Do(fp, func() (any, error) {
		out, genErr := generate(ctx)
		if genErr != nil {
			return "", genErr
		}
		s.cache.Put(ctx, fp, out)
		return out, nil
	})
	if err != nil {
		return Result{Decision: decision}, &GenerationError{Fingerprint: fp, Err: err}
	}
	if shared {
		slog.Debug("interpretation generation deduplicated", "fingerprint", fp)
	}

	return Result{
		Text:      text.(string),
		FromCache: false,
		Decision:  decision,
	}, nil
}

// OnPersisted is the cache invalidator hook for the durable-save path:
// invoked once per successful save of interpretation text. Invalidation
// failure never fails the save — a surviving ephemeral entry is a
// performance nuisance, not a correctness bug, since read paths prefer
// durable storage.
func (s *Service) OnPersisted(ctx context.Context, fingerprint string) {
	s.Invalidate(ctx, fingerprint)
}

// Invalidate drops the ephemeral cached copy for a fingerprint. Best-effort:
// backend failures are logged, never returned.
func (s *Service) Invalidate(ctx context.Context, fingerprint string) {
	if err := s.cache.Invalidate(ctx, fingerprint); err != nil {
		slog.Warn("interpretation cache invalidation failed",
			"fingerprint", fingerprint,
			"error", err,
		)
		return
	}
	slog.Debug("interpretation cache invalidated", "fingerprint", fingerprint)
}
