// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package interpret implements the interpretation cache and admission-control
// layer: deterministic fingerprints for chart configurations, a TTL-bound
// ephemeral cache for generated text, per-user per-tier rate limiting, and
// staleness tracking for text whose chart parameters have drifted.
package interpret

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"astrodesk/internal/models"
)

// fingerprintVersion is baked into every hash so a future change to the
// canonical representation invalidates old keys instead of colliding.
const fingerprintVersion = "v1"

// dayFormat is the canonical date representation inside fingerprints.
// Natal dates are date-only by nature; transit "as of" dates are deliberately
// truncated to day granularity so the cache key stays stable while the clock
// advances within a day, and rolls over naturally at midnight.
const dayFormat = "2006-01-02"

// ChartRequest carries the semantically relevant parameters of a chart
// configuration. It is the input to Fingerprint and to the generation flow.
type ChartRequest struct {
	ChartType    models.ChartType
	PrimaryKey   string    // stable subject identifier
	PrimaryDate  time.Time // natal date of the primary subject
	SecondaryKey string    // partner identifier (synastry, composite)
	AsOf         *time.Time
	CycleIndex   *int // solar/lunar return cycle
}

// Fingerprint derives the deterministic cache key for the request.
//
// The key is an FNV-1a hash of a canonical pipe-joined representation, so
// identical semantic parameters always produce identical keys and the key
// carries no PII. Malformed inputs fail fast with a *ValidationError rather
// than silently decaying into a colliding key.
func Fingerprint(req ChartRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	parts := []string{
		fingerprintVersion,
		string(req.ChartType),
		req.PrimaryKey,
		req.PrimaryDate.UTC().Format(dayFormat),
	}
	if req.ChartType.RequiresPartner() {
		parts = append(parts, "partner:"+req.SecondaryKey)
	}
	if req.ChartType.RequiresAsOf() {
		parts = append(parts, "asof:"+req.AsOf.UTC().Format(dayFormat))
	}
	if req.ChartType.RequiresCycle() {
		parts = append(parts, fmt.Sprintf("cycle:%d", *req.CycleIndex))
	}

	h := fnv.New64a()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func (req ChartRequest) validate() error {
	if !req.ChartType.Valid() {
		return &ValidationError{Field: "chart_type", Msg: fmt.Sprintf("unknown chart type %q", req.ChartType)}
	}
	if strings.TrimSpace(req.PrimaryKey) == "" {
		return &ValidationError{Field: "subject", Msg: "primary subject identifier is required"}
	}
	if req.PrimaryDate.IsZero() {
		return &ValidationError{Field: "birth_date", Msg: "primary natal date is required"}
	}
	if req.ChartType.RequiresPartner() && strings.TrimSpace(req.SecondaryKey) == "" {
		return &ValidationError{Field: "partner", Msg: fmt.Sprintf("%s charts require a partner identifier", req.ChartType)}
	}
	if req.ChartType.RequiresAsOf() && (req.AsOf == nil || req.AsOf.IsZero()) {
		return &ValidationError{Field: "as_of", Msg: "transit charts require an as-of date"}
	}
	if req.ChartType.RequiresCycle() && req.CycleIndex == nil {
		return &ValidationError{Field: "cycle_index", Msg: fmt.Sprintf("%s charts require a cycle index", req.ChartType)}
	}
	return nil
}
