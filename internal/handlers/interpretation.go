// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"astrodesk/internal/astro"
	"astrodesk/internal/interpret"
	"astrodesk/internal/middleware"
	"astrodesk/internal/models"
)

// interpretationStore is the slice of store.InterpretationStore the
// handlers need.
type interpretationStore interface {
	Save(i *models.Interpretation) (*models.Interpretation, error)
	FindByFingerprint(ownerID uuid.UUID, fingerprint string) (*models.Interpretation, error)
	Delete(id uuid.UUID) error
}

// invalidationLogger records invalidation events for audit.
type invalidationLogger interface {
	Log(fingerprint, reason string)
}

// textGenerator is the slice of ai.Registry the handlers need.
type textGenerator interface {
	GenerateInterpretation(ctx context.Context, chart astro.ChartData, chartType models.ChartType, school, relationshipType string) (string, error)
}

// Interpretations groups the interpretation read/generate/persist handlers.
// The flow is always: durable storage first, then the ephemeral cache, then
// (on explicit request only) generation.
type Interpretations struct {
	svc       *interpret.Service
	engine    astro.Engine
	generator textGenerator
	charts    chartStore
	subjects  subjectStore
	saved     interpretationStore
	audit     invalidationLogger
}

// NewInterpretations creates a new Interpretations handler group.
func NewInterpretations(
	svc *interpret.Service,
	engine astro.Engine,
	generator textGenerator,
	charts chartStore,
	subjects subjectStore,
	saved interpretationStore,
	audit invalidationLogger,
) *Interpretations {
	return &Interpretations{
		svc:       svc,
		engine:    engine,
		generator: generator,
		charts:    charts,
		subjects:  subjects,
		saved:     saved,
		audit:     audit,
	}
}

// interpretationResponse is the JSON shape for all read/generate responses.
// Limit and Remaining mirror the X-RateLimit headers so clients that only
// look at bodies still see their generation budget.
type interpretationResponse struct {
	Fingerprint string `json:"fingerprint"`
	Source      string `json:"source"` // "saved", "cache", or "generated"
	Text        string `json:"text"`
	Stale       bool   `json:"stale,omitempty"`
	Limit       int    `json:"limit"`
	Remaining   int    `json:"remaining"`
}

// Get returns the interpretation for a chart without ever generating one:
// the durable saved copy if present, otherwise the ephemeral cached copy,
// otherwise 404. Reads never consume admission quota.
func (h *Interpretations) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	c, subject, partner, ok := h.loadChart(w, r)
	if !ok {
		return
	}

	req := buildChartRequest(c, subject, partner)
	fp, err := interpret.Fingerprint(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Durable storage wins over the ephemeral cache.
	saved, err := h.saved.FindByFingerprint(sess.UserID, fp)
	if err != nil {
		slog.Error("find saved interpretation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	if saved != nil {
		d := h.svc.Limiter().Peek(middleware.Identity(r), interpret.TierStrict)
		middleware.SetRateLimitHeaders(w, d)
		writeJSON(w, http.StatusOK, interpretationResponse{
			Fingerprint: fp,
			Source:      "saved",
			Text:        saved.Text,
			Stale:       h.isStale(r, c, fp, saved.UpdatedAt),
			Limit:       d.Limit,
			Remaining:   d.Remaining,
		})
		return
	}

	text, hit, decision, err := h.svc.Cached(r.Context(), middleware.Identity(r), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.SetRateLimitHeaders(w, decision)
	if hit {
		writeJSON(w, http.StatusOK, interpretationResponse{
			Fingerprint: fp,
			Source:      "cache",
			Text:        text,
			Limit:       decision.Limit,
			Remaining:   decision.Remaining,
		})
		return
	}

	writeError(w, http.StatusNotFound, "no interpretation available")
}

// Generate produces interpretation text for a chart. A cache hit is served
// without consuming quota; a miss passes admission control, computes the
// chart geometry, and calls the AI provider.
func (h *Interpretations) Generate(w http.ResponseWriter, r *http.Request) {
	c, subject, partner, ok := h.loadChart(w, r)
	if !ok {
		return
	}

	var body struct {
		RelationshipType string `json:"relationship_type,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	req := buildChartRequest(c, subject, partner)
	gen := func(ctx context.Context) (string, error) {
		chartData := h.engine.ComputeChart(*subject, resolveAsOf(c, subject), astro.Settings{
			HouseSystem: c.HouseSystem,
		})
		return h.generator.GenerateInterpretation(ctx, chartData, c.Type, c.School, body.RelationshipType)
	}

	res, err := h.svc.Generate(r.Context(), middleware.Identity(r), req, gen)
	if err != nil {
		h.writeGenerateError(w, err, res.Decision)
		return
	}
	middleware.SetRateLimitHeaders(w, res.Decision)

	fp, _ := interpret.Fingerprint(req)
	source := "generated"
	if res.FromCache {
		source = "cache"
	}
	writeJSON(w, http.StatusOK, interpretationResponse{
		Fingerprint: fp,
		Source:      source,
		Text:        res.Text,
		Limit:       res.Decision.Limit,
		Remaining:   res.Decision.Remaining,
	})
}

// Persist writes interpretation text to durable storage and invalidates the
// ephemeral cached copy so reads converge on the saved version.
func (h *Interpretations) Persist(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	c, subject, partner, ok := h.loadChart(w, r)
	if !ok {
		return
	}

	var body struct {
		Text             string  `json:"text"`
		RelationshipType *string `json:"relationship_type,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	fp, err := interpret.Fingerprint(buildChartRequest(c, subject, partner))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.saved.Save(&models.Interpretation{
		OwnerID:          sess.UserID,
		ChartID:          c.ID,
		Fingerprint:      fp,
		School:           c.School,
		RelationshipType: body.RelationshipType,
		Text:             body.Text,
	})
	if err != nil {
		slog.Error("save interpretation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}

	// Drop the ephemeral copy — the durable one is authoritative now.
	h.svc.OnPersisted(r.Context(), fp)
	h.audit.Log(fp, "persist")

	writeJSON(w, http.StatusCreated, saved)
}

// Remove deletes the saved interpretation for a chart and drops any
// ephemeral cached copy of the same fingerprint.
func (h *Interpretations) Remove(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	c, subject, partner, ok := h.loadChart(w, r)
	if !ok {
		return
	}

	fp, err := interpret.Fingerprint(buildChartRequest(c, subject, partner))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.saved.FindByFingerprint(sess.UserID, fp)
	if err != nil {
		slog.Error("find saved interpretation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	if saved == nil {
		writeError(w, http.StatusNotFound, "no saved interpretation")
		return
	}

	if err := h.saved.Delete(saved.ID); err != nil {
		slog.Error("delete interpretation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}

	h.svc.Invalidate(r.Context(), fp)
	h.audit.Log(fp, "delete")

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeGenerateError maps service errors to HTTP responses.
func (h *Interpretations) writeGenerateError(w http.ResponseWriter, err error, d interpret.Decision) {
	var vErr *interpret.ValidationError
	var rlErr *interpret.RateLimitError
	var genErr *interpret.GenerationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &rlErr):
		middleware.SetRateLimitHeaders(w, d)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     "rate_limited",
			"remaining": 0,
			"resetAt":   rlErr.ResetAt.Unix(),
		})
	case errors.As(err, &genErr):
		slog.Error("interpretation generation failed", "error", genErr)
		writeError(w, http.StatusBadGateway, "interpretation generation failed")
	default:
		slog.Error("interpretation request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
	}
}

// isStale reports whether a saved interpretation for a time-sensitive chart
// has drifted from the instant the client is currently viewing, passed as
// the as_of query parameter (RFC 3339).
func (h *Interpretations) isStale(r *http.Request, c *models.Chart, fp string, generatedAt time.Time) bool {
	if !c.Type.RequiresAsOf() || c.AsOfDate == nil {
		return false
	}
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return false
	}
	current, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	return interpret.IsStale(&interpret.Provenance{
		Fingerprint: fp,
		AsOf:        *c.AsOfDate,
		GeneratedAt: generatedAt,
	}, current, interpret.DefaultStaleTolerance)
}

// loadChart resolves the chart from the URL plus its subject and optional
// partner, enforcing ownership. Writes the error response itself on failure.
func (h *Interpretations) loadChart(w http.ResponseWriter, r *http.Request) (*models.Chart, *models.Subject, *models.Subject, bool) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuidParam(r, "chartID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, nil, false
	}

	c, err := h.charts.FindByID(id)
	if err != nil {
		slog.Error("find chart failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return nil, nil, nil, false
	}
	if c == nil || c.OwnerID != sess.UserID {
		writeError(w, http.StatusNotFound, "chart not found")
		return nil, nil, nil, false
	}

	subject, err := h.subjects.FindByID(c.SubjectID)
	if err != nil || subject == nil {
		slog.Error("find chart subject failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return nil, nil, nil, false
	}

	var partner *models.Subject
	if c.PartnerID != nil {
		partner, err = h.subjects.FindByID(*c.PartnerID)
		if err != nil || partner == nil {
			slog.Error("find chart partner failed", "error", err)
			writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
			return nil, nil, nil, false
		}
	}

	return c, subject, partner, true
}

// buildChartRequest maps a stored chart configuration onto the fingerprint
// request contract.
func buildChartRequest(c *models.Chart, subject, partner *models.Subject) interpret.ChartRequest {
	req := interpret.ChartRequest{
		ChartType:   c.Type,
		PrimaryKey:  subject.Key(),
		PrimaryDate: subject.BirthMoment(),
		AsOf:        c.AsOfDate,
		CycleIndex:  c.CycleIndex,
	}
	if partner != nil {
		req.SecondaryKey = partner.Key()
	}
	return req
}

// resolveAsOf picks the instant chart geometry is computed for: the chart's
// as-of date when it has one, otherwise the subject's birth moment.
func resolveAsOf(c *models.Chart, subject *models.Subject) time.Time {
	if c.AsOfDate != nil {
		return *c.AsOfDate
	}
	return subject.BirthMoment()
}
