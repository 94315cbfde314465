// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"astrodesk/internal/middleware"
	"astrodesk/internal/models"
)

// chartStore is the slice of store.ChartStore the handlers need.
type chartStore interface {
	FindByID(id uuid.UUID) (*models.Chart, error)
	ListByOwner(ownerID uuid.UUID) ([]models.Chart, error)
	Create(c *models.Chart) (*models.Chart, error)
	Update(c *models.Chart) (*models.Chart, error)
	Delete(id uuid.UUID) error
}

// Charts groups the chart configuration CRUD handlers.
type Charts struct {
	charts   chartStore
	subjects subjectStore
}

// NewCharts creates a new Charts handler group.
func NewCharts(charts chartStore, subjects subjectStore) *Charts {
	return &Charts{charts: charts, subjects: subjects}
}

// chartRequest is the JSON body for create and update.
type chartRequest struct {
	Type        models.ChartType `json:"type"`
	SubjectID   uuid.UUID        `json:"subject_id"`
	PartnerID   *uuid.UUID       `json:"partner_id,omitempty"`
	AsOfDate    *time.Time       `json:"as_of_date,omitempty"`
	CycleIndex  *int             `json:"cycle_index,omitempty"`
	HouseSystem string           `json:"house_system"`
	School      string           `json:"school"`
}

// validate enforces the per-type parameter requirements.
func (req *chartRequest) validate() string {
	if !req.Type.Valid() {
		return "unknown chart type"
	}
	if req.SubjectID == uuid.Nil {
		return "subject_id is required"
	}
	if req.Type.RequiresPartner() && req.PartnerID == nil {
		return string(req.Type) + " charts require partner_id"
	}
	if req.Type.RequiresAsOf() && req.AsOfDate == nil {
		return string(req.Type) + " charts require as_of_date"
	}
	if req.Type.RequiresCycle() && req.CycleIndex == nil {
		return string(req.Type) + " charts require cycle_index"
	}
	return ""
}

// List returns the authenticated user's charts.
func (h *Charts) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	charts, err := h.charts.ListByOwner(sess.UserID)
	if err != nil {
		slog.Error("list charts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	if charts == nil {
		charts = []models.Chart{}
	}
	writeJSON(w, http.StatusOK, charts)
}

// Create adds a new chart configuration.
func (h *Charts) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req chartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !h.ownsSubjects(w, sess.UserID, req.SubjectID, req.PartnerID) {
		return
	}
	if req.HouseSystem == "" {
		req.HouseSystem = "whole_sign"
	}
	if req.School == "" {
		req.School = "modern"
	}

	created, err := h.charts.Create(&models.Chart{
		OwnerID:     sess.UserID,
		Type:        req.Type,
		SubjectID:   req.SubjectID,
		PartnerID:   req.PartnerID,
		AsOfDate:    req.AsOfDate,
		CycleIndex:  req.CycleIndex,
		HouseSystem: req.HouseSystem,
		School:      req.School,
	})
	if err != nil {
		slog.Error("create chart failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns a single chart owned by the authenticated user.
func (h *Charts) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedChart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update modifies a chart's parameters. A parameter change alters the
// chart's fingerprint: any previously generated interpretation no longer
// matches and a fresh one must be generated (or the saved copy re-read
// as-is, marked stale by the client).
func (h *Charts) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	c, ok := h.ownedChart(w, r)
	if !ok {
		return
	}

	var req chartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !h.ownsSubjects(w, sess.UserID, req.SubjectID, req.PartnerID) {
		return
	}

	c.Type = req.Type
	c.SubjectID = req.SubjectID
	c.PartnerID = req.PartnerID
	c.AsOfDate = req.AsOfDate
	c.CycleIndex = req.CycleIndex
	if req.HouseSystem != "" {
		c.HouseSystem = req.HouseSystem
	}
	if req.School != "" {
		c.School = req.School
	}

	updated, err := h.charts.Update(c)
	if err != nil {
		slog.Error("update chart failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a chart and its saved interpretations.
func (h *Charts) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedChart(w, r)
	if !ok {
		return
	}
	if err := h.charts.Delete(c.ID); err != nil {
		slog.Error("delete chart failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownedChart loads the chart from the URL and enforces ownership.
func (h *Charts) ownedChart(w http.ResponseWriter, r *http.Request) (*models.Chart, bool) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuidParam(r, "chartID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	c, err := h.charts.FindByID(id)
	if err != nil {
		slog.Error("find chart failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return nil, false
	}
	if c == nil || c.OwnerID != sess.UserID {
		writeError(w, http.StatusNotFound, "chart not found")
		return nil, false
	}
	return c, true
}

// ownsSubjects verifies the subject (and partner, when set) belong to the
// user. Writes the error response itself on failure.
func (h *Charts) ownsSubjects(w http.ResponseWriter, userID, subjectID uuid.UUID, partnerID *uuid.UUID) bool {
	ids := []uuid.UUID{subjectID}
	if partnerID != nil {
		ids = append(ids, *partnerID)
	}
	for _, id := range ids {
		sub, err := h.subjects.FindByID(id)
		if err != nil {
			slog.Error("find subject failed", "error", err)
			writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
			return false
		}
		if sub == nil || sub.OwnerID != userID {
			writeError(w, http.StatusNotFound, "subject not found")
			return false
		}
	}
	return true
}
