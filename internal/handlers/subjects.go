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

// subjectStore is the slice of store.SubjectStore the handlers need.
type subjectStore interface {
	FindByID(id uuid.UUID) (*models.Subject, error)
	ListByOwner(ownerID uuid.UUID) ([]models.Subject, error)
	Create(sub *models.Subject) (*models.Subject, error)
	Update(sub *models.Subject) (*models.Subject, error)
	Delete(id uuid.UUID) error
}

// Subjects groups the subject (birth data) CRUD handlers.
type Subjects struct {
	store subjectStore
}

// NewSubjects creates a new Subjects handler group.
func NewSubjects(store subjectStore) *Subjects {
	return &Subjects{store: store}
}

// subjectRequest is the JSON body for create and update.
type subjectRequest struct {
	Name      string  `json:"name"`
	BirthDate string  `json:"birth_date"` // "2006-01-02"
	BirthTime *string `json:"birth_time,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

func (req *subjectRequest) validate() (time.Time, string) {
	if req.Name == "" {
		return time.Time{}, "name is required"
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return time.Time{}, "birth_date must be YYYY-MM-DD"
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		return time.Time{}, "latitude out of range"
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return time.Time{}, "longitude out of range"
	}
	return birthDate, ""
}

// List returns the authenticated user's subjects.
func (h *Subjects) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	subjects, err := h.store.ListByOwner(sess.UserID)
	if err != nil {
		slog.Error("list subjects failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	writeJSON(w, http.StatusOK, subjects)
}

// Create adds a new subject for the authenticated user.
func (h *Subjects) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	birthDate, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	created, err := h.store.Create(&models.Subject{
		OwnerID:   sess.UserID,
		Name:      req.Name,
		BirthDate: birthDate,
		BirthTime: req.BirthTime,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Timezone:  req.Timezone,
	})
	if err != nil {
		slog.Error("create subject failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns a single subject owned by the authenticated user.
func (h *Subjects) Get(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Update modifies a subject's birth data. Fingerprints derived from the
// subject change as a consequence, so previously generated interpretations
// for its charts no longer apply.
func (h *Subjects) Update(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}

	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	birthDate, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	sub.Name = req.Name
	sub.BirthDate = birthDate
	sub.BirthTime = req.BirthTime
	sub.Latitude = req.Latitude
	sub.Longitude = req.Longitude
	if req.Timezone != "" {
		sub.Timezone = req.Timezone
	}

	updated, err := h.store.Update(sub)
	if err != nil {
		slog.Error("update subject failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a subject and its dependent charts.
func (h *Subjects) Delete(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(sub.ID); err != nil {
		slog.Error("delete subject failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownedSubject loads the subject from the URL and enforces ownership.
// Writes the error response itself when the lookup fails.
func (h *Subjects) ownedSubject(w http.ResponseWriter, r *http.Request) (*models.Subject, bool) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuidParam(r, "subjectID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	sub, err := h.store.FindByID(id)
	if err != nil {
		slog.Error("find subject failed", "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return nil, false
	}
	if sub == nil || sub.OwnerID != sess.UserID {
		// Not found and not-yours are indistinguishable to the caller.
		writeError(w, http.StatusNotFound, "subject not found")
		return nil, false
	}
	return sub, true
}
