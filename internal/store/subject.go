// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"astrodesk/internal/models"
)

// SubjectStore handles subject (birth data) database operations.
type SubjectStore struct {
	db *sql.DB
}

// NewSubjectStore creates a new SubjectStore.
func NewSubjectStore(db *sql.DB) *SubjectStore {
	return &SubjectStore{db: db}
}

const subjectColumns = "id, owner_id, name, birth_date, birth_time, latitude, longitude, timezone, created_at, updated_at"

func scanSubject(row interface{ Scan(...any) error }) (*models.Subject, error) {
	sub := &models.Subject{}
	err := row.Scan(
		&sub.ID, &sub.OwnerID, &sub.Name, &sub.BirthDate, &sub.BirthTime,
		&sub.Latitude, &sub.Longitude, &sub.Timezone, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// FindByID retrieves a subject by UUID. Returns nil if not found.
func (s *SubjectStore) FindByID(id uuid.UUID) (*models.Subject, error) {
	sub, err := scanSubject(s.db.QueryRow(
		"SELECT "+subjectColumns+" FROM subjects WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subject by id: %w", err)
	}
	return sub, nil
}

// ListByOwner returns all subjects belonging to a user, newest first.
func (s *SubjectStore) ListByOwner(ownerID uuid.UUID) ([]models.Subject, error) {
	rows, err := s.db.Query(
		"SELECT "+subjectColumns+" FROM subjects WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		sub, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, *sub)
	}
	return subjects, rows.Err()
}

// Create inserts a new subject for the given owner.
func (s *SubjectStore) Create(sub *models.Subject) (*models.Subject, error) {
	created, err := scanSubject(s.db.QueryRow(`
		INSERT INTO subjects (owner_id, name, birth_date, birth_time, latitude, longitude, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+subjectColumns,
		sub.OwnerID, sub.Name, sub.BirthDate, sub.BirthTime,
		sub.Latitude, sub.Longitude, sub.Timezone))
	if err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return created, nil
}

// Update modifies a subject's editable fields. Birth data edits change the
// subject's charts, so callers are expected to re-derive any dependent
// fingerprints afterwards.
func (s *SubjectStore) Update(sub *models.Subject) (*models.Subject, error) {
	updated, err := scanSubject(s.db.QueryRow(`
		UPDATE subjects
		SET name = $1, birth_date = $2, birth_time = $3, latitude = $4,
		    longitude = $5, timezone = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+subjectColumns,
		sub.Name, sub.BirthDate, sub.BirthTime, sub.Latitude,
		sub.Longitude, sub.Timezone, sub.ID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}
	return updated, nil
}

// Delete removes a subject and (via ON DELETE CASCADE) its charts.
func (s *SubjectStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec("DELETE FROM subjects WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
