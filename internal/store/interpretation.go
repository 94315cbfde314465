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

// InterpretationStore handles durable interpretation storage. A saved
// interpretation is the permanent copy of generated text; it takes
// precedence over any ephemeral cached copy with the same fingerprint.
type InterpretationStore struct {
	db *sql.DB
}

// NewInterpretationStore creates a new InterpretationStore.
func NewInterpretationStore(db *sql.DB) *InterpretationStore {
	return &InterpretationStore{db: db}
}

const interpColumns = "id, owner_id, chart_id, fingerprint, school, relationship_type, text, created_at, updated_at"

func scanInterpretation(row interface{ Scan(...any) error }) (*models.Interpretation, error) {
	i := &models.Interpretation{}
	err := row.Scan(
		&i.ID, &i.OwnerID, &i.ChartID, &i.Fingerprint, &i.School,
		&i.RelationshipType, &i.Text, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// Save upserts an interpretation keyed by (owner, fingerprint). Saving the
// same fingerprint twice replaces the text — the latest save wins.
func (s *InterpretationStore) Save(i *models.Interpretation) (*models.Interpretation, error) {
	saved, err := scanInterpretation(s.db.QueryRow(`
		INSERT INTO interpretations (owner_id, chart_id, fingerprint, school, relationship_type, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, fingerprint) DO UPDATE
		SET chart_id = EXCLUDED.chart_id, school = EXCLUDED.school,
		    relationship_type = EXCLUDED.relationship_type,
		    text = EXCLUDED.text, updated_at = NOW()
		RETURNING `+interpColumns,
		i.OwnerID, i.ChartID, i.Fingerprint, i.School, i.RelationshipType, i.Text))
	if err != nil {
		return nil, fmt.Errorf("save interpretation: %w", err)
	}
	return saved, nil
}

// FindByFingerprint retrieves a user's saved interpretation for the given
// fingerprint. Returns nil if none has been persisted.
func (s *InterpretationStore) FindByFingerprint(ownerID uuid.UUID, fingerprint string) (*models.Interpretation, error) {
	i, err := scanInterpretation(s.db.QueryRow(
		"SELECT "+interpColumns+" FROM interpretations WHERE owner_id = $1 AND fingerprint = $2",
		ownerID, fingerprint))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find interpretation: %w", err)
	}
	return i, nil
}

// ListByChart returns all saved interpretations for a chart, newest first.
func (s *InterpretationStore) ListByChart(chartID uuid.UUID) ([]models.Interpretation, error) {
	rows, err := s.db.Query(
		"SELECT "+interpColumns+" FROM interpretations WHERE chart_id = $1 ORDER BY updated_at DESC", chartID)
	if err != nil {
		return nil, fmt.Errorf("list interpretations: %w", err)
	}
	defer rows.Close()

	var interps []models.Interpretation
	for rows.Next() {
		i, err := scanInterpretation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interpretation: %w", err)
		}
		interps = append(interps, *i)
	}
	return interps, rows.Err()
}

// Delete removes a saved interpretation by ID.
func (s *InterpretationStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec("DELETE FROM interpretations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete interpretation: %w", err)
	}
	return nil
}
