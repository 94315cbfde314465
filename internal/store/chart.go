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

// ChartStore handles chart configuration database operations. Only the
// parameters are stored — chart geometry is recomputed on demand.
type ChartStore struct {
	db *sql.DB
}

// NewChartStore creates a new ChartStore.
func NewChartStore(db *sql.DB) *ChartStore {
	return &ChartStore{db: db}
}

const chartColumns = "id, owner_id, chart_type, subject_id, partner_id, as_of_date, cycle_index, house_system, school, created_at, updated_at"

func scanChart(row interface{ Scan(...any) error }) (*models.Chart, error) {
	c := &models.Chart{}
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Type, &c.SubjectID, &c.PartnerID,
		&c.AsOfDate, &c.CycleIndex, &c.HouseSystem, &c.School,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID retrieves a chart by UUID. Returns nil if not found.
func (s *ChartStore) FindByID(id uuid.UUID) (*models.Chart, error) {
	c, err := scanChart(s.db.QueryRow(
		"SELECT "+chartColumns+" FROM charts WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find chart by id: %w", err)
	}
	return c, nil
}

// ListByOwner returns all charts belonging to a user, newest first.
func (s *ChartStore) ListByOwner(ownerID uuid.UUID) ([]models.Chart, error) {
	rows, err := s.db.Query(
		"SELECT "+chartColumns+" FROM charts WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	defer rows.Close()

	var charts []models.Chart
	for rows.Next() {
		c, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chart: %w", err)
		}
		charts = append(charts, *c)
	}
	return charts, rows.Err()
}

// Create inserts a new chart configuration.
func (s *ChartStore) Create(c *models.Chart) (*models.Chart, error) {
	created, err := scanChart(s.db.QueryRow(`
		INSERT INTO charts (owner_id, chart_type, subject_id, partner_id, as_of_date, cycle_index, house_system, school)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+chartColumns,
		c.OwnerID, c.Type, c.SubjectID, c.PartnerID, c.AsOfDate,
		c.CycleIndex, c.HouseSystem, c.School))
	if err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	return created, nil
}

// Update modifies a chart's parameters. Parameter changes alter the chart's
// fingerprint, so any previously persisted interpretation no longer applies.
func (s *ChartStore) Update(c *models.Chart) (*models.Chart, error) {
	updated, err := scanChart(s.db.QueryRow(`
		UPDATE charts
		SET chart_type = $1, subject_id = $2, partner_id = $3, as_of_date = $4,
		    cycle_index = $5, house_system = $6, school = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING `+chartColumns,
		c.Type, c.SubjectID, c.PartnerID, c.AsOfDate, c.CycleIndex,
		c.HouseSystem, c.School, c.ID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update chart: %w", err)
	}
	return updated, nil
}

// Delete removes a chart and (via ON DELETE CASCADE) its interpretations.
func (s *ChartStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec("DELETE FROM charts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete chart: %w", err)
	}
	return nil
}
