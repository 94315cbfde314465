// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ChartType is the closed enumeration of supported chart configurations.
type ChartType string

const (
	ChartNatal       ChartType = "natal"
	ChartTransit     ChartType = "transit"
	ChartSynastry    ChartType = "synastry"
	ChartComposite   ChartType = "composite"
	ChartSolarReturn ChartType = "solar_return"
	ChartLunarReturn ChartType = "lunar_return"
)

// Valid reports whether t is one of the supported chart types.
func (t ChartType) Valid() bool {
	switch t {
	case ChartNatal, ChartTransit, ChartSynastry, ChartComposite,
		ChartSolarReturn, ChartLunarReturn:
		return true
	}
	return false
}

// RequiresPartner reports whether the chart type needs a second subject.
func (t ChartType) RequiresPartner() bool {
	return t == ChartSynastry || t == ChartComposite
}

// RequiresAsOf reports whether the chart type needs a secondary "as of" date.
func (t ChartType) RequiresAsOf() bool {
	return t == ChartTransit
}

// RequiresCycle reports whether the chart type needs a cycle index
// (which solar or lunar return to cast).
func (t ChartType) RequiresCycle() bool {
	return t == ChartSolarReturn || t == ChartLunarReturn
}

// Chart is a saved chart configuration: the type, the subject(s), and the
// parameters needed to recompute it. Chart geometry is never stored — it is
// a deterministic function of these fields.
type Chart struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Type        ChartType  `json:"type"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	PartnerID   *uuid.UUID `json:"partner_id,omitempty"`
	AsOfDate    *time.Time `json:"as_of_date,omitempty"`
	CycleIndex  *int       `json:"cycle_index,omitempty"`
	HouseSystem string     `json:"house_system"`
	School      string     `json:"school"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Interpretation is interpretation text that has been written to durable
// storage. Once a durable copy exists, it is preferred over any ephemeral
// cached copy with the same fingerprint.
type Interpretation struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          uuid.UUID `json:"owner_id"`
	ChartID          uuid.UUID `json:"chart_id"`
	Fingerprint      string    `json:"fingerprint"`
	School           string    `json:"school"`
	RelationshipType *string   `json:"relationship_type,omitempty"`
	Text             string    `json:"text"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
