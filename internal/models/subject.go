// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subject is a person (or event) a chart is cast for: a name plus birth
// data. Subjects belong to the user who created them.
type Subject struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	BirthTime *string   `json:"birth_time,omitempty"` // "HH:MM", nil when unknown
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the stable identifier used when deriving interpretation
// fingerprints. The UUID is stable across repeated calls for the same
// logical subject; the name alone is not (it can be edited).
func (s *Subject) Key() string {
	return s.ID.String()
}

// BirthMoment combines the birth date and optional birth time into a single
// instant. When the time of birth is unknown, noon is assumed — the
// convention for untimed charts.
func (s *Subject) BirthMoment() time.Time {
	d := s.BirthDate
	hour, minute := 12, 0
	if s.BirthTime != nil {
		fmt.Sscanf(*s.BirthTime, "%d:%d", &hour, &minute)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}
