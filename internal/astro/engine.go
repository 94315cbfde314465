// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package astro computes chart geometry: planetary positions, aspects, and
// house cusps. ComputeChart is pure and deterministic — identical inputs
// always yield identical output — which is what lets interpretation
// fingerprints key on the inputs instead of the geometry.
package astro

import (
	"math"
	"time"

	"astrodesk/internal/models"
)

// Zodiac signs in order, starting at 0° Aries.
var signs = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// body holds the mean-motion elements for one chart point: ecliptic
// longitude at the J2000 epoch and mean daily motion in degrees. A
// simplified ephemeris, accurate enough for sign-level interpretation.
type body struct {
	name      string
	epochLong float64
	dailyRate float64
}

var bodies = []body{
	{"Sun", 280.46, 0.9856474},
	{"Moon", 218.32, 13.176396},
	{"Mercury", 252.25, 4.092339},
	{"Venus", 181.98, 1.602130},
	{"Mars", 355.45, 0.524039},
	{"Jupiter", 34.35, 0.083056},
	{"Saturn", 50.08, 0.033371},
	{"Uranus", 314.05, 0.011698},
	{"Neptune", 304.35, 0.005965},
	{"Pluto", 238.93, 0.003964},
}

// j2000 is the ephemeris epoch: 2000-01-01 12:00 TT (approximated as UTC).
var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Position is one body's place in the zodiac.
type Position struct {
	Body      string  `json:"body"`
	Longitude float64 `json:"longitude"` // ecliptic longitude, 0-360
	Sign      string  `json:"sign"`
	SignDeg   float64 `json:"sign_deg"` // degrees into the sign, 0-30
}

// Aspect is an angular relationship between two bodies.
type Aspect struct {
	A    string  `json:"a"`
	B    string  `json:"b"`
	Type string  `json:"type"`
	Orb  float64 `json:"orb"` // deviation from exact, degrees
}

// ChartData is the computed geometry for one chart configuration.
type ChartData struct {
	Positions []Position  `json:"positions"`
	Aspects   []Aspect    `json:"aspects"`
	Houses    [12]float64 `json:"houses"` // cusp longitudes
	AsOf      time.Time   `json:"as_of"`
}

// Settings selects computation options.
type Settings struct {
	HouseSystem string // "equal" (default) or "whole_sign"
}

// Engine computes chart geometry. The interpretation subsystem never calls
// it directly; route handlers do, and feed the subject/date fields into
// fingerprints.
type Engine interface {
	ComputeChart(subject models.Subject, asOf time.Time, settings Settings) ChartData
}

// aspectDef defines one recognized aspect angle and its allowed orb.
type aspectDef struct {
	name  string
	angle float64
	orb   float64
}

var aspectDefs = []aspectDef{
	{"conjunction", 0, 8},
	{"sextile", 60, 4},
	{"square", 90, 6},
	{"trine", 120, 6},
	{"opposition", 180, 8},
}

// meanEngine is the built-in mean-motion ephemeris.
type meanEngine struct{}

// NewEngine returns the default chart computation engine.
func NewEngine() Engine {
	return meanEngine{}
}

// ComputeChart casts a chart for the subject at the given instant.
func (meanEngine) ComputeChart(subject models.Subject, asOf time.Time, settings Settings) ChartData {
	days := asOf.Sub(j2000).Hours() / 24

	positions := make([]Position, 0, len(bodies))
	for _, b := range bodies {
		lon := normalize(b.epochLong + b.dailyRate*days)
		positions = append(positions, Position{
			Body:      b.name,
			Longitude: lon,
			Sign:      signs[int(lon/30)%12],
			SignDeg:   math.Mod(lon, 30),
		})
	}

	return ChartData{
		Positions: positions,
		Aspects:   findAspects(positions),
		Houses:    houseCusps(subject, asOf, settings),
		AsOf:      asOf,
	}
}

// findAspects returns every recognized aspect between pairs of bodies.
func findAspects(positions []Position) []Aspect {
	var aspects []Aspect
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			sep := angularSeparation(positions[i].Longitude, positions[j].Longitude)
			for _, def := range aspectDefs {
				orb := math.Abs(sep - def.angle)
				if orb <= def.orb {
					aspects = append(aspects, Aspect{
						A:    positions[i].Body,
						B:    positions[j].Body,
						Type: def.name,
						Orb:  orb,
					})
					break
				}
			}
		}
	}
	return aspects
}

// houseCusps derives twelve cusps from an ascendant approximated by local
// sidereal rotation. Equal houses by default; whole-sign snaps the first
// cusp to the start of its sign.
func houseCusps(subject models.Subject, asOf time.Time, settings Settings) [12]float64 {
	// Fraction of the day elapsed, as seen from the birth longitude.
	dayFrac := float64(asOf.Hour())/24 + float64(asOf.Minute())/1440
	asc := normalize(dayFrac*360 + subject.Longitude + subject.Latitude/2)

	if settings.HouseSystem == "whole_sign" {
		asc = math.Floor(asc/30) * 30
	}

	var cusps [12]float64
	for i := range cusps {
		cusps[i] = normalize(asc + float64(i)*30)
	}
	return cusps
}

// angularSeparation returns the smaller angle between two longitudes (0-180).
func angularSeparation(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// normalize wraps a longitude into [0, 360).
func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
