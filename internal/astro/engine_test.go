package astro

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"astrodesk/internal/models"
)

func testSubject() models.Subject {
	return models.Subject{
		ID:        uuid.New(),
		Name:      "Ada",
		BirthDate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
		Latitude:  51.5,
		Longitude: -0.12,
		Timezone:  "Europe/London",
	}
}

func TestComputeChartDeterminism(t *testing.T) {
	eng := NewEngine()
	subject := testSubject()
	asOf := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	a := eng.ComputeChart(subject, asOf, Settings{})
	b := eng.ComputeChart(subject, asOf, Settings{})

	if len(a.Positions) != len(b.Positions) {
		t.Fatal("position counts differ between identical calls")
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Errorf("position %d differs: %+v vs %+v", i, a.Positions[i], b.Positions[i])
		}
	}
	if a.Houses != b.Houses {
		t.Error("house cusps differ between identical calls")
	}
}

func TestComputeChartPositionsInRange(t *testing.T) {
	eng := NewEngine()
	chart := eng.ComputeChart(testSubject(), time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC), Settings{})

	if len(chart.Positions) != 10 {
		t.Fatalf("expected 10 bodies, got %d", len(chart.Positions))
	}
	for _, p := range chart.Positions {
		if p.Longitude < 0 || p.Longitude >= 360 {
			t.Errorf("%s longitude out of range: %f", p.Body, p.Longitude)
		}
		if p.SignDeg < 0 || p.SignDeg >= 30 {
			t.Errorf("%s sign degree out of range: %f", p.Body, p.SignDeg)
		}
		if p.Sign == "" {
			t.Errorf("%s has no sign", p.Body)
		}
	}
}

func TestComputeChartChangesWithDate(t *testing.T) {
	eng := NewEngine()
	subject := testSubject()

	march := eng.ComputeChart(subject, time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC), Settings{})
	april := eng.ComputeChart(subject, time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC), Settings{})

	// The Moon moves ~13°/day; a month apart the charts must differ.
	if march.Positions[1].Longitude == april.Positions[1].Longitude {
		t.Error("moon position should change over a month")
	}
}

func TestAspectSeparation(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{10, 100, 90},
		{350, 20, 30},
		{0, 180, 180},
		{90, 90, 0},
	}
	for _, tt := range tests {
		if got := angularSeparation(tt.a, tt.b); got != tt.want {
			t.Errorf("angularSeparation(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestHouseCuspsWholeSign(t *testing.T) {
	eng := NewEngine()
	chart := eng.ComputeChart(testSubject(), time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC), Settings{HouseSystem: "whole_sign"})

	for i, cusp := range chart.Houses {
		if cusp != float64(int(cusp/30))*30 {
			t.Errorf("whole-sign cusp %d not on a sign boundary: %f", i+1, cusp)
		}
	}
}
