// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// staleness.go reconciles displayed interpretation text against chart
// parameters that may have drifted since generation — typically a "transits
// now" date advancing. It mutates nothing; the presentation layer consults
// it to decide whether to show a "this may be outdated" affordance.
package interpret

import "time"

// DefaultStaleTolerance absorbs normal re-render jitter around "now" while
// still catching a user who explicitly changed the transit date.
const DefaultStaleTolerance = time.Hour

// Provenance records the fingerprint-relevant parameters in effect at the
// moment text was generated or manually edited. It is ephemeral and never
// persisted server-side.
type Provenance struct {
	Fingerprint string
	AsOf        time.Time // effective "as of" instant at generation time
	GeneratedAt time.Time
}

// IsStale reports whether text generated under prov has drifted from the
// chart's current effective as-of value by more than tolerance. Text with no
// provenance is never stale — nothing was generated yet.
func IsStale(prov *Provenance, currentAsOf time.Time, tolerance time.Duration) bool {
	if prov == nil || currentAsOf.IsZero() {
		return false
	}
	drift := currentAsOf.Sub(prov.AsOf)
	if drift < 0 {
		drift = -drift
	}
	return drift > tolerance
}

// StaleState is the display state of previously generated text.
type StaleState int

const (
	// StateEmpty — no text has been generated.
	StateEmpty StaleState = iota

	// StateFresh — text matches the current chart parameters.
	StateFresh

	// StateStaleUnacked — parameters drifted beyond tolerance; the
	// "regenerate?" affordance should be shown.
	StateStaleUnacked

	// StateStaleDismissed — the user dismissed the warning. Display-only;
	// the underlying text is still stale.
	StateStaleDismissed
)

// String returns the state name for logging.
func (s StaleState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFresh:
		return "fresh"
	case StateStaleUnacked:
		return "stale-unacknowledged"
	case StateStaleDismissed:
		return "stale-dismissed"
	}
	return "unknown"
}

// Tracker is the staleness state machine, decoupled from any rendering
// framework. Transitions are driven by generate, edit, parameter-change,
// and dismiss events. Not safe for concurrent use; each viewer holds its own.
type Tracker struct {
	state     StaleState
	prov      *Provenance
	tolerance time.Duration
}

// NewTracker creates a tracker in the empty state. A non-positive tolerance
// falls back to DefaultStaleTolerance.
func NewTracker(tolerance time.Duration) *Tracker {
	if tolerance <= 0 {
		tolerance = DefaultStaleTolerance
	}
	return &Tracker{state: StateEmpty, tolerance: tolerance}
}

// State returns the current display state.
func (t *Tracker) State() StaleState {
	return t.state
}

// Provenance returns the recorded provenance, or nil in the empty state.
func (t *Tracker) Provenance() *Provenance {
	return t.prov
}

// ShowWarning reports whether the "this may be outdated — regenerate?"
// affordance should be displayed.
func (t *Tracker) ShowWarning() bool {
	return t.state == StateStaleUnacked
}

// Generate records freshly generated text: new provenance, fresh state,
// and any prior dismissal is discarded.
func (t *Tracker) Generate(prov Provenance) {
	p := prov
	t.prov = &p
	t.state = StateFresh
}

// Edit records a manual edit of the text. Edited text is treated as current
// for the given as-of instant, same as a generation.
func (t *Tracker) Edit(asOf time.Time) {
	t.prov = &Provenance{AsOf: asOf, GeneratedAt: time.Now()}
	t.state = StateFresh
}

// ParameterChange re-evaluates staleness against the chart's new effective
// as-of value. A dismissal does not survive a parameter change — the drift
// is re-judged from scratch.
func (t *Tracker) ParameterChange(currentAsOf time.Time) {
	if t.prov == nil {
		t.state = StateEmpty
		return
	}
	if IsStale(t.prov, currentAsOf, t.tolerance) {
		t.state = StateStaleUnacked
	} else {
		t.state = StateFresh
	}
}

// Dismiss acknowledges the warning. A display-only flag, not a data
// mutation: only meaningful while the warning is showing.
func (t *Tracker) Dismiss() {
	if t.state == StateStaleUnacked {
		t.state = StateStaleDismissed
	}
}

// Clear forgets the text and its provenance entirely.
func (t *Tracker) Clear() {
	t.prov = nil
	t.state = StateEmpty
}
