package score

import (
	"fmt"
)

// RestPitch is the sentinel pitch for rest events. Producers decoding a
// source format map any silent gap or explicit rest to this value.
const RestPitch = -1

// RestStep is the sentinel interval for a pitch delta where at least one
// endpoint is a rest. It is far outside the semitone range so it never
// collides with a real interval, and it compares equal only to itself.
const RestStep = -1 << 16

// Event is one timed musical occurrence in a voice.
//
// Offset and Duration are in quarter-note units. Pitch is an integer
// semitone number; a chord-like simultaneity is reduced to its lowest
// pitch at the boundary, and RestPitch marks a rest. This keeps every
// downstream algorithm operating on a single scalar pitch per event.
type Event struct {
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
	Pitch    int     `json:"pitch"`
}

// IsRest reports whether the event is a rest.
func (e Event) IsRest() bool {
	return e.Pitch == RestPitch
}

// End returns the event's end time (Offset + Duration).
func (e Event) End() float64 {
	return e.Offset + e.Duration
}

// Voice is one part of a piece: an ordered sequence of events sorted by
// non-decreasing offset. Voices are owned by the caller and read-only to
// the analysis packages.
type Voice []Event

// Span returns the end time of the latest-ending event, or 0 for an
// empty voice.
func (v Voice) Span() float64 {
	span := 0.0
	for _, e := range v {
		if end := e.End(); end > span {
			span = end
		}
	}
	return span
}

// Pitched returns the subsequence of sounded (non-rest) events.
func (v Voice) Pitched() Voice {
	out := make(Voice, 0, len(v))
	for _, e := range v {
		if !e.IsRest() {
			out = append(out, e)
		}
	}
	return out
}

// Projection is an ordered collection of parallel voices extracted from a
// score; index order is voice order.
type Projection []Voice

// Step returns the signed semitone delta between two events, or RestStep
// when either endpoint is a rest.
func Step(from, to Event) int {
	if from.IsRest() || to.IsRest() {
		return RestStep
	}
	return to.Pitch - from.Pitch
}

// TimeReverse returns the time-mirrored copy of a voice: each event's
// offset o becomes Span(v) - o - duration, pitch and duration unchanged.
// The result is re-sorted into offset order. The reverse of a voice is by
// construction its crab-canon partner.
func TimeReverse(v Voice) Voice {
	span := v.Span()
	out := make(Voice, len(v))
	for i, e := range v {
		out[len(v)-1-i] = Event{
			Offset:   span - e.Offset - e.Duration,
			Duration: e.Duration,
			Pitch:    e.Pitch,
		}
	}
	sortByOffset(out)
	return out
}

func sortByOffset(v Voice) {
	// Insertion sort: reversal of an offset-ordered voice is already
	// nearly ordered unless durations vary wildly.
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j].Offset < v[j-1].Offset; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

// Validate checks the boundary invariants: every duration strictly
// positive, offsets non-negative and non-decreasing. Analysis packages
// assume a validated voice; hosts call this once at the boundary.
func Validate(v Voice) error {
	prev := 0.0
	for i, e := range v {
		if e.Duration <= 0 {
			return fmt.Errorf("event %d: duration must be positive, got %v", i, e.Duration)
		}
		if e.Offset < 0 {
			return fmt.Errorf("event %d: offset must be non-negative, got %v", i, e.Offset)
		}
		if e.Offset < prev {
			return fmt.Errorf("event %d: offsets must be non-decreasing (%v after %v)", i, e.Offset, prev)
		}
		prev = e.Offset
	}
	return nil
}

// ValidateProjection validates every voice of a projection.
func ValidateProjection(p Projection) error {
	for i, v := range p {
		if err := Validate(v); err != nil {
			return fmt.Errorf("voice %d: %w", i, err)
		}
	}
	return nil
}
