// Package palindrome verifies crab-canon (time-reversal) relationships
// between two voices.
package palindrome

import (
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/arioso-labs/contrafact/score"
)

// Params contains parameters for palindrome verification.
type Params struct {
	// Tolerance is the maximum deviation, in quarter-note units, allowed
	// between an expected mirrored onset/duration and an actual event.
	Tolerance float64 `json:"tolerance"`
}

// DefaultParams returns the default verification parameters.
func DefaultParams() Params {
	return Params{Tolerance: 0.01}
}

// Verifier checks whether one voice is the exact time-reversal of another.
//
// A voice pair (A, B) is a time palindrome when for every event (o, d, p)
// of A there is an event of B starting at span(B) - o - d with the same
// duration and the same pitch/rest identity. Playing B backwards then
// reproduces A, the structure of a crab canon.
type Verifier struct {
	params Params
}

// NewVerifier creates a verifier with default parameters.
func NewVerifier() *Verifier {
	return &Verifier{params: DefaultParams()}
}

// NewVerifierWithParams creates a verifier with custom parameters.
func NewVerifierWithParams(params Params) *Verifier {
	return &Verifier{params: params}
}

// IsTimePalindrome reports whether b is the time-reversal of a within the
// configured tolerance. Two empty voices are vacuously palindromic; a
// length mismatch is an ordinary false, not an error.
func (v *Verifier) IsTimePalindrome(a, b score.Voice) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}

	spanB := b.Span()
	for _, e := range a {
		if !v.hasMirror(b, spanB, e) {
			return false
		}
	}
	return true
}

// hasMirror scans b for the mirrored counterpart of e. A linear scan is
// adequate at musical voice sizes; sort-and-binary-search by expected
// start is the upgrade path for very long voices.
func (v *Verifier) hasMirror(b score.Voice, spanB float64, e score.Event) bool {
	expectedStart := spanB - e.Offset - e.Duration
	for _, cand := range b {
		if cand.Pitch != e.Pitch {
			continue
		}
		if !scalar.EqualWithinAbs(cand.Offset, expectedStart, v.params.Tolerance) {
			continue
		}
		if scalar.EqualWithinAbs(cand.Duration, e.Duration, v.params.Tolerance) {
			return true
		}
	}
	return false
}
