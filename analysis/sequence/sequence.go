// Package sequence detects melodic sequences: consecutive transposed
// repetitions of a short interval pattern, in the classical-music sense
// (rosalia, circle-of-fifths chains and the like).
package sequence

import (
	"fmt"
	"sort"

	"github.com/arioso-labs/contrafact/logging"
	"github.com/arioso-labs/contrafact/score"
)

// Direction classifies a sequence by the signs of its transpositions.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
	Mixed      Direction = "mixed"
)

// Candidate pattern lengths scanned, in events. Patterns shorter than two
// notes have no interval content; beyond eight notes a repetition is a
// restatement rather than a sequence.
const (
	minPatternLen = 2
	maxPatternLen = 8
)

// Params contains parameters for sequence detection.
type Params struct {
	// MinRepetitions is the minimum number of statements of the pattern,
	// the initial statement included.
	MinRepetitions int `json:"min_repetitions"`
	// MaxTransposition is the largest accepted step between consecutive
	// statements, in semitones.
	MaxTransposition int `json:"max_transposition"`
}

// DefaultParams returns the default detection parameters.
func DefaultParams() Params {
	return Params{
		MinRepetitions:   2,
		MaxTransposition: 12,
	}
}

// Match is one detected melodic sequence.
type Match struct {
	Pattern        []int     `json:"pattern"`        // base interval pattern
	Transpositions []int     `json:"transpositions"` // semitone shift at each repetition
	Offsets        []float64 `json:"offsets"`        // start offset of every statement
	Direction      Direction `json:"direction"`
}

// Repetitions returns the number of transposed restatements after the
// base statement.
func (m Match) Repetitions() int {
	return len(m.Transpositions)
}

// Detector finds melodic sequences in voices.
type Detector struct {
	params Params
	logger logging.Logger
}

// NewDetector creates a detector with default parameters.
func NewDetector() *Detector {
	return NewDetectorWithParams(DefaultParams())
}

// NewDetectorWithParams creates a detector with custom parameters.
func NewDetectorWithParams(params Params) *Detector {
	return &Detector{
		params: params,
		logger: logging.WithFields(logging.Fields{
			"component": "sequence_detector",
		}),
	}
}

// Identify flattens the voices into one sounded-pitch stream and returns
// every melodic sequence with at least MinRepetitions statements, sorted
// by repetition count descending. Rests carry no interval content and are
// skipped during flattening.
func (d *Detector) Identify(voices ...score.Voice) []Match {
	pitches, offsets := flatten(voices)
	n := len(pitches)
	if n < minPatternLen*2 {
		return nil
	}

	var matches []Match
	seen := make(map[string]bool)

	for length := minPatternLen; length < maxPatternLen; length++ {
		for i := 0; i+length <= n; i++ {
			base := intervals(pitches[i : i+length])
			m := d.extend(pitches, offsets, i, length, base)
			if m == nil {
				continue
			}
			key := dedupeKey(base, m.Offsets[0])
			if seen[key] {
				continue
			}
			seen[key] = true
			matches = append(matches, *m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Repetitions() > matches[j].Repetitions()
	})

	d.logger.Debug("Sequence detection completed", logging.Fields{
		"stream_len": n,
		"matches":    len(matches),
	})

	return matches
}

// extend greedily walks consecutive length-sized blocks after the base
// block at i, accepting each block whose interval pattern is identical
// and whose transposition is non-zero and within bounds.
func (d *Detector) extend(pitches []int, offsets []float64, i, length int, base []int) *Match {
	stmts := []float64{offsets[i]}
	var transpositions []int

	cur := i
	for {
		next := cur + length
		if next+length > len(pitches) {
			break
		}
		if !equalInts(base, intervals(pitches[next:next+length])) {
			break
		}
		transposition := pitches[next] - pitches[cur]
		if transposition == 0 || abs(transposition) > d.params.MaxTransposition {
			break
		}
		transpositions = append(transpositions, transposition)
		stmts = append(stmts, offsets[next])
		cur = next
	}

	if len(transpositions) < d.params.MinRepetitions-1 {
		return nil
	}

	return &Match{
		Pattern:        base,
		Transpositions: transpositions,
		Offsets:        stmts,
		Direction:      classify(transpositions),
	}
}

// classify derives the direction from the transposition signs.
func classify(transpositions []int) Direction {
	ascending, descending := true, true
	for _, t := range transpositions {
		if t <= 0 {
			ascending = false
		}
		if t >= 0 {
			descending = false
		}
	}
	switch {
	case ascending:
		return Ascending
	case descending:
		return Descending
	default:
		return Mixed
	}
}

// flatten merges all voices into one offset-ordered stream of sounded
// pitches with their start offsets.
func flatten(voices []score.Voice) ([]int, []float64) {
	var events score.Voice
	for _, v := range voices {
		events = append(events, v.Pitched()...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Offset < events[j].Offset
	})

	pitches := make([]int, len(events))
	offsets := make([]float64, len(events))
	for i, e := range events {
		pitches[i] = e.Pitch
		offsets[i] = e.Offset
	}
	return pitches, offsets
}

// intervals returns the successive pitch deltas of a pitch slice.
func intervals(pitches []int) []int {
	out := make([]int, len(pitches)-1)
	for i := 1; i < len(pitches); i++ {
		out[i-1] = pitches[i] - pitches[i-1]
	}
	return out
}

func dedupeKey(pattern []int, firstOffset float64) string {
	return fmt.Sprintf("%v@%g", pattern, firstOffset)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
