// Package motif mines recurring melodic/rhythmic fragments from one or
// more voices. Detection is transposition-invariant: a fragment is keyed
// by its interval contour and rhythm, not by absolute pitch or offset.
package motif

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arioso-labs/contrafact/logging"
	"github.com/arioso-labs/contrafact/score"
)

// Params contains parameters for motif mining.
type Params struct {
	MinLength      int  `json:"min_length"`      // shortest window, in events
	MaxLength      int  `json:"max_length"`      // longest window, in events
	MinOccurrences int  `json:"min_occurrences"` // occurrences required to keep a motif
	Fuzzy          bool `json:"fuzzy"`           // match interval direction only
	CombineVoices  bool `json:"combine_voices"`  // mine one merged stream instead of per voice
}

// DefaultParams returns the default mining parameters.
func DefaultParams() Params {
	return Params{
		MinLength:      3,
		MaxLength:      8,
		MinOccurrences: 2,
		Fuzzy:          false,
		CombineVoices:  true,
	}
}

// Motif is a recurring interval-and-rhythm pattern.
//
// Two motifs are equal iff Intervals and Rhythms are equal; pitch level
// and absolute offsets are not part of identity, which is what makes
// detection transposition-invariant. Intervals uses score.RestStep
// wherever either endpoint of a step is a rest.
type Motif struct {
	Intervals   []int     `json:"intervals"`   // len = pattern length - 1
	Rhythms     []float64 `json:"rhythms"`     // raw durations, len = pattern length
	Pitches     []int     `json:"pitches"`     // representative pitches from the first occurrence
	Occurrences []float64 `json:"occurrences"` // start offsets, discovery order
}

// Len returns the pattern length in events.
func (m Motif) Len() int {
	return len(m.Rhythms)
}

// Miner finds motifs in event streams.
type Miner struct {
	params Params
	logger logging.Logger
}

// NewMiner creates a miner with default parameters.
func NewMiner() *Miner {
	return NewMinerWithParams(DefaultParams())
}

// NewMinerWithParams creates a miner with custom parameters.
func NewMinerWithParams(params Params) *Miner {
	return &Miner{
		params: params,
		logger: logging.WithFields(logging.Fields{
			"component": "motif_miner",
		}),
	}
}

// group accumulates the occurrences of one canonical key. Slices index
// into the scanned stream so windows are never copied during the scan.
type group struct {
	firstStream score.Voice // stream holding the first occurrence
	start       int         // index of the first window in firstStream
	length      int
	offs        []float64
}

// Detect mines all configured window lengths over the given voices and
// returns the motifs occurring at least MinOccurrences times, sorted by
// occurrence count descending with discovery order as the stable
// tie-break. Finding nothing is a normal empty result, not an error;
// only parameter preconditions fail.
func (m *Miner) Detect(voices ...score.Voice) ([]Motif, error) {
	if m.params.MinLength < 2 {
		return nil, fmt.Errorf("min length must be at least 2, got %d", m.params.MinLength)
	}
	if m.params.MinLength > m.params.MaxLength {
		return nil, fmt.Errorf("min length %d exceeds max length %d", m.params.MinLength, m.params.MaxLength)
	}
	if m.params.MinOccurrences < 1 {
		return nil, fmt.Errorf("min occurrences must be positive, got %d", m.params.MinOccurrences)
	}

	streams := make([]score.Voice, 0, len(voices))
	if m.params.CombineVoices {
		streams = append(streams, mergeVoices(voices))
	} else {
		streams = append(streams, voices...)
	}

	// Per-voice mining asks whether a pattern recurs within a single
	// voice, so every stream gets its own grouping.
	motifs := make([]Motif, 0)
	for _, stream := range streams {
		motifs = append(motifs, m.mineStream(stream)...)
	}

	sort.SliceStable(motifs, func(i, j int) bool {
		return len(motifs[i].Occurrences) > len(motifs[j].Occurrences)
	})

	m.logger.Debug("Motif mining completed", logging.Fields{
		"voices": len(voices),
		"motifs": len(motifs),
	})

	return motifs, nil
}

// mineStream slides every window length over one stream, grouping start
// offsets by canonical key in discovery order, and materializes the keys
// that clear the occurrence threshold.
func (m *Miner) mineStream(stream score.Voice) []Motif {
	n := len(stream)
	maxLen := min(m.params.MaxLength, n)

	groups := make(map[string]*group)
	order := make([]string, 0)

	for length := m.params.MinLength; length <= maxLen; length++ {
		for i := 0; i+length <= n; i++ {
			key := m.canonicalKey(stream[i : i+length])
			g, ok := groups[key]
			if !ok {
				// Remember where the pattern was first seen so a
				// representative pitch sequence can be rebuilt later.
				g = &group{firstStream: stream, start: i, length: length}
				groups[key] = g
				order = append(order, key)
			}
			g.offs = append(g.offs, stream[i].Offset)
		}
	}

	motifs := make([]Motif, 0)
	for _, key := range order {
		g := groups[key]
		if len(g.offs) < m.params.MinOccurrences {
			continue
		}
		motifs = append(motifs, m.materialize(g))
	}
	return motifs
}

// canonicalKey encodes a window as (interval deltas, raw durations). In
// fuzzy mode only the direction of each interval is kept, so any two
// windows with the same contour and rhythm collide.
func (m *Miner) canonicalKey(window score.Voice) string {
	var b strings.Builder
	for i := 1; i < len(window); i++ {
		step := score.Step(window[i-1], window[i])
		if m.params.Fuzzy && step != score.RestStep {
			step = sign(step)
		}
		b.WriteString(strconv.Itoa(step))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, e := range window {
		b.WriteString(strconv.FormatFloat(e.Duration, 'g', -1, 64))
		b.WriteByte(',')
	}
	return b.String()
}

// materialize rebuilds a Motif from a surviving group, reconstructing the
// representative pitch sequence from the first occurrence.
func (m *Miner) materialize(g *group) Motif {
	window := g.firstStream[g.start : g.start+g.length]

	motif := Motif{
		Intervals:   make([]int, 0, g.length-1),
		Rhythms:     make([]float64, 0, g.length),
		Pitches:     make([]int, 0, g.length),
		Occurrences: g.offs,
	}
	for i, e := range window {
		if i > 0 {
			step := score.Step(window[i-1], e)
			if m.params.Fuzzy && step != score.RestStep {
				step = sign(step)
			}
			motif.Intervals = append(motif.Intervals, step)
		}
		motif.Rhythms = append(motif.Rhythms, e.Duration)
		motif.Pitches = append(motif.Pitches, e.Pitch)
	}
	return motif
}

// mergeVoices flattens all voices into one offset-ordered stream.
func mergeVoices(voices []score.Voice) score.Voice {
	total := 0
	for _, v := range voices {
		total += len(v)
	}
	merged := make(score.Voice, 0, total)
	for _, v := range voices {
		merged = append(merged, v...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Offset < merged[j].Offset
	})
	return merged
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
