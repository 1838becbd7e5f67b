// Package development tracks how thematic material develops and recurs
// across a piece. It aggregates motif-miner output over time into
// development sections (clusters of transformation activity) and
// recapitulations (the return of a theme after a long absence).
package development

import (
	"fmt"
	"sort"

	"github.com/arioso-labs/contrafact/analysis/motif"
	"github.com/arioso-labs/contrafact/logging"
	"github.com/arioso-labs/contrafact/score"
)

// Clustering constants, in quarter-note units.
const (
	maxThemes      = 5  // themes tracked, taken from the top miner results
	sectionGap     = 8  // larger gaps split development sections
	sectionMinSize = 3  // transformations required to keep a section
	recapGap       = 16 // absence required before a return counts as a recap
)

// Params contains parameters for development analysis.
type Params struct {
	// ThemeLength is the longest theme considered, in events; candidate
	// themes range from half this length up to it.
	ThemeLength int `json:"theme_length"`
}

// DefaultParams returns the default analysis parameters.
func DefaultParams() Params {
	return Params{ThemeLength: 8}
}

// Transformation is one restatement of a theme after its initial
// appearance. Kind is "repetition" at this tier; sub-classification
// (augmentation, diminution, fragmentation) is an extension point.
type Transformation struct {
	Theme  int     `json:"theme"` // index into Analysis.Themes
	Offset float64 `json:"offset"`
	Kind   string  `json:"kind"`
}

// Section is a temporal cluster of transformation activity.
type Section struct {
	StartOffset float64 `json:"start_offset"`
	EndOffset   float64 `json:"end_offset"`
	Count       int     `json:"count"`
}

// Recapitulation is the return of a theme after a long absence.
type Recapitulation struct {
	Theme  int     `json:"theme"` // index into Analysis.Themes
	Offset float64 `json:"offset"`
	Gap    float64 `json:"gap"` // time since the previous occurrence
}

// Analysis is the aggregated development picture of a piece.
type Analysis struct {
	Themes          []motif.Motif    `json:"themes"`
	Transformations []Transformation `json:"transformations"`
	Sections        []Section        `json:"sections"`
	Recapitulations []Recapitulation `json:"recapitulations"`
}

// Tracker analyzes thematic development across voices.
type Tracker struct {
	params Params
	logger logging.Logger
}

// NewTracker creates a tracker with default parameters.
func NewTracker() *Tracker {
	return NewTrackerWithParams(DefaultParams())
}

// NewTrackerWithParams creates a tracker with custom parameters.
func NewTrackerWithParams(params Params) *Tracker {
	return &Tracker{
		params: params,
		logger: logging.WithFields(logging.Fields{
			"component": "development_tracker",
		}),
	}
}

// Analyze mines the voices for themes and derives transformations,
// development sections and recapitulations. A piece with no recurring
// material yields an Analysis with empty lists, not an error.
func (t *Tracker) Analyze(voices ...score.Voice) (*Analysis, error) {
	if t.params.ThemeLength < 4 {
		return nil, fmt.Errorf("theme length must be at least 4, got %d", t.params.ThemeLength)
	}

	miner := motif.NewMinerWithParams(motif.Params{
		MinLength:      t.params.ThemeLength / 2,
		MaxLength:      t.params.ThemeLength,
		MinOccurrences: 2,
		CombineVoices:  true,
	})
	motifs, err := miner.Detect(voices...)
	if err != nil {
		return nil, fmt.Errorf("theme mining failed: %w", err)
	}

	analysis := &Analysis{
		Themes:          motifs[:min(maxThemes, len(motifs))],
		Transformations: []Transformation{},
		Sections:        []Section{},
		Recapitulations: []Recapitulation{},
	}

	for ti, theme := range analysis.Themes {
		// Every occurrence after the first restates the theme.
		for _, off := range theme.Occurrences[1:] {
			analysis.Transformations = append(analysis.Transformations, Transformation{
				Theme:  ti,
				Offset: off,
				Kind:   "repetition",
			})
		}
		if recap, ok := findRecapitulation(ti, theme); ok {
			analysis.Recapitulations = append(analysis.Recapitulations, recap)
		}
	}

	analysis.Sections = clusterSections(analysis.Transformations)

	t.logger.Debug("Development analysis completed", logging.Fields{
		"themes":          len(analysis.Themes),
		"transformations": len(analysis.Transformations),
		"sections":        len(analysis.Sections),
		"recaps":          len(analysis.Recapitulations),
	})

	return analysis, nil
}

// clusterSections sorts the transformation offsets and splits them at
// gaps wider than sectionGap, keeping clusters with at least
// sectionMinSize transformations.
func clusterSections(transformations []Transformation) []Section {
	if len(transformations) == 0 {
		return []Section{}
	}

	offsets := make([]float64, len(transformations))
	for i, tr := range transformations {
		offsets[i] = tr.Offset
	}
	sort.Float64s(offsets)

	sections := []Section{}
	start, count := offsets[0], 1
	prev := offsets[0]

	flush := func(end float64) {
		if count >= sectionMinSize {
			sections = append(sections, Section{
				StartOffset: start,
				EndOffset:   end,
				Count:       count,
			})
		}
	}

	for _, off := range offsets[1:] {
		if off-prev > sectionGap {
			flush(prev)
			start, count = off, 0
		}
		count++
		prev = off
	}
	flush(prev)

	return sections
}

// findRecapitulation reports a recapitulation when the theme's final
// occurrence follows its predecessor by more than recapGap.
func findRecapitulation(ti int, theme motif.Motif) (Recapitulation, bool) {
	occ := theme.Occurrences
	if len(occ) < 2 {
		return Recapitulation{}, false
	}
	last, prev := occ[len(occ)-1], occ[len(occ)-2]
	if last-prev <= recapGap {
		return Recapitulation{}, false
	}
	return Recapitulation{Theme: ti, Offset: last, Gap: last - prev}, true
}
