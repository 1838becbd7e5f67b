// Package engine runs every analyzer over a score projection and
// aggregates their results into one serializable report. The analyzers
// are pure functions of immutable event data, so the engine fans them out
// over goroutines with no coordination beyond the final join; parallel
// and sequential runs produce identical reports.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arioso-labs/contrafact/analysis/development"
	"github.com/arioso-labs/contrafact/analysis/imitation"
	"github.com/arioso-labs/contrafact/analysis/motif"
	"github.com/arioso-labs/contrafact/analysis/palindrome"
	"github.com/arioso-labs/contrafact/analysis/sequence"
	"github.com/arioso-labs/contrafact/logging"
	"github.com/arioso-labs/contrafact/score"
)

// Config aggregates the parameters of every analyzer. Each component
// accepts its parameters explicitly; there is no hidden global state.
type Config struct {
	Palindrome  palindrome.Params  `json:"palindrome"`
	Motif       motif.Params       `json:"motif"`
	Sequence    sequence.Params    `json:"sequence"`
	Imitation   imitation.Params   `json:"imitation"`
	Development development.Params `json:"development"`

	// ValidateInput runs boundary validation on the projection before
	// analyzing. Off by default: the host is expected to validate once
	// at decode time.
	ValidateInput bool `json:"validate_input"`

	// Parallel fans the analyzers out over goroutines.
	Parallel bool `json:"parallel"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Palindrome:  palindrome.DefaultParams(),
		Motif:       motif.DefaultParams(),
		Sequence:    sequence.DefaultParams(),
		Imitation:   imitation.DefaultParams(),
		Development: development.DefaultParams(),
		Parallel:    true,
	}
}

// PalindromePair records one crab-canon relationship found between two
// voices of the projection.
type PalindromePair struct {
	VoiceA int `json:"voice_a"`
	VoiceB int `json:"voice_b"`
}

// Report is the aggregated analysis result: plain values with no
// references back into host objects, safe to serialize as-is.
type Report struct {
	ID             string                `json:"id"`
	Motifs         []motif.Motif         `json:"motifs"`
	Sequences      []sequence.Match      `json:"sequences"`
	Imitations     []imitation.Point     `json:"imitations"`
	Development    *development.Analysis `json:"development"`
	CrabCanonPairs []PalindromePair      `json:"crab_canon_pairs"`
	ProcessingTime time.Duration         `json:"processing_time"`
}

// Engine coordinates the analyzers.
type Engine struct {
	config     *Config
	verifier   *palindrome.Verifier
	miner      *motif.Miner
	sequences  *sequence.Detector
	imitations *imitation.Detector
	tracker    *development.Tracker
	logger     logging.Logger
}

// New creates an engine; a nil config selects the defaults.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{
		config:     cfg,
		verifier:   palindrome.NewVerifierWithParams(cfg.Palindrome),
		miner:      motif.NewMinerWithParams(cfg.Motif),
		sequences:  sequence.NewDetectorWithParams(cfg.Sequence),
		imitations: imitation.NewDetectorWithParams(cfg.Imitation),
		tracker:    development.NewTrackerWithParams(cfg.Development),
		logger: logging.WithFields(logging.Fields{
			"component": "analysis_engine",
		}),
	}
}

// Analyze runs every analyzer over the projection and returns the
// aggregated report. Empty analyzer results are a normal outcome; an
// error is returned only for invalid parameters or, when ValidateInput
// is set, for a projection violating the boundary invariants.
func (e *Engine) Analyze(proj score.Projection) (*Report, error) {
	startTime := time.Now()

	if e.config.ValidateInput {
		if err := score.ValidateProjection(proj); err != nil {
			return nil, fmt.Errorf("invalid projection: %w", err)
		}
	}

	logger := e.logger.WithFields(logging.Fields{
		"function": "Analyze",
		"voices":   len(proj),
	})
	logger.Debug("Starting score analysis")

	report := &Report{ID: uuid.NewString()}

	var motifErr, devErr error
	tasks := []func(){
		func() { report.Motifs, motifErr = e.miner.Detect(proj...) },
		func() { report.Sequences = e.sequences.Identify(proj...) },
		func() { report.Imitations = e.imitations.Detect(proj) },
		func() { report.Development, devErr = e.tracker.Analyze(proj...) },
		func() { report.CrabCanonPairs = e.findCrabCanons(proj) },
	}

	if e.config.Parallel {
		var wg sync.WaitGroup
		wg.Add(len(tasks))
		for _, task := range tasks {
			task := task
			go func() {
				defer wg.Done()
				task()
			}()
		}
		wg.Wait()
	} else {
		for _, task := range tasks {
			task()
		}
	}

	if motifErr != nil {
		return nil, fmt.Errorf("motif mining failed: %w", motifErr)
	}
	if devErr != nil {
		return nil, fmt.Errorf("development analysis failed: %w", devErr)
	}

	report.ProcessingTime = time.Since(startTime)

	logger.Info("Score analysis completed", logging.Fields{
		"motifs":           len(report.Motifs),
		"sequences":        len(report.Sequences),
		"imitations":       len(report.Imitations),
		"crab_canon_pairs": len(report.CrabCanonPairs),
		"processing_time":  report.ProcessingTime,
	})

	return report, nil
}

// findCrabCanons checks every voice pair for a time-palindrome
// relationship. Empty voices are skipped: the vacuous palindrome between
// two empty voices says nothing about the piece.
func (e *Engine) findCrabCanons(proj score.Projection) []PalindromePair {
	var pairs []PalindromePair
	for a := 0; a < len(proj); a++ {
		if len(proj[a]) == 0 {
			continue
		}
		for b := a + 1; b < len(proj); b++ {
			if e.verifier.IsTimePalindrome(proj[a], proj[b]) {
				pairs = append(pairs, PalindromePair{VoiceA: a, VoiceB: b})
			}
		}
	}
	return pairs
}
