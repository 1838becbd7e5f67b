// Package imitation detects points where one voice restates another
// voice's material after a time delay, the entries of canons and fugues.
package imitation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/arioso-labs/contrafact/logging"
	"github.com/arioso-labs/contrafact/score"
)

// Kind classifies an imitation point by which parameters survive intact.
type Kind string

const (
	Exact    Kind = "exact"    // intervals and rhythm both preserved
	Tonal    Kind = "tonal"    // intervals preserved, rhythm altered
	Rhythmic Kind = "rhythmic" // rhythm preserved, intervals altered
	Contour  Kind = "contour"  // only the general shape survives
)

// Scan constants. These reproduce the source system's behavior exactly;
// changing any of them changes result counts on existing corpora.
const (
	delayStep        = 0.5  // candidate delay increment, quarter notes
	onsetEpsilon     = 0.25 // onset alignment slack for an entry candidate
	segmentCap       = 8    // events compared per candidate, per voice
	segmentMin       = 3    // candidates shorter than this are discarded
	elementTolerance = 0.1  // per-element match tolerance
	exactThreshold   = 0.95 // both scores above this: exact imitation
	partialThreshold = 0.85 // one score above this: tonal or rhythmic
)

// Params contains parameters for imitation detection.
type Params struct {
	// TimeWindow is the largest delay scanned, in quarter-note units.
	TimeWindow float64 `json:"time_window"`
	// SimilarityThreshold is the minimum overall similarity for a
	// candidate to be reported.
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// DefaultParams returns the default detection parameters.
func DefaultParams() Params {
	return Params{
		TimeWindow:          4.0,
		SimilarityThreshold: 0.7,
	}
}

// Point is one detected imitation entry.
type Point struct {
	Leader     int     `json:"leader"`     // imitated voice index
	Follower   int     `json:"follower"`   // imitating voice index
	Delay      float64 `json:"delay"`      // follower start minus leader start
	Similarity float64 `json:"similarity"` // 0.0-1.0
	Kind       Kind    `json:"kind"`
	Offset     float64 `json:"offset"` // leader's start offset
}

// Detector finds imitation points between the voices of a projection.
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
			"component": "imitation_detector",
		}),
	}
}

// Detect scans every voice pair of the projection (the lower-indexed
// voice leading) across all candidate delays and returns the points at or
// above the similarity threshold, sorted by similarity descending. Fewer
// than two voices is a normal empty result. Overlapping delay scans can
// report near-duplicate points for the same entry; they are retained
// as-is to match the source system's result counts.
func (d *Detector) Detect(proj score.Projection) []Point {
	if len(proj) < 2 {
		return nil
	}

	var points []Point
	for leader := 0; leader < len(proj); leader++ {
		for follower := leader + 1; follower < len(proj); follower++ {
			points = append(points, d.scanPair(proj, leader, follower)...)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Similarity > points[j].Similarity
	})

	d.logger.Debug("Imitation detection completed", logging.Fields{
		"voices": len(proj),
		"points": len(points),
	})

	return points
}

// scanPair steps the candidate delay over one leader/follower pair.
func (d *Detector) scanPair(proj score.Projection, leader, follower int) []Point {
	lead, foll := proj[leader], proj[follower]

	var points []Point
	// The tiny slack keeps accumulated float error from dropping the
	// final delay step.
	for delay := delayStep; delay <= d.params.TimeWindow+1e-9; delay += delayStep {
		for li, le := range lead {
			fi := findOnset(foll, le.Offset+delay)
			if fi < 0 {
				continue
			}

			leadSeg := segment(lead, li)
			follSeg := segment(foll, fi)
			n := min(len(leadSeg), len(follSeg))
			if n < segmentMin {
				continue
			}
			leadSeg, follSeg = leadSeg[:n], follSeg[:n]

			intervalSim := intervalSimilarity(leadSeg, follSeg)
			rhythmSim := rhythmSimilarity(leadSeg, follSeg)
			overall := stat.Mean([]float64{intervalSim, rhythmSim}, nil)
			if overall < d.params.SimilarityThreshold {
				continue
			}

			points = append(points, Point{
				Leader:     leader,
				Follower:   follower,
				Delay:      delay,
				Similarity: overall,
				Kind:       classify(intervalSim, rhythmSim),
				Offset:     le.Offset,
			})
		}
	}
	return points
}

// findOnset returns the index of the first event of v starting within
// onsetEpsilon of the target offset, or -1.
func findOnset(v score.Voice, target float64) int {
	for i, e := range v {
		if math.Abs(e.Offset-target) <= onsetEpsilon {
			return i
		}
	}
	return -1
}

// segment returns up to segmentCap events of v starting at index i.
func segment(v score.Voice, i int) score.Voice {
	end := min(i+segmentCap, len(v))
	return v[i:end]
}

// intervalSimilarity is the fraction of successive pitch deltas that
// match within elementTolerance. A delta touching a rest becomes the
// score.RestStep sentinel and matches only another sentinel.
func intervalSimilarity(a, b score.Voice) float64 {
	n := len(a) - 1
	if n < 1 {
		return 0.0
	}
	matched := 0
	for i := 1; i < len(a); i++ {
		sa := score.Step(a[i-1], a[i])
		sb := score.Step(b[i-1], b[i])
		if sa == score.RestStep || sb == score.RestStep {
			if sa == sb {
				matched++
			}
			continue
		}
		if scalar.EqualWithinAbs(float64(sa), float64(sb), elementTolerance) {
			matched++
		}
	}
	return float64(matched) / float64(n)
}

// rhythmSimilarity is the fraction of durations that match within
// elementTolerance.
func rhythmSimilarity(a, b score.Voice) float64 {
	if len(a) == 0 {
		return 0.0
	}
	matched := 0
	for i := range a {
		if scalar.EqualWithinAbs(a[i].Duration, b[i].Duration, elementTolerance) {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}

// classify maps the two component scores onto an imitation kind.
func classify(intervalSim, rhythmSim float64) Kind {
	switch {
	case intervalSim > exactThreshold && rhythmSim > exactThreshold:
		return Exact
	case intervalSim > partialThreshold:
		return Tonal
	case rhythmSim > partialThreshold:
		return Rhythmic
	default:
		return Contour
	}
}
