package motif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arioso-labs/contrafact/score"
)

// phraseAt lays pitches out as consecutive quarter notes from the given
// start offset.
func phraseAt(start float64, pitches ...int) score.Voice {
	v := make(score.Voice, len(pitches))
	for i, p := range pitches {
		v[i] = score.Event{Offset: start + float64(i), Duration: 1, Pitch: p}
	}
	return v
}

// transposedStatements is one voice stating the same three-note figure at
// two pitch levels, far enough apart that no window spans both cleanly.
func transposedStatements() score.Voice {
	v := phraseAt(0, 60, 62, 64)
	return append(v, phraseAt(10, 67, 69, 71)...)
}

func TestTranspositionInvariance(t *testing.T) {
	miner := NewMinerWithParams(Params{
		MinLength:      3,
		MaxLength:      3,
		MinOccurrences: 2,
		CombineVoices:  true,
	})

	motifs, err := miner.Detect(transposedStatements())
	require.NoError(t, err)
	require.Len(t, motifs, 1, "both pitch levels must collapse into one motif")

	m := motifs[0]
	assert.Equal(t, []int{2, 2}, m.Intervals)
	assert.Equal(t, []float64{1, 1, 1}, m.Rhythms)
	assert.Equal(t, []float64{0, 10}, m.Occurrences)
	assert.Equal(t, []int{60, 62, 64}, m.Pitches, "representative pitches come from the first occurrence")
}

func TestOccurrenceThreshold(t *testing.T) {
	// The figure occurs exactly twice: at the threshold it must appear,
	// one above it must not.
	at := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: true})
	motifs, err := at.Detect(transposedStatements())
	require.NoError(t, err)
	assert.Len(t, motifs, 1)

	above := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 3, CombineVoices: true})
	motifs, err = above.Detect(transposedStatements())
	require.NoError(t, err)
	assert.Empty(t, motifs)
}

func TestFuzzyMatchesContourOnly(t *testing.T) {
	// Same contour (+,+) and rhythm, different interval sizes. The
	// second figure sits below the first so the boundary windows do not
	// share the ascending contour.
	v := phraseAt(0, 60, 62, 64)
	v = append(v, phraseAt(10, 50, 51, 52)...)

	exact := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: true})
	motifs, err := exact.Detect(v)
	require.NoError(t, err)
	assert.Empty(t, motifs, "exact mining must keep the two figures apart")

	fuzzy := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, Fuzzy: true, CombineVoices: true})
	motifs, err = fuzzy.Detect(v)
	require.NoError(t, err)
	require.Len(t, motifs, 1)
	assert.Equal(t, []int{1, 1}, motifs[0].Intervals)
	assert.Equal(t, []float64{0, 10}, motifs[0].Occurrences)
}

func TestRhythmIsPartOfIdentity(t *testing.T) {
	// Same intervals, halved durations: two distinct figures.
	v := phraseAt(0, 60, 62, 64)
	for _, p := range []int{60, 62, 64} {
		v = append(v, score.Event{
			Offset:   10 + 0.5*float64(len(v)-3),
			Duration: 0.5,
			Pitch:    p,
		})
	}

	miner := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: true})
	motifs, err := miner.Detect(v)
	require.NoError(t, err)
	assert.Empty(t, motifs)
}

func TestRestsBreakIntervals(t *testing.T) {
	// A rest in the middle yields the sentinel step, which only matches
	// another rest in the same position.
	withRest := score.Voice{
		{Offset: 0, Duration: 1, Pitch: 60},
		{Offset: 1, Duration: 1, Pitch: score.RestPitch},
		{Offset: 2, Duration: 1, Pitch: 64},
		{Offset: 10, Duration: 1, Pitch: 67},
		{Offset: 11, Duration: 1, Pitch: score.RestPitch},
		{Offset: 12, Duration: 1, Pitch: 71},
	}

	miner := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: true})
	motifs, err := miner.Detect(withRest)
	require.NoError(t, err)
	require.Len(t, motifs, 1)
	assert.Equal(t, []int{score.RestStep, score.RestStep}, motifs[0].Intervals)
}

func TestSortedByOccurrenceCountDescending(t *testing.T) {
	// Figure A occurs three times, figure B twice.
	v := phraseAt(0, 60, 62, 64)
	v = append(v, phraseAt(10, 65, 67, 69)...)
	v = append(v, phraseAt(20, 59, 61, 63)...)
	v = append(v, phraseAt(30, 60, 65, 58)...)
	v = append(v, phraseAt(40, 62, 67, 60)...)

	miner := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: true})
	motifs, err := miner.Detect(v)
	require.NoError(t, err)
	require.Len(t, motifs, 2)

	assert.Equal(t, []int{2, 2}, motifs[0].Intervals)
	assert.Len(t, motifs[0].Occurrences, 3)
	assert.Equal(t, []int{5, -7}, motifs[1].Intervals)
	assert.Len(t, motifs[1].Occurrences, 2)
}

func TestPerVoiceMiningDoesNotCrossVoices(t *testing.T) {
	// The two statements sit in different voices, one per voice. Only
	// combined mining sees a recurrence; per-voice mining sees two
	// single occurrences.
	a := phraseAt(0, 60, 62, 64)
	b := phraseAt(10, 67, 69, 71)

	perVoice := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: false})
	motifs, err := perVoice.Detect(a, b)
	require.NoError(t, err)
	assert.Empty(t, motifs)

	combined := NewMinerWithParams(Params{MinLength: 3, MaxLength: 3, MinOccurrences: 2, CombineVoices: true})
	motifs, err = combined.Detect(a, b)
	require.NoError(t, err)
	assert.Len(t, motifs, 1)
}

func TestParameterPreconditions(t *testing.T) {
	assert := assert.New(t)

	_, err := NewMinerWithParams(Params{MinLength: 1, MaxLength: 4, MinOccurrences: 2}).Detect()
	assert.ErrorContains(err, "min length")

	_, err = NewMinerWithParams(Params{MinLength: 5, MaxLength: 4, MinOccurrences: 2}).Detect()
	assert.ErrorContains(err, "exceeds max length")

	_, err = NewMinerWithParams(Params{MinLength: 3, MaxLength: 4, MinOccurrences: 0}).Detect()
	assert.ErrorContains(err, "min occurrences")
}

func TestIdempotence(t *testing.T) {
	miner := NewMiner()
	v := transposedStatements()

	first, err := miner.Detect(v)
	require.NoError(t, err)
	second, err := miner.Detect(v)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
