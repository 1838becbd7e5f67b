package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterNotes(pitches ...int) Voice {
	v := make(Voice, len(pitches))
	for i, p := range pitches {
		v[i] = Event{Offset: float64(i), Duration: 1, Pitch: p}
	}
	return v
}

func TestSpan(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.0, Voice{}.Span())
	assert.Equal(3.0, quarterNotes(60, 62, 64).Span())

	// A long early note can outlast everything after it.
	v := Voice{
		{Offset: 0, Duration: 8, Pitch: 48},
		{Offset: 1, Duration: 1, Pitch: 60},
	}
	assert.Equal(8.0, v.Span())
}

func TestPitchedSkipsRests(t *testing.T) {
	v := Voice{
		{Offset: 0, Duration: 1, Pitch: 60},
		{Offset: 1, Duration: 1, Pitch: RestPitch},
		{Offset: 2, Duration: 1, Pitch: 64},
	}

	pitched := v.Pitched()
	require.Len(t, pitched, 2)
	assert.Equal(t, 60, pitched[0].Pitch)
	assert.Equal(t, 64, pitched[1].Pitch)
}

func TestStepUsesSentinelForRests(t *testing.T) {
	assert := assert.New(t)

	note := Event{Offset: 0, Duration: 1, Pitch: 60}
	higher := Event{Offset: 1, Duration: 1, Pitch: 67}
	rest := Event{Offset: 1, Duration: 1, Pitch: RestPitch}

	assert.Equal(7, Step(note, higher))
	assert.Equal(-7, Step(higher, note))
	assert.Equal(RestStep, Step(note, rest))
	assert.Equal(RestStep, Step(rest, note))
}

func TestTimeReverseMirrorsOffsets(t *testing.T) {
	v := quarterNotes(60, 62, 64)
	rev := TimeReverse(v)

	require.Len(t, rev, 3)
	assert.Equal(t, Event{Offset: 0, Duration: 1, Pitch: 64}, rev[0])
	assert.Equal(t, Event{Offset: 1, Duration: 1, Pitch: 62}, rev[1])
	assert.Equal(t, Event{Offset: 2, Duration: 1, Pitch: 60}, rev[2])
}

func TestTimeReverseIsInvolutive(t *testing.T) {
	v := Voice{
		{Offset: 0, Duration: 0.5, Pitch: 60},
		{Offset: 0.5, Duration: 1.5, Pitch: 67},
		{Offset: 2, Duration: 1, Pitch: RestPitch},
		{Offset: 3, Duration: 2, Pitch: 55},
	}

	assert.Equal(t, v, TimeReverse(TimeReverse(v)))
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Validate(Voice{}))
	assert.NoError(Validate(quarterNotes(60, 62, 64)))

	zeroDuration := Voice{{Offset: 0, Duration: 0, Pitch: 60}}
	assert.ErrorContains(Validate(zeroDuration), "duration")

	negativeOffset := Voice{{Offset: -1, Duration: 1, Pitch: 60}}
	assert.ErrorContains(Validate(negativeOffset), "offset")

	outOfOrder := Voice{
		{Offset: 2, Duration: 1, Pitch: 60},
		{Offset: 1, Duration: 1, Pitch: 62},
	}
	assert.ErrorContains(Validate(outOfOrder), "non-decreasing")
}

func TestValidateProjectionNamesVoice(t *testing.T) {
	p := Projection{
		quarterNotes(60),
		{{Offset: 0, Duration: -1, Pitch: 60}},
	}
	assert.ErrorContains(t, ValidateProjection(p), "voice 1")
}
