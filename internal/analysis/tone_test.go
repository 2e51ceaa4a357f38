package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testN         = 256
	testTolerance = 1e-9
)

func sine(n int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i))
	}
	return out
}

func TestToFloat(t *testing.T) {
	got := ToFloat([]int64{16384, -32768, 0}, 15)
	assert.InDeltaSlice(t, []float64{0.5, -1, 0}, got, testTolerance)

	raw := ToFloat([]int64{3, -4}, 0)
	assert.InDeltaSlice(t, []float64{3, -4}, raw, testTolerance)
}

func TestRMSAndMean(t *testing.T) {
	assert.InDelta(t, 2.0, RMS([]float64{2, -2, 2, -2}), testTolerance)
	assert.InDelta(t, 1.0/math.Sqrt2, RMS(sine(testN, 8.0/testN, 1)), 1e-6)
	assert.Zero(t, RMS(nil))

	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), testTolerance)
	assert.Zero(t, Mean(nil))
}

func TestToneAmplitude(t *testing.T) {
	freq := 16.0 / testN
	x := sine(testN, freq, 0.75)

	amp, err := ToneAmplitude(x, freq)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, amp, 1e-6)

	other, err := ToneAmplitude(x, 40.0/testN)
	require.NoError(t, err)
	assert.Less(t, other, 1e-9)

	_, err = ToneAmplitude(nil, freq)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDB(t *testing.T) {
	assert.InDelta(t, 20.0, DB(10), testTolerance)
	assert.InDelta(t, -6.0206, DB(0.5), 1e-4)
	assert.InDelta(t, 40.0, AttenuationDB(1, 0.01), testTolerance)
	assert.False(t, math.IsInf(AttenuationDB(1, 0), 0))
}
