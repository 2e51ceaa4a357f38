package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-dfe/internal/analysis"
	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/fixed"
	"github.com/tphakala/go-dfe/internal/testutil"
)

var testQ14 = fixed.Q(16, 14)

const (
	notchFreq       = 1.0 / 8
	passbandFreq    = 1.0 / 64
	notchRadius     = 0.95
	toneAmplitude   = 8000
	toneSamples     = 4096
	settleSamples   = 1024
	minNotchDepthDB = 20.0
)

func newTestBiquad(t *testing.T, values []int64) *Biquad {
	t.Helper()
	store, err := coeff.NewStore(values, testQ14)
	require.NoError(t, err)

	b, err := NewBiquad(store.All(), testData, fixed.Saturate, fixed.RoundHalfUp)
	require.NoError(t, err)
	return b
}

func TestNewBiquad_CoefficientCount(t *testing.T) {
	store, err := coeff.NewStore([]int64{1, 2, 3, 4}, testQ14)
	require.NoError(t, err)

	_, err = NewBiquad(store.All(), testData, fixed.Saturate, fixed.RoundHalfUp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 5 coefficients")
}

func TestBiquad_Passthrough(t *testing.T) {
	b := newTestBiquad(t, []int64{1 << 14, 0, 0, 0, 0})
	assert.Equal(t, 16+16+biquadGuardBits, b.RegisterWidth())

	for _, x := range []int64{0, 1, -1, 32767, -32768, 1234} {
		assert.Equal(t, x, b.Process(x))
	}
}

func TestBiquad_MatchesDifferenceEquation(t *testing.T) {
	// Dyadic coefficients keep the float reference exact.
	b0, b1, b2, a1, a2 := 0.5, 0.25, 0.125, -0.5, 0.25
	values, err := coeff.Quantize([]float64{b0, b1, b2, a1, a2}, testQ14)
	require.NoError(t, err)
	bq := newTestBiquad(t, values)

	input := []int64{1024, 0, 0, -300, 77, 0, 0, 0, 5000, -5000, 0, 0}
	var w1, w2 float64
	for i, x := range input {
		xf := float64(x)
		y := math.Floor(b0*xf + w1 + 0.5)
		w1 = b1*xf - a1*y + w2
		w2 = b2*xf - a2*y

		assert.Equal(t, int64(y), bq.Process(x), "sample %d", i)
	}
}

func TestBiquad_NotchAttenuation(t *testing.T) {
	values := testutil.NotchCoefficients(t, notchFreq, notchRadius, testQ14)

	run := func(freq float64) float64 {
		bq := newTestBiquad(t, values)
		in := testutil.Tone(toneSamples, freq, toneAmplitude)
		out := make([]int64, len(in))
		for i, x := range in {
			out[i] = bq.Process(x)
		}
		return testutil.SteadyStateRMS(out, settleSamples)
	}

	center := run(notchFreq)
	pass := run(passbandFreq)

	depth := analysis.AttenuationDB(pass, center)
	assert.Greater(t, depth, minNotchDepthDB, "notch depth %.1f dB", depth)
	assert.InDelta(t, toneAmplitude/math.Sqrt2, pass, toneAmplitude*0.2, "passband tone should pass nearly unchanged")
}

func TestBiquad_StateAndReset(t *testing.T) {
	values := testutil.NotchCoefficients(t, notchFreq, notchRadius, testQ14)
	bq := newTestBiquad(t, values)
	assert.Equal(t, values[0], bq.Coefficients().B0)
	assert.Equal(t, values[4], bq.Coefficients().A2)

	bq.Process(10000)
	assert.NotEqual(t, [2]int64{}, bq.State())

	bq.Reset()
	assert.Equal(t, [2]int64{}, bq.State())

	fresh := newTestBiquad(t, values)
	for _, x := range testutil.Impulse(16, 10000) {
		assert.Equal(t, fresh.Process(x), bq.Process(x))
	}
}
