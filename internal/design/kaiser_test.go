package design

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBesselI0(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
		rel  float64
	}{
		{"zero", 0, 1, 1e-15},
		{"half", 0.5, 1.063483344, 1e-7},
		{"one", 1, 1.266065848, 1e-7},
		{"three", 3, 4.880792565, 1e-7},
		{"boundary", 3.75, 9.118945994, 1e-6},
		{"five", 5, 27.23987183, 1e-6},
		{"ten", 10, 2815.716628, 1e-6},
		{"negative", -1, 1.266065848, 1e-7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := besselI0(tt.x)
			assert.InDelta(t, 0, (got-tt.want)/tt.want, tt.rel, "I0(%v) = %v", tt.x, got)
		})
	}
}

func TestKaiserBeta(t *testing.T) {
	assert.Zero(t, kaiserBeta(20))
	assert.InDelta(t, 0.5842*math.Pow(9, 0.4)+0.07886*9, kaiserBeta(30), 1e-12)
	assert.InDelta(t, 0.1102*(60-8.7), kaiserBeta(60), 1e-12)
}

func TestKaiserWindow(t *testing.T) {
	w := kaiserWindow(9, 5)
	assert.InDelta(t, 1.0, w[4], 1e-12, "peak at the centre")
	for i := range w {
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-12)
	}
	assert.Less(t, w[0], w[1])

	assert.Equal(t, []float64{1}, kaiserWindow(1, 5))
}

func TestLowpass_Response(t *testing.T) {
	h, err := Lowpass(63, 0.1, 60, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, Magnitude(h, 0), 1e-9)
	assert.InDelta(t, 1.0, Magnitude(h, 0.05), 0.01, "passband")
	assert.Less(t, Magnitude(h, 0.2), math.Pow(10, -55.0/20), "stopband")
}

func TestLowpass_Parameters(t *testing.T) {
	for _, tc := range []struct {
		n      int
		cutoff float64
		att    float64
		gain   float64
	}{
		{0, 0.1, 60, 1},
		{9, 0, 60, 1},
		{9, 0.5, 60, 1},
		{9, 0.1, -1, 1},
		{9, 0.1, 60, 0},
	} {
		_, err := Lowpass(tc.n, tc.cutoff, tc.att, tc.gain)
		assert.ErrorIs(t, err, ErrParameters, "%+v", tc)
	}
}
