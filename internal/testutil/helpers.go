// Package testutil provides reusable signal generators and assertions for
// the DFE tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/go-dfe/internal/analysis"
	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/design"
	"github.com/tphakala/go-dfe/internal/fixed"
	"github.com/tphakala/go-dfe/internal/pipeline"
)

// maxDriveTicks bounds Drive so a stuck chain fails instead of hanging.
const maxDriveTicks = 1 << 20

// Impulse returns [amp, 0, 0, ...] of length n.
func Impulse(n int, amp int64) []int64 {
	out := make([]int64, n)
	if n > 0 {
		out[0] = amp
	}
	return out
}

// Constant returns n copies of v.
func Constant(n int, v int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns 1, 2, ..., n.
func Ramp(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

// Tone returns n samples of amp*sin(2*pi*freq*i), freq in cycles per sample,
// rounded to integers.
func Tone(n int, freq, amp float64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(math.Round(amp * math.Sin(2*math.Pi*freq*float64(i))))
	}
	return out
}

// NotchCoefficients designs a unity-DC-gain notch at freq (cycles per
// sample) with pole radius r and quantizes b0, b1, b2, a1, a2 to format.
func NotchCoefficients(t *testing.T, freq, r float64, format fixed.Format) []int64 {
	t.Helper()
	taps, err := design.Notch(freq, r)
	if err != nil {
		t.Fatalf("design notch: %v", err)
	}
	values, err := coeff.Quantize(taps, format)
	if err != nil {
		t.Fatalf("quantize notch: %v", err)
	}
	return values
}

// SteadyStateRMS returns the RMS of samples after skipping the first skip
// values.
func SteadyStateRMS(samples []int64, skip int) float64 {
	if skip >= len(samples) {
		return 0
	}
	return analysis.RMS(analysis.ToFloat(samples[skip:], 0))
}

// AssertAllZero verifies that every sample is zero.
func AssertAllZero(t *testing.T, s []int64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v != 0 {
			return assert.Fail(t, "non-zero sample", "s[%d]=%d", i, v)
		}
	}
	return true
}

// AssertAllInRange verifies that all samples are within [minVal, maxVal].
func AssertAllInRange(t *testing.T, s []int64, minVal, maxVal int64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%d is outside range [%d, %d]", i, v, minVal, maxVal)
		}
	}
	return true
}

// ScaledCoefficient returns round(amp*c / 2^frac), the output a MAC produces
// for an impulse of height amp against coefficient c.
func ScaledCoefficient(amp, c int64, frac int) int64 {
	return fixed.Shift(amp*c, frac, fixed.RoundHalfUp)
}

// Drive offers every value to c, re-offering rejected ones, then ticks
// until the chain is idle. It returns the valid outputs in order.
func Drive(t *testing.T, c *pipeline.Chain, values []int64) []int64 {
	t.Helper()
	var out []int64
	ticks := 0

	tick := func(in pipeline.Sample) pipeline.Status {
		ticks++
		if ticks > maxDriveTicks {
			t.Fatalf("chain did not settle within %d ticks", maxDriveTicks)
		}
		s, status := c.Tick(in)
		if s.Valid {
			out = append(out, s.Value)
		}
		return status
	}

	for _, v := range values {
		for {
			status := tick(pipeline.Valid(v))
			if status == pipeline.StatusAccepted || status == pipeline.StatusBuffered {
				break
			}
		}
	}
	for c.Busy() {
		tick(pipeline.Sample{})
	}
	return out
}
