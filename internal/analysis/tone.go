// Package analysis measures signal levels of pipeline output for tests and
// the demo command. It converts fixed-point samples to float64 only for
// measurement; the signal path itself never uses floating point.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// dbFactor converts an amplitude ratio to decibels.
	dbFactor = 20.0

	// floorAmplitude keeps log10 finite for silent signals.
	floorAmplitude = 1e-12

	// hermitianDivisor: a real FFT of size N has N/2+1 unique bins.
	hermitianDivisor = 2
)

// ErrEmpty is returned when a measurement gets no samples.
var ErrEmpty = errors.New("no samples to analyze")

// ToFloat converts raw fixed-point samples to float64 at scale 2^-frac.
func ToFloat(samples []int64, frac int) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	if frac != 0 {
		f64.Scale(out, out, math.Ldexp(1, -frac))
	}
	return out
}

// Mean returns the arithmetic mean of x.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return f64.Sum(x) / float64(len(x))
}

// RMS returns the root-mean-square level of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(f64.DotProductUnsafe(x, x) / float64(len(x)))
}

// ToneAmplitude returns the peak amplitude of the component at the
// normalized frequency freq (cycles per sample, 0..0.5), measured on the
// nearest FFT bin. Choose len(x) so that freq*len(x) is an integer to avoid
// leakage.
func ToneAmplitude(x []float64, freq float64) (float64, error) {
	n := len(x)
	if n == 0 {
		return 0, ErrEmpty
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, x)

	bin := int(math.Round(freq * float64(n)))
	bin = max(0, min(bin, n/hermitianDivisor))

	amp := cmplx.Abs(coeffs[bin]) / float64(n)
	if bin != 0 && 2*bin != n {
		amp *= 2
	}
	return amp, nil
}

// DB converts an amplitude ratio to decibels.
func DB(ratio float64) float64 {
	return dbFactor * math.Log10(math.Max(ratio, floorAmplitude))
}

// AttenuationDB returns how far below reference the measured level lies.
// Positive values mean attenuation.
func AttenuationDB(reference, measured float64) float64 {
	return DB(math.Max(reference, floorAmplitude) / math.Max(measured, floorAmplitude))
}
