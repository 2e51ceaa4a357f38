// Package design builds real-valued coefficient tables for the demo
// commands and tests. Tables are quantized with coeff.Quantize before they
// reach a pipeline; nothing here runs on the signal path.
package design

import (
	"errors"
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// headroom keeps the largest tap strictly below 1.0 so it fits Q1.x.
	headroom = 0.98

	// passbandFraction of the output Nyquist band the compensator flattens.
	passbandFraction = 0.5

	// resamplerAttenuation is the prototype stopband attenuation in dB.
	resamplerAttenuation = 60.0

	// maxCutoff bounds the prototype cutoff when neither L nor M narrows it.
	maxCutoff = 0.45
)

// ErrParameters is returned for non-positive sizes or out-of-range
// frequencies.
var ErrParameters = errors.New("invalid design parameters")

// Resampler designs an interpolate-by-l, decimate-by-m lowpass and lays it
// out in polyphase branch order: branch (p, s) occupies
// [(p*l+s)*taps, (p*l+s+1)*taps) and holds prototype taps s, s+l, s+2l, ...
// Every main phase shares the same sub-filters. The prototype has l*taps
// taps, a Kaiser window, cutoff at the narrower of the two Nyquist bands
// and gain l, so each branch has roughly unity DC gain.
func Resampler(l, m, taps int) ([]float64, error) {
	if l < 1 || m < 1 || taps < 1 {
		return nil, ErrParameters
	}

	cutoff := min(0.5/float64(max(l, m)), maxCutoff)
	proto, err := Lowpass(l*taps, cutoff, resamplerAttenuation, float64(l))
	if err != nil {
		return nil, err
	}
	fit(proto)

	out := make([]float64, 0, l*m*taps)
	for range m {
		for s := range l {
			for j := range taps {
				out = append(out, proto[s+l*j])
			}
		}
	}
	return out, nil
}

// Notch designs b0, b1, b2, a1, a2 of a second-order notch at freq (cycles
// per sample) with pole radius r, normalized to unity DC gain.
func Notch(freq, r float64) ([]float64, error) {
	if freq <= 0 || freq >= 0.5 || r <= 0 || r >= 1 {
		return nil, ErrParameters
	}
	c := math.Cos(2 * math.Pi * freq)
	a1 := -2 * r * c
	a2 := r * r
	gain := (1 + a1 + a2) / (2 - 2*c)
	return []float64{gain, -2 * c * gain, gain, a1, a2}, nil
}

// Compensator designs an odd-length linear-phase FIR of at least 3 taps that
// flattens the passband droop of an order-k, rate-r CIC decimator. It is
// sampled at the decimated rate and normalized to unity DC gain.
func Compensator(k, r, taps int) ([]float64, error) {
	if k < 1 || r < 2 || taps < 3 || taps%2 == 0 {
		return nil, ErrParameters
	}

	// Frequency sampling of the inverse CIC response over the passband.
	half := (taps - 1) / 2
	desired := make([]float64, half+1)
	for i := range desired {
		f := float64(i) / float64(taps)
		if f > passbandFraction*0.5 {
			break
		}
		desired[i] = 1 / cicResponse(f, k, r)
	}

	h := make([]float64, taps)
	for n := range h {
		acc := desired[0]
		for i := 1; i <= half; i++ {
			acc += 2 * desired[i] * math.Cos(2*math.Pi*float64(i)*float64(n-half)/float64(taps))
		}
		h[n] = acc / float64(taps)
	}
	window.Hamming(h)
	f64.Scale(h, h, 1/f64.Sum(h))
	fit(h)
	return h, nil
}

// cicResponse is the normalized magnitude of an order-k, rate-r CIC at f
// cycles per output sample.
func cicResponse(f float64, k, r int) float64 {
	if f == 0 {
		return 1
	}
	num := math.Sin(math.Pi * f)
	den := float64(r) * math.Sin(math.Pi*f/float64(r))
	return math.Pow(math.Abs(num/den), float64(k))
}

// fit scales h down when its largest tap would not fit below 1.0.
func fit(h []float64) {
	peak := 0.0
	for _, v := range h {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < headroom {
		return
	}
	for i := range h {
		h[i] *= headroom / peak
	}
}
