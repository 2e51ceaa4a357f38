package design

import (
	"math"

	"github.com/tphakala/simd/f64"
)

// Kaiser window constants from Kaiser & Schafer.
const (
	kaiserAttHigh        = 50.0
	kaiserAttMedium      = 21.0
	kaiserBetaHighCoeff  = 0.1102
	kaiserBetaHighOffset = 8.7
	kaiserBetaMedCoeff1  = 0.5842
	kaiserBetaMedPower   = 0.4
	kaiserBetaMedCoeff2  = 0.07886

	// besselSmallArg splits the polynomial and asymptotic I0 forms.
	besselSmallArg = 3.75

	// sincZero is the distance from the centre treated as the centre tap.
	sincZero = 1e-10
)

// Abramowitz & Stegun 9.8.1 and 9.8.2.
var (
	besselI0Small = [...]float64{1, 3.5156229, 3.0899424, 1.2067492, 0.2659732, 0.360768e-1, 0.45813e-2}
	besselI0Large = [...]float64{
		0.39894228, 0.1328592e-1, 0.225319e-2, -0.157565e-2, 0.916281e-2,
		-0.2057706e-1, 0.2635537e-1, -0.1647633e-1, 0.392377e-2,
	}
)

// besselI0 is the modified Bessel function of the first kind, order zero.
func besselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < besselSmallArg {
		t := x / besselSmallArg
		return horner(besselI0Small[:], t*t)
	}
	return math.Exp(ax) * horner(besselI0Large[:], besselSmallArg/ax) / math.Sqrt(ax)
}

// horner evaluates c[0] + c[1]*t + c[2]*t^2 + ...
func horner(c []float64, t float64) float64 {
	acc := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		acc = acc*t + c[i]
	}
	return acc
}

// kaiserBeta returns the window shape for a stopband attenuation in dB.
func kaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserBetaHighCoeff * (attenuation - kaiserBetaHighOffset)
	case attenuation >= kaiserAttMedium:
		d := attenuation - kaiserAttMedium
		return kaiserBetaMedCoeff1*math.Pow(d, kaiserBetaMedPower) + kaiserBetaMedCoeff2*d
	default:
		return 0
	}
}

// kaiserWindow returns a symmetric Kaiser window of n points.
func kaiserWindow(n int, beta float64) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	alpha := float64(n-1) / 2
	norm := besselI0(beta)
	for i := range w {
		x := (float64(i) - alpha) / alpha
		w[i] = besselI0(beta*math.Sqrt(1-x*x)) / norm
	}
	return w
}

// Lowpass designs an n-tap Kaiser-windowed sinc with cutoff in cycles per
// sample (0, 0.5), the given stopband attenuation in dB and DC gain.
func Lowpass(n int, cutoff, attenuation, gain float64) ([]float64, error) {
	if n < 1 || cutoff <= 0 || cutoff >= 0.5 || attenuation < 0 || gain <= 0 {
		return nil, ErrParameters
	}

	h := kaiserWindow(n, kaiserBeta(attenuation))
	center := float64(n-1) / 2
	for i := range h {
		x := float64(i) - center
		if math.Abs(x) < sincZero {
			h[i] *= 2 * cutoff
			continue
		}
		h[i] *= math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
	}

	if sum := f64.Sum(h); math.Abs(sum) > sincZero {
		f64.Scale(h, h, gain/sum)
	}
	return h, nil
}

// Magnitude evaluates |H(f)| of an FIR at f cycles per sample.
func Magnitude(h []float64, f float64) float64 {
	var re, im float64
	omega := 2 * math.Pi * f
	for n, v := range h {
		re += v * math.Cos(omega*float64(n))
		im -= v * math.Sin(omega*float64(n))
	}
	return math.Hypot(re, im)
}
