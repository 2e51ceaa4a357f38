package filter

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/fixed"
)

// Biquad coefficient layout in the coefficient store.
const (
	biquadB0 = iota
	biquadB1
	biquadB2
	biquadA1
	biquadA2

	// BiquadCoefficientCount is the number of stored coefficients (a0 is
	// normalized to 1 and not stored).
	BiquadCoefficientCount
)

// biquadGuardBits is the headroom of the w1/w2 registers over a single
// data*coefficient product: w1 sums three products.
const biquadGuardBits = 2

// BiquadCoefficients holds a second-order section in the store's Q-format.
//
// Sign convention (Direct Form II Transposed):
//
//	y  = B0*x + w1
//	w1 = B1*x - A1*y + w2
//	w2 = B2*x - A2*y
type BiquadCoefficients struct {
	B0, B1, B2 int64
	A1, A2     int64
}

// Biquad is a fixed-point DF2T second-order IIR section. The delay
// registers are kept in the product domain (data frac + coefficient frac)
// so the feedback path keeps full precision.
type Biquad struct {
	c        BiquadCoefficients
	frac     int
	data     fixed.Format
	reg      fixed.Accumulator
	policy   fixed.Policy
	rounding fixed.Rounding

	w1, w2 int64
}

// NewBiquad reads b0, b1, b2, a1, a2 from the view.
func NewBiquad(coeffs coeff.View, data fixed.Format, policy fixed.Policy, rounding fixed.Rounding) (*Biquad, error) {
	if coeffs.Len() != BiquadCoefficientCount {
		return nil, fmt.Errorf("biquad needs %d coefficients, got %d", BiquadCoefficientCount, coeffs.Len())
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("data format: %w", err)
	}

	cf := coeffs.Format()
	width := data.Width + cf.Width + biquadGuardBits
	reg, err := fixed.NewAccumulator(width, policy)
	if err != nil {
		return nil, fmt.Errorf("biquad register: %w", err)
	}

	return &Biquad{
		c: BiquadCoefficients{
			B0: coeffs.At(biquadB0),
			B1: coeffs.At(biquadB1),
			B2: coeffs.At(biquadB2),
			A1: coeffs.At(biquadA1),
			A2: coeffs.At(biquadA2),
		},
		frac:     cf.Frac,
		data:     data,
		reg:      reg,
		policy:   policy,
		rounding: rounding,
	}, nil
}

// Process filters one accepted sample. Ticks without a sample must not call
// it, so w1 and w2 only change on accepted input.
func (b *Biquad) Process(x int64) int64 {
	acc := b.reg.Add(b.c.B0*x, b.w1)
	y := fixed.Fit(fixed.Shift(acc, b.frac, b.rounding), b.data.Width, b.policy)

	b.w1 = b.reg.Fit(b.c.B1*x - b.c.A1*y + b.w2)
	b.w2 = b.reg.Fit(b.c.B2*x - b.c.A2*y)

	return y
}

// Coefficients returns the section coefficients.
func (b *Biquad) Coefficients() BiquadCoefficients { return b.c }

// RegisterWidth returns the width of w1 and w2 in bits.
func (b *Biquad) RegisterWidth() int { return b.reg.Width }

// State returns the delay registers [w1, w2].
func (b *Biquad) State() [2]int64 {
	return [2]int64{b.w1, b.w2}
}

// Reset clears the delay registers.
func (b *Biquad) Reset() {
	b.w1 = 0
	b.w2 = 0
}
