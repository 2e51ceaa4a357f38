package fixed

import "fmt"

// Multiplier multiplies an A-format operand by a B-format operand and
// delivers the result in a target format. Widths are checked once by
// NewMultiplier; Mul itself has no error outcome.
type Multiplier struct {
	a, b     Format
	target   Format
	shift    int // fractional bits dropped from the A+B product
	policy   Policy
	rounding Rounding
}

// NewMultiplier validates the operand and target formats.
func NewMultiplier(a, b, target Format, policy Policy, rounding Rounding) (*Multiplier, error) {
	for _, f := range []struct {
		name string
		fmt  Format
	}{{"operand a", a}, {"operand b", b}, {"target", target}} {
		if err := f.fmt.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	if a.Width+b.Width > maxProductWidth {
		return nil, fmt.Errorf("product width %d+%d exceeds %d bits", a.Width, b.Width, maxProductWidth)
	}
	if target.Frac > a.Frac+b.Frac {
		return nil, fmt.Errorf("target %s has more fractional bits than the product %d", target, a.Frac+b.Frac)
	}
	if policy != Saturate && policy != Wrap {
		return nil, fmt.Errorf("unknown overflow policy %d", int(policy))
	}
	return &Multiplier{
		a:        a,
		b:        b,
		target:   target,
		shift:    a.Frac + b.Frac - target.Frac,
		policy:   policy,
		rounding: rounding,
	}, nil
}

// Mul returns x*y rescaled to the target fractional bits and fitted to the
// target width.
func (m *Multiplier) Mul(x, y int64) int64 {
	return Fit(Shift(x*y, m.shift, m.rounding), m.target.Width, m.policy)
}

// Product returns the exact A+B bit product without rescaling.
func (m *Multiplier) Product(x, y int64) int64 {
	return x * y
}

// Target returns the result format.
func (m *Multiplier) Target() Format { return m.target }

// Accumulator fits running sums to a fixed register width.
type Accumulator struct {
	Width  int
	Policy Policy
}

// NewAccumulator returns an accumulator of the given width.
func NewAccumulator(width int, policy Policy) (Accumulator, error) {
	if width < 1 || width > MaxWidth {
		return Accumulator{}, fmt.Errorf("accumulator width %d out of range [1, %d]", width, MaxWidth)
	}
	if policy != Saturate && policy != Wrap {
		return Accumulator{}, fmt.Errorf("unknown overflow policy %d", int(policy))
	}
	return Accumulator{Width: width, Policy: policy}, nil
}

// Add returns acc+x fitted to the accumulator width.
func (a Accumulator) Add(acc, x int64) int64 {
	return Fit(acc+x, a.Width, a.Policy)
}

// Sub returns acc-x fitted to the accumulator width.
func (a Accumulator) Sub(acc, x int64) int64 {
	return Fit(acc-x, a.Width, a.Policy)
}

// Fit applies the accumulator policy to v.
func (a Accumulator) Fit(v int64) int64 {
	return Fit(v, a.Width, a.Policy)
}
