package filter

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/fixed"
)

const (
	minCICOrder = 1
	maxCICOrder = 8
	minCICRate  = 2

	// AutoShift selects the Hogenauer bit growth as the output shift.
	AutoShift = -1
)

// CICConfig configures a CIC decimator.
type CICConfig struct {
	// Order is the number of integrator and comb stages (K).
	Order int

	// Rate is the decimation factor (R).
	Rate int

	// Data is the input and output sample format.
	Data fixed.Format

	// RegisterPolicy applies to integrator and comb registers. Wrap keeps
	// the modular integrator arithmetic exact.
	RegisterPolicy fixed.Policy

	// OutputPolicy applies when the shifted result is fitted back to Data.
	OutputPolicy fixed.Policy

	// Rounding is used by the output shift.
	Rounding fixed.Rounding

	// OutputShift drops this many bits from the comb output. AutoShift uses
	// the bit growth ceil(K*log2 R), which removes the R^K gain when R is a
	// power of two. Droop and residual gain are left to a compensation FIR.
	OutputShift int
}

// Integrator is one CIC accumulator: y[n] = y[n-1] + x[n].
type Integrator struct {
	y int64
}

// Step accumulates x and returns the new output.
func (s *Integrator) Step(x int64, acc fixed.Accumulator) int64 {
	s.y = acc.Add(s.y, x)
	return s.y
}

// Value returns the register contents.
func (s *Integrator) Value() int64 { return s.y }

// Comb is one CIC differentiator: y[n] = x[n] - x[n-1].
type Comb struct {
	prev int64
}

// Step differentiates x against the previous input.
func (s *Comb) Step(x int64, acc fixed.Accumulator) int64 {
	y := acc.Sub(x, s.prev)
	s.prev = x
	return y
}

// Value returns the delay register contents.
func (s *Comb) Value() int64 { return s.prev }

// CIC is a K-stage cascaded integrator-comb decimator. The integrators run
// on every accepted sample; a modulo-R gate forwards every R-th integrator
// output to the comb section, which runs at the reduced rate.
type CIC struct {
	cfg         CICConfig
	growth      int
	shift       int
	gain        int64
	reg         fixed.Accumulator
	integrators []Integrator
	combs       []Comb
	count       int
}

// NewCIC validates cfg and sizes the registers at Data.Width + growth bits.
func NewCIC(cfg CICConfig) (*CIC, error) {
	if cfg.Order < minCICOrder || cfg.Order > maxCICOrder {
		return nil, fmt.Errorf("CIC order %d out of range [%d, %d]", cfg.Order, minCICOrder, maxCICOrder)
	}
	if cfg.Rate < minCICRate {
		return nil, fmt.Errorf("CIC decimation rate %d must be at least %d", cfg.Rate, minCICRate)
	}
	if err := cfg.Data.Validate(); err != nil {
		return nil, fmt.Errorf("data format: %w", err)
	}

	gain, growth, err := cicGrowth(cfg.Order, cfg.Rate)
	if err != nil {
		return nil, err
	}
	width := cfg.Data.Width + growth
	if width > fixed.MaxWidth {
		return nil, fmt.Errorf("CIC register width %d (data %d + growth %d) exceeds %d bits",
			width, cfg.Data.Width, growth, fixed.MaxWidth)
	}
	reg, err := fixed.NewAccumulator(width, cfg.RegisterPolicy)
	if err != nil {
		return nil, fmt.Errorf("CIC register: %w", err)
	}

	shift := cfg.OutputShift
	if shift == AutoShift {
		shift = growth
	}
	if shift < 0 || shift > width {
		return nil, fmt.Errorf("CIC output shift %d out of range [0, %d]", shift, width)
	}

	return &CIC{
		cfg:         cfg,
		growth:      growth,
		shift:       shift,
		gain:        gain,
		reg:         reg,
		integrators: make([]Integrator, cfg.Order),
		combs:       make([]Comb, cfg.Order),
	}, nil
}

// cicGrowth returns R^K and ceil(log2(R^K)).
func cicGrowth(order, rate int) (gain int64, growth int, err error) {
	gain = 1
	limit := int64(1) << fixed.MaxWidth
	for range order {
		// Checked before multiplying so the product cannot wrap int64.
		if gain > limit/int64(rate) {
			return 0, 0, fmt.Errorf("CIC gain %d^%d exceeds register range", rate, order)
		}
		gain *= int64(rate)
	}
	return gain, fixed.GuardBits(int(gain)), nil
}

// Process runs the integrators on x and, on every R-th call, the comb
// section. valid is false on the R-1 discarded ticks.
func (c *CIC) Process(x int64) (y int64, valid bool) {
	v := x
	for i := range c.integrators {
		v = c.integrators[i].Step(v, c.reg)
	}

	c.count++
	if c.count < c.cfg.Rate {
		return 0, false
	}
	c.count = 0

	for i := range c.combs {
		v = c.combs[i].Step(v, c.reg)
	}

	return fixed.Fit(fixed.Shift(v, c.shift, c.cfg.Rounding), c.cfg.Data.Width, c.cfg.OutputPolicy), true
}

// Gain returns the passband gain R^K before the output shift.
func (c *CIC) Gain() int64 { return c.gain }

// GrowthBits returns ceil(K*log2 R).
func (c *CIC) GrowthBits() int { return c.growth }

// RegisterWidth returns the integrator and comb register width.
func (c *CIC) RegisterWidth() int { return c.reg.Width }

// OutputShift returns the applied output shift.
func (c *CIC) OutputShift() int { return c.shift }

// Rate returns the decimation factor.
func (c *CIC) Rate() int { return c.cfg.Rate }

// Order returns the number of stages per section.
func (c *CIC) Order() int { return c.cfg.Order }

// Registers returns the integrator values followed by the comb delays.
func (c *CIC) Registers() []int64 {
	out := make([]int64, 0, len(c.integrators)+len(c.combs))
	for i := range c.integrators {
		out = append(out, c.integrators[i].Value())
	}
	for i := range c.combs {
		out = append(out, c.combs[i].Value())
	}
	return out
}

// Reset zeroes every stage and the decimation counter.
func (c *CIC) Reset() {
	clear(c.integrators)
	clear(c.combs)
	c.count = 0
}
