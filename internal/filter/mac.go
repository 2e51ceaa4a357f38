// Package filter implements the fixed-point filter primitives of the DFE:
// the FIR multiply-accumulate unit, the DF2T biquad and the CIC cascade.
//
// The primitives are clocked by their owner. They hold only private
// registers and never publish state to other components, so the
// two-phase tick discipline lives one level up in the stage adapters.
package filter

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/fixed"
)

// MACConfig holds the arithmetic parameters of a MAC unit.
type MACConfig struct {
	// Data is the input and output sample format.
	Data fixed.Format

	// Policy applies to the accumulator and to the rescaled output.
	Policy fixed.Policy

	// Rounding is used when dropping the coefficient fractional bits.
	Rounding fixed.Rounding

	// Lanes is the number of taps multiplied and accumulated per enabled
	// tick. 0 or a value >= taps completes the window in one tick.
	Lanes int
}

// MAC is a tapped delay line of depth N and an accumulator.
//
// A sample is accepted only while the unit is not busy. Accepting it shifts
// the sample into the line (evicting the oldest), clears the accumulator
// and starts a new window; each enabled tick then consumes up to Lanes taps.
// Done reports that the window for the most recent sample is complete.
type MAC struct {
	coeffs coeff.View
	taps   int
	lanes  int

	mul  *fixed.Multiplier
	acc  fixed.Accumulator
	data fixed.Format
	cfg  MACConfig

	// Ring buffer, delay[(head+i)%taps] is the i-th newest sample.
	delay []int64
	head  int

	sum    int64
	tap    int
	busy   bool
	done   bool
	result int64
}

// NewMAC binds a MAC of the given depth to a coefficient view. The view
// must hold exactly taps coefficients.
func NewMAC(coeffs coeff.View, taps int, cfg MACConfig) (*MAC, error) {
	if taps < 1 {
		return nil, fmt.Errorf("tap count %d must be positive", taps)
	}
	if coeffs.Len() != taps {
		return nil, fmt.Errorf("tap count %d does not match coefficient count %d", taps, coeffs.Len())
	}
	if err := cfg.Data.Validate(); err != nil {
		return nil, fmt.Errorf("data format: %w", err)
	}

	cf := coeffs.Format()
	accWidth := fixed.AccumulatorWidth(cfg.Data.Width, cf.Width, taps)
	if accWidth > fixed.MaxWidth {
		return nil, fmt.Errorf("accumulator width %d (data %d + coeff %d + guard %d) exceeds %d bits",
			accWidth, cfg.Data.Width, cf.Width, fixed.GuardBits(taps), fixed.MaxWidth)
	}

	product := fixed.Q(accWidth, cfg.Data.Frac+cf.Frac)
	mul, err := fixed.NewMultiplier(cfg.Data, cf, product, cfg.Policy, cfg.Rounding)
	if err != nil {
		return nil, err
	}
	acc, err := fixed.NewAccumulator(accWidth, cfg.Policy)
	if err != nil {
		return nil, err
	}

	lanes := cfg.Lanes
	if lanes <= 0 || lanes > taps {
		lanes = taps
	}

	return &MAC{
		coeffs: coeffs,
		taps:   taps,
		lanes:  lanes,
		mul:    mul,
		acc:    acc,
		data:   cfg.Data,
		cfg:    cfg,
		delay:  make([]int64, taps),
	}, nil
}

// Clock advances the unit by one tick. When enable is false nothing moves.
// It reports whether the offered sample was accepted.
func (m *MAC) Clock(enable bool, x int64, valid bool) bool {
	if !enable {
		return false
	}

	accepted := false
	if valid && !m.busy {
		m.load(x)
		accepted = true
	}
	if m.busy {
		m.step()
	}
	return accepted
}

func (m *MAC) load(x int64) {
	m.head--
	if m.head < 0 {
		m.head = m.taps - 1
	}
	m.delay[m.head] = x
	m.sum = 0
	m.tap = 0
	m.busy = true
	m.done = false
}

func (m *MAC) step() {
	end := min(m.tap+m.lanes, m.taps)
	for i := m.tap; i < end; i++ {
		idx := m.head + i
		if idx >= m.taps {
			idx -= m.taps
		}
		m.sum = m.acc.Add(m.sum, m.mul.Mul(m.delay[idx], m.coeffs.At(i)))
	}
	m.tap = end

	if m.tap == m.taps {
		m.busy = false
		m.done = true
		m.result = fixed.Fit(fixed.Shift(m.sum, m.coeffs.Format().Frac, m.cfg.Rounding), m.data.Width, m.cfg.Policy)
	}
}

// Busy reports whether a window is in progress.
func (m *MAC) Busy() bool { return m.busy }

// Done reports whether the window for the last accepted sample is complete.
func (m *MAC) Done() bool { return m.done }

// Result returns the last completed output, rescaled to the data format.
func (m *MAC) Result() int64 { return m.result }

// Taps returns the delay line depth.
func (m *MAC) Taps() int { return m.taps }

// Lanes returns the taps consumed per tick.
func (m *MAC) Lanes() int { return m.lanes }

// AccumulatorWidth returns the accumulator register width in bits.
func (m *MAC) AccumulatorWidth() int { return m.acc.Width }

// TicksPerWindow returns how many enabled ticks one output takes.
func (m *MAC) TicksPerWindow() int {
	return (m.taps + m.lanes - 1) / m.lanes
}

// Delay returns a copy of the delay line, newest sample first.
func (m *MAC) Delay() []int64 {
	out := make([]int64, m.taps)
	for i := range out {
		out[i] = m.delay[(m.head+i)%m.taps]
	}
	return out
}

// Reset zeroes the delay line and the accumulator.
func (m *MAC) Reset() {
	clear(m.delay)
	m.head = 0
	m.sum = 0
	m.tap = 0
	m.busy = false
	m.done = false
	m.result = 0
}
