package dfe

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tphakala/go-dfe/internal/engine"
	"github.com/tphakala/go-dfe/internal/fixed"
	"github.com/tphakala/go-dfe/internal/pipeline"
)

// Sample is one fixed-point value and its validity flag for a single tick.
type Sample = pipeline.Sample

// Valid returns a valid sample carrying v.
func Valid(v int64) Sample { return pipeline.Valid(v) }

// Policy selects what happens when a value does not fit its register.
type Policy = fixed.Policy

const (
	// Saturate clips to the representable min/max of the target width.
	Saturate = fixed.Saturate
	// Wrap performs two's-complement truncation.
	Wrap = fixed.Wrap
)

// Rounding selects how fractional bits are dropped.
type Rounding = fixed.Rounding

const (
	// RoundHalfUp adds half an LSB before shifting.
	RoundHalfUp = fixed.RoundHalfUp
	// Truncate shifts toward negative infinity.
	Truncate = fixed.Truncate
)

// EmitMode selects which resampler sub-phases produce output.
type EmitMode = engine.EmitMode

const (
	// EmitAll emits all L sub-phase results per input sample.
	EmitAll = engine.EmitAll
	// EmitRational emits L results per M input samples, realizing an
	// output rate of input_rate * L / M.
	EmitRational = engine.EmitRational
)

// StageKind names a pipeline stage.
type StageKind string

const (
	StageResampler   StageKind = engine.NameResampler
	StageNotch       StageKind = engine.NameNotch
	StageCIC         StageKind = engine.NameCIC
	StageCompensator StageKind = engine.NameCompensator
)

// OverrunPolicy decides the fate of an input offered while the head stage
// is not ready.
type OverrunPolicy int

const (
	// OverrunReject refuses the input with ErrProtocolViolation. The
	// pipeline state is not touched and the caller must offer it again.
	OverrunReject OverrunPolicy = iota

	// OverrunBuffer parks one such input in a skid register and feeds it
	// to the head as soon as it is ready. A second overrun while the skid
	// register is occupied is rejected.
	OverrunBuffer
)

func (o OverrunPolicy) String() string {
	switch o {
	case OverrunReject:
		return "reject"
	case OverrunBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("OverrunPolicy(%d)", int(o))
	}
}

// Config is the static pipeline configuration. It is copied at construction
// and never changes for the lifetime of a Pipeline.
type Config struct {
	// DataWidth is the sample width W in bits. Samples use W-1 fractional
	// bits. Default 16.
	DataWidth int

	// CoeffWidth is the coefficient width C in bits. Default 16.
	CoeffWidth int

	// CoeffFrac is the fractional bit count of the resampler and
	// compensation tables. Default C-1; FracInteger selects integer
	// coefficients.
	CoeffFrac int

	// NotchFrac is the fractional bit count of the notch table. The
	// feedback coefficient a1 spans (-2, 2), so the default is C-2.
	// FracInteger selects integer coefficients.
	NotchFrac int

	// Taps is the per-branch tap count N of the resampler.
	Taps int

	// Interpolation (L) and Decimation (M) set the resampling ratio L/M.
	Interpolation int
	Decimation    int

	// CICOrder (K) and CICRate (R) configure the CIC decimator.
	CICOrder int
	CICRate  int

	// CICOutputShift drops this many bits from the CIC output. 0 selects
	// the bit growth ceil(K*log2 R); CICShiftNone keeps every bit.
	CICOutputShift int

	// CompensatorTaps is the length of the compensation FIR. Default Taps.
	CompensatorTaps int

	// Overflow applies to the resampler, notch and compensator arithmetic.
	Overflow Policy

	// CICOverflow applies to the CIC integrator and comb registers. Wrap
	// keeps the Hogenauer arithmetic exact; DefaultConfig and LoadConfig
	// select it.
	CICOverflow Policy

	Rounding Rounding

	// MACLanes is the number of taps accumulated per tick by each MAC.
	// 0 completes every window in a single tick.
	MACLanes int

	// Stages is the ordered subset of stages to run. Default resampler,
	// notch, cic.
	Stages []StageKind

	Emit    EmitMode
	Overrun OverrunPolicy
}

// CICShiftNone disables the CIC output shift.
const CICShiftNone = -1

// FracInteger requests zero fractional bits for CoeffFrac or NotchFrac,
// whose zero value selects the default.
const FracInteger = -1

// Common errors returned by the pipeline.
var (
	// ErrConfiguration indicates a configuration that the pipeline refuses
	// to run: invalid widths or ratios, coefficient count mismatches,
	// out-of-range coefficient windows.
	ErrConfiguration = errors.New("invalid pipeline configuration")

	// ErrProtocolViolation indicates an input offered while the pipeline
	// could not take it.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrNotDrained indicates that Flush ran out of ticks.
	ErrNotDrained = errors.New("pipeline not drained")
)

// DefaultConfig returns the default configuration with the given resampling
// ratio and branch tap count.
func DefaultConfig(l, m, taps int) Config {
	return Config{
		Interpolation: l,
		Decimation:    m,
		Taps:          taps,
		CICOrder:      defaultCICOrder,
		CICRate:       defaultCICRate,
		CICOverflow:   Wrap,
	}.WithDefaults()
}

// WithDefaults returns a copy of c with unset fields filled the way New
// fills them.
func (c Config) WithDefaults() Config {
	if c.DataWidth == 0 {
		c.DataWidth = defaultDataWidth
	}
	if c.CoeffWidth == 0 {
		c.CoeffWidth = defaultCoeffWidth
	}
	if c.CoeffFrac == 0 {
		c.CoeffFrac = c.CoeffWidth - 1
	}
	if c.NotchFrac == 0 {
		c.NotchFrac = c.CoeffWidth - notchHeadroomBits
	}
	if c.CompensatorTaps == 0 {
		c.CompensatorTaps = c.Taps
	}
	if len(c.Stages) == 0 {
		c.Stages = []StageKind{StageResampler, StageNotch, StageCIC}
	} else {
		c.Stages = slices.Clone(c.Stages)
	}
	return c
}

// Has reports whether kind is one of the configured stages.
func (c *Config) Has(kind StageKind) bool {
	return slices.Contains(c.Stages, kind)
}

// DataFormat returns the sample format Q(W, W-1).
func (c *Config) DataFormat() fixed.Format {
	return fixed.Q(c.DataWidth, c.DataWidth-1)
}

// CoeffFormat returns the resampler and compensation table format.
func (c *Config) CoeffFormat() fixed.Format {
	return fixed.Q(c.CoeffWidth, resolveFrac(c.CoeffFrac))
}

// NotchFormat returns the notch table format.
func (c *Config) NotchFormat() fixed.Format {
	return fixed.Q(c.CoeffWidth, resolveFrac(c.NotchFrac))
}

func resolveFrac(frac int) int {
	if frac == FracInteger {
		return 0
	}
	return frac
}

// Validate checks the configuration. Defaults are not applied; New calls
// Validate on the defaulted copy.
func (c *Config) Validate() error {
	if c.DataWidth < minWidth || c.DataWidth > fixed.MaxWidth {
		return fmt.Errorf("%w: data width %d out of range [%d, %d]", ErrConfiguration, c.DataWidth, minWidth, fixed.MaxWidth)
	}
	if c.CoeffWidth < minWidth || c.CoeffWidth > fixed.MaxWidth {
		return fmt.Errorf("%w: coefficient width %d out of range [%d, %d]", ErrConfiguration, c.CoeffWidth, minWidth, fixed.MaxWidth)
	}
	if c.CoeffFrac < FracInteger || c.CoeffFrac >= c.CoeffWidth {
		return fmt.Errorf("%w: coefficient fraction %d out of range [0, %d)", ErrConfiguration, c.CoeffFrac, c.CoeffWidth)
	}
	if c.NotchFrac < FracInteger || c.NotchFrac >= c.CoeffWidth {
		return fmt.Errorf("%w: notch fraction %d out of range [0, %d)", ErrConfiguration, c.NotchFrac, c.CoeffWidth)
	}

	if err := c.validatePolicies(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}

	if c.Has(StageResampler) {
		if c.Interpolation < 1 || c.Decimation < 1 {
			return fmt.Errorf("%w: invalid ratio L=%d M=%d", ErrConfiguration, c.Interpolation, c.Decimation)
		}
		if c.Taps < 1 {
			return fmt.Errorf("%w: tap count %d must be positive", ErrConfiguration, c.Taps)
		}
	}
	if c.Has(StageCIC) || c.Has(StageCompensator) {
		if c.CICRate < minCICRate {
			return fmt.Errorf("%w: CIC decimation rate %d must be at least %d", ErrConfiguration, c.CICRate, minCICRate)
		}
	}
	if c.Has(StageCIC) {
		if c.CICOrder < minCICOrder || c.CICOrder > maxCICOrder {
			return fmt.Errorf("%w: CIC order %d out of range [%d, %d]", ErrConfiguration, c.CICOrder, minCICOrder, maxCICOrder)
		}
		if c.CICOutputShift < CICShiftNone {
			return fmt.Errorf("%w: CIC output shift %d is negative", ErrConfiguration, c.CICOutputShift)
		}
	}
	if c.Has(StageCompensator) && c.CompensatorTaps < 1 {
		return fmt.Errorf("%w: compensator tap count %d must be positive", ErrConfiguration, c.CompensatorTaps)
	}
	if c.MACLanes < 0 {
		return fmt.Errorf("%w: MAC lanes %d is negative", ErrConfiguration, c.MACLanes)
	}

	return nil
}

func (c *Config) validatePolicies() error {
	for _, p := range []Policy{c.Overflow, c.CICOverflow} {
		if p != Saturate && p != Wrap {
			return fmt.Errorf("%w: unknown overflow policy %d", ErrConfiguration, p)
		}
	}
	if c.Rounding != RoundHalfUp && c.Rounding != Truncate {
		return fmt.Errorf("%w: unknown rounding %d", ErrConfiguration, c.Rounding)
	}
	if c.Emit != EmitAll && c.Emit != EmitRational {
		return fmt.Errorf("%w: unknown emit mode %d", ErrConfiguration, c.Emit)
	}
	if c.Overrun != OverrunReject && c.Overrun != OverrunBuffer {
		return fmt.Errorf("%w: unknown overrun policy %d", ErrConfiguration, c.Overrun)
	}
	return nil
}

func (c *Config) validateStages() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("%w: no stages configured", ErrConfiguration)
	}
	seen := make(map[StageKind]bool, len(c.Stages))
	for _, kind := range c.Stages {
		switch kind {
		case StageResampler, StageNotch, StageCIC, StageCompensator:
		default:
			return fmt.Errorf("%w: unknown stage %q", ErrConfiguration, kind)
		}
		if seen[kind] {
			return fmt.Errorf("%w: stage %q listed twice", ErrConfiguration, kind)
		}
		seen[kind] = true
	}
	return nil
}

// Info describes a constructed pipeline.
type Info struct {
	// Stages lists the stage names in evaluation order.
	Stages []string

	// RateNum/RateDen is the output to input sample rate ratio.
	RateNum int
	RateDen int

	// TicksPerInput is the worst-case input interval of the head stage
	// with an unstalled output.
	TicksPerInput int

	// AccumulatorWidth is the resampler MAC accumulator width.
	AccumulatorWidth int

	// NotchRegisterWidth is the width of the notch w1/w2 registers.
	NotchRegisterWidth int

	// CICRegisterWidth, CICGain and CICShift describe the CIC cascade.
	CICRegisterWidth int
	CICGain          int64
	CICShift         int

	// CompensatorTaps is the compensation FIR length.
	CompensatorTaps int

	Emit    string
	Overrun string

	// SIMD describes the vector instruction sets of the host, as used by
	// the analysis tooling.
	SIMD string
}

// Stats counts what happened to offered inputs.
type Stats struct {
	Ticks    int64
	Accepted int64
	Buffered int64
	Rejected int64
	Emitted  int64
}
