package dfe

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/fixed"
	"github.com/tphakala/go-dfe/internal/pipeline"
	"github.com/tphakala/simd/cpu"
)

// Pipeline is a configured DFE receive chain. It is driven one tick at a
// time by a single caller and is not safe for concurrent use; independent
// pipelines may run on separate goroutines.
type Pipeline struct {
	cfg    Config
	stages *stageSet
	chain  *pipeline.Chain

	// backlog holds block-driver input the head has not accepted yet.
	backlog *pipeline.RingBuffer

	stats Stats
}

// New builds a pipeline. Unset configuration fields take their defaults.
// Every error wraps ErrConfiguration; a pipeline is never returned in a
// partially configured state.
func New(cfg *Config, coeffs *Coefficients) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfiguration)
	}

	c := cfg.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if coeffs == nil {
		coeffs = &Coefficients{}
	}

	set, err := buildStages(&c, coeffs)
	if err != nil {
		return nil, err
	}
	chain, err := pipeline.NewChain(set.ordered, c.Overrun == OverrunBuffer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &Pipeline{
		cfg:     c,
		stages:  set,
		chain:   chain,
		backlog: pipeline.NewRingBuffer(defaultBacklog),
	}, nil
}

// Tick advances every stage by one tick. in is offered to the head stage;
// the returned sample is the registered output of the last stage.
//
// Offering a valid input while Ready is false is a protocol violation.
// Under OverrunReject the input is refused with ErrProtocolViolation and
// the pipeline ticks on without it. Under OverrunBuffer one such input is
// parked and only a second one is refused. A valid input that does not fit
// DataWidth is likewise refused with ErrProtocolViolation, whatever the
// overrun policy. Builds with the dfedebug tag panic instead.
func (p *Pipeline) Tick(in Sample) (Sample, error) {
	if in.Valid && !fixed.Fits(in.Value, p.cfg.DataWidth) {
		out, _ := p.Tick(Sample{})
		p.stats.Rejected++
		err := fmt.Errorf("%w: input %d does not fit %d bits", ErrProtocolViolation, in.Value, p.cfg.DataWidth)
		if debugAssertions {
			panic(err)
		}
		return out, err
	}

	out, status := p.chain.Tick(in)

	p.stats.Ticks++
	if out.Valid {
		p.stats.Emitted++
	}

	switch status {
	case pipeline.StatusAccepted:
		p.stats.Accepted++
	case pipeline.StatusBuffered:
		p.stats.Buffered++
	case pipeline.StatusRejected:
		p.stats.Rejected++
		err := fmt.Errorf("%w: input offered while %s is busy", ErrProtocolViolation, p.chain.Stages()[0].Name())
		if debugAssertions {
			panic(err)
		}
		return out, err
	}

	return out, nil
}

// Ready reports whether a valid input offered on the next tick will be
// taken.
func (p *Pipeline) Ready() bool { return p.chain.Ready() }

// Busy reports whether any stage still holds work or output.
func (p *Pipeline) Busy() bool { return p.chain.Busy() }

// Reset zeroes every filter register, returns every state machine to its
// initial state and drops held input. It takes effect on the next tick.
func (p *Pipeline) Reset() {
	p.chain.Reset()
	p.backlog.Clear()
	p.stats = Stats{}
}

// Config returns the effective configuration with defaults applied.
func (p *Pipeline) Config() Config {
	c := p.cfg
	c.Stages = append([]StageKind(nil), p.cfg.Stages...)
	return c
}

// Stats returns the counters since construction or the last reset.
func (p *Pipeline) Stats() Stats { return p.stats }

// Info describes the constructed stages.
func (p *Pipeline) Info() Info {
	info := Info{
		Stages:  make([]string, 0, len(p.stages.ordered)),
		Emit:    p.cfg.Emit.String(),
		Overrun: p.cfg.Overrun.String(),
		SIMD:    cpu.Info(),
	}
	for _, st := range p.stages.ordered {
		info.Stages = append(info.Stages, st.Name())
	}
	info.RateNum, info.RateDen = p.stages.rate()

	if r := p.stages.resampler; r != nil {
		info.AccumulatorWidth = r.AccumulatorWidth()
	}
	if n := p.stages.notch; n != nil {
		info.NotchRegisterWidth = n.Biquad().RegisterWidth()
	}
	if c := p.stages.cic; c != nil {
		info.CICRegisterWidth = c.CIC().RegisterWidth()
		info.CICGain = c.CIC().Gain()
		info.CICShift = c.CIC().OutputShift()
	}
	if f := p.stages.compensator; f != nil {
		info.CompensatorTaps = f.MAC().Taps()
	}

	info.TicksPerInput = p.stages.headInterval()

	return info
}
