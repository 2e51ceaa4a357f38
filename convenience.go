package dfe

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/fixed"
)

// Process drives values through the pipeline, one tick per offer, and
// returns the valid outputs observed while doing so. A value is offered
// only when the head is ready; until then it is held and the pipeline is
// ticked with no input, so Process never causes a protocol violation.
// Values wider than DataWidth are brought into range with the Overflow
// policy before they are offered.
//
// Process returns once every value has been accepted. Samples still in
// flight are left in the pipeline; call Flush to drain them.
func (p *Pipeline) Process(values []int64) []int64 {
	p.backlog.Write(values)
	out := make([]int64, 0, p.outputHint(len(values)))

	for p.backlog.Available() > 0 {
		in := Sample{}
		if p.chain.Ready() {
			v, _ := p.backlog.Peek()
			in = Valid(fixed.Fit(v, p.cfg.DataWidth, p.cfg.Overflow))
			p.backlog.Discard(1)
		}
		// Ready guarantees the offer is taken, so Tick cannot fail.
		s, _ := p.Tick(in)
		if s.Valid {
			out = append(out, s.Value)
		}
	}

	return out
}

// Flush ticks the pipeline with no input until no stage holds pending work
// or output, and returns the valid outputs. maxTicks bounds the number of
// ticks; 0 selects a bound derived from the stage timing. ErrNotDrained is
// returned together with the outputs collected so far when the bound is
// reached.
func (p *Pipeline) Flush(maxTicks int) ([]int64, error) {
	if maxTicks <= 0 {
		maxTicks = p.drainBudget()
	}

	var out []int64
	for range maxTicks {
		if !p.chain.Busy() {
			return out, nil
		}
		s, _ := p.Tick(Sample{})
		if s.Valid {
			out = append(out, s.Value)
		}
	}
	if p.chain.Busy() {
		return out, fmt.Errorf("%w after %d ticks", ErrNotDrained, maxTicks)
	}
	return out, nil
}

// drainBudget bounds the ticks needed to empty every stage after the last
// input.
func (p *Pipeline) drainBudget() int {
	window := 1
	if f := p.stages.compensator; f != nil {
		window = f.MAC().TicksPerWindow()
	}
	return drainTicksPerStage * len(p.stages.ordered) * (p.stages.headInterval() + 1) * window
}

// outputHint estimates the outputs produced by n inputs.
func (p *Pipeline) outputHint(n int) int {
	num, den := p.stages.rate()
	return n*num/den + 1
}

// Run builds a pipeline, processes input and drains it.
func Run(cfg *Config, coeffs *Coefficients, input []int64) ([]int64, error) {
	p, err := New(cfg, coeffs)
	if err != nil {
		return nil, err
	}

	out := p.Process(input)
	tail, err := p.Flush(0)
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}
