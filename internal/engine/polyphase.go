// Package engine assembles the filter primitives into clocked pipeline
// stages: the polyphase rational resampler and the adapters that expose the
// notch, the CIC decimator and the compensation FIR as pipeline.Stage.
package engine

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/filter"
	"github.com/tphakala/go-dfe/internal/pipeline"
)

// Mode is the resampler controller state.
type Mode int

const (
	// ModeIdle waits for an input sample.
	ModeIdle Mode = iota
	// ModeProcess runs the MAC windows of the current main phase.
	ModeProcess
	// ModeOutput emits the completed branch results one per tick.
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeProcess:
		return "process"
	case ModeOutput:
		return "output"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// EmitMode selects which sub-phase results leave the resampler.
type EmitMode int

const (
	// EmitAll emits every sub-phase of the active main phase, L outputs per
	// input sample.
	EmitAll EmitMode = iota
	// EmitRational emits only the sub-phases whose polyphase index
	// p*L+s is a multiple of M, L outputs per M inputs.
	EmitRational
)

func (e EmitMode) String() string {
	switch e {
	case EmitAll:
		return "all"
	case EmitRational:
		return "rational"
	default:
		return fmt.Sprintf("EmitMode(%d)", int(e))
	}
}

// ParseEmitMode maps a configuration name to an EmitMode.
func ParseEmitMode(s string) (EmitMode, error) {
	switch s {
	case "", "all":
		return EmitAll, nil
	case "rational":
		return EmitRational, nil
	default:
		return 0, fmt.Errorf("unknown emit mode %q", s)
	}
}

// State is the observable controller state.
type State struct {
	Mode Mode

	// Phase is the main phase being processed or emitted.
	Phase int

	// Sub is the sub-phase emitted next while in ModeOutput.
	Sub int

	// Counter is the main phase the next accepted sample will take.
	Counter int
}

// Branch is one polyphase FIR branch. It owns a MAC bound to the store
// window at (MainPhase*L + SubPhase) * N.
type Branch struct {
	MainPhase int
	SubPhase  int
	mac       *filter.MAC
}

// MAC returns the branch's multiply-accumulate unit.
func (b *Branch) MAC() *filter.MAC { return b.mac }

// Result returns the branch's last completed output.
func (b *Branch) Result() int64 { return b.mac.Result() }

// ResamplerConfig configures a polyphase resampler.
type ResamplerConfig struct {
	// Interpolation is the upsampling factor L.
	Interpolation int

	// Decimation is the downsampling factor M.
	Decimation int

	// Taps is the per-branch tap count N.
	Taps int

	// MAC holds the arithmetic shared by all branches.
	MAC filter.MACConfig

	Emit EmitMode
}

// Resampler is the polyphase rational resampler controller. It holds L*M
// branches, activates the L branches of one main phase per input sample and
// then emits their results in sub-phase order.
//
// Resampler implements pipeline.Stage. It is ready only in ModeIdle.
type Resampler struct {
	register

	cfg      ResamplerConfig
	branches []Branch

	// emit[p*L+s] marks the sub-phases that produce an output.
	emit []bool

	state   State
	pending State
}

// NewResampler builds the branches over store, which must hold exactly
// L*M*N coefficients.
func NewResampler(store *coeff.Store, cfg ResamplerConfig) (*Resampler, error) {
	l, m, n := cfg.Interpolation, cfg.Decimation, cfg.Taps
	if l < 1 || m < 1 {
		return nil, fmt.Errorf("invalid ratio L=%d M=%d: both must be positive", l, m)
	}
	if n < 1 {
		return nil, fmt.Errorf("tap count %d must be positive", n)
	}
	if cfg.Emit != EmitAll && cfg.Emit != EmitRational {
		return nil, fmt.Errorf("invalid emit mode %d", cfg.Emit)
	}
	if want := l * m * n; store.Len() != want {
		return nil, fmt.Errorf("resampler needs L*M*N = %d*%d*%d = %d coefficients, store holds %d",
			l, m, n, want, store.Len())
	}

	r := &Resampler{
		cfg:      cfg,
		branches: make([]Branch, l*m),
		emit:     make([]bool, l*m),
	}
	for p := range m {
		for s := range l {
			idx := p*l + s
			view, err := store.View(idx*n, n)
			if err != nil {
				return nil, fmt.Errorf("branch (%d,%d): %w", p, s, err)
			}
			mac, err := filter.NewMAC(view, n, cfg.MAC)
			if err != nil {
				return nil, fmt.Errorf("branch (%d,%d): %w", p, s, err)
			}
			r.branches[idx] = Branch{MainPhase: p, SubPhase: s, mac: mac}
			r.emit[idx] = cfg.Emit == EmitAll || idx%m == 0
		}
	}
	return r, nil
}

// Name implements pipeline.Stage.
func (r *Resampler) Name() string { return NameResampler }

// Ready implements pipeline.Stage.
func (r *Resampler) Ready(advance bool) bool {
	return advance && r.state.Mode == ModeIdle
}

// Eval implements pipeline.Stage.
func (r *Resampler) Eval(in pipeline.Sample) {
	st := r.state
	next := st
	out := pipeline.Sample{}

	switch st.Mode {
	case ModeIdle:
		if in.Valid {
			next.Phase = st.Counter
			next.Counter = (st.Counter + 1) % r.cfg.Decimation
			next.Mode = ModeProcess
			for _, b := range r.phase(next.Phase) {
				b.mac.Clock(true, in.Value, true)
			}
		}

	case ModeProcess:
		done := true
		for _, b := range r.phase(st.Phase) {
			if b.mac.Busy() {
				b.mac.Clock(true, 0, false)
			}
			done = done && b.mac.Done()
		}
		if done {
			if sub, ok := r.nextEmit(st.Phase, 0); ok {
				next.Mode = ModeOutput
				next.Sub = sub
			} else {
				next.Mode = ModeIdle
				next.Sub = 0
			}
		}

	case ModeOutput:
		out = pipeline.Valid(r.branch(st.Phase, st.Sub).Result())
		if sub, ok := r.nextEmit(st.Phase, st.Sub+1); ok {
			next.Sub = sub
		} else {
			next.Mode = ModeIdle
			next.Sub = 0
		}
	}

	r.pending = next
	r.publish(out)
}

// Commit implements pipeline.Stage.
func (r *Resampler) Commit() {
	if r.dirty {
		r.state = r.pending
	}
	r.register.Commit()
}

// Reset implements pipeline.Stage. Every branch, the phase counter and the
// output register return to zero.
func (r *Resampler) Reset() {
	for i := range r.branches {
		r.branches[i].mac.Reset()
	}
	r.state = State{}
	r.pending = State{}
	r.register.reset()
}

// phase returns the L branches of main phase p.
func (r *Resampler) phase(p int) []Branch {
	l := r.cfg.Interpolation
	return r.branches[p*l : p*l+l]
}

func (r *Resampler) branch(p, s int) *Branch {
	return &r.branches[p*r.cfg.Interpolation+s]
}

// nextEmit finds the first emitted sub-phase of p at or after from.
func (r *Resampler) nextEmit(p, from int) (int, bool) {
	l := r.cfg.Interpolation
	for s := from; s < l; s++ {
		if r.emit[p*l+s] {
			return s, true
		}
	}
	return 0, false
}

// State returns the committed controller state.
func (r *Resampler) State() State { return r.state }

// Branch returns branch (p, s).
func (r *Resampler) Branch(p, s int) *Branch { return r.branch(p, s) }

// Branches returns all L*M branches in store order.
func (r *Resampler) Branches() []Branch { return r.branches }

// Ratio returns L and M.
func (r *Resampler) Ratio() (l, m int) {
	return r.cfg.Interpolation, r.cfg.Decimation
}

// EmitMode returns the configured emit mode.
func (r *Resampler) EmitMode() EmitMode { return r.cfg.Emit }

// Emitted returns the number of outputs produced by one input of phase p.
func (r *Resampler) Emitted(p int) int {
	n := 0
	for s := range r.cfg.Interpolation {
		if r.emit[p*r.cfg.Interpolation+s] {
			n++
		}
	}
	return n
}

// OutputsPerCycle returns the outputs produced over M consecutive inputs.
func (r *Resampler) OutputsPerCycle() int {
	n := 0
	for p := range r.cfg.Decimation {
		n += r.Emitted(p)
	}
	return n
}

// TicksPerInput returns the worst-case number of ticks between two
// accepted input samples when the output is never stalled.
func (r *Resampler) TicksPerInput() int {
	window := r.branches[0].mac.TicksPerWindow()
	process := max(window-1, 1)
	emitted := 0
	for p := range r.cfg.Decimation {
		emitted = max(emitted, r.Emitted(p))
	}
	return loadTicks + process + emitted
}

// AccumulatorWidth returns the branch accumulator width.
func (r *Resampler) AccumulatorWidth() int {
	return r.branches[0].mac.AccumulatorWidth()
}
