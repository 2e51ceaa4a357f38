// Package pipeline implements the synchronous tick engine that drives the
// DFE stages.
//
// Every stage publishes a registered output. A tick is evaluated in two
// phases: all stages compute their next state from the same snapshot of
// published outputs, then every stage commits at once. No stage can observe
// another stage's partially updated state within a tick.
package pipeline

import "fmt"

// Sample is one fixed-point value and its validity flag for a single tick.
type Sample struct {
	Value int64
	Valid bool
}

// Valid returns a valid sample carrying v.
func Valid(v int64) Sample { return Sample{Value: v, Valid: true} }

// Stage is one clocked component of the chain.
type Stage interface {
	// Name identifies the stage in diagnostics.
	Name() string

	// Output returns the registered output published by the last commit.
	Output() Sample

	// Ready reports whether the stage would accept a valid input this tick.
	// advance is false when the stage's output is valid but the downstream
	// stage cannot take it, in which case the stage must hold.
	Ready(advance bool) bool

	// Eval computes the next state from in. in.Valid is set only when the
	// chain has accepted the sample for this stage. Eval is not called on
	// ticks where the stage must hold.
	Eval(in Sample)

	// Commit publishes the state computed by Eval.
	Commit()

	// Reset returns the stage to its initial state.
	Reset()
}

// Status describes what happened to the input offered to Tick.
type Status int

const (
	// StatusIdle means no valid input was offered.
	StatusIdle Status = iota
	// StatusAccepted means the head stage took the input.
	StatusAccepted
	// StatusBuffered means the input was parked in the skid register.
	StatusBuffered
	// StatusRejected means the input was refused and must be offered again.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAccepted:
		return "accepted"
	case StatusBuffered:
		return "buffered"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Chain is an ordered list of stages driven one tick at a time.
type Chain struct {
	stages []Stage

	// Per-tick scratch, sized once.
	outs    []Sample
	advance []bool
	ready   []bool

	skid    skid
	useSkid bool

	ticks int64
}

// NewChain builds a chain over stages. When buffered is true a one-deep skid
// register absorbs a single input offered while the head is not ready.
func NewChain(stages []Stage, buffered bool) (*Chain, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one stage")
	}
	n := len(stages)
	return &Chain{
		stages:  stages,
		outs:    make([]Sample, n),
		advance: make([]bool, n),
		ready:   make([]bool, n),
		useSkid: buffered,
	}, nil
}

// Ready reports whether an input offered on the next tick will be taken
// without a protocol violation.
func (c *Chain) Ready() bool {
	if c.useSkid && !c.skid.full() {
		return true
	}
	// A full skid drains into the head this tick, freeing room for in.
	c.snapshot()
	return c.ready[0]
}

// Tick advances every stage by one tick and returns the last stage's
// registered output together with the fate of in.
func (c *Chain) Tick(in Sample) (Sample, Status) {
	c.snapshot()

	// Head input: a parked sample has priority over a new one.
	head := in
	fromSkid := c.skid.full()
	if fromSkid {
		head = c.skid.peek()
	}
	accepted := head.Valid && c.ready[0]

	status := StatusIdle
	switch {
	case fromSkid:
		if accepted {
			c.skid.pop()
		}
		if in.Valid {
			status = c.park(in)
		}
	case in.Valid && accepted:
		status = StatusAccepted
	case in.Valid:
		status = c.park(in)
	}

	for i, st := range c.stages {
		if !c.advance[i] {
			continue
		}
		var x Sample
		if i == 0 {
			if accepted {
				x = head
			}
		} else if c.outs[i-1].Valid && c.ready[i] {
			x = c.outs[i-1]
		}
		st.Eval(x)
	}

	for _, st := range c.stages {
		st.Commit()
	}
	c.ticks++

	return c.stages[len(c.stages)-1].Output(), status
}

// park stores in in the skid register when buffering is enabled and free.
func (c *Chain) park(in Sample) Status {
	if c.useSkid && !c.skid.full() {
		c.skid.push(in)
		return StatusBuffered
	}
	return StatusRejected
}

// snapshot captures published outputs and resolves readiness back to front.
func (c *Chain) snapshot() {
	downstream := true
	for i := len(c.stages) - 1; i >= 0; i-- {
		st := c.stages[i]
		c.outs[i] = st.Output()
		c.advance[i] = !c.outs[i].Valid || downstream
		c.ready[i] = st.Ready(c.advance[i])
		downstream = c.ready[i]
	}
}

// Reset returns every stage to its initial state and drops any parked input.
func (c *Chain) Reset() {
	for _, st := range c.stages {
		st.Reset()
	}
	c.skid.clear()
	c.ticks = 0
}

// Stages returns the stages in evaluation order.
func (c *Chain) Stages() []Stage { return c.stages }

// Ticks returns the number of ticks since construction or the last reset.
func (c *Chain) Ticks() int64 { return c.ticks }

// Pending reports whether the skid register holds a sample.
func (c *Chain) Pending() bool { return c.skid.full() }

// Busy reports whether any stage holds a valid output or the skid register
// is occupied. Stages with internal work report it through Ready.
func (c *Chain) Busy() bool {
	if c.skid.full() {
		return true
	}
	for _, st := range c.stages {
		if st.Output().Valid || !st.Ready(true) {
			return true
		}
	}
	return false
}
