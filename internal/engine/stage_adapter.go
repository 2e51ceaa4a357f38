package engine

import (
	"github.com/tphakala/go-dfe/internal/filter"
	"github.com/tphakala/go-dfe/internal/pipeline"
)

// register is the published output of a stage. Eval writes next and Commit
// makes it visible, so readers within a tick always see the previous value.
type register struct {
	out, next pipeline.Sample
	dirty     bool
}

// Output implements pipeline.Stage.
func (r *register) Output() pipeline.Sample { return r.out }

// Commit implements pipeline.Stage.
func (r *register) Commit() {
	if r.dirty {
		r.out, r.dirty = r.next, false
	}
}

func (r *register) publish(s pipeline.Sample) {
	r.next, r.dirty = s, true
}

func (r *register) reset() { *r = register{} }

// NotchStage adapts a Biquad to pipeline.Stage. It takes one sample per
// tick and produces its output one tick later.
type NotchStage struct {
	register
	biquad *filter.Biquad
}

// NewNotchStage wraps b.
func NewNotchStage(b *filter.Biquad) *NotchStage {
	return &NotchStage{biquad: b}
}

// Name implements pipeline.Stage.
func (s *NotchStage) Name() string { return NameNotch }

// Ready implements pipeline.Stage.
func (s *NotchStage) Ready(advance bool) bool { return advance }

// Eval implements pipeline.Stage. The biquad state moves only on valid
// input.
func (s *NotchStage) Eval(in pipeline.Sample) {
	if !in.Valid {
		s.publish(pipeline.Sample{})
		return
	}
	s.publish(pipeline.Valid(s.biquad.Process(in.Value)))
}

// Reset implements pipeline.Stage.
func (s *NotchStage) Reset() {
	s.biquad.Reset()
	s.register.reset()
}

// Biquad returns the wrapped filter.
func (s *NotchStage) Biquad() *filter.Biquad { return s.biquad }

// CICStage adapts a CIC decimator to pipeline.Stage. Its output is valid on
// one tick per R accepted samples.
type CICStage struct {
	register
	cic *filter.CIC
}

// NewCICStage wraps c.
func NewCICStage(c *filter.CIC) *CICStage {
	return &CICStage{cic: c}
}

// Name implements pipeline.Stage.
func (s *CICStage) Name() string { return NameCIC }

// Ready implements pipeline.Stage.
func (s *CICStage) Ready(advance bool) bool { return advance }

// Eval implements pipeline.Stage.
func (s *CICStage) Eval(in pipeline.Sample) {
	if !in.Valid {
		s.publish(pipeline.Sample{})
		return
	}
	y, ok := s.cic.Process(in.Value)
	s.publish(pipeline.Sample{Value: y, Valid: ok})
}

// Reset implements pipeline.Stage.
func (s *CICStage) Reset() {
	s.cic.Reset()
	s.register.reset()
}

// CIC returns the wrapped decimator.
func (s *CICStage) CIC() *filter.CIC { return s.cic }

// FIRStage adapts a single MAC to pipeline.Stage. It is used for the CIC
// compensation filter and is busy for TicksPerWindow ticks per sample.
type FIRStage struct {
	register
	name string
	mac  *filter.MAC
}

// NewFIRStage wraps m under the given stage name.
func NewFIRStage(name string, m *filter.MAC) *FIRStage {
	return &FIRStage{name: name, mac: m}
}

// Name implements pipeline.Stage.
func (s *FIRStage) Name() string { return s.name }

// Ready implements pipeline.Stage.
func (s *FIRStage) Ready(advance bool) bool {
	return advance && !s.mac.Busy()
}

// Eval implements pipeline.Stage. The result is published on the tick the
// window completes.
func (s *FIRStage) Eval(in pipeline.Sample) {
	wasBusy := s.mac.Busy()
	accepted := s.mac.Clock(true, in.Value, in.Valid)
	if (wasBusy || accepted) && s.mac.Done() {
		s.publish(pipeline.Valid(s.mac.Result()))
		return
	}
	s.publish(pipeline.Sample{})
}

// Reset implements pipeline.Stage.
func (s *FIRStage) Reset() {
	s.mac.Reset()
	s.register.reset()
}

// MAC returns the wrapped unit.
func (s *FIRStage) MAC() *filter.MAC { return s.mac }

// Static checks that every adapter satisfies pipeline.Stage.
var (
	_ pipeline.Stage = (*Resampler)(nil)
	_ pipeline.Stage = (*NotchStage)(nil)
	_ pipeline.Stage = (*CICStage)(nil)
	_ pipeline.Stage = (*FIRStage)(nil)
)
