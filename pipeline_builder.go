package dfe

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/engine"
	"github.com/tphakala/go-dfe/internal/pipeline"
)

// stageSet holds the typed stages of a pipeline. Unconfigured stages are
// nil.
type stageSet struct {
	resampler   *engine.Resampler
	notch       *engine.NotchStage
	cic         *engine.CICStage
	compensator *engine.FIRStage

	// ordered lists the stages in evaluation order.
	ordered []pipeline.Stage
}

// buildStages constructs every configured stage in order.
func buildStages(cfg *Config, coeffs *Coefficients) (*stageSet, error) {
	set := &stageSet{ordered: make([]pipeline.Stage, 0, len(cfg.Stages))}

	for _, kind := range cfg.Stages {
		var (
			st  pipeline.Stage
			err error
		)

		switch kind {
		case StageResampler:
			if set.resampler, err = newResamplerStage(cfg, coeffs.Resampler); err == nil {
				st = set.resampler
			}
		case StageNotch:
			if set.notch, err = newNotchStage(cfg, coeffs.Notch); err == nil {
				st = set.notch
			}
		case StageCIC:
			if set.cic, err = newCICStage(cfg); err == nil {
				st = set.cic
			}
		case StageCompensator:
			var table []int64
			if table, err = coeffs.compensationFor(cfg.CICRate); err != nil {
				return nil, err
			}
			if set.compensator, err = newCompensatorStage(cfg, table); err == nil {
				st = set.compensator
			}
		default:
			err = fmt.Errorf("unsupported stage %q", kind)
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, kind, err)
		}
		set.ordered = append(set.ordered, st)
	}

	return set, nil
}

// rate returns the output to input sample rate ratio of the configured
// stages, reduced to lowest terms.
func (s *stageSet) rate() (num, den int) {
	num, den = 1, 1
	if s.resampler != nil {
		_, m := s.resampler.Ratio()
		num *= s.resampler.OutputsPerCycle()
		den *= m
	}
	if s.cic != nil {
		den *= s.cic.CIC().Rate()
	}
	g := gcd(num, den)
	return num / g, den / g
}

// headInterval returns the ticks between two inputs the head stage can take
// when its output is never stalled.
func (s *stageSet) headInterval() int {
	switch head := s.ordered[0].(type) {
	case *engine.Resampler:
		return head.TicksPerInput()
	case *engine.FIRStage:
		return head.MAC().TicksPerWindow()
	default:
		return 1
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
