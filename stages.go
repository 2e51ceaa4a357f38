package dfe

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/engine"
	"github.com/tphakala/go-dfe/internal/filter"
)

// macConfig returns the arithmetic shared by the resampler branches and the
// compensation FIR.
func macConfig(cfg *Config) filter.MACConfig {
	return filter.MACConfig{
		Data:     cfg.DataFormat(),
		Policy:   cfg.Overflow,
		Rounding: cfg.Rounding,
		Lanes:    cfg.MACLanes,
	}
}

// newResamplerStage builds the L*M branches over one shared store.
func newResamplerStage(cfg *Config, table []int64) (*engine.Resampler, error) {
	store, err := coeff.NewStore(table, cfg.CoeffFormat())
	if err != nil {
		return nil, fmt.Errorf("resampler table: %w", err)
	}
	return engine.NewResampler(store, engine.ResamplerConfig{
		Interpolation: cfg.Interpolation,
		Decimation:    cfg.Decimation,
		Taps:          cfg.Taps,
		MAC:           macConfig(cfg),
		Emit:          cfg.Emit,
	})
}

// newNotchStage builds the DF2T notch from b0, b1, b2, a1, a2.
func newNotchStage(cfg *Config, table []int64) (*engine.NotchStage, error) {
	store, err := coeff.NewStore(table, cfg.NotchFormat())
	if err != nil {
		return nil, fmt.Errorf("notch table: %w", err)
	}
	b, err := filter.NewBiquad(store.All(), cfg.DataFormat(), cfg.Overflow, cfg.Rounding)
	if err != nil {
		return nil, err
	}
	return engine.NewNotchStage(b), nil
}

// newCICStage builds the K-stage decimator.
func newCICStage(cfg *Config) (*engine.CICStage, error) {
	shift := filter.AutoShift
	switch {
	case cfg.CICOutputShift == CICShiftNone:
		shift = 0
	case cfg.CICOutputShift > 0:
		shift = cfg.CICOutputShift
	}

	c, err := filter.NewCIC(filter.CICConfig{
		Order:          cfg.CICOrder,
		Rate:           cfg.CICRate,
		Data:           cfg.DataFormat(),
		RegisterPolicy: cfg.CICOverflow,
		OutputPolicy:   cfg.Overflow,
		Rounding:       cfg.Rounding,
		OutputShift:    shift,
	})
	if err != nil {
		return nil, err
	}
	return engine.NewCICStage(c), nil
}

// newCompensatorStage builds the FIR that corrects the droop of the CIC at
// the configured rate R.
func newCompensatorStage(cfg *Config, table []int64) (*engine.FIRStage, error) {
	store, err := coeff.NewStore(table, cfg.CoeffFormat())
	if err != nil {
		return nil, fmt.Errorf("compensation table: %w", err)
	}
	m, err := filter.NewMAC(store.All(), cfg.CompensatorTaps, macConfig(cfg))
	if err != nil {
		return nil, err
	}
	return engine.NewFIRStage(engine.NameCompensator, m), nil
}
