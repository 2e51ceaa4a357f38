// Package demo builds quantized coefficient sets for the example commands.
package demo

import (
	"fmt"

	dfe "github.com/tphakala/go-dfe"
	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/design"
)

// notchRadius is the pole radius of the demo notch.
const notchRadius = 0.95

// Tables designs and quantizes a coefficient set for every stage of cfg.
// notchFreq is the notch centre in cycles per resampler output sample.
func Tables(cfg dfe.Config, notchFreq float64) (*dfe.Coefficients, error) {
	cfg = cfg.WithDefaults()
	tableFormat := cfg.CoeffFormat()
	out := &dfe.Coefficients{}

	if cfg.Has(dfe.StageResampler) {
		h, err := design.Resampler(cfg.Interpolation, cfg.Decimation, cfg.Taps)
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		if out.Resampler, err = coeff.Quantize(h, tableFormat); err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
	}

	if cfg.Has(dfe.StageNotch) {
		h, err := design.Notch(notchFreq, notchRadius)
		if err != nil {
			return nil, fmt.Errorf("notch: %w", err)
		}
		if out.Notch, err = coeff.Quantize(h, cfg.NotchFormat()); err != nil {
			return nil, fmt.Errorf("notch: %w", err)
		}
	}

	if cfg.Has(dfe.StageCompensator) {
		taps := cfg.CompensatorTaps
		if taps%2 == 0 {
			taps--
		}
		h, err := design.Compensator(cfg.CICOrder, cfg.CICRate, taps)
		if err != nil {
			return nil, fmt.Errorf("compensator: %w", err)
		}
		// Pad back to the configured length with a trailing zero tap.
		h = append(h, make([]float64, cfg.CompensatorTaps-taps)...)
		q, err := coeff.Quantize(h, tableFormat)
		if err != nil {
			return nil, fmt.Errorf("compensator: %w", err)
		}
		out.Compensation = map[int][]int64{cfg.CICRate: q}
	}

	return out, nil
}
