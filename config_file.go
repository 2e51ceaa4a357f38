package dfe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tphakala/go-dfe/internal/engine"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of Config plus the coefficient file names.
type fileConfig struct {
	DataWidth       int      `yaml:"data_width"`
	CoeffWidth      int      `yaml:"coeff_width"`
	CoeffFrac       *int     `yaml:"coeff_frac"`
	NotchFrac       *int     `yaml:"notch_frac"`
	Taps            int      `yaml:"taps"`
	Interpolation   int      `yaml:"interpolation"`
	Decimation      int      `yaml:"decimation"`
	CICOrder        int      `yaml:"cic_order"`
	CICRate         int      `yaml:"cic_rate"`
	CICOutputShift  int      `yaml:"cic_output_shift"`
	CompensatorTaps int      `yaml:"compensator_taps"`
	Overflow        string   `yaml:"overflow"`
	CICOverflow     string   `yaml:"cic_overflow"`
	Rounding        string   `yaml:"rounding"`
	MACLanes        int      `yaml:"mac_lanes"`
	Stages          []string `yaml:"stages"`
	Emit            string   `yaml:"emit"`
	Overrun         string   `yaml:"overrun"`

	Coefficients CoefficientFiles `yaml:"coefficients"`
}

// LoadConfig reads a YAML pipeline description and the coefficient files it
// names. Coefficient paths are relative to the configuration file.
//
//	interpolation: 2
//	decimation: 3
//	taps: 8
//	cic_order: 3
//	cic_rate: 4
//	stages: [resampler, notch, cic]
//	coefficients:
//	  resampler: resampler.txt
//	  notch: notch.txt
func LoadConfig(path string) (*Config, *Coefficients, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, files, err := ParseConfig(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	coeffs, err := LoadCoefficientFiles(files, filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	return cfg, coeffs, nil
}

// ParseConfig decodes a YAML pipeline description. Enumerations are given
// by name: overflow "saturate" or "wrap", rounding "half-up" or "truncate",
// emit "all" or "rational", overrun "reject" or "buffer". cic_overflow
// defaults to "wrap".
func ParseConfig(r io.Reader) (*Config, CoefficientFiles, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, CoefficientFiles{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	cfg := &Config{
		DataWidth:       fc.DataWidth,
		CoeffWidth:      fc.CoeffWidth,
		CoeffFrac:       fracField(fc.CoeffFrac),
		NotchFrac:       fracField(fc.NotchFrac),
		Taps:            fc.Taps,
		Interpolation:   fc.Interpolation,
		Decimation:      fc.Decimation,
		CICOrder:        fc.CICOrder,
		CICRate:         fc.CICRate,
		CICOutputShift:  fc.CICOutputShift,
		CompensatorTaps: fc.CompensatorTaps,
		MACLanes:        fc.MACLanes,
	}

	var err error
	if cfg.Overflow, err = parsePolicy(fc.Overflow, Saturate); err != nil {
		return nil, CoefficientFiles{}, err
	}
	if cfg.CICOverflow, err = parsePolicy(fc.CICOverflow, Wrap); err != nil {
		return nil, CoefficientFiles{}, err
	}
	if cfg.Rounding, err = parseRounding(fc.Rounding); err != nil {
		return nil, CoefficientFiles{}, err
	}
	if cfg.Emit, err = engine.ParseEmitMode(fc.Emit); err != nil {
		return nil, CoefficientFiles{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if cfg.Overrun, err = parseOverrun(fc.Overrun); err != nil {
		return nil, CoefficientFiles{}, err
	}
	for _, s := range fc.Stages {
		cfg.Stages = append(cfg.Stages, StageKind(s))
	}

	return cfg, fc.Coefficients, nil
}

func parsePolicy(s string, def Policy) (Policy, error) {
	switch s {
	case "":
		return def, nil
	case "saturate":
		return Saturate, nil
	case "wrap":
		return Wrap, nil
	default:
		return 0, fmt.Errorf("%w: unknown overflow policy %q", ErrConfiguration, s)
	}
}

func parseRounding(s string) (Rounding, error) {
	switch s {
	case "", "half-up":
		return RoundHalfUp, nil
	case "truncate":
		return Truncate, nil
	default:
		return 0, fmt.Errorf("%w: unknown rounding %q", ErrConfiguration, s)
	}
}

func parseOverrun(s string) (OverrunPolicy, error) {
	switch s {
	case "", "reject":
		return OverrunReject, nil
	case "buffer":
		return OverrunBuffer, nil
	default:
		return 0, fmt.Errorf("%w: unknown overrun policy %q", ErrConfiguration, s)
	}
}

// fracField maps an explicit 0 to FracInteger; an absent field keeps the
// default.
func fracField(v *int) int {
	switch {
	case v == nil:
		return 0
	case *v == 0:
		return FracInteger
	default:
		return *v
	}
}
