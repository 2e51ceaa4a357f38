package dfe

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/tphakala/go-dfe/internal/coeff"
)

// Coefficients holds the quantized tables of every filter role. Tables are
// copied into read-only stores at construction.
type Coefficients struct {
	// Resampler holds L*M*N taps, branch (p, s) at offset (p*L + s)*N.
	Resampler []int64

	// Notch holds b0, b1, b2, a1, a2.
	Notch []int64

	// Compensation maps a CIC rate R to its compensation FIR taps.
	Compensation map[int][]int64
}

// CoefficientFiles names the text files of each table. Every file holds
// one integer per line.
type CoefficientFiles struct {
	Resampler    string         `yaml:"resampler"`
	Notch        string         `yaml:"notch"`
	Compensation map[int]string `yaml:"compensation"`
}

// LoadCoefficientFiles reads the named tables. Empty names are skipped.
// Relative paths are resolved against baseDir.
func LoadCoefficientFiles(files CoefficientFiles, baseDir string) (*Coefficients, error) {
	c := &Coefficients{}
	var err error

	if files.Resampler != "" {
		if c.Resampler, err = coeff.ReadFile(resolve(baseDir, files.Resampler)); err != nil {
			return nil, fmt.Errorf("%w: resampler table: %w", ErrConfiguration, err)
		}
	}
	if files.Notch != "" {
		if c.Notch, err = coeff.ReadFile(resolve(baseDir, files.Notch)); err != nil {
			return nil, fmt.Errorf("%w: notch table: %w", ErrConfiguration, err)
		}
	}
	if len(files.Compensation) > 0 {
		c.Compensation = make(map[int][]int64, len(files.Compensation))
		for _, rate := range slices.Sorted(maps.Keys(files.Compensation)) {
			values, err := coeff.ReadFile(resolve(baseDir, files.Compensation[rate]))
			if err != nil {
				return nil, fmt.Errorf("%w: compensation table for R=%d: %w", ErrConfiguration, rate, err)
			}
			c.Compensation[rate] = values
		}
	}
	return c, nil
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// compensationFor returns the compensation table for rate.
func (c *Coefficients) compensationFor(rate int) ([]int64, error) {
	table, ok := c.Compensation[rate]
	if !ok {
		return nil, fmt.Errorf("%w: no compensation table for CIC rate %d", ErrConfiguration, rate)
	}
	return table, nil
}
