package dfe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-dfe/internal/coeff"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeTable(t *testing.T, dir, name string, values []int64) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, coeff.Write(f, values))
	require.NoError(t, f.Close())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "resampler.txt", taggedTable(6))
	writeTable(t, dir, "comp4.txt", []int64{-2000, 4000, 30000, 4000, -2000})
	writeFile(t, dir, "notch.txt", "# b0 b1 b2 a1 a2, Q2.14\n16000\n0x0\n16000\n\n-100\n14000\n")

	path := writeFile(t, dir, "dfe.yaml", `
taps: 1
interpolation: 2
decimation: 3
cic_order: 2
cic_rate: 4
compensator_taps: 5
overflow: wrap
rounding: truncate
mac_lanes: 1
stages: [resampler, notch, cic, compensator]
emit: rational
overrun: buffer
coefficients:
  resampler: resampler.txt
  notch: notch.txt
  compensation:
    4: comp4.txt
`)

	cfg, coeffs, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Interpolation)
	assert.Equal(t, 3, cfg.Decimation)
	assert.Equal(t, Wrap, cfg.Overflow)
	assert.Equal(t, Wrap, cfg.CICOverflow, "cic_overflow defaults to wrap")
	assert.Equal(t, Truncate, cfg.Rounding)
	assert.Equal(t, EmitRational, cfg.Emit)
	assert.Equal(t, OverrunBuffer, cfg.Overrun)
	assert.Equal(t, []StageKind{StageResampler, StageNotch, StageCIC, StageCompensator}, cfg.Stages)

	assert.Equal(t, taggedTable(6), coeffs.Resampler)
	assert.Equal(t, []int64{16000, 0, 16000, -100, 14000}, coeffs.Notch)
	assert.Len(t, coeffs.Compensation[4], 5)

	p, err := New(cfg, coeffs)
	require.NoError(t, err)
	assert.Equal(t, "buffer", p.Info().Overrun)
	assert.Equal(t, "rational", p.Info().Emit)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "tapz: 4\n", "tapz"},
		{"bad overflow", "overflow: clamp\n", "overflow policy"},
		{"bad cic overflow", "cic_overflow: clamp\n", "overflow policy"},
		{"bad rounding", "rounding: nearest\n", "rounding"},
		{"bad emit", "emit: some\n", "emit mode"},
		{"bad overrun", "overrun: drop\n", "overrun policy"},
		{"bad type", "taps: many\n", "unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseConfig(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseConfig_FractionFields(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		coeffFrac int
		notchFrac int
	}{
		{"absent keeps default", "taps: 4\n", 0, 0},
		{"explicit zero is integer", "coeff_frac: 0\nnotch_frac: 0\n", FracInteger, FracInteger},
		{"explicit value", "coeff_frac: 12\nnotch_frac: 10\n", 12, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, err := ParseConfig(strings.NewReader(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.coeffFrac, cfg.CoeffFrac)
			assert.Equal(t, tt.notchFrac, cfg.NotchFrac)
		})
	}
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, files, err := ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Saturate, cfg.Overflow)
	assert.Equal(t, Wrap, cfg.CICOverflow)
	assert.Empty(t, files.Resampler)
}

func TestLoadConfig_MissingFiles(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	dir := t.TempDir()
	path := writeFile(t, dir, "dfe.yaml", "coefficients:\n  notch: absent.txt\n")
	_, _, err = LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "notch table")
}

func TestLoadCoefficientFiles_BadLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.txt", "100\n1.5\n")

	_, err := LoadCoefficientFiles(CoefficientFiles{Resampler: "bad.txt"}, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "line 2")
}
