package coeff

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-dfe/internal/fixed"
)

var testQ15 = fixed.Q(16, 15)

func TestNewStore(t *testing.T) {
	s, err := NewStore([]int64{1, -2, 3, 32767, -32768}, testQ15)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 15, s.Frac())
	assert.Equal(t, int64(-2), s.At(1))
	assert.Equal(t, testQ15, s.Format())
}

func TestNewStore_CopiesInput(t *testing.T) {
	in := []int64{10, 20, 30}
	s, err := NewStore(in, testQ15)
	require.NoError(t, err)

	in[0] = 99
	assert.Equal(t, int64(10), s.At(0), "store must not alias the caller's slice")

	out := s.Values()
	out[1] = 99
	assert.Equal(t, int64(20), s.At(1), "Values must return a copy")
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore(nil, testQ15)
	assert.Error(t, err)

	_, err = NewStore([]int64{32768}, testQ15)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not fit")

	_, err = NewStore([]int64{1}, fixed.Q(0, 0))
	assert.Error(t, err)
}

func TestStore_View(t *testing.T) {
	s, err := NewStore([]int64{0, 1, 2, 3, 4, 5}, testQ15)
	require.NoError(t, err)

	v, err := s.View(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, 2, v.Offset())
	assert.Equal(t, int64(4), v.At(2))
	assert.Equal(t, []int64{2, 3, 4}, v.Slice())
	assert.Equal(t, testQ15, v.Format())

	all := s.All()
	assert.Equal(t, 6, all.Len())
}

func TestStore_ViewOutOfRange(t *testing.T) {
	s, err := NewStore([]int64{0, 1, 2, 3}, testQ15)
	require.NoError(t, err)

	tests := []struct {
		name      string
		offset, n int
	}{
		{name: "past_end", offset: 2, n: 3},
		{name: "negative_offset", offset: -1, n: 2},
		{name: "empty", offset: 0, n: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.View(tt.offset, tt.n)
			assert.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	input := "# resampler taps, Q15\n12\n\n-7\n  0x10  \n-32768\n"
	values, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []int64{12, -7, 16, -32768}, values)
}

func TestParse_InvalidLine(t *testing.T) {
	_, err := Parse(strings.NewReader("1\n2\nthree\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader("1\n2\n3\n"), testQ15)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = Load(strings.NewReader("70000\n"), testQ15)
	assert.Error(t, err)
}

func TestReadFileAndWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taps.txt")
	want := []int64{3, -1, 0, 32767}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open coefficient file")
}

func TestQuantize(t *testing.T) {
	got, err := Quantize([]float64{0.5, -0.25, 0.999}, testQ15)
	require.NoError(t, err)
	assert.Equal(t, []int64{16384, -8192, 32735}, got)

	_, err = Quantize([]float64{1.0}, testQ15)
	require.Error(t, err, "1.0 is not representable in Q15")

	q14 := fixed.Q(16, 14)
	got, err = Quantize([]float64{-1.5, 1.0}, q14)
	require.NoError(t, err)
	assert.Equal(t, []int64{-24576, 16384}, got)
}

func TestQuantize_NonFiniteAndWideFormats(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Quantize([]float64{v}, testQ15)
		assert.Error(t, err, "%g", v)
	}

	wide := fixed.Q(fixed.MaxWidth, fixed.MaxWidth-1)
	_, err := Quantize([]float64{1.0}, wide)
	require.Error(t, err, "1.0 rounds to 2^61, one past the largest Q61 value")

	got, err := Quantize([]float64{-1.0, 0.5}, wide)
	require.NoError(t, err)
	assert.Equal(t, []int64{wide.Min(), 1 << 60}, got)
	for _, v := range got {
		assert.True(t, fixed.Fits(v, wide.Width))
	}
}
