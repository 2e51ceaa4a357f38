package coeff

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tphakala/go-dfe/internal/fixed"
)

const commentPrefix = "#"

// Parse reads a flat coefficient listing: one integer per line, decimal or
// 0x-prefixed hex. Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]int64, error) {
	var values []int64

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, commentPrefix) {
			continue
		}

		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid coefficient %q: %w", line, text, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coefficients: %w", err)
	}

	return values, nil
}

// Load parses r and builds a store with the given format.
func Load(r io.Reader, format fixed.Format) (*Store, error) {
	values, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return NewStore(values, format)
}

// ReadFile parses the coefficient file at path.
func ReadFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coefficient file: %w", err)
	}
	defer func() { _ = f.Close() }()

	values, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// Quantize converts real-valued coefficients to Q-format integers with
// round-to-nearest. Values that do not fit width are an error, not clipped.
func Quantize(values []float64, format fixed.Format) ([]int64, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	scale := math.Ldexp(1, format.Frac)
	// Exact powers of two; float64(format.Max()) rounds up past Max for
	// wide formats.
	limit := math.Ldexp(1, format.Width-1)
	out := make([]int64, len(values))
	for i, v := range values {
		q := math.Round(v * scale)
		if math.IsNaN(q) || q >= limit || q < -limit {
			return nil, fmt.Errorf("coefficient %d (%g) does not fit %s", i, v, format)
		}
		out[i] = int64(q)
	}
	return out, nil
}

// Write emits values in the format Parse reads.
func Write(w io.Writer, values []int64) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		if _, err := bw.WriteString(strconv.FormatInt(v, 10) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
