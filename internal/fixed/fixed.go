// Package fixed implements the signed fixed-point arithmetic shared by every
// filter in the DFE pipeline.
//
// Values are carried in int64 registers. A Format declares how many of those
// bits are meaningful (Width) and how many are fractional (Frac). Every
// operation that can grow a value is followed by Fit, which applies the
// configured overflow Policy at the destination width.
package fixed

import (
	"fmt"
	"math/bits"
)

const (
	// MaxWidth is the widest register supported. Two MaxWidth values can be
	// added in an int64 without overflowing before Fit is applied.
	MaxWidth = 62

	// maxProductWidth bounds A+B so that Min*Min still fits an int64.
	maxProductWidth = 64

	int64Bits = 64
)

// Policy selects what happens when a result does not fit its width.
type Policy int

const (
	// Saturate clips to the representable min/max of the target width.
	Saturate Policy = iota
	// Wrap performs two's-complement truncation to the target width.
	Wrap
)

func (p Policy) String() string {
	switch p {
	case Saturate:
		return "saturate"
	case Wrap:
		return "wrap"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Rounding selects how fractional bits are discarded on a right shift.
type Rounding int

const (
	// RoundHalfUp adds half an LSB before shifting.
	RoundHalfUp Rounding = iota
	// Truncate shifts toward negative infinity.
	Truncate
)

func (r Rounding) String() string {
	switch r {
	case RoundHalfUp:
		return "half-up"
	case Truncate:
		return "truncate"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// Format is a signed fixed-point format: Width total bits, Frac of them
// fractional (Q-format).
type Format struct {
	Width int
	Frac  int
}

// Q returns a format with the given width and fractional bits.
func Q(width, frac int) Format {
	return Format{Width: width, Frac: frac}
}

// Validate checks that the format fits the register model.
func (f Format) Validate() error {
	if f.Width < 1 || f.Width > MaxWidth {
		return fmt.Errorf("width %d out of range [1, %d]", f.Width, MaxWidth)
	}
	if f.Frac < 0 || f.Frac >= f.Width {
		return fmt.Errorf("fractional bits %d out of range [0, %d)", f.Frac, f.Width)
	}
	return nil
}

// Max returns the largest representable raw value.
func (f Format) Max() int64 { return MaxValue(f.Width) }

// Min returns the most negative representable raw value.
func (f Format) Min() int64 { return MinValue(f.Width) }

func (f Format) String() string {
	return fmt.Sprintf("Q%d.%d", f.Width-f.Frac, f.Frac)
}

// MaxValue returns 2^(width-1) - 1.
func MaxValue(width int) int64 { return int64(1)<<(width-1) - 1 }

// MinValue returns -2^(width-1).
func MinValue(width int) int64 { return -(int64(1) << (width - 1)) }

// Fits reports whether v is representable at width.
func Fits(v int64, width int) bool {
	return v >= MinValue(width) && v <= MaxValue(width)
}

// Fit applies the overflow policy to bring v into width bits.
func Fit(v int64, width int, p Policy) int64 {
	if width >= int64Bits {
		return v
	}
	if p == Wrap {
		shift := uint(int64Bits - width)
		return v << shift >> shift
	}
	if hi := MaxValue(width); v > hi {
		return hi
	}
	if lo := MinValue(width); v < lo {
		return lo
	}
	return v
}

// Shift moves v right by s bits (left if s is negative), rounding as
// requested. It never overflows for s >= 0.
func Shift(v int64, s int, r Rounding) int64 {
	switch {
	case s == 0:
		return v
	case s < 0:
		return v << uint(-s)
	case r == RoundHalfUp:
		if s >= int64Bits {
			return 0
		}
		// ((v >> (s-1)) + 1) >> 1 avoids overflow near MaxInt64.
		return ((v >> uint(s-1)) + 1) >> 1
	default:
		if s >= int64Bits {
			if v < 0 {
				return -1
			}
			return 0
		}
		return v >> uint(s)
	}
}

// GuardBits returns ceil(log2 n), the bit growth of summing n terms.
func GuardBits(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// AccumulatorWidth returns the minimum accumulator width for an n-tap sum of
// dataWidth x coeffWidth products.
func AccumulatorWidth(dataWidth, coeffWidth, n int) int {
	return dataWidth + coeffWidth + GuardBits(n)
}
