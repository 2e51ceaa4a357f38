// Package coeff holds the read-only coefficient memory shared by the
// pipeline's filters.
//
// A Store is built once from an ordered sequence of quantized values and is
// never written afterwards, so any number of filters may hold Views into it
// without synchronization.
package coeff

import (
	"fmt"

	"github.com/tphakala/go-dfe/internal/fixed"
)

// Store is an immutable, address-indexed table of fixed-point constants.
type Store struct {
	values []int64
	format fixed.Format
}

// NewStore copies values into a new store. Every value must be
// representable in format.
func NewStore(values []int64, format fixed.Format) (*Store, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("coefficient format: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("coefficient table is empty")
	}

	for i, v := range values {
		if !fixed.Fits(v, format.Width) {
			return nil, fmt.Errorf("coefficient %d at address %d does not fit %d bits", v, i, format.Width)
		}
	}

	data := make([]int64, len(values))
	copy(data, values)

	return &Store{values: data, format: format}, nil
}

// Len returns the number of addresses.
func (s *Store) Len() int { return len(s.values) }

// Format returns the declared Q-format.
func (s *Store) Format() fixed.Format { return s.format }

// Frac returns the number of fractional bits.
func (s *Store) Frac() int { return s.format.Frac }

// At returns the value at addr. Callers obtain addresses through View, which
// has already range-checked them.
func (s *Store) At(addr int) int64 { return s.values[addr] }

// Values returns a copy of the table.
func (s *Store) Values() []int64 {
	out := make([]int64, len(s.values))
	copy(out, s.values)
	return out
}

// View returns the window [offset, offset+n). Requests outside [0, Len())
// are rejected here so that no lookup can go out of range at runtime.
func (s *Store) View(offset, n int) (View, error) {
	if n <= 0 {
		return View{}, fmt.Errorf("view length %d must be positive", n)
	}
	if offset < 0 || offset+n > len(s.values) {
		return View{}, fmt.Errorf("view [%d, %d) out of range [0, %d)", offset, offset+n, len(s.values))
	}
	return View{store: s, offset: offset, n: n}, nil
}

// All returns a view over the whole table.
func (s *Store) All() View {
	return View{store: s, offset: 0, n: len(s.values)}
}

// View is a reference into a Store. It does not own the coefficients.
type View struct {
	store  *Store
	offset int
	n      int
}

// Len returns the number of coefficients in the view.
func (v View) Len() int { return v.n }

// Offset returns the base address of the view.
func (v View) Offset() int { return v.offset }

// At returns coefficient i of the view.
func (v View) At(i int) int64 { return v.store.values[v.offset+i] }

// Format returns the Q-format of the underlying store.
func (v View) Format() fixed.Format { return v.store.format }

// Slice exposes the view as a read-only slice. Callers must not modify it.
func (v View) Slice() []int64 {
	return v.store.values[v.offset : v.offset+v.n : v.offset+v.n]
}
