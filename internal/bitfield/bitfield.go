// Package bitfield packs named boolean attributes into a single integer
// column. A Table maps every attribute to its bit position; the same table
// is used for decoding rows and for applying changes, so adding an attribute
// is a one-line table entry.
package bitfield

import "sort"

// Bit is a bit position inside a Set.
type Bit uint

// Set is a packed set of bits. It is converted to an int64 only when a row
// is read from or written to the store.
type Set uint64

// Has reports whether bit b is set.
func (s Set) Has(b Bit) bool {
	return s&(1<<b) != 0
}

// With returns a copy of s with bit b set or cleared.
func (s Set) With(b Bit, on bool) Set {
	if on {
		return s | 1<<b
	}
	return s &^ (1 << b)
}

// Mask returns a set with exactly the given bits.
func Mask(bits ...Bit) Set {
	var s Set
	for _, b := range bits {
		s = s.With(b, true)
	}
	return s
}

// Table maps attribute names to bit positions.
type Table map[string]Bit

// Names returns the attribute names in bit order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return t[names[i]] < t[names[j]] })
	return names
}

// Decode expands s into one boolean per attribute of the table.
func (t Table) Decode(s Set) map[string]bool {
	out := make(map[string]bool, len(t))
	for name, bit := range t {
		out[name] = s.Has(bit)
	}
	return out
}

// Apply sets or clears the bits of the attributes present in changes,
// leaving all other bits of s untouched. Names that are not part of the
// table are ignored. The second result is false when changes did not
// contain any attribute of the table.
func (t Table) Apply(s Set, changes map[string]bool) (Set, bool) {
	touched := false
	for name, on := range changes {
		bit, ok := t[name]
		if !ok {
			continue
		}
		s = s.With(bit, on)
		touched = true
	}
	return s, touched
}

// Encode packs values starting from an empty set.
func (t Table) Encode(values map[string]bool) Set {
	s, _ := t.Apply(0, values)
	return s
}
