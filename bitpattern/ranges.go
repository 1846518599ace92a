package bitpattern

import (
	"iter"
	"slices"
	"strings"
)

// Range is an inclusive range of patterns, compared as unsigned integers.
type Range struct {
	Start Pattern
	End   Pattern
}

// Span returns the inclusive range [start, end].
func Span(start, end Pattern) Range {
	return Range{Start: start, End: end}
}

// Contains reports whether p lies within the range.
func (r Range) Contains(p Pattern) bool {
	return r.Start.Compare(p) <= 0 && p.Compare(r.End) <= 0
}

func (r Range) String() string {
	return r.Start.String() + "..=" + r.End.String()
}

// Ranges is an immutable set of valid ranges for a type. The zero value is
// the empty set, which is also what callers see when range tracking is
// disabled.
type Ranges struct {
	rs []Range
}

// NewRanges returns a set holding copies of rs, in the given order.
func NewRanges(rs ...Range) Ranges {
	if len(rs) == 0 {
		return Ranges{}
	}
	return Ranges{rs: slices.Clone(rs)}
}

// NonZero returns the single range [1, max] for a width-byte integer.
func NonZero(width int) Ranges {
	return Ranges{rs: []Range{{Start: One(width), End: Ones(width)}}}
}

// Len returns the number of ranges.
func (r Ranges) Len() int {
	return len(r.rs)
}

// IsEmpty reports whether the set holds no ranges.
func (r Ranges) IsEmpty() bool {
	return len(r.rs) == 0
}

// At returns the i-th range.
func (r Ranges) At(i int) Range {
	return r.rs[i]
}

// All iterates over the ranges in order.
func (r Ranges) All() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for _, rg := range r.rs {
			if !yield(rg) {
				return
			}
		}
	}
}

// Contains reports whether any range holds p.
func (r Ranges) Contains(p Pattern) bool {
	for _, rg := range r.rs {
		if rg.Contains(p) {
			return true
		}
	}
	return false
}

// Equal reports whether both sets hold the same ranges in the same order.
func (r Ranges) Equal(o Ranges) bool {
	return slices.Equal(r.rs, o.rs)
}

// String renders the set as a list, e.g. [0x01..=0xff].
func (r Ranges) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, rg := range r.rs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(rg.String())
	}
	b.WriteByte(']')
	return b.String()
}
