package bitpattern

import "testing"

func TestRangeContains(t *testing.T) {
	r := Span(FromUint64(0x10, 1), FromUint64(0x20, 1))

	tests := []struct {
		p    Pattern
		want bool
	}{
		{FromUint64(0x0f, 1), false},
		{FromUint64(0x10, 1), true},
		{FromUint64(0x18, 1), true},
		{FromUint64(0x20, 1), true},
		{FromUint64(0x21, 1), false},
	}

	for _, tc := range tests {
		if got := r.Contains(tc.p); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestNonZeroRanges(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8, 16} {
		rs := NonZero(width)
		if rs.Len() != 1 {
			t.Fatalf("width %d: got %d ranges", width, rs.Len())
		}
		if rs.Contains(Zero(width)) {
			t.Errorf("width %d: zero should not be valid", width)
		}
		if !rs.Contains(One(width)) || !rs.Contains(Ones(width)) {
			t.Errorf("width %d: bounds should be valid", width)
		}
		if rs.At(0).Start.Len() != width || rs.At(0).End.Len() != width {
			t.Errorf("width %d: range bounds have wrong width", width)
		}
	}
}

func TestRangesString(t *testing.T) {
	rs := NewRanges(
		Span(FromUint64(0, 4), FromUint64(0xd7ff, 4)),
		Span(FromUint64(0xe000, 4), FromUint64(0x10ffff, 4)),
	)
	want := "[0x00000000..=0x0000d7ff, 0x0000e000..=0x0010ffff]"
	if got := rs.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := NonZero(1).String(); got != "[0x01..=0xff]" {
		t.Errorf("NonZero(1).String() = %q", got)
	}
	if got := (Ranges{}).String(); got != "[]" {
		t.Errorf("empty String() = %q", got)
	}
}

func TestRangesEqualAndAll(t *testing.T) {
	a := NonZero(2)
	b := NewRanges(Span(One(2), Ones(2)))
	if !a.Equal(b) {
		t.Error("equal range sets should compare equal")
	}
	if a.Equal(Ranges{}) {
		t.Error("non-empty set should not equal empty set")
	}

	count := 0
	for rg := range NewRanges(Span(Zero(1), One(1)), Span(Ones(1), Ones(1))).All() {
		_ = rg
		count++
	}
	if count != 2 {
		t.Errorf("All yielded %d ranges, want 2", count)
	}
}

func TestNewRangesCopies(t *testing.T) {
	src := []Range{Span(Zero(1), One(1))}
	rs := NewRanges(src...)
	src[0] = Span(Ones(1), Ones(1))
	if rs.At(0).Start != Zero(1) {
		t.Error("NewRanges should copy its input")
	}
}
