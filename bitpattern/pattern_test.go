package bitpattern

import (
	"testing"
)

func TestPatternString(t *testing.T) {
	tests := []struct {
		name string
		p    Pattern
		want string
	}{
		{"empty", Pattern{}, "0x"},
		{"u8_zero", Zero(1), "0x00"},
		{"u16_le", FromLE([]byte{0x02, 0x01}), "0x0102"},
		{"u16_be", FromBE([]byte{0x01, 0x02}), "0x0102"},
		{"u32_one", One(4), "0x00000001"},
		{"u64_ones", Ones(8), "0xffffffffffffffff"},
		{"from_uint64", FromUint64(0x96, 1), "0x96"},
		{"from_uint64_wide", FromUint64(0xabcd, 16), "0x0000000000000000000000000000abcd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPatternImmutable(t *testing.T) {
	src := []byte{1, 2, 3}
	p := FromLE(src)
	src[0] = 0xff

	if p.Bytes()[0] != 1 {
		t.Error("pattern should not alias its input")
	}

	out := p.Bytes()
	out[1] = 0xff
	if p.Bytes()[1] != 2 {
		t.Error("Bytes should return a copy")
	}
}

func TestPatternEquality(t *testing.T) {
	if FromUint64(1, 2) != One(2) {
		t.Error("equal patterns should compare equal")
	}
	if Zero(1) == Zero(2) {
		t.Error("patterns of different width should not be equal")
	}
}

func TestPatternCompare(t *testing.T) {
	tests := []struct {
		a, b Pattern
		want int
	}{
		{Zero(4), One(4), -1},
		{Ones(2), One(2), 1},
		{FromUint64(0x100, 2), FromUint64(0xff, 2), 1},
		{FromUint64(5, 1), FromUint64(5, 8), 0},
		{Zero(0), Zero(4), 0},
	}

	for _, tc := range tests {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPatternUint64(t *testing.T) {
	v, ok := FromUint64(0x1234, 2).Uint64()
	if !ok || v != 0x1234 {
		t.Errorf("Uint64() = %x, %v", v, ok)
	}

	wide := FromLE([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 1})
	if _, ok := wide.Uint64(); ok {
		t.Error("pattern with bits above 63 should not fit in uint64")
	}

	narrowWide := FromUint64(7, 16)
	if v, ok := narrowWide.Uint64(); !ok || v != 7 {
		t.Errorf("zero-extended 128-bit pattern: got %d, %v", v, ok)
	}
}

func TestPatternIsZero(t *testing.T) {
	if !Zero(16).IsZero() {
		t.Error("Zero(16) should be zero")
	}
	if One(16).IsZero() {
		t.Error("One(16) should not be zero")
	}
	if !(Pattern{}).IsZero() {
		t.Error("empty pattern should be zero")
	}
}

func TestFromNativeMatchesHost(t *testing.T) {
	p := FromNative([]byte{0x01, 0x00})
	want := uint64(1)
	if !hostLittleEndian {
		want = 0x100
	}
	if v, _ := p.Uint64(); v != want {
		t.Errorf("FromNative: got %#x, want %#x", v, want)
	}
}
