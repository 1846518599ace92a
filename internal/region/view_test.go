package region

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/wippyai/niche/bitpattern"
)

func TestOfBytesUint(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	le := OfBytes(buf, binary.LittleEndian)
	be := OfBytes(buf, binary.BigEndian)

	tests := []struct {
		name  string
		view  View
		off   uintptr
		width int
		want  uint64
	}{
		{"le u8", le, 3, 1, 0x04},
		{"le u16", le, 0, 2, 0x0201},
		{"le u32", le, 4, 4, 0x08070605},
		{"le u64", le, 0, 8, 0x0807060504030201},
		{"be u16", be, 0, 2, 0x0102},
		{"be u32", be, 4, 4, 0x05060708},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.view.Uint(tc.off, tc.width); got != tc.want {
				t.Errorf("Uint(%d, %d) = %#x, want %#x", tc.off, tc.width, got, tc.want)
			}
		})
	}
}

func TestOfValue(t *testing.T) {
	v := struct {
		A uint32
		B uint16
	}{A: 0xdeadbeef, B: 0x1234}

	view := Of(unsafe.Pointer(&v), unsafe.Sizeof(v))
	if view.Len() != unsafe.Sizeof(v) {
		t.Fatalf("Len = %d", view.Len())
	}
	if got := view.Uint(0, 4); got != 0xdeadbeef {
		t.Errorf("A = %#x", got)
	}
	if got := view.Uint(unsafe.Offsetof(v.B), 2); got != 0x1234 {
		t.Errorf("B = %#x", got)
	}
	if got := view.Pattern(0, 4); got != bitpattern.FromUint64(0xdeadbeef, 4) {
		t.Errorf("Pattern = %s", got)
	}
}

func TestPatternByteOrder(t *testing.T) {
	buf := []byte{0x00, 0x01}
	if got := OfBytes(buf, binary.LittleEndian).Pattern(0, 2); got.String() != "0x0100" {
		t.Errorf("little-endian pattern = %s", got)
	}
	if got := OfBytes(buf, binary.BigEndian).Pattern(0, 2); got.String() != "0x0001" {
		t.Errorf("big-endian pattern = %s", got)
	}
}

func TestSubBounds(t *testing.T) {
	view := OfBytes(make([]byte, 8), binary.LittleEndian)

	sub := view.Sub(4, 4)
	if sub.Len() != 4 {
		t.Errorf("Len = %d", sub.Len())
	}
	if view.Sub(8, 0).Len() != 0 {
		t.Error("empty window at end should be allowed")
	}

	for _, tc := range []struct{ off, n uintptr }{{5, 4}, {9, 0}, {0, 9}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Sub(%d, %d) should panic", tc.off, tc.n)
				}
			}()
			view.Sub(tc.off, tc.n)
		}()
	}
}

func TestIsZeroAndCopy(t *testing.T) {
	buf := []byte{0, 0, 0, 0}
	view := OfBytes(buf, binary.LittleEndian)
	if !view.IsZero() {
		t.Error("zero buffer should be zero")
	}
	buf[2] = 1
	if view.IsZero() {
		t.Error("view aliases buf and should see the write")
	}

	var dst uint32
	view.Copy(unsafe.Pointer(&dst))
	if got := unsafe.Slice((*byte)(unsafe.Pointer(&dst)), 4); string(got) != string(buf) {
		t.Error("Copy did not copy bytes verbatim")
	}

	if !OfBytes(nil, binary.LittleEndian).IsZero() {
		t.Error("empty view is zero")
	}
}
