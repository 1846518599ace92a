package bitpattern

import (
	"encoding/binary"
	"strings"
)

const hexDigits = "0123456789abcdef"

// Pattern is an immutable, fixed-width sequence of bytes in canonical
// little-endian order. The zero Pattern has width 0.
//
// Patterns are comparable with ==; two patterns are equal only when both
// their widths and their bytes match.
type Pattern struct {
	le string
}

// FromLE builds a pattern from little-endian bytes. The input is copied.
func FromLE(b []byte) Pattern {
	return Pattern{le: string(b)}
}

// FromBE builds a pattern from big-endian bytes. The input is copied.
func FromBE(b []byte) Pattern {
	buf := make([]byte, len(b))
	for i, c := range b {
		buf[len(b)-1-i] = c
	}
	return Pattern{le: string(buf)}
}

// FromNative builds a pattern from bytes laid out in host byte order, as
// they appear in the memory of a Go value.
func FromNative(b []byte) Pattern {
	if hostLittleEndian {
		return FromLE(b)
	}
	return FromBE(b)
}

// FromUint64 builds a width-byte pattern holding the low bytes of v.
// Widths above 8 are zero-extended.
func FromUint64(v uint64, width int) Pattern {
	buf := make([]byte, width)
	for i := 0; i < width && i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return Pattern{le: string(buf)}
}

// Zero returns the all-zero pattern of the given width.
func Zero(width int) Pattern {
	return Pattern{le: string(make([]byte, width))}
}

// Ones returns the all-ones pattern of the given width.
func Ones(width int) Pattern {
	return Pattern{le: strings.Repeat("\xff", width)}
}

// One returns the pattern of the given width with only the lowest bit set.
func One(width int) Pattern {
	return FromUint64(1, width)
}

// Len returns the width in bytes.
func (p Pattern) Len() int {
	return len(p.le)
}

// Bytes returns a little-endian copy of the pattern.
func (p Pattern) Bytes() []byte {
	return []byte(p.le)
}

// IsZero reports whether every bit is clear. The empty pattern is zero.
func (p Pattern) IsZero() bool {
	for i := 0; i < len(p.le); i++ {
		if p.le[i] != 0 {
			return false
		}
	}
	return true
}

// Uint64 returns the pattern as an unsigned integer. ok is false when a bit
// above bit 63 is set.
func (p Pattern) Uint64() (v uint64, ok bool) {
	for i := 0; i < len(p.le); i++ {
		if i >= 8 {
			if p.le[i] != 0 {
				return 0, false
			}
			continue
		}
		v |= uint64(p.le[i]) << (8 * i)
	}
	return v, true
}

// Compare orders patterns as unsigned integers, zero-extending the shorter
// one. It returns -1, 0 or +1.
func (p Pattern) Compare(q Pattern) int {
	n := max(len(p.le), len(q.le))
	for i := n - 1; i >= 0; i-- {
		a, b := p.byteAt(i), q.byteAt(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (p Pattern) byteAt(i int) byte {
	if i < len(p.le) {
		return p.le[i]
	}
	return 0
}

// String renders the pattern as hexadecimal, most significant byte first,
// with one pair of digits per byte: 0x0001 for a 2-byte one.
func (p Pattern) String() string {
	var b strings.Builder
	b.Grow(2 + 2*len(p.le))
	b.WriteString("0x")
	for i := len(p.le) - 1; i >= 0; i-- {
		c := p.le[i]
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1
