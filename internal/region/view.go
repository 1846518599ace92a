// Package region is the single place where raw memory is reinterpreted.
//
// A View is a read-only window over the bytes of a value. Every validator
// receives one and reads only inside it; Sub panics on any window that would
// leave the parent, so a check can never touch memory it was not given.
package region

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/wippyai/niche/bitpattern"
)

// View is a bounded, read-only byte window with a byte order for
// multi-byte reads. Go values use the host order; foreign images such as
// WebAssembly linear memory use little-endian.
type View struct {
	order binary.ByteOrder
	p     unsafe.Pointer
	n     uintptr
	le    bool
}

// Of views n bytes at p in host byte order.
//
// The caller guarantees p addresses at least n live bytes for as long as
// the view is used and that nothing writes them concurrently.
func Of(p unsafe.Pointer, n uintptr) View {
	return View{p: p, n: n, order: binary.NativeEndian, le: isLittle(binary.NativeEndian)}
}

// OfBytes views b with the given byte order. The view aliases b.
func OfBytes(b []byte, order binary.ByteOrder) View {
	return View{p: unsafe.Pointer(unsafe.SliceData(b)), n: uintptr(len(b)), order: order, le: isLittle(order)}
}

// Len returns the window size in bytes.
func (v View) Len() uintptr {
	return v.n
}

// Order returns the byte order used by Uint.
func (v View) Order() binary.ByteOrder {
	return v.order
}

// Sub returns the window [off, off+n).
func (v View) Sub(off, n uintptr) View {
	if off > v.n || n > v.n-off {
		panic(fmt.Sprintf("region: window [%d, %d) outside view of %d bytes", off, off+n, v.n))
	}
	return View{p: unsafe.Add(v.p, off), n: n, order: v.order, le: v.le}
}

// Bytes returns the viewed bytes without copying. Callers must not write
// through the result.
func (v View) Bytes() []byte {
	if v.n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.p), v.n)
}

// Uint reads an unsigned integer of width 1, 2, 4 or 8 bytes at off.
func (v View) Uint(off uintptr, width int) uint64 {
	b := v.Sub(off, uintptr(width)).Bytes()
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(v.order.Uint16(b))
	case 4:
		return uint64(v.order.Uint32(b))
	case 8:
		return v.order.Uint64(b)
	}
	panic(fmt.Sprintf("region: unsupported integer width %d", width))
}

// Pattern copies n bytes at off into a canonical little-endian pattern.
func (v View) Pattern(off, n uintptr) bitpattern.Pattern {
	b := v.Sub(off, n).Bytes()
	if v.le {
		return bitpattern.FromLE(b)
	}
	return bitpattern.FromBE(b)
}

// IsZero reports whether every viewed byte is zero.
func (v View) IsZero() bool {
	for _, c := range v.Bytes() {
		if c != 0 {
			return false
		}
	}
	return true
}

// Copy copies the viewed bytes to the n bytes at dst.
//
// The caller guarantees dst addresses n writable bytes that do not overlap
// the view.
func (v View) Copy(dst unsafe.Pointer) {
	if v.n == 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), v.n), v.Bytes())
}

func isLittle(order binary.ByteOrder) bool {
	return order.Uint16([]byte{1, 0}) == 1
}
