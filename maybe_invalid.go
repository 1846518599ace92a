package niche

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/region"
)

// MaybeInvalid holds the bits of a T that have not been validated. It has
// exactly T's size and alignment and is nicheless: every bit pattern is a
// valid MaybeInvalid[T], whether or not it is a valid T.
//
// The zero value is the all-zero image.
type MaybeInvalid[T any] struct {
	v T
}

// New wraps a valid value.
func New[T any](v T) MaybeInvalid[T] {
	return MaybeInvalid[T]{v: v}
}

// Zeroed returns the all-zero image, which need not be a valid T.
func Zeroed[T any]() MaybeInvalid[T] {
	return MaybeInvalid[T]{}
}

// FromBytes copies a host-order byte image of exactly sizeof(T) bytes.
// T must be free of Go pointers.
func FromBytes[T any](b []byte) (MaybeInvalid[T], error) {
	var m MaybeInvalid[T]
	t := reflect.TypeFor[T]()
	if err := pointerFree(t, []string{t.String()}); err != nil {
		return m, err
	}
	if uintptr(len(b)) != t.Size() {
		return m, errors.InvalidInput(errors.PhaseConvert,
			fmt.Sprintf("%s needs %d bytes, got %d", t, t.Size(), len(b)))
	}
	// T is pointer-free and b has exactly T's size.
	region.OfBytes(b, binary.NativeEndian).Copy(unsafe.Pointer(&m.v))
	return m, nil
}

// View returns a read-only window over the held bits.
func (m *MaybeInvalid[T]) View() View {
	return region.Of(unsafe.Pointer(&m.v), unsafe.Sizeof(m.v))
}

// Bytes returns a copy of the held bits in host byte order.
func (m MaybeInvalid[T]) Bytes() []byte {
	return bytes.Clone(m.View().Bytes())
}

// AssumeValid returns the held bits as a T without checking them. The
// caller asserts the bits are a valid T; use TryFrom otherwise.
func (m MaybeInvalid[T]) AssumeValid() T {
	return m.v
}

// AssumeValidPtr is AssumeValid without the copy.
func (m *MaybeInvalid[T]) AssumeValidPtr() *T {
	return &m.v
}

func (m MaybeInvalid[T]) String() string {
	return fmt.Sprintf("MaybeInvalid[%s]{% x}", reflect.TypeFor[T](), m.View().Bytes())
}

func (MaybeInvalid[T]) nicheWrapper() wrapperInfo {
	return wrapperInfo{kind: wrapMaybeInvalid, inner: reflect.TypeFor[T]()}
}

// Inner returns the held value of a nicheless scalar. It cannot fail:
// every bit pattern of a Scalar is a value.
func Inner[T Scalar](m MaybeInvalid[T]) T {
	return m.v
}

// Extract returns the held value when T is registered as nicheless, and a
// not_nicheless error otherwise.
func Extract[T any](r *Registry, m MaybeInvalid[T]) (T, error) {
	t := reflect.TypeFor[T]()
	reg := resolve(r)
	d, err := reg.Describe(t)
	if err != nil {
		var zero T
		return zero, err
	}
	if !reg.isNicheless(d) {
		var zero T
		return zero, errors.NotNicheless([]string{t.String()}, t.String(), "extraction without validation needs a nicheless type")
	}
	return m.v, nil
}
