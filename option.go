package niche

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/niche/internal/region"
)

// Option holds either a T or nothing, in exactly T's size. T must have
// exactly one niche, the all-zero pattern, which Option uses for none.
// Option[T] is then nicheless.
//
// The zero value is None.
type Option[T any] struct {
	v T
}

// Some wraps v. Wrapping the niche itself yields None.
func Some[T any](v T) Option[T] {
	return Option[T]{v: v}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// IsNone reports whether the option holds the niche pattern.
func (o Option[T]) IsNone() bool {
	return region.Of(unsafe.Pointer(&o.v), unsafe.Sizeof(o.v)).IsZero()
}

// Get returns the held value and whether there was one.
func (o Option[T]) Get() (T, bool) {
	if o.IsNone() {
		var zero T
		return zero, false
	}
	return o.v, true
}

func (Option[T]) nicheWrapper() wrapperInfo {
	return wrapperInfo{kind: wrapOption, inner: reflect.TypeFor[T]()}
}
