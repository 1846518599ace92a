package niche

import (
	"fmt"
	"reflect"
)

// NonZero is an integer that is never zero. Zero is its one niche, so
// Option[NonZero[T]] has the size of T.
//
// The zero value of NonZero is invalid; construct with NewNonZero or
// validate with TryFrom.
type NonZero[T Integer] struct {
	v T
}

// NewNonZero returns v as a NonZero, or false if v is zero.
func NewNonZero[T Integer](v T) (NonZero[T], bool) {
	var zero T
	if v == zero {
		return NonZero[T]{}, false
	}
	return NonZero[T]{v: v}, true
}

func (n NonZero[T]) Get() T {
	return n.v
}

func (n NonZero[T]) String() string {
	return fmt.Sprint(n.v)
}

func (NonZero[T]) nicheWrapper() wrapperInfo {
	return wrapperInfo{kind: wrapNonZero, inner: reflect.TypeFor[T]()}
}
