package niche

import (
	"fmt"
	"reflect"
)

// NonNull is a non-null foreign address of a T. The address is stored as a
// uintptr: it is never dereferenced by this package and is invisible to
// the Go garbage collector.
type NonNull[T any] struct {
	addr uintptr
}

// NewNonNull returns addr as a NonNull, or false if addr is zero.
func NewNonNull[T any](addr uintptr) (NonNull[T], bool) {
	if addr == 0 {
		return NonNull[T]{}, false
	}
	return NonNull[T]{addr: addr}, true
}

func (p NonNull[T]) Addr() uintptr {
	return p.addr
}

func (p NonNull[T]) String() string {
	return fmt.Sprintf("%#x", p.addr)
}

func (NonNull[T]) nicheWrapper() wrapperInfo {
	return wrapperInfo{kind: wrapNonNull, inner: reflect.TypeFor[T]()}
}
