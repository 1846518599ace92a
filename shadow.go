package niche

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/wippyai/niche/errors"
)

// alignment carriers, smallest first
var carriers = []reflect.Type{
	reflect.TypeFor[uint8](),
	reflect.TypeFor[uint16](),
	reflect.TypeFor[uint32](),
	reflect.TypeFor[uint64](),
}

type opaqueKey struct {
	size  uintptr
	align uintptr
}

var opaqueTypes sync.Map // opaqueKey -> reflect.Type

// opaqueOf returns a nicheless struct with t's size and alignment:
//
//	struct {
//		Align [0]uintN
//		Bits  [size]byte
//	}
//
// It is the universe of a field that names no explicit universe.
func opaqueOf(t reflect.Type, path []string) (reflect.Type, error) {
	key := opaqueKey{size: t.Size(), align: uintptr(t.Align())}
	if o, ok := opaqueTypes.Load(key); ok {
		return o.(reflect.Type), nil
	}

	var carrier reflect.Type
	for _, c := range carriers {
		if uintptr(c.Align()) == key.align {
			carrier = c
			break
		}
	}
	if carrier == nil {
		return nil, errors.Unsupported(errors.PhaseDerive, path, fmt.Sprintf("alignment %d of %s", key.align, t))
	}

	o := reflect.StructOf([]reflect.StructField{
		{Name: "Align", Type: reflect.ArrayOf(0, carrier)},
		{Name: "Bits", Type: reflect.ArrayOf(int(key.size), carriers[0])},
	})
	actual, _ := opaqueTypes.LoadOrStore(key, o)
	return actual.(reflect.Type), nil
}

// pointerFree rejects types whose values contain Go pointers. Such values
// cannot be built from foreign bits without corrupting the heap.
func pointerFree(t reflect.Type, path []string) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return pointerFree(t.Elem(), path)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := pointerFree(f.Type, append(path[:len(path):len(path)], f.Name)); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Unsupported(errors.PhaseDerive, path, fmt.Sprintf("%s is a %s and holds Go pointers", t, t.Kind()))
}

// withPath sets the path of a derivation error that does not carry one.
func withPath(err error, path []string) error {
	var e *errors.Error
	if errors.As(err, &e) && len(e.Path) == 0 {
		c := *e
		c.Path = path
		return &c
	}
	return err
}
