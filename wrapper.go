package niche

import "reflect"

type wrapperKind uint8

const (
	wrapMaybeInvalid wrapperKind = iota + 1
	wrapOption
	wrapNonZero
	wrapNonNull
)

type wrapperInfo struct {
	inner reflect.Type
	kind  wrapperKind
}

type wrapper interface {
	nicheWrapper() wrapperInfo
}

var pkgPath = reflect.TypeFor[wrapperInfo]().PkgPath()

// wrapperOf reports whether t is one of the generic wrappers of this
// package. Types in other packages that embed a wrapper are not wrappers.
func wrapperOf(t reflect.Type) (wrapperInfo, bool) {
	if t.Kind() != reflect.Struct || t.PkgPath() != pkgPath {
		return wrapperInfo{}, false
	}
	w, ok := reflect.Zero(t).Interface().(wrapper)
	if !ok {
		return wrapperInfo{}, false
	}
	return w.nicheWrapper(), true
}
