package niche

import (
	"fmt"
	"reflect"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/region"
)

// TryFrom validates u and reinterprets its bits as S. The pairing (S, U)
// must be known to r: a builtin pairing, a derived type against
// MaybeInvalid, or one declared with Implement.
//
// On failure the error of the first invalid field is returned unchanged.
func TryFrom[S, U any](r *Registry, u U) (S, error) {
	var s S
	r = resolve(r)
	st, ut := reflect.TypeFor[S](), reflect.TypeFor[U]()

	check, err := r.lookup(st, ut)
	if err != nil {
		return s, err
	}
	assertSameSize(st, ut)

	if check != nil {
		if err := check(region.Of(unsafe.Pointer(&u), ut.Size())); err != nil {
			if ce := r.log().Check(zap.DebugLevel, "reinterpretation rejected"); ce != nil {
				ce.Write(zap.Stringer("from", ut), zap.Stringer("into", st), zap.Error(err))
			}
			return s, err
		}
	}

	// u was validated as an S and both share one layout.
	return *(*S)(unsafe.Pointer(&u)), nil
}

// TryFromBytes validates a host-order byte image as S.
func TryFromBytes[S any](r *Registry, b []byte) (S, error) {
	m, err := FromBytes[S](b)
	if err != nil {
		var zero S
		return zero, err
	}
	return TryFrom[S](r, m)
}

// Into reinterprets s as its universe U. It cannot fail: every S is a U.
// It panics if S and U differ in size or alignment, which means the
// pairing itself is broken.
func Into[S, U any](s S) U {
	assertSameSize(reflect.TypeFor[S](), reflect.TypeFor[U]())
	// S and U share one layout and U is nicheless.
	return *(*U)(unsafe.Pointer(&s))
}

// Check validates *u as an S without reinterpreting it.
func Check[S, U any](r *Registry, u *U) error {
	st, ut := reflect.TypeFor[S](), reflect.TypeFor[U]()
	check, err := resolve(r).lookup(st, ut)
	if err != nil {
		return err
	}
	if check == nil {
		return nil
	}
	return check(region.Of(unsafe.Pointer(u), ut.Size()))
}

// Implement declares the pairing (S, U) with a hand-written validator. U
// must be nicheless and have S's layout. Errors returned by validate that
// are not validation errors of this package are wrapped as delegated.
func Implement[S, U any](r *Registry, validate func(*U) error) error {
	r = resolve(r)
	st, ut := reflect.TypeFor[S](), reflect.TypeFor[U]()
	path := []string{st.String()}

	if st.Size() != ut.Size() || st.Align() != ut.Align() {
		return errors.LayoutMismatch(path, "size %d align %d, universe %s has size %d align %d",
			st.Size(), st.Align(), ut, ut.Size(), ut.Align())
	}
	if err := pointerFree(ut, []string{ut.String()}); err != nil {
		return err
	}
	if err := pointerFree(st, path); err != nil {
		return err
	}
	ud, err := r.Describe(ut)
	if err != nil {
		return err
	}
	if !r.isNicheless(ud) {
		return errors.NotNicheless(path, ut.String(), "universe "+ut.String()+" is not nicheless")
	}

	from, into := ut.String(), st.String()
	check := func(v View) error {
		var u U
		v.Copy(unsafe.Pointer(&u))
		err := validate(&u)
		if err == nil {
			return nil
		}
		if errors.IsValidation(err) {
			return err
		}
		return errors.Delegated(from, into, err)
	}
	return r.register(st, ut, check)
}

func assertSameSize(s, u reflect.Type) {
	if s.Size() != u.Size() || s.Align() != u.Align() {
		panic(fmt.Sprintf("niche: %s (size %d align %d) and %s (size %d align %d) do not share a layout",
			s, s.Size(), s.Align(), u, u.Size(), u.Align()))
	}
}
