package niche

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/niche/bitpattern"
	"github.com/wippyai/niche/errors"
)

// MarkNicheless declares that every bit pattern of T is a value, after
// verifying it: every field of a struct or array must itself be nicheless,
// and an enum must additionally assign a variant to every tag value.
// Uninhabited types are rejected.
//
// A nicheless type may serve as a universe and may be extracted from
// MaybeInvalid without validation.
func MarkNicheless[T any](r *Registry) error {
	return resolve(r).markNicheless(reflect.TypeFor[T]())
}

func (r *Registry) markNicheless(t reflect.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.Describe(t)
	if err != nil {
		return err
	}
	if r.isNicheless(d) {
		return nil
	}
	if err := r.verifyNicheless(d, []string{d.Name}); err != nil {
		return err
	}

	nd := *d
	nd.Nicheless = true
	nd.Check = nil
	r.descs.Store(t, &nd)

	r.log().Debug("marked nicheless", zap.String("type", d.Name))
	return nil
}

func (r *Registry) verifyNicheless(d *Descriptor, path []string) error {
	if d.OneNiche {
		return errors.NotNicheless(path, d.Name, d.Name+" has a niche")
	}

	switch d.Class {
	case ClassScalar, ClassOpaque:
		if !d.Nicheless {
			return errors.NotNicheless(path, d.Name, d.Name+" has invalid bit patterns")
		}

	case ClassStruct, ClassTransparent:
		if err := r.fieldsNicheless(d.Fields, d.Name, path); err != nil {
			return err
		}

	case ClassArray:
		if d.Len > 0 && !r.isNicheless(d.Elem) {
			return errors.NotNicheless(path, d.Name, "element type "+d.Elem.Name+" is not nicheless")
		}

	case ClassTaggedUnion:
		if len(d.Variants) == 0 {
			return errors.Uninhabited(path, d.Name)
		}
		width := d.TagWidth()
		if width > 2 || len(d.Variants) != 1<<(8*width) {
			return errors.NotNicheless(path, d.Name,
				fmt.Sprintf("%d variants do not cover the %d-byte discriminant", len(d.Variants), width))
		}
		for _, v := range d.Variants {
			if err := r.fieldsNicheless(v.Fields, d.Name, append(path, v.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) fieldsNicheless(fields []Field, name string, path []string) error {
	for _, f := range fields {
		if f.Padding || f.Type == nil {
			continue
		}
		if !r.isNicheless(f.Type) {
			return errors.NotNicheless(append(path, f.Name), name,
				fmt.Sprintf("field %s of type %s is not nicheless", f.Name, f.Type.Name))
		}
	}
	return nil
}

// isNicheless reports whether d is nicheless under the registry's current
// markers. An array is recomputed from its element, since the array
// descriptor may be cached from before the element was marked.
func (r *Registry) isNicheless(d *Descriptor) bool {
	d = r.current(d)
	if d.Class == ClassArray && !d.Nicheless {
		return d.Len == 0 || r.isNicheless(d.Elem)
	}
	return d.Nicheless
}

// AssertNicheless declares T nicheless without verification. T need not
// be derived; an underived struct is registered as opaque bytes.
func AssertNicheless[T any](r *Registry) error {
	return resolve(r).assert(reflect.TypeFor[T](), func(d *Descriptor) error {
		if d.OneNiche {
			return errors.NotNicheless([]string{d.Name}, d.Name, "type is declared to have one niche")
		}
		d.Nicheless = true
		d.Check = nil
		return nil
	})
}

// AssertOneNiche declares that T has exactly one invalid bit pattern, the
// all-zero one, so that Option[T] is nicheless. T need not be derived.
func AssertOneNiche[T any](r *Registry) error {
	return resolve(r).assert(reflect.TypeFor[T](), func(d *Descriptor) error {
		if d.Nicheless {
			return errors.New(errors.PhaseDerive, errors.KindInvalidInput).
				Path(d.Name).
				Detail("nicheless type cannot have a niche").
				Build()
		}
		d.OneNiche = true
		if d.Check == nil {
			var valid bitpattern.Ranges
			if r.trackRanges && d.Size <= 16 {
				valid = bitpattern.NonZero(int(d.Size))
			}
			d.Check = zeroNicheCheck(maybeInvalidName(d.Name), d.Name, valid)
		}
		return nil
	})
}

func (r *Registry) assert(t reflect.Type, apply func(*Descriptor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := []string{t.String()}
	if err := pointerFree(t, path); err != nil {
		return err
	}

	var nd Descriptor
	d, err := r.Describe(t)
	switch {
	case err == nil:
		nd = *d
	case errors.KindOf(err) == errors.KindNotFound:
		nd = Descriptor{
			GoType: t,
			Name:   t.String(),
			Class:  ClassOpaque,
			Size:   t.Size(),
			Align:  uintptr(t.Align()),
		}
	default:
		return err
	}

	if err := apply(&nd); err != nil {
		return err
	}
	r.descs.Store(t, &nd)
	return nil
}

func zeroNicheCheck(from, into string, valid bitpattern.Ranges) CheckFunc {
	return func(v View) error {
		if v.IsZero() {
			return errors.InvalidBitPattern(from, into, v.Pattern(0, v.Len()), valid)
		}
		return nil
	}
}
