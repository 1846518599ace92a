package niche

import (
	"reflect"

	"github.com/wippyai/niche/bitpattern"
	"github.com/wippyai/niche/errors"
)

var (
	uint128Type = reflect.TypeFor[Uint128]()
	int128Type  = reflect.TypeFor[Int128]()
	uintptrType = reflect.TypeFor[uintptr]()

	boolRanges = bitpattern.NewRanges(bitpattern.Span(bitpattern.Zero(1), bitpattern.One(1)))
)

func (r *Registry) describe(t reflect.Type) (*Descriptor, error) {
	path := []string{t.String()}

	if w, ok := wrapperOf(t); ok {
		return r.describeWrapper(t, w)
	}

	switch t {
	case uint128Type:
		return scalar(t, false), nil
	case int128Type:
		return scalar(t, true), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		d := &Descriptor{
			GoType: t,
			Name:   t.String(),
			Class:  ClassScalar,
			Size:   t.Size(),
			Align:  uintptr(t.Align()),
			Check:  boolCheck(maybeInvalidName(t.String()), t.String(), r.trackRanges),
		}
		if r.trackRanges {
			d.Valid = boolRanges
		}
		return d, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalar(t, true), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return scalar(t, false), nil

	case reflect.Array:
		elem, err := r.Describe(t.Elem())
		if err != nil {
			return nil, err
		}
		d := &Descriptor{
			GoType:    t,
			Name:      t.String(),
			Class:     ClassArray,
			Elem:      elem,
			Len:       t.Len(),
			Size:      t.Size(),
			Align:     uintptr(t.Align()),
			Nicheless: elem.Nicheless || t.Len() == 0,
		}
		if err := r.Build(d); err != nil {
			return nil, err
		}
		return d, nil

	case reflect.Struct:
		if t.Size() == 0 {
			return &Descriptor{
				GoType:    t,
				Name:      t.String(),
				Class:     ClassOpaque,
				Size:      0,
				Align:     uintptr(t.Align()),
				Nicheless: true,
			}, nil
		}
		return nil, errors.NotFound(errors.PhaseDerive, "struct", t.String())
	}

	return nil, errors.Unsupported(errors.PhaseDerive, path, t.Kind().String()+" values hold Go pointers")
}

func scalar(t reflect.Type, signed bool) *Descriptor {
	return &Descriptor{
		GoType:    t,
		Name:      t.String(),
		Class:     ClassScalar,
		Size:      t.Size(),
		Align:     uintptr(t.Align()),
		Signed:    signed,
		Nicheless: true,
	}
}

func (r *Registry) describeWrapper(t reflect.Type, w wrapperInfo) (*Descriptor, error) {
	path := []string{t.String()}
	d := &Descriptor{
		GoType: t,
		Name:   t.String(),
		Size:   t.Size(),
		Align:  uintptr(t.Align()),
	}

	switch w.kind {
	case wrapMaybeInvalid:
		if err := pointerFree(w.inner, path); err != nil {
			return nil, err
		}
		d.Class = ClassOpaque
		d.Nicheless = true

	case wrapOption:
		inner, err := r.Describe(w.inner)
		if err != nil {
			return nil, err
		}
		if !inner.OneNiche {
			return nil, errors.NotNicheless(path, t.String(), w.inner.String()+" does not have exactly one niche")
		}
		d.Class = ClassTransparent
		d.Elem = inner
		d.Fields = []Field{{Name: "v", Type: inner, Size: inner.Size}}
		d.Nicheless = true

	case wrapNonZero:
		inner, err := r.Describe(w.inner)
		if err != nil {
			return nil, err
		}
		d.Class = ClassTransparent
		d.Elem = inner
		d.Signed = inner.Signed
		d.Fields = []Field{{Name: "v", Type: inner, Size: inner.Size}}
		d.OneNiche = true
		d.Check = nonZeroCheck(maybeInvalidName(t.String()), t.String(), int(t.Size()), r.trackRanges)
		if r.trackRanges {
			d.Valid = bitpattern.NonZero(int(t.Size()))
		}

	case wrapNonNull:
		d.Class = ClassScalar
		d.OneNiche = true
		d.Check = nullCheck(maybeInvalidName(t.String()), t.String())
	}

	return d, nil
}

func boolCheck(from, into string, track bool) CheckFunc {
	var valid bitpattern.Ranges
	if track {
		valid = boolRanges
	}
	return func(v View) error {
		if v.Uint(0, 1) > 1 {
			return errors.InvalidBitPattern(from, into, v.Pattern(0, 1), valid)
		}
		return nil
	}
}

func nonZeroCheck(from, into string, width int, track bool) CheckFunc {
	var valid bitpattern.Ranges
	if track {
		valid = bitpattern.NonZero(width)
	}
	return func(v View) error {
		if v.IsZero() {
			return errors.InvalidBitPattern(from, into, v.Pattern(0, v.Len()), valid)
		}
		return nil
	}
}

func nullCheck(from, into string) CheckFunc {
	return func(v View) error {
		if v.IsZero() {
			return errors.NullPointer(from, into)
		}
		return nil
	}
}

func foundNoneCheck(from, into string) CheckFunc {
	return func(v View) error {
		if v.IsZero() {
			return errors.FoundNone(from, into)
		}
		return nil
	}
}
