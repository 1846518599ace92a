package niche

import (
	"reflect"
	"strconv"
	"structs"

	"go.uber.org/zap"

	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/layout"
)

var hostLayoutType = reflect.TypeFor[structs.HostLayout]()

// StructOption configures DeriveStruct.
type StructOption func(*structConfig)

type structConfig struct {
	universes   map[string]reflect.Type
	align       uintptr
	transparent bool
}

// WithUniverse validates the named field against universe instead of the
// opaque bytes of the field's type. The pairing (field type, universe)
// must be known to the registry and both must have the same layout.
func WithUniverse(field string, universe reflect.Type) StructOption {
	return func(c *structConfig) {
		if c.universes == nil {
			c.universes = make(map[string]reflect.Type)
		}
		c.universes[field] = universe
	}
}

// Transparent asserts that the struct has exactly one non-zero-size field
// spanning the whole value.
func Transparent() StructOption {
	return func(c *structConfig) {
		c.transparent = true
	}
}

// Aligned asserts the struct's alignment.
func Aligned(n uintptr) StructOption {
	return func(c *structConfig) {
		c.align = n
	}
}

// DeriveStruct registers a validator for struct T. Every field is checked
// in declaration order against its universe; the first failing field's
// error is returned unchanged. Derivation fails unless T's layout, the
// universe shadow's layout and the C layout of T's fields are identical.
//
// Field types must be described already: scalars, arrays and wrappers are
// automatic, nested structs and enums must be derived first.
func DeriveStruct[T any](r *Registry, opts ...StructOption) (*Descriptor, error) {
	var cfg structConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return resolve(r).deriveStruct(reflect.TypeFor[T](), cfg)
}

func (r *Registry) deriveStruct(t reflect.Type, cfg structConfig) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.String()
	path := []string{name}

	if t.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseDerive, path, t.Kind().String(), "struct")
	}
	if _, ok := r.descs.Load(t); ok {
		return nil, errors.Duplicate(path, "%s is already described", name)
	}
	if _, ok := wrapperOf(t); ok {
		return nil, errors.Duplicate(path, "%s is a builtin wrapper", name)
	}
	if err := pointerFree(t, path); err != nil {
		return nil, err
	}

	n := t.NumField()
	fields := make([]Field, 0, n)
	shadowFields := make([]reflect.StructField, 0, n)
	cMembers := make([]layout.Info, 0, n)
	used := 0
	hasHostLayout := false

	for i := 0; i < n; i++ {
		sf := t.Field(i)
		fpath := []string{name, sf.Name}
		size := sf.Type.Size()

		if sf.Type == hostLayoutType {
			hasHostLayout = true
		}

		f := Field{Name: sf.Name, Offset: sf.Offset, Size: size}
		shadowName := "F_" + sf.Name
		if sf.Name == "_" {
			shadowName = "P_" + strconv.Itoa(i)
		}

		if _, ok := cfg.universes[sf.Name]; ok && (size == 0 || sf.Name == "_") {
			return nil, errors.New(errors.PhaseDerive, errors.KindInvalidInput).
				Path(fpath...).
				Detail("universe override on padding field of size %d", size).
				Build()
		}

		switch {
		case size == 0:
			f.Padding = true
			f.Universe = sf.Type
		case sf.Name == "_":
			f.Padding = true
			o, err := opaqueOf(sf.Type, fpath)
			if err != nil {
				return nil, err
			}
			f.Universe = o
		default:
			fd, err := r.Describe(sf.Type)
			if err != nil {
				return nil, withPath(err, fpath)
			}
			f.Type = fd
			if u, ok := cfg.universes[sf.Name]; ok {
				used++
				c, err := r.lookup(sf.Type, u)
				if err != nil {
					return nil, withPath(err, fpath)
				}
				f.Universe = u
				f.Check = c
				if f.Check == nil {
					f.Check = acceptAll
				}
			} else {
				o, err := opaqueOf(sf.Type, fpath)
				if err != nil {
					return nil, err
				}
				f.Universe = o
			}
		}

		fields = append(fields, f)
		shadowFields = append(shadowFields, reflect.StructField{Name: shadowName, Type: f.Universe})
		cMembers = append(cMembers, layout.Of(size, uintptr(sf.Type.Align())))
	}

	if used != len(cfg.universes) {
		for field := range cfg.universes {
			if _, ok := t.FieldByName(field); !ok {
				return nil, errors.NotFound(errors.PhaseDerive, "field", name+"."+field)
			}
		}
	}

	shadow := reflect.StructOf(shadowFields)
	if err := sameLayout(t, shadow, layout.Record(cMembers...), path); err != nil {
		return nil, err
	}

	if cfg.align != 0 && uintptr(t.Align()) != cfg.align {
		return nil, errors.LayoutMismatch(path, "alignment %d, declared %d", t.Align(), cfg.align)
	}
	if r.hostLayout && !hasHostLayout {
		return nil, errors.LayoutMismatch(path, "missing structs.HostLayout marker field")
	}

	d := &Descriptor{
		GoType: t,
		Shadow: shadow,
		Name:   name,
		Class:  ClassStruct,
		Fields: fields,
		Size:   t.Size(),
		Align:  uintptr(t.Align()),
	}

	if cfg.transparent {
		inner, err := transparentField(fields, t.Size(), path)
		if err != nil {
			return nil, err
		}
		d.Class = ClassTransparent
		d.Elem = inner.Type
	}

	if err := r.Build(d); err != nil {
		return nil, err
	}
	r.descs.Store(t, d)

	r.log().Debug("derived struct",
		zap.String("type", name),
		zap.Stringer("class", d.Class),
		zap.Uintptr("size", d.Size),
		zap.Uintptr("align", d.Align),
		zap.Int("fields", len(fields)),
	)
	return d, nil
}

// sameLayout proves that subset, its universe shadow and the C layout of
// the same members place every field at the same offset.
func sameLayout(subset, shadow reflect.Type, c layout.Info, path []string) error {
	for i := 0; i < subset.NumField(); i++ {
		sf := subset.Field(i)
		if off := shadow.Field(i).Offset; off != sf.Offset {
			return errors.LayoutMismatch(append(path, sf.Name), "offset %d, universe offset %d", sf.Offset, off)
		}
		if c.Offsets[i] != sf.Offset {
			return errors.LayoutMismatch(append(path, sf.Name), "offset %d, C layout offset %d", sf.Offset, c.Offsets[i])
		}
	}
	if shadow.Size() != subset.Size() || shadow.Align() != subset.Align() {
		return errors.LayoutMismatch(path, "size %d align %d, universe size %d align %d",
			subset.Size(), subset.Align(), shadow.Size(), shadow.Align())
	}
	if c.Size != subset.Size() {
		return errors.LayoutMismatch(path, "size %d, C layout size %d (a trailing zero-size field adds padding)", subset.Size(), c.Size)
	}
	if c.Align != uintptr(subset.Align()) {
		return errors.LayoutMismatch(path, "alignment %d, C layout alignment %d", subset.Align(), c.Align)
	}
	return nil
}

func transparentField(fields []Field, size uintptr, path []string) (Field, error) {
	var inner Field
	count := 0
	for _, f := range fields {
		if !f.Padding {
			inner = f
			count++
		}
	}
	if count != 1 {
		return Field{}, errors.LayoutMismatch(path, "transparent struct has %d non-zero-size fields", count)
	}
	if inner.Size != size {
		return Field{}, errors.LayoutMismatch(append(path, inner.Name), "transparent field covers %d of %d bytes", inner.Size, size)
	}
	return inner, nil
}
