package niche

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/layout"
	"github.com/wippyai/niche/internal/region"
)

// TagWidth is the integer type of an enum discriminant.
type TagWidth uint8

const (
	TagU8 TagWidth = iota + 1
	TagU16
	TagU32
	TagU64
	TagI8
	TagI16
	TagI32
	TagI64
	TagUint
	TagInt
)

var tagTypes = [...]reflect.Type{
	TagU8:   reflect.TypeFor[uint8](),
	TagU16:  reflect.TypeFor[uint16](),
	TagU32:  reflect.TypeFor[uint32](),
	TagU64:  reflect.TypeFor[uint64](),
	TagI8:   reflect.TypeFor[int8](),
	TagI16:  reflect.TypeFor[int16](),
	TagI32:  reflect.TypeFor[int32](),
	TagI64:  reflect.TypeFor[int64](),
	TagUint: reflect.TypeFor[uint](),
	TagInt:  reflect.TypeFor[int](),
}

// Type returns the Go type of the discriminant, or nil for an unknown width.
func (w TagWidth) Type() reflect.Type {
	if w == 0 || int(w) >= len(tagTypes) {
		return nil
	}
	return tagTypes[w]
}

func (w TagWidth) Signed() bool {
	switch w {
	case TagI8, TagI16, TagI32, TagI64, TagInt:
		return true
	}
	return false
}

func (w TagWidth) String() string {
	if t := w.Type(); t != nil {
		return t.String()
	}
	return "TagWidth(" + strconv.Itoa(int(w)) + ")"
}

// bits returns d as stored in a tag of this width, or false if d does not
// fit.
func (w TagWidth) bits(d int64) (uint64, bool) {
	if !w.Signed() && d < 0 {
		return 0, false
	}
	return w.store(uint64(d))
}

// store returns v as stored in a tag of this width. v holds the
// discriminant in two's complement for signed tags.
func (w TagWidth) store(v uint64) (uint64, bool) {
	size := w.Type().Size() * 8
	mask := w.mask()
	if w.Signed() {
		d := int64(v)
		if size < 64 && (d < -(1<<(size-1)) || d > 1<<(size-1)-1) {
			return 0, false
		}
		return v & mask, true
	}
	if v > mask {
		return 0, false
	}
	return v, true
}

// value returns the discriminant stored as bits, sign-extended for
// signed tags, or false if bits does not fit the width.
func (w TagWidth) value(bits uint64) (uint64, bool) {
	mask := w.mask()
	if bits > mask {
		return 0, false
	}
	size := w.Type().Size() * 8
	if w.Signed() && size < 64 && bits&(1<<(size-1)) != 0 {
		return bits | ^mask, true
	}
	return bits, true
}

// last reports whether v is the largest discriminant of the tag's type.
func (w TagWidth) last(v uint64) bool {
	if w.Signed() {
		return int64(v) == math.MaxInt64
	}
	return v == math.MaxUint64
}

func discString(val uint64, spec VariantSpec, tag TagWidth) string {
	switch {
	case spec.stored:
		return fmt.Sprintf("bits %#x", spec.raw)
	case spec.explicit:
		return strconv.FormatInt(spec.disc, 10)
	case tag.Signed():
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatUint(val, 10)
}

func (w TagWidth) mask() uint64 {
	size := w.Type().Size() * 8
	if size >= 64 {
		return math.MaxUint64
	}
	return 1<<size - 1
}

// FieldSpec names one payload field of a variant.
type FieldSpec struct {
	Type reflect.Type
	Name string
}

// FieldOf returns a payload field of type F.
func FieldOf[F any](name string) FieldSpec {
	return FieldSpec{Name: name, Type: reflect.TypeFor[F]()}
}

// VariantSpec declares one variant of an enum. Variants without an
// explicit discriminant take the previous discriminant plus one, starting
// at zero.
type VariantSpec struct {
	payload   reflect.Type
	universes map[string]reflect.Type
	name      string
	fields    []FieldSpec
	disc      int64
	raw       uint64
	explicit  bool
	stored    bool
}

// Unit declares a variant without payload.
func Unit(name string) VariantSpec {
	return VariantSpec{name: name}
}

// Tuple declares a variant with positional payload fields named 0, 1, ...
func Tuple(name string, fields ...reflect.Type) VariantSpec {
	specs := make([]FieldSpec, len(fields))
	for i, t := range fields {
		specs[i] = FieldSpec{Name: strconv.Itoa(i), Type: t}
	}
	return VariantSpec{name: name, fields: specs}
}

// Named declares a variant with named payload fields.
func Named(name string, fields ...FieldSpec) VariantSpec {
	return VariantSpec{name: name, fields: fields}
}

// VariantFrom declares a variant whose layout is the Go struct V. V's first
// field holds the discriminant; the remaining fields are the payload.
// VariantAs and FromVariant give typed access to such variants.
func VariantFrom[V any](name string) VariantSpec {
	return VariantSpec{name: name, payload: reflect.TypeFor[V]()}
}

// At sets an explicit discriminant. Following variants continue from it.
func (v VariantSpec) At(d int64) VariantSpec {
	v.disc = d
	v.explicit = true
	v.stored = false
	return v
}

// AtBits sets an explicit discriminant by its stored bits, which reaches
// unsigned 64-bit discriminants above math.MaxInt64. For signed tags the
// bits are read in two's complement.
func (v VariantSpec) AtBits(bits uint64) VariantSpec {
	v.raw = bits
	v.stored = true
	v.explicit = false
	return v
}

// WithUniverse validates the named payload field against universe.
func (v VariantSpec) WithUniverse(field string, universe reflect.Type) VariantSpec {
	m := make(map[string]reflect.Type, len(v.universes)+1)
	for k, u := range v.universes {
		m[k] = u
	}
	m[field] = universe
	v.universes = m
	return v
}

func (v VariantSpec) fieldSpecs(tag reflect.Type, path []string) ([]FieldSpec, error) {
	if v.payload == nil {
		return v.fields, nil
	}
	p := v.payload
	if p.Kind() != reflect.Struct || p.NumField() == 0 {
		return nil, errors.TypeMismatch(errors.PhaseDerive, path, p.String(), "struct with a leading discriminant field")
	}
	first := p.Field(0)
	if first.Type.Size() != tag.Size() || first.Offset != 0 {
		return nil, errors.LayoutMismatch(append(path, first.Name), "discriminant field is %d bytes, tag is %d", first.Type.Size(), tag.Size())
	}
	specs := make([]FieldSpec, 0, p.NumField()-1)
	for i := 1; i < p.NumField(); i++ {
		f := p.Field(i)
		specs = append(specs, FieldSpec{Name: f.Name, Type: f.Type})
	}
	return specs, nil
}

// DeriveEnum registers a validator for the tagged union T. T is the
// storage type: it must have the size and alignment of the largest
// variant, where each variant is laid out as a C struct of the
// discriminant followed by its payload fields.
//
// The generated check reads the discriminant at offset 0, selects the
// first variant whose discriminant matches and validates only that
// variant's payload. A discriminant matching no variant is rejected with
// invalid_discriminant carrying the observed tag bits.
func DeriveEnum[T any](r *Registry, tag TagWidth, variants ...VariantSpec) (*Descriptor, error) {
	return resolve(r).deriveEnum(reflect.TypeFor[T](), tag, variants)
}

func (r *Registry) deriveEnum(t reflect.Type, tag TagWidth, specs []VariantSpec) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.String()
	path := []string{name}

	tagType := tag.Type()
	if tagType == nil {
		return nil, errors.InvalidInput(errors.PhaseDerive, fmt.Sprintf("%s: unknown discriminant width %d", name, tag))
	}
	if _, ok := r.descs.Load(t); ok {
		return nil, errors.Duplicate(path, "%s is already described", name)
	}
	if err := pointerFree(t, path); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, errors.Uninhabited(path, name)
	}
	tagDesc, err := r.Describe(tagType)
	if err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, len(specs))
	shadows := make([]layout.Info, 0, len(specs))
	var (
		next      uint64
		exhausted bool
		prev      string
	)

	for _, spec := range specs {
		vpath := []string{name, spec.name}

		var (
			val  uint64
			bits uint64
			ok   bool
		)
		switch {
		case spec.stored:
			bits = spec.raw
			val, ok = tag.value(bits)
		case spec.explicit:
			val = uint64(spec.disc)
			bits, ok = tag.bits(spec.disc)
		default:
			if exhausted {
				return nil, errors.New(errors.PhaseDerive, errors.KindInvalidInput).
					Path(vpath...).
					Detail("implicit discriminant after %s overflows %s", prev, tag).
					Build()
			}
			val = next
			bits, ok = tag.store(val)
		}
		if !ok {
			return nil, errors.New(errors.PhaseDerive, errors.KindInvalidInput).
				Path(vpath...).
				Detail("discriminant %s does not fit %s", discString(val, spec, tag), tag).
				Build()
		}
		exhausted = tag.last(val)
		next = val + 1
		prev = spec.name

		v, shadow, err := r.deriveVariant(spec, tagType, vpath)
		if err != nil {
			return nil, err
		}
		v.Discriminant = bits
		variants = append(variants, v)
		shadows = append(shadows, layout.Of(shadow.Size(), uintptr(shadow.Align())))
	}

	u := layout.Union(shadows...)
	if u.Size != t.Size() || u.Align != uintptr(t.Align()) {
		return nil, errors.LayoutMismatch(path, "variants need size %d align %d, %s has size %d align %d",
			u.Size, u.Align, name, t.Size(), t.Align())
	}

	d := &Descriptor{
		GoType:   t,
		Name:     name,
		Class:    ClassTaggedUnion,
		Tag:      tagDesc,
		Variants: variants,
		Size:     t.Size(),
		Align:    uintptr(t.Align()),
		Signed:   tag.Signed(),
	}
	if err := r.Build(d); err != nil {
		return nil, err
	}
	r.descs.Store(t, d)

	r.log().Debug("derived enum",
		zap.String("type", name),
		zap.Stringer("tag", tag),
		zap.Uintptr("size", d.Size),
		zap.Uintptr("align", d.Align),
		zap.Int("variants", len(variants)),
	)
	return d, nil
}

// deriveVariant synthesizes the subset struct {Tag; F_<field>...} and its
// universe shadow for one variant and proves their layouts equal.
func (r *Registry) deriveVariant(spec VariantSpec, tagType reflect.Type, vpath []string) (Variant, reflect.Type, error) {
	fspecs, err := spec.fieldSpecs(tagType, vpath)
	if err != nil {
		return Variant{}, nil, err
	}

	subsetFields := make([]reflect.StructField, 0, len(fspecs)+1)
	shadowFields := make([]reflect.StructField, 0, len(fspecs)+1)
	cMembers := make([]layout.Info, 0, len(fspecs)+1)
	fields := make([]Field, 0, len(fspecs))

	tagField := reflect.StructField{Name: "Tag", Type: tagType}
	subsetFields = append(subsetFields, tagField)
	shadowFields = append(shadowFields, tagField)
	cMembers = append(cMembers, layout.Of(tagType.Size(), uintptr(tagType.Align())))

	used := 0
	for i, fs := range fspecs {
		fpath := append(vpath[:len(vpath):len(vpath)], fs.Name)
		if fs.Type == nil {
			return Variant{}, nil, errors.InvalidInput(errors.PhaseDerive, "payload field "+fs.Name+" has no type")
		}
		if err := pointerFree(fs.Type, fpath); err != nil {
			return Variant{}, nil, err
		}

		f := Field{Name: fs.Name, Size: fs.Type.Size()}
		fieldName := "F_" + fs.Name
		if fs.Name == "_" {
			fieldName = "P_" + strconv.Itoa(i)
		}

		switch {
		case fs.Type.Size() == 0:
			f.Padding = true
			f.Universe = fs.Type
		case fs.Name == "_":
			f.Padding = true
			if f.Universe, err = opaqueOf(fs.Type, fpath); err != nil {
				return Variant{}, nil, err
			}
		default:
			fd, err := r.Describe(fs.Type)
			if err != nil {
				return Variant{}, nil, withPath(err, fpath)
			}
			f.Type = fd
			if u, ok := spec.universes[fs.Name]; ok {
				used++
				c, err := r.lookup(fs.Type, u)
				if err != nil {
					return Variant{}, nil, withPath(err, fpath)
				}
				f.Universe = u
				f.Check = c
				if f.Check == nil {
					f.Check = acceptAll
				}
			} else if f.Universe, err = opaqueOf(fs.Type, fpath); err != nil {
				return Variant{}, nil, err
			}
		}

		fields = append(fields, f)
		subsetFields = append(subsetFields, reflect.StructField{Name: fieldName, Type: fs.Type})
		shadowFields = append(shadowFields, reflect.StructField{Name: fieldName, Type: f.Universe})
		cMembers = append(cMembers, layout.Of(fs.Type.Size(), uintptr(fs.Type.Align())))
	}
	if used != len(spec.universes) {
		for field := range spec.universes {
			if !hasFieldSpec(fspecs, field) {
				return Variant{}, nil, errors.NotFound(errors.PhaseDerive, "payload field", spec.name+"."+field)
			}
		}
	}

	subset := reflect.StructOf(subsetFields)
	shadow := reflect.StructOf(shadowFields)
	if err := sameLayout(subset, shadow, layout.Record(cMembers...), vpath); err != nil {
		return Variant{}, nil, err
	}
	for i := range fields {
		fields[i].Offset = subset.Field(i + 1).Offset
	}

	if p := spec.payload; p != nil {
		for i := 0; i < p.NumField(); i++ {
			if p.Field(i).Offset != subset.Field(i).Offset {
				return Variant{}, nil, errors.LayoutMismatch(append(vpath, p.Field(i).Name),
					"offset %d, variant offset %d", p.Field(i).Offset, subset.Field(i).Offset)
			}
		}
		if p.Size() != subset.Size() || p.Align() != subset.Align() {
			return Variant{}, nil, errors.LayoutMismatch(vpath, "%s has size %d align %d, variant needs %d/%d",
				p, p.Size(), p.Align(), subset.Size(), subset.Align())
		}
	}

	return Variant{
		Name:    spec.name,
		Fields:  fields,
		Shadow:  shadow,
		Subset:  subset,
		Payload: spec.payload,
		Size:    subset.Size(),
	}, shadow, nil
}

func hasFieldSpec(specs []FieldSpec, name string) bool {
	for _, fs := range specs {
		if fs.Name == name {
			return true
		}
	}
	return false
}

// VariantAs returns t viewed as its active variant V when that variant was
// declared with VariantFrom[V] and is the one t's discriminant selects.
// t must be a valid T.
func VariantAs[V, T any](r *Registry, t *T) (*V, bool) {
	d, err := resolve(r).Describe(reflect.TypeFor[T]())
	if err != nil || d.Class != ClassTaggedUnion {
		return nil, false
	}
	vt := reflect.TypeFor[V]()
	tag := region.Of(unsafe.Pointer(t), d.Size).Uint(0, d.TagWidth())
	for _, v := range d.Variants {
		if v.Payload != vt || v.Discriminant != tag {
			continue
		}
		// V's layout was proved to be a prefix of T's at derivation.
		return (*V)(unsafe.Pointer(t)), true
	}
	return nil, false
}

// FromVariant builds a T holding variant v, using the first variant
// declared with VariantFrom[V]. The discriminant field of v is overwritten with the variant's discriminant; bytes of T beyond V are
// zero.
func FromVariant[T, V any](r *Registry, v V) (T, error) {
	var t T
	tt, vt := reflect.TypeFor[T](), reflect.TypeFor[V]()
	d, err := resolve(r).Describe(tt)
	if err != nil {
		return t, err
	}
	if d.Class != ClassTaggedUnion {
		return t, errors.TypeMismatch(errors.PhaseConvert, []string{tt.String()}, d.Class.String(), ClassTaggedUnion.String())
	}
	for _, variant := range d.Variants {
		if variant.Payload != vt {
			continue
		}
		// V is no larger than T and shares its leading layout.
		region.Of(unsafe.Pointer(&v), vt.Size()).Copy(unsafe.Pointer(&t))
		var buf [8]byte
		width := d.TagWidth()
		switch width {
		case 1:
			buf[0] = byte(variant.Discriminant)
		case 2:
			binary.NativeEndian.PutUint16(buf[:], uint16(variant.Discriminant))
		case 4:
			binary.NativeEndian.PutUint32(buf[:], uint32(variant.Discriminant))
		case 8:
			binary.NativeEndian.PutUint64(buf[:], variant.Discriminant)
		}
		region.OfBytes(buf[:width], binary.NativeEndian).Copy(unsafe.Pointer(&t))
		return t, nil
	}
	return t, errors.NotFound(errors.PhaseConvert, "variant payload", vt.String())
}
