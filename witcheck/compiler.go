package witcheck

import (
	"strconv"
	"strings"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/niche"
	"github.com/wippyai/niche/bitpattern"
	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/layout"
)

var (
	boolRanges = bitpattern.NewRanges(bitpattern.Span(bitpattern.Zero(1), bitpattern.One(1)))
	charRanges = bitpattern.NewRanges(
		bitpattern.Span(bitpattern.Zero(4), bitpattern.FromUint64(0xd7ff, 4)),
		bitpattern.Span(bitpattern.FromUint64(0xe000, 4), bitpattern.FromUint64(0x10ffff, 4)),
	)
)

// Compiler turns WIT types into descriptors. It is safe for concurrent
// use and caches one descriptor per WIT type.
type Compiler struct {
	reg   *niche.Registry
	cache sync.Map // wit.Type -> *niche.Descriptor
}

// NewCompiler returns a compiler building checks with reg. A nil reg
// means niche.Default().
func NewCompiler(reg *niche.Registry) *Compiler {
	if reg == nil {
		reg = niche.Default()
	}
	return &Compiler{reg: reg}
}

// Compile returns the descriptor of t.
func (c *Compiler) Compile(t wit.Type) (*niche.Descriptor, error) {
	return c.compile(t, nil)
}

func (c *Compiler) compile(t wit.Type, path []string) (*niche.Descriptor, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseDerive, "nil WIT type")
	}
	if cached, ok := c.cache.Load(t); ok {
		return cached.(*niche.Descriptor), nil
	}

	name := TypeName(t)
	path = append(path[:len(path):len(path)], name)

	var (
		d   *niche.Descriptor
		err error
	)
	switch t := t.(type) {
	case wit.Bool:
		d = &niche.Descriptor{
			Name:  name,
			Class: niche.ClassScalar,
			Size:  1,
			Align: 1,
			Valid: boolRanges,
			Check: rangeCheck(name, 1, boolRanges),
		}
	case wit.U8, wit.S8:
		d = number(name, 1, isSigned(t))
	case wit.U16, wit.S16:
		d = number(name, 2, isSigned(t))
	case wit.U32, wit.S32, wit.F32:
		d = number(name, 4, isSigned(t))
	case wit.U64, wit.S64, wit.F64:
		d = number(name, 8, isSigned(t))
	case wit.Char:
		d = &niche.Descriptor{
			Name:  name,
			Class: niche.ClassScalar,
			Size:  4,
			Align: 4,
			Valid: charRanges,
			Check: rangeCheck(name, 4, charRanges),
		}
	case wit.String:
		err = errors.Unsupported(errors.PhaseDerive, path, "string contents live outside the inline image")
	case *wit.TypeDef:
		d, err = c.compileTypeDef(t, name, path)
	default:
		err = errors.Unsupported(errors.PhaseDerive, path, "WIT type "+name)
	}
	if err != nil {
		return nil, err
	}

	actual, _ := c.cache.LoadOrStore(t, d)
	return actual.(*niche.Descriptor), nil
}

func (c *Compiler) compileTypeDef(t *wit.TypeDef, name string, path []string) (*niche.Descriptor, error) {
	switch kind := t.Kind.(type) {
	case *wit.Record:
		members := make([]member, len(kind.Fields))
		for i, f := range kind.Fields {
			members[i] = member{name: f.Name, typ: f.Type}
		}
		return c.record(name, members, path)

	case *wit.Tuple:
		members := make([]member, len(kind.Types))
		for i, typ := range kind.Types {
			members[i] = member{name: strconv.Itoa(i), typ: typ}
		}
		return c.record(name, members, path)

	case *wit.Enum:
		cases := make([]member, len(kind.Cases))
		for i, ec := range kind.Cases {
			cases[i] = member{name: ec.Name}
		}
		return c.variant(name, cases, path)

	case *wit.Variant:
		cases := make([]member, len(kind.Cases))
		for i, vc := range kind.Cases {
			cases[i] = member{name: vc.Name, typ: vc.Type}
		}
		return c.variant(name, cases, path)

	case *wit.Option:
		return c.variant(name, []member{{name: "none"}, {name: "some", typ: kind.Type}}, path)

	case *wit.Result:
		return c.variant(name, []member{{name: "ok", typ: kind.OK}, {name: "error", typ: kind.Err}}, path)

	case *wit.Flags:
		return flags(name, len(kind.Flags), path)

	case *wit.Own, *wit.Borrow:
		return &niche.Descriptor{
			Name:     name,
			Class:    niche.ClassScalar,
			Size:     4,
			Align:    4,
			OneNiche: true,
			Check:    handleCheck(name),
		}, nil

	case *wit.List:
		return nil, errors.Unsupported(errors.PhaseDerive, path, "list contents live outside the inline image")

	case wit.Type:
		return c.compile(kind, path[:len(path)-1])
	}

	return nil, errors.Unsupported(errors.PhaseDerive, path, "WIT type "+name)
}

type member struct {
	typ  wit.Type
	name string
}

func (c *Compiler) record(name string, members []member, path []string) (*niche.Descriptor, error) {
	descs := make([]*niche.Descriptor, len(members))
	infos := make([]layout.Info, len(members))
	nicheless := true
	for i, m := range members {
		md, err := c.compile(m.typ, append(path, m.name))
		if err != nil {
			return nil, err
		}
		descs[i] = md
		infos[i] = layout.Of(md.Size, md.Align)
		nicheless = nicheless && md.Nicheless
	}

	info := layout.Record(infos...)
	d := &niche.Descriptor{
		Name:      name,
		Class:     niche.ClassStruct,
		Size:      info.Size,
		Align:     info.Align,
		Nicheless: nicheless,
		Fields:    make([]niche.Field, len(members)),
	}
	for i, m := range members {
		d.Fields[i] = niche.Field{
			Name:   m.name,
			Type:   descs[i],
			Offset: info.Offsets[i],
			Size:   descs[i].Size,
		}
	}
	if err := c.reg.Build(d); err != nil {
		return nil, err
	}
	return d, nil
}

// variant lays out enum, variant, option and result values: a canonical
// discriminant followed by the payload at the largest case alignment.
// Cases with a nil type carry no payload.
func (c *Compiler) variant(name string, cases []member, path []string) (*niche.Descriptor, error) {
	if len(cases) == 0 {
		return nil, errors.Uninhabited(path, name)
	}

	disc := layout.DiscriminantSize(len(cases))
	descs := make([]*niche.Descriptor, len(cases))
	infos := make([]layout.Info, len(cases))
	for i, vc := range cases {
		if vc.typ == nil {
			continue
		}
		cd, err := c.compile(vc.typ, append(path, vc.name))
		if err != nil {
			return nil, err
		}
		descs[i] = cd
		infos[i] = layout.Of(cd.Size, cd.Align)
	}

	info := layout.Tagged(disc, infos...)
	d := &niche.Descriptor{
		Name:     name,
		Class:    niche.ClassTaggedUnion,
		Size:     info.Size,
		Align:    info.Align,
		Tag:      number(TypeName(tagType(disc)), disc, false),
		Variants: make([]niche.Variant, len(cases)),
	}
	for i, vc := range cases {
		v := niche.Variant{Name: vc.name, Discriminant: uint64(i), Size: info.Size}
		if descs[i] != nil {
			v.Fields = []niche.Field{{
				Name:   vc.name,
				Type:   descs[i],
				Offset: info.Payload,
				Size:   descs[i].Size,
			}}
		}
		d.Variants[i] = v
	}
	if err := c.reg.Build(d); err != nil {
		return nil, err
	}
	return d, nil
}

func flags(name string, n int, path []string) (*niche.Descriptor, error) {
	if n > 32 {
		return nil, errors.Unsupported(errors.PhaseDerive, path, strconv.Itoa(n)+" flags")
	}
	info := layout.FlagsSize(n)
	d := &niche.Descriptor{
		Name:      name,
		Class:     niche.ClassScalar,
		Size:      info.Size,
		Align:     info.Align,
		Nicheless: n == int(info.Size)*8,
	}
	if d.Nicheless {
		return d, nil
	}
	width := int(info.Size)
	mask := uint64(1)<<n - 1
	d.Valid = bitpattern.NewRanges(bitpattern.Span(bitpattern.Zero(width), bitpattern.FromUint64(mask, width)))
	d.Check = rangeCheck(name, width, d.Valid)
	return d, nil
}

func number(name string, size uintptr, signed bool) *niche.Descriptor {
	return &niche.Descriptor{
		Name:      name,
		Class:     niche.ClassScalar,
		Size:      size,
		Align:     size,
		Signed:    signed,
		Nicheless: true,
	}
}

func isSigned(t wit.Type) bool {
	switch t.(type) {
	case wit.S8, wit.S16, wit.S32, wit.S64:
		return true
	}
	return false
}

func tagType(size uintptr) wit.Type {
	switch size {
	case 1:
		return wit.U8{}
	case 2:
		return wit.U16{}
	}
	return wit.U32{}
}

func rangeCheck(name string, width int, valid bitpattern.Ranges) niche.CheckFunc {
	from := bytesName(name)
	return func(v niche.View) error {
		p := v.Pattern(0, uintptr(width))
		if !valid.Contains(p) {
			return errors.InvalidBitPattern(from, name, p, valid)
		}
		return nil
	}
}

func handleCheck(name string) niche.CheckFunc {
	from := bytesName(name)
	return func(v niche.View) error {
		if v.IsZero() {
			return errors.NullPointer(from, name)
		}
		return nil
	}
}

func bytesName(name string) string {
	return "niche.MaybeInvalid[" + name + "]"
}

// TypeName renders t the way WIT source spells it. Named definitions use
// their name.
func TypeName(t wit.Type) string {
	switch t := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if t.Name != nil {
			return *t.Name
		}
		switch kind := t.Kind.(type) {
		case *wit.Tuple:
			return "tuple<" + typeList(kind.Types...) + ">"
		case *wit.Option:
			return "option<" + TypeName(kind.Type) + ">"
		case *wit.Result:
			if kind.OK == nil && kind.Err == nil {
				return "result"
			}
			return "result<" + TypeName(kind.OK) + ", " + TypeName(kind.Err) + ">"
		case *wit.List:
			return "list<" + TypeName(kind.Type) + ">"
		case *wit.Own:
			return "own<" + TypeName(kind.Type) + ">"
		case *wit.Borrow:
			return "borrow<" + TypeName(kind.Type) + ">"
		case wit.Type:
			return TypeName(kind)
		}
		return "anonymous"
	}
	return "unknown"
}

func typeList(ts ...wit.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = TypeName(t)
	}
	return strings.Join(names, ", ")
}
