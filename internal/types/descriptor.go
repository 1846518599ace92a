package types

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/niche/bitpattern"
	"github.com/wippyai/niche/internal/region"
)

// CheckFunc validates the byte image in v. It returns nil when the bits are
// a well-defined value and the first failure otherwise.
type CheckFunc func(v region.View) error

type Descriptor struct {
	GoType    reflect.Type
	Shadow    reflect.Type
	Check     CheckFunc
	Elem      *Descriptor
	Tag       *Descriptor
	Valid     bitpattern.Ranges
	Name      string
	Fields    []Field
	Variants  []Variant
	Size      uintptr
	Align     uintptr
	Len       int
	Class     Class
	Signed    bool
	Nicheless bool
	OneNiche  bool
}

type Field struct {
	Type     *Descriptor
	Universe reflect.Type
	Check    CheckFunc
	Name     string
	Offset   uintptr
	Size     uintptr
	Padding  bool
}

type Variant struct {
	Shadow       reflect.Type
	Subset       reflect.Type
	Payload      reflect.Type
	Name         string
	Fields       []Field
	Discriminant uint64
	Size         uintptr
}

// Validates reports whether d has bit patterns that must be rejected.
func (d *Descriptor) Validates() bool {
	return d.Check != nil
}

// TagWidth returns the discriminant width in bytes, or 0 for types that
// are not tagged unions.
func (d *Descriptor) TagWidth() int {
	if d.Tag == nil {
		return 0
	}
	return int(d.Tag.Size)
}

func (d *Descriptor) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (d *Descriptor) VariantByName(name string) (Variant, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// VariantByDiscriminant returns the first variant whose discriminant, as
// stored in the tag, equals tag.
func (d *Descriptor) VariantByDiscriminant(tag uint64) (Variant, bool) {
	for _, v := range d.Variants {
		if v.Discriminant == tag {
			return v, true
		}
	}
	return Variant{}, false
}

// String renders a layout summary: one header line, then one line per
// field or variant.
func (d *Descriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s size=%d align=%d", d.Name, d.Class, d.Size, d.Align)
	switch {
	case d.Nicheless:
		b.WriteString(" nicheless")
	case d.OneNiche:
		b.WriteString(" one-niche")
	}

	switch d.Class {
	case ClassStruct, ClassTransparent:
		writeFields(&b, d.Fields, "  ")
	case ClassArray:
		if d.Elem != nil {
			fmt.Fprintf(&b, "\n  [%d]%s", d.Len, d.Elem.Name)
		}
	case ClassTaggedUnion:
		for _, v := range d.Variants {
			fmt.Fprintf(&b, "\n  %s = %d", v.Name, v.Discriminant)
			writeFields(&b, v.Fields, "    ")
		}
	case ClassScalar:
		if !d.Valid.IsEmpty() {
			b.WriteString("\n  valid ")
			b.WriteString(d.Valid.String())
		}
	}
	return b.String()
}

func writeFields(b *strings.Builder, fields []Field, indent string) {
	for _, f := range fields {
		if f.Padding {
			fmt.Fprintf(b, "\n%s+%d %s padding[%d]", indent, f.Offset, f.Name, f.Size)
			continue
		}
		typ := "?"
		if f.Type != nil {
			typ = f.Type.Name
		}
		fmt.Fprintf(b, "\n%s+%d %s %s", indent, f.Offset, f.Name, typ)
		if f.Universe != nil && f.Universe.Name() != "" {
			fmt.Fprintf(b, " from %s", f.Universe)
		}
	}
}
