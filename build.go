package niche

import (
	"fmt"

	"github.com/wippyai/niche/errors"
)

// member is one validated field of a compiled check.
type member struct {
	check CheckFunc
	off   uintptr
	size  uintptr
}

// Build compiles d.Check from the checks of d's members. Members must
// already be built; scalar and opaque descriptors are left unchanged.
//
// Build is shared by struct and enum derivation and by schema adapters
// that construct descriptors without Go types.
func (r *Registry) Build(d *Descriptor) error {
	r = resolve(r)
	path := []string{d.Name}

	switch d.Class {
	case ClassScalar, ClassOpaque:
		return nil

	case ClassStruct, ClassTransparent:
		for _, f := range d.Fields {
			if f.Offset+f.Size > d.Size {
				return errors.LayoutMismatch(append(path, f.Name), "field [%d, %d) outside %d bytes", f.Offset, f.Offset+f.Size, d.Size)
			}
		}
		d.Check = fieldsCheck(members(d.Fields))
		return nil

	case ClassArray:
		if d.Elem == nil {
			return errors.InvalidInput(errors.PhaseDerive, fmt.Sprintf("array %s has no element type", d.Name))
		}
		d.Check = arrayCheck(d.Elem, d.Len)
		return nil

	case ClassTaggedUnion:
		check, err := taggedCheck(d)
		if err != nil {
			return err
		}
		d.Check = check
		return nil
	}

	return errors.Unsupported(errors.PhaseDerive, path, "layout class "+d.Class.String())
}

func members(fields []Field) []member {
	var ms []member
	for _, f := range fields {
		if f.Padding {
			continue
		}
		c := f.Check
		if c == nil && f.Type != nil {
			c = f.Type.Check
		}
		if c == nil {
			continue
		}
		ms = append(ms, member{check: c, off: f.Offset, size: f.Size})
	}
	return ms
}

// fieldsCheck validates members in declaration order and returns the first
// failure unchanged.
func fieldsCheck(ms []member) CheckFunc {
	if len(ms) == 0 {
		return nil
	}
	return func(v View) error {
		for i := range ms {
			if err := ms[i].check(v.Sub(ms[i].off, ms[i].size)); err != nil {
				return err
			}
		}
		return nil
	}
}

func arrayCheck(elem *Descriptor, n int) CheckFunc {
	check := elem.Check
	if check == nil || n == 0 {
		return nil
	}
	size := elem.Size
	return func(v View) error {
		for i := 0; i < n; i++ {
			if err := check(v.Sub(uintptr(i)*size, size)); err != nil {
				return err
			}
		}
		return nil
	}
}

type arm struct {
	members []member
	disc    uint64
}

func taggedCheck(d *Descriptor) (CheckFunc, error) {
	path := []string{d.Name}

	if len(d.Variants) == 0 {
		return nil, errors.Uninhabited(path, d.Name)
	}
	width := d.TagWidth()
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, errors.Unsupported(errors.PhaseDerive, path, fmt.Sprintf("%d-byte discriminant", width))
	}
	if uintptr(width) > d.Size {
		return nil, errors.LayoutMismatch(path, "discriminant of %d bytes in %d-byte value", width, d.Size)
	}

	seen := make(map[uint64]string, len(d.Variants))
	arms := make([]arm, len(d.Variants))
	for i, v := range d.Variants {
		if prev, dup := seen[v.Discriminant]; dup {
			return nil, errors.Duplicate(append(path, v.Name), "discriminant %d already used by %s", v.Discriminant, prev)
		}
		seen[v.Discriminant] = v.Name
		for _, f := range v.Fields {
			if f.Offset < uintptr(width) && !f.Padding && f.Size > 0 {
				return nil, errors.LayoutMismatch(append(path, v.Name, f.Name), "payload at offset %d overlaps the discriminant", f.Offset)
			}
			if f.Offset+f.Size > d.Size {
				return nil, errors.LayoutMismatch(append(path, v.Name, f.Name), "payload [%d, %d) outside %d bytes", f.Offset, f.Offset+f.Size, d.Size)
			}
		}
		arms[i] = arm{disc: v.Discriminant, members: members(v.Fields)}
	}

	from, into := maybeInvalidName(d.Name), d.Name
	return func(v View) error {
		tag := v.Uint(0, width)
		for i := range arms {
			if arms[i].disc != tag {
				continue
			}
			ms := arms[i].members
			for j := range ms {
				if err := ms[j].check(v.Sub(ms[j].off, ms[j].size)); err != nil {
					return err
				}
			}
			return nil
		}
		return errors.InvalidDiscriminant(from, into, v.Pattern(0, uintptr(width)))
	}, nil
}
