package wasmmem

import (
	"encoding/binary"
	"reflect"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/niche"
	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/region"
)

var hostLittle = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// Memory adapts a wazero api.Memory to niche validation.
type Memory struct {
	mem api.Memory
	reg *niche.Registry
}

// New wraps mem. A nil reg means niche.Default().
func New(mem api.Memory, reg *niche.Registry) *Memory {
	if mem == nil {
		return nil
	}
	if reg == nil {
		reg = niche.Default()
	}
	return &Memory{mem: mem, reg: reg}
}

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// Registry returns the registry loads are validated against.
func (m *Memory) Registry() *niche.Registry {
	return m.reg
}

// View returns a little-endian window over [offset, offset+length). The
// window aliases guest memory and is invalidated by memory growth.
func (m *Memory) View(offset, length uint32) (niche.View, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return niche.View{}, errors.OutOfBounds(errors.PhaseLoad, uint64(offset), uint64(length), uint64(m.mem.Size()))
	}
	return region.OfBytes(data, binary.LittleEndian), nil
}

// Validate runs d's check over the bytes at offset.
func (m *Memory) Validate(d *niche.Descriptor, offset uint32) error {
	if err := m.aligned(offset, d.Align); err != nil {
		return err
	}
	v, err := m.View(offset, uint32(d.Size))
	if err != nil {
		return err
	}
	if d.Check == nil {
		return nil
	}
	return d.Check(v)
}

// LoadMaybe copies the image of an S at offset without validating it.
func LoadMaybe[S any](m *Memory, offset uint32) (niche.MaybeInvalid[S], error) {
	var zero niche.MaybeInvalid[S]
	t := reflect.TypeFor[S]()
	if err := m.typed(t, offset); err != nil {
		return zero, err
	}
	data, ok := m.mem.Read(offset, uint32(t.Size()))
	if !ok {
		return zero, errors.OutOfBounds(errors.PhaseLoad, uint64(offset), uint64(t.Size()), uint64(m.mem.Size()))
	}
	return niche.FromBytes[S](data)
}

// Load copies and validates the S at offset.
func Load[S any](m *Memory, offset uint32) (S, error) {
	mi, err := LoadMaybe[S](m, offset)
	if err != nil {
		var zero S
		return zero, err
	}
	return niche.TryFrom[S](m.reg, mi)
}

// Store writes the image of s at offset.
func Store[S any](m *Memory, offset uint32, s S) error {
	t := reflect.TypeFor[S]()
	if err := m.typed(t, offset); err != nil {
		return err
	}
	// Describe rejects types holding Go pointers.
	if _, err := m.reg.Describe(t); err != nil {
		return err
	}
	if !m.mem.Write(offset, niche.New(s).Bytes()) {
		return errors.OutOfBounds(errors.PhaseLoad, uint64(offset), uint64(t.Size()), uint64(m.mem.Size()))
	}
	return nil
}

func (m *Memory) typed(t reflect.Type, offset uint32) error {
	if !hostLittle {
		return errors.Unsupported(errors.PhaseLoad, []string{t.String()}, "typed access to linear memory on a big-endian host")
	}
	return m.aligned(offset, uintptr(t.Align()))
}

func (m *Memory) aligned(offset uint32, align uintptr) error {
	if align > 1 && uintptr(offset)%align != 0 {
		return errors.Misaligned(errors.PhaseLoad, uint64(offset), uint64(align))
	}
	return nil
}
