package niche

import (
	"github.com/wippyai/niche/internal/region"
	"github.com/wippyai/niche/internal/types"
)

type (
	Descriptor = types.Descriptor
	Field      = types.Field
	Variant    = types.Variant
	Class      = types.Class
	CheckFunc  = types.CheckFunc
	View       = region.View
)

const (
	ClassScalar      = types.ClassScalar
	ClassStruct      = types.ClassStruct
	ClassTaggedUnion = types.ClassTaggedUnion
	ClassTransparent = types.ClassTransparent
	ClassOpaque      = types.ClassOpaque
	ClassArray       = types.ClassArray
)

// Integer is the set of integer types NonZero can wrap.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		Uint128 | Int128
}

// Scalar is the set of nicheless scalar types: every bit pattern of the
// right width is a value.
type Scalar interface {
	Integer | ~float32 | ~float64 | ~complex64 | ~complex128
}

// Uint128 is an unsigned 128-bit integer stored low word first.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// Int128 is a two's complement 128-bit integer stored low word first.
type Int128 struct {
	Lo uint64
	Hi int64
}
