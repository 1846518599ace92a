// Package niche reinterprets untrusted bit patterns as strongly typed Go
// values after proving, field by field, that the bits are valid.
//
// Values crossing a foreign boundary (cgo, WebAssembly linear memory,
// device buffers) arrive as raw bytes that may not be a well-defined value
// of the Go type they are supposed to hold: a zero where a non-zero handle
// is required, a tag that names no variant, a bool that is neither 0 nor 1.
// niche pairs each such "subset" type with a "universe" type of identical
// layout in which every bit pattern is valid, and generates the check that
// decides whether a universe value may be reinterpreted as the subset.
//
// # Architecture Overview
//
//	niche/               Registry, wrappers, derivation and conversions
//	├── bitpattern/      Pattern and Ranges used in diagnostics
//	├── errors/          Structured error types
//	├── wasmmem/         Loading validated values from wazero linear memory
//	├── witcheck/        Validators for WIT types (canonical ABI layout)
//	└── cmd/nichecheck/  CLI validating hex images against WIT types
//
// # Quick Start
//
// Derive a validator once, typically at init:
//
//	type Header struct {
//		Len   niche.NonZero[uint32]
//		Ready bool
//		_     [3]byte
//	}
//
//	var _ = niche.Must(niche.DeriveStruct[Header](nil))
//
// Then validate and reinterpret untrusted bits:
//
//	raw, err := niche.FromBytes[Header](buf)
//	if err != nil {
//	    return err
//	}
//	h, err := niche.TryFrom[Header](nil, raw)
//	if err != nil {
//	    return err // e.g. invalid_bit_pattern into niche.NonZero[uint32]
//	}
//
// # Layout Trust Boundary
//
// Every participating type must be free of Go pointers; foreign addresses
// are carried as uintptr or NonNull. Derivation compares the layout of the
// synthesized universe shadow, the Go compiler's layout and the C layout
// of the same members, and fails on any difference.
//
// # Validity Pairings
//
// The pairings known without derivation are:
//
//   - (T, MaybeInvalid[T]) for every described T
//   - (T, T) using T's own check
//   - (NonZero[T], T) rejecting zero
//   - (NonNull[T], uintptr) rejecting null
//   - (T, Option[T]) for one-niche T, rejecting none
//   - (bool, uint8) rejecting values above 1
//
// Others are declared with Implement or produced by DeriveStruct and
// DeriveEnum.
package niche
