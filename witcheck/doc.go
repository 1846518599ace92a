// Package witcheck compiles WIT types into niche descriptors.
//
// A compiled descriptor has no Go type. It describes the canonical ABI
// image of a WIT value in linear memory and validates it: bool must be 0
// or 1, char must be a Unicode scalar value, enum, variant, option and
// result discriminants must name a case, flags may not set unused bits
// and own/borrow handles may not be 0. Numeric types are nicheless.
//
// Types that point elsewhere in memory (string, list) cannot be checked
// from their inline image and are rejected.
//
//	schema, err := witcheck.Decode(f) // wasm-tools component wit --json
//	d, err := schema.Descriptor("point")
//	err = d.Check(view)
//
// Descriptors are built with the registry's Build, so a compiled record or
// variant reports its first invalid member exactly like a derived Go type.
package witcheck
