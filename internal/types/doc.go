// Package types defines the layout descriptors shared by the derivation
// engine and the schema adapters.
//
// A Descriptor records everything a validator needs about one type: its
// layout class, size and alignment, member offsets, variant discriminants
// and the check function that decides whether a byte image is a valid
// value. Descriptors are built once and read concurrently afterwards.
//
// # Key Types
//
//   - Descriptor: layout and validity of one type
//   - Class: layout class (scalar, struct, tagged union, ...)
//   - CheckFunc: validator over a region.View
//
// This package is internal to niche; the root package re-exports it.
package types
