// Package errors provides structured error types for the niche library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Validation errors additionally carry the observed bit pattern, the valid
// ranges (when range tracking is enabled) and the names of the universe
// ("from") and subset ("into") types of the failing pairing.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDerive, errors.KindLayoutMismatch).
//		Path("Packet", "Len").
//		Detail("offset %d, shadow offset %d", 4, 8).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NullPointer("uintptr", "niche.NonNull[Device]")
//	err := errors.InvalidDiscriminant(from, into, bitpattern.FromUint64(7, 1))
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on phase and kind only, so a template error works as a sentinel:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindNullPointer}) { ... }
package errors
