package errors

import (
	"fmt"
	"strings"

	"github.com/wippyai/niche/bitpattern"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDerive   Phase = "derive"   // type registration and layout proofs
	PhaseValidate Phase = "validate" // bit-pattern validation
	PhaseConvert  Phase = "convert"  // reinterpretation entry points
	PhaseLoad     Phase = "load"     // reading foreign memory
	PhaseParse    Phase = "parse"    // schema documents
)

// Kind categorizes the error
type Kind string

// Validation kinds. This set is closed except for KindDelegated, which
// carries causes from externally supplied validators.
const (
	KindNullPointer         Kind = "null_pointer"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindInvalidBitPattern   Kind = "invalid_bit_pattern"
	KindFoundNone           Kind = "found_none"
	KindDelegated           Kind = "delegated"
)

// Derivation and adapter kinds.
const (
	KindUnsupported    Kind = "unsupported"
	KindLayoutMismatch Kind = "layout_mismatch"
	KindNotNicheless   Kind = "not_nicheless"
	KindUninhabited    Kind = "uninhabited"
	KindNotFound       Kind = "not_found"
	KindDuplicate      Kind = "duplicate"
	KindTypeMismatch   Kind = "type_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindMisaligned     Kind = "misaligned"
	KindInvalidInput   Kind = "invalid_input"
)

// Error is the structured error type used throughout the module.
//
// Validation errors are built once at the failing leaf and returned
// unchanged by every enclosing struct or variant check. From and Into name
// the universe and subset types of the pairing that failed.
type Error struct {
	Value  any
	Cause  error
	Bits   bitpattern.Pattern
	Valid  bitpattern.Ranges
	Phase  Phase
	Kind   Kind
	From   string
	Into   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.From != "" || e.Into != "" {
		b.WriteString(": ")
		switch {
		case e.From != "" && e.Into != "":
			b.WriteString("from ")
			b.WriteString(e.From)
			b.WriteString(" into ")
			b.WriteString(e.Into)
		case e.From != "":
			b.WriteString("from ")
			b.WriteString(e.From)
		default:
			b.WriteString("into ")
			b.WriteString(e.Into)
		}
	}

	if d := e.describe(); d != "" {
		if e.From != "" || e.Into != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(d)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) describe() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch e.Kind {
	case KindNullPointer:
		return "expected a pointer to not be null"
	case KindFoundNone:
		return "a value contained none"
	case KindInvalidDiscriminant:
		return "invalid enum discriminant " + e.Bits.String()
	case KindInvalidBitPattern:
		if e.Valid.IsEmpty() {
			return "invalid bit-pattern " + e.Bits.String()
		}
		return "invalid bit-pattern " + e.Bits.String() + " not in the ranges " + e.Valid.String()
	}
	return ""
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// From sets the universe type name
func (b *Builder) From(t string) *Builder {
	b.err.From = t
	return b
}

// Into sets the subset type name
func (b *Builder) Into(t string) *Builder {
	b.err.Into = t
	return b
}

// Bits sets the observed bit pattern
func (b *Builder) Bits(p bitpattern.Pattern) *Builder {
	b.err.Bits = p
	return b
}

// Valid sets the ranges of acceptable bit patterns
func (b *Builder) Valid(r bitpattern.Ranges) *Builder {
	b.err.Valid = r
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Validation constructors

// NullPointer creates an error for a null handle where non-null is required
func NullPointer(from, into string) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindNullPointer,
		From:  from,
		Into:  into,
	}
}

// InvalidDiscriminant creates an error for a tag matching no variant
func InvalidDiscriminant(from, into string, tag bitpattern.Pattern) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindInvalidDiscriminant,
		From:  from,
		Into:  into,
		Bits:  tag,
	}
}

// InvalidBitPattern creates an error for bits outside the valid ranges.
// valid may be empty when range tracking is disabled.
func InvalidBitPattern(from, into string, bits bitpattern.Pattern, valid bitpattern.Ranges) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindInvalidBitPattern,
		From:  from,
		Into:  into,
		Bits:  bits,
		Valid: valid,
	}
}

// FoundNone creates an error for an empty optional where a value is required
func FoundNone(from, into string) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindFoundNone,
		From:  from,
		Into:  into,
	}
}

// Delegated wraps a cause returned by an externally supplied validator
func Delegated(from, into string, cause error) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindDelegated,
		From:  from,
		Into:  into,
		Cause: cause,
	}
}

// Derivation constructors

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Path:   path,
		Detail: what,
	}
}

// LayoutMismatch creates an error for two layouts that should be identical
func LayoutMismatch(path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseDerive,
		Kind:   KindLayoutMismatch,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// NotNicheless creates an error for a type that cannot be declared nicheless
func NotNicheless(path []string, goType, reason string) *Error {
	return &Error{
		Phase:  PhaseDerive,
		Kind:   KindNotNicheless,
		Path:   path,
		Into:   goType,
		Detail: reason,
	}
}

// Uninhabited creates an error for a type with no values
func Uninhabited(path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseDerive,
		Kind:   KindUninhabited,
		Path:   path,
		Into:   goType,
		Detail: "type has no values",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NoPairing creates an error for a subset/universe pair nobody declared
func NoPairing(from, into string) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindNotFound,
		From:   from,
		Into:   into,
		Detail: "no validity pairing declared",
	}
}

// Duplicate creates an error for a repeated declaration
func Duplicate(path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseDerive,
		Kind:   KindDuplicate,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("got %s, want %s", got, want),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length, size uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) out of bounds (size %d)", offset, offset+length, size),
		Value:  offset,
	}
}

// Misaligned creates an error for an address that violates alignment
func Misaligned(phase Phase, offset, align uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMisaligned,
		Detail: fmt.Sprintf("offset %d is not aligned to %d", offset, align),
		Value:  offset,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// IsValidation reports whether err is a bit-pattern validation failure as
// opposed to a misuse or derivation error.
func IsValidation(err error) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	return e.Phase == PhaseValidate
}
