package types

// Class is the layout class of a type. It is declared by the code that
// builds the descriptor and verified against the actual layout.
type Class uint8

const (
	ClassScalar Class = iota
	ClassStruct
	ClassTaggedUnion
	ClassTransparent
	ClassOpaque
	ClassArray
)

var classNames = [...]string{
	ClassScalar:      "scalar",
	ClassStruct:      "struct",
	ClassTaggedUnion: "tagged-union",
	ClassTransparent: "transparent",
	ClassOpaque:      "opaque",
	ClassArray:       "array",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// IsAggregate reports whether values of the class are made of members that
// are validated independently.
func (c Class) IsAggregate() bool {
	switch c {
	case ClassStruct, ClassTaggedUnion, ClassTransparent, ClassArray:
		return true
	default:
		return false
	}
}
