package witcheck

import (
	"io"
	"sort"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/niche"
	"github.com/wippyai/niche/errors"
)

// Schema is a decoded WIT package with its named type definitions.
type Schema struct {
	compiler *Compiler
	resolve  *wit.Resolve
	named    map[string]*wit.TypeDef
}

// Decode reads the JSON form of a WIT resolve, as printed by
// `wasm-tools component wit --json`.
func Decode(r io.Reader, reg *niche.Registry) (*Schema, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, errors.ParseFailed("wit json", err)
	}
	return NewSchema(res, reg), nil
}

// NewSchema indexes the named type definitions of res. When two
// definitions share a name the first one wins.
func NewSchema(res *wit.Resolve, reg *niche.Registry) *Schema {
	s := &Schema{
		compiler: NewCompiler(reg),
		resolve:  res,
		named:    make(map[string]*wit.TypeDef),
	}
	for _, td := range res.TypeDefs {
		if td.Name == nil {
			continue
		}
		if _, dup := s.named[*td.Name]; !dup {
			s.named[*td.Name] = td
		}
	}
	return s
}

// Names returns the named type definitions in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.named))
	for n := range s.named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptor compiles the named type definition, or the primitive type
// with that name, such as "char".
func (s *Schema) Descriptor(name string) (*niche.Descriptor, error) {
	if td, ok := s.named[name]; ok {
		return s.compiler.Compile(td)
	}
	t, err := wit.ParseType(name)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseParse, "type", name)
	}
	return s.compiler.Compile(t)
}
