package niche

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/niche/errors"
)

// Registry holds the descriptors and validity pairings known to a program.
// It is safe for concurrent use. Derivations are serialized; lookups are
// lock-free once a pairing has been resolved.
//
// A nil *Registry passed to any function in this package means Default().
type Registry struct {
	logger      *zap.Logger
	descs       sync.Map // reflect.Type -> *Descriptor
	pairs       sync.Map // pairKey -> CheckFunc
	mu          sync.Mutex
	trackRanges bool
	hostLayout  bool
}

type pairKey struct {
	subset   reflect.Type
	universe reflect.Type
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for derivation and rejection events.
// Without it the registry logs through Logger().
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithRangeTracking controls whether validation errors carry the full set
// of valid ranges. It is on by default.
func WithRangeTracking(on bool) RegistryOption {
	return func(r *Registry) {
		r.trackRanges = on
	}
}

// WithHostLayout requires every derived struct to carry a
// structs.HostLayout marker field.
func WithHostLayout(on bool) RegistryOption {
	return func(r *Registry) {
		r.hostLayout = on
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{trackRanges: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func resolve(r *Registry) *Registry {
	if r == nil {
		return Default()
	}
	return r
}

func (r *Registry) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// Describe returns the descriptor of t. Scalars, arrays, zero-size structs
// and the wrapper types of this package are described on first use; other
// structs must have been derived.
func (r *Registry) Describe(t reflect.Type) (*Descriptor, error) {
	r = resolve(r)
	if d, ok := r.descs.Load(t); ok {
		return d.(*Descriptor), nil
	}
	d, err := r.describe(t)
	if err != nil {
		return nil, err
	}
	actual, _ := r.descs.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

// Lookup returns the check deciding whether a universe value may be
// reinterpreted as subset. The returned function is never nil.
func (r *Registry) Lookup(subset, universe reflect.Type) (CheckFunc, error) {
	c, err := resolve(r).lookup(subset, universe)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return acceptAll, nil
	}
	return c, nil
}

func acceptAll(View) error { return nil }

func (r *Registry) lookup(subset, universe reflect.Type) (CheckFunc, error) {
	key := pairKey{subset: subset, universe: universe}
	if c, ok := r.pairs.Load(key); ok {
		return c.(CheckFunc), nil
	}
	c, err := r.resolvePair(subset, universe)
	if err != nil {
		return nil, err
	}
	actual, _ := r.pairs.LoadOrStore(key, c)
	return actual.(CheckFunc), nil
}

func (r *Registry) resolvePair(s, u reflect.Type) (CheckFunc, error) {
	if s.Size() != u.Size() || s.Align() != u.Align() {
		return nil, errors.New(errors.PhaseConvert, errors.KindLayoutMismatch).
			From(u.String()).
			Into(s.String()).
			Detail("size %d align %d, universe size %d align %d", s.Size(), s.Align(), u.Size(), u.Align()).
			Build()
	}

	if s == u {
		d, err := r.Describe(s)
		if err != nil {
			return nil, err
		}
		return d.Check, nil
	}

	if w, ok := wrapperOf(u); ok {
		switch {
		case w.kind == wrapMaybeInvalid && w.inner == s:
			d, err := r.Describe(s)
			if err != nil {
				return nil, err
			}
			return d.Check, nil
		case w.kind == wrapOption && w.inner == s:
			if _, err := r.Describe(u); err != nil {
				return nil, err
			}
			return foundNoneCheck(u.String(), s.String()), nil
		}
	}

	if w, ok := wrapperOf(s); ok {
		switch {
		case w.kind == wrapNonZero && w.inner == u:
			return nonZeroCheck(u.String(), s.String(), int(s.Size()), r.trackRanges), nil
		case w.kind == wrapNonNull && u.Kind() == reflect.Uintptr:
			return nullCheck(u.String(), s.String()), nil
		}
	}

	if s.Kind() == reflect.Bool && u.Kind() == reflect.Uint8 {
		return boolCheck(u.String(), s.String(), r.trackRanges), nil
	}

	return nil, errors.NoPairing(u.String(), s.String())
}

// register stores an explicit pairing. Pairings are immutable once set.
func (r *Registry) register(s, u reflect.Type, c CheckFunc) error {
	if _, loaded := r.pairs.LoadOrStore(pairKey{subset: s, universe: u}, c); loaded {
		return errors.Duplicate([]string{s.String()}, "pairing with universe %s is already declared", u)
	}
	return nil
}

// current returns the registered descriptor for d's Go type, which may
// have been replaced by a marker declaration after d was captured.
func (r *Registry) current(d *Descriptor) *Descriptor {
	if d == nil || d.GoType == nil {
		return d
	}
	if cur, ok := r.descs.Load(d.GoType); ok {
		return cur.(*Descriptor)
	}
	return d
}

// Must panics if err is non-nil and returns v otherwise. It is meant for
// package-level derivations.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func maybeInvalidName(name string) string {
	return "niche.MaybeInvalid[" + name + "]"
}
