package di

import (
	"errors"
	"fmt"
)

// Registry supplies override values at construction time.
//
// It is intentionally:
// - read-only
// - side effect free
// - construction-time only
//
// Expected usage:
//
//	val, ok, err := reg.Resolve(cfg, "sender")
type Registry interface {
	Resolve(cfg any, key DependencyKey) (val any, ok bool, err error)
}

// ErrRegistryPanic is returned if a registry implementation panics internally.
var ErrRegistryPanic = errors.New("registry: panic during Resolve")

// MapRegistry is a simple in-memory registry.
// It ignores cfg (but keeps it in the signature so future registries can use it).
type MapRegistry struct {
	items map[DependencyKey]any
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[DependencyKey]any{}}
}

// Provide stores a value under a key and returns the registry for chaining.
func (r *MapRegistry) Provide(key DependencyKey, val any) *MapRegistry {
	r.items[key] = val
	return r
}

// Resolve implements Registry and converts panics into errors.
func (r *MapRegistry) Resolve(_ any, key DependencyKey) (val any, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			ok = false
			err = fmt.Errorf("%w: %v", ErrRegistryPanic, rec)
		}
	}()

	v, ok := r.items[key]
	return v, ok, nil
}

// Get returns the value if present (no panic).
func (r *MapRegistry) Get(key DependencyKey) (any, bool) {
	v, ok := r.items[key]
	return v, ok
}

// MustGet returns the value or panics with a helpful message.
func (r *MapRegistry) MustGet(key DependencyKey) any {
	v, ok := r.items[key]
	if !ok {
		panic(fmt.Errorf("di: registry missing key %q", key))
	}
	return v
}

// OverridesFrom collects overrides for class from reg.
//
// Only keys in the class's effective declaration set are queried, so the result
// never contains undeclared keys. Keys the registry does not know are skipped;
// the first registry error aborts collection.
func OverridesFrom(class *Class, reg Registry, cfg any) (Overrides, error) {
	if class == nil {
		return nil, ErrNilClass
	}
	out := Overrides{}
	if reg == nil {
		return out, nil
	}
	for _, key := range class.Keys() {
		val, ok, err := reg.Resolve(cfg, key)
		if err != nil {
			return nil, fmt.Errorf("di: registry resolve %q: %w", key, err)
		}
		if ok {
			out[key] = val
		}
	}
	return out, nil
}

// NewFrom returns an initialized Deps for c whose overrides come from reg.
func (c *Class) NewFrom(reg Registry, cfg any) (*Deps, error) {
	overrides, err := OverridesFrom(c, reg, cfg)
	if err != nil {
		return nil, err
	}
	return c.New(overrides)
}
