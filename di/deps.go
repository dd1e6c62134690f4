package di

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Overrides maps declared dependency keys to instance-specific values.
type Overrides map[DependencyKey]any

// Deps is the per-instance override set. Embed it in a struct to make that
// struct injectable:
//
//	type Notifier struct {
//		di.Deps
//	}
//
//	func NewNotifier(overrides di.Overrides) (*Notifier, error) {
//		n := &Notifier{}
//		if err := n.InitDependencies(NotifierClass, overrides); err != nil {
//			return nil, err
//		}
//		return n, nil
//	}
//
// The zero value is bound to no class; every read on it fails with
// *UnresolvedDependencyError. After InitDependencies succeeds a Deps is never
// mutated again and is safe for concurrent reads.
type Deps struct {
	class       *Class
	overrides   Overrides
	initialized bool
}

// Injectable is implemented by every struct that embeds Deps.
type Injectable interface {
	dependencies() *Deps
}

func (d *Deps) dependencies() *Deps { return d }

// Of returns the Deps embedded in v.
func Of(v Injectable) *Deps { return v.dependencies() }

// InitDependencies validates overrides against class and binds them to this
// instance only.
//
// It fails, binding nothing, when:
//   - class is nil (ErrNilClass)
//   - the instance was already initialized (ErrAlreadyInitialized)
//   - a dependency declared without default is absent from overrides
//     (*MissingImplementationError, first such key in declaration order)
//   - overrides names a key the class does not declare (*UndeclaredDependencyError)
//
// A nil or empty overrides map is legal when every dependency has a default.
func (d *Deps) InitDependencies(class *Class, overrides Overrides) error {
	if class == nil {
		return ErrNilClass
	}
	if d.initialized {
		return ErrAlreadyInitialized
	}

	effective := class.Effective()
	declared := make(map[DependencyKey]struct{}, len(effective))
	for _, decl := range effective {
		declared[decl.Key] = struct{}{}
		if decl.HasDefault() {
			continue
		}
		if _, ok := overrides[decl.Key]; !ok {
			return &MissingImplementationError{Key: decl.Key, Class: class.name}
		}
	}

	// sorted so the reported key does not depend on map iteration order
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		if _, ok := declared[k]; !ok {
			return &UndeclaredDependencyError{Key: k, Class: class.name, Op: OpOverride}
		}
	}

	d.class = class
	d.overrides = maps.Clone(overrides)
	d.initialized = true
	return nil
}

// Class returns the class the instance is bound to, or nil.
func (d *Deps) Class() *Class {
	if d == nil {
		return nil
	}
	return d.class
}

// Initialized reports whether InitDependencies has succeeded on d.
func (d *Deps) Initialized() bool { return d != nil && d.initialized }

// Overridden reports whether key has an instance-level override.
func (d *Deps) Overridden(key DependencyKey) bool {
	if d == nil {
		return false
	}
	_, ok := d.overrides[key]
	return ok
}

// Overrides returns a copy of the bound overrides. A nil Deps has none.
func (d *Deps) Overrides() Overrides {
	if d == nil {
		return Overrides{}
	}
	out := make(Overrides, len(d.overrides))
	maps.Copy(out, d.overrides)
	return out
}

// Resolve returns the value of key for this instance.
//
// A bound override wins. Otherwise the nearest class default is invoked (on
// every call; results are not cached). Keys with neither fail with
// *UnresolvedDependencyError, keys the class does not declare with
// *UndeclaredDependencyError, and failing defaults with *FactoryError.
func (d *Deps) Resolve(key DependencyKey) (any, error) {
	if d == nil || d.class == nil {
		return nil, &UnresolvedDependencyError{Key: key}
	}
	if v, ok := d.overrides[key]; ok {
		return v, nil
	}

	decl, ok := d.class.Lookup(key)
	if !ok {
		return nil, &UndeclaredDependencyError{Key: key, Class: d.class.name, Op: OpResolve}
	}
	if !decl.HasDefault() {
		return nil, &UnresolvedDependencyError{Key: key, Class: d.class.name}
	}
	return invoke(key, decl.Factory)
}

// invoke runs a default factory, converting panics into *FactoryError.
func invoke(key DependencyKey, f Factory) (val any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = &FactoryError{Key: key, Cause: fmt.Errorf("%w: %v", ErrFactoryPanic, rec)}
		}
	}()

	v, ferr := f()
	if ferr != nil {
		return nil, &FactoryError{Key: key, Cause: ferr}
	}
	return v, nil
}

// Get resolves key on d and asserts the result to T.
func Get[T any](d *Deps, key DependencyKey) (T, error) {
	var zero T

	raw, err := d.Resolve(key)
	if err != nil {
		return zero, err
	}
	if raw == nil {
		// an explicit nil override is a valid value only for nillable T
		if nillable(reflect.TypeFor[T]()) {
			return zero, nil
		}
		return zero, &WrongTypeDependencyError{Key: key, GotType: "<nil>"}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &WrongTypeDependencyError{Key: key, GotType: fmt.Sprintf("%T", raw)}
	}
	return v, nil
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// MustGet is Get that panics on error.
func MustGet[T any](d *Deps, key DependencyKey) T {
	v, err := Get[T](d, key)
	if err != nil {
		panic(err)
	}
	return v
}

// New allocates a T, initializes its embedded Deps against class and returns it.
// It is the construction path for types that do not need their own constructor.
//
//	n, err := di.New[Notifier](NotifierClass, di.Overrides{"sender": s})
func New[T any, P interface {
	*T
	Injectable
}](class *Class, overrides Overrides) (P, error) {
	p := P(new(T))
	if err := p.dependencies().InitDependencies(class, overrides); err != nil {
		return nil, err
	}
	return p, nil
}

// New returns a standalone, initialized Deps for c.
func (c *Class) New(overrides Overrides) (*Deps, error) {
	d := &Deps{}
	if err := d.InitDependencies(c, overrides); err != nil {
		return nil, err
	}
	return d, nil
}

// Unchecked returns a Deps bound to c with no overrides and without running
// any validation. Defaults resolve normally; dependencies without a default fail
// with *UnresolvedDependencyError on read.
func (c *Class) Unchecked() *Deps {
	return &Deps{class: c}
}
