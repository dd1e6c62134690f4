package di

import (
	"fmt"
	"sync"
	"unicode"
)

// DependencyKey names a dependency within a class's declaration set.
//
// Keys are compared for exact, case-sensitive equality. They are typically
// defined as package-level constants to avoid typos.
//
// Example:
//
//	const (
//	  KeyClock  di.DependencyKey = "clock"
//	  KeySender di.DependencyKey = "sender"
//	)
type DependencyKey string

// Key converts a string into a DependencyKey.
func Key(name string) DependencyKey { return DependencyKey(name) }

// Valid reports whether k is a well-formed key: a non-empty identifier made of
// letters, digits and underscores, not starting with a digit.
func (k DependencyKey) Valid() bool {
	if k == "" {
		return false
	}
	for i, r := range string(k) {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// Factory produces the default value of a dependency. It is invoked lazily, on
// every read that is not served by an override.
type Factory func() (any, error)

// Value returns a Factory that always yields v.
func Value(v any) Factory {
	return func() (any, error) { return v, nil }
}

// Func adapts an infallible typed constructor into a Factory.
func Func[T any](fn func() T) Factory {
	if fn == nil {
		return nil
	}
	return func() (any, error) { return fn(), nil }
}

// FuncErr adapts a fallible typed constructor into a Factory.
func FuncErr[T any](fn func() (T, error)) Factory {
	if fn == nil {
		return nil
	}
	return func() (any, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Declaration is one declared dependency: its key and optional default factory.
type Declaration struct {
	Key     DependencyKey
	Factory Factory
}

// HasDefault reports whether the declaration carries a default factory.
func (d Declaration) HasDefault() bool { return d.Factory != nil }

// Class is the declaration set shared by every instance of one Go type.
//
// Classes are usually built once in a package-level var and extended to model
// single inheritance:
//
//	var BaseClass = di.NewClass("Base").
//		Declare("clock", di.Value(time.Now)).
//		Require("sender")
//
//	var SMSClass = BaseClass.Extend("SMS").
//		Declare("carrier", di.Value("default"))
//
// A subclass sees every ancestor declaration; its own declarations are never
// visible on the ancestor or on sibling subclasses. Effective declarations are
// computed on every call, so a declaration added to an ancestor later is still
// seen by existing subclasses.
type Class struct {
	name   string
	parent *Class

	mu    sync.RWMutex
	order []DependencyKey
	own   map[DependencyKey]Declaration
}

// NewClass creates a root class with no declarations.
func NewClass(name string) *Class {
	return &Class{name: name, own: make(map[DependencyKey]Declaration)}
}

// Extend creates a subclass of c.
func (c *Class) Extend(name string) *Class {
	sub := NewClass(name)
	sub.parent = c
	return sub
}

// Name returns the class name used in error messages.
func (c *Class) Name() string { return c.name }

// Parent returns the parent class, or nil for a root class.
func (c *Class) Parent() *Class { return c.parent }

// String implements fmt.Stringer.
func (c *Class) String() string {
	return fmt.Sprintf("di.Class(%s)", c.name)
}

// Declare registers key on c with an optional default factory and returns c
// for chaining. A nil factory means the dependency must be overridden.
//
// Redeclaring a key on the same class replaces the earlier declaration in place.
// Declare panics with *InvalidKeyError on a malformed key; use TryDeclare to
// get the error instead.
func (c *Class) Declare(key DependencyKey, factory Factory) *Class {
	if err := c.TryDeclare(key, factory); err != nil {
		panic(err)
	}
	return c
}

// Require declares key without a default.
func (c *Class) Require(key DependencyKey) *Class {
	return c.Declare(key, nil)
}

// TryDeclare is Declare returning the malformed-key error instead of panicking.
func (c *Class) TryDeclare(key DependencyKey, factory Factory) error {
	if !key.Valid() {
		return &InvalidKeyError{Key: key, Class: c.name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.own[key]; !exists {
		c.order = append(c.order, key)
	}
	c.own[key] = Declaration{Key: key, Factory: factory}
	return nil
}

// Own returns c's own declarations in declaration order, without ancestors.
func (c *Class) Own() []Declaration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Declaration, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.own[k])
	}
	return out
}

// Lineage returns the inheritance chain from the root class down to c.
func (c *Class) Lineage() []*Class {
	var chain []*Class
	for cur := c; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Effective returns the union of c's and its ancestors' declarations.
//
// Keys are ordered by first appearance walking root to leaf. When a descendant
// redeclares an ancestor's key, the descendant's declaration wins.
func (c *Class) Effective() []Declaration {
	var (
		out   []Declaration
		index = make(map[DependencyKey]int)
	)
	for _, cls := range c.Lineage() {
		for _, d := range cls.Own() {
			if i, ok := index[d.Key]; ok {
				out[i] = d
				continue
			}
			index[d.Key] = len(out)
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the effective declaration for key, searching from c up to the root.
func (c *Class) Lookup(key DependencyKey) (Declaration, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		d, ok := cur.own[key]
		cur.mu.RUnlock()
		if ok {
			return d, true
		}
	}
	return Declaration{}, false
}

// Declares reports whether key is in c's effective declaration set.
func (c *Class) Declares(key DependencyKey) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Keys returns the effective keys in declaration order.
func (c *Class) Keys() []DependencyKey {
	decls := c.Effective()
	keys := make([]DependencyKey, len(decls))
	for i, d := range decls {
		keys[i] = d.Key
	}
	return keys
}

// Required returns the effective keys that have no default, in declaration order.
func (c *Class) Required() []DependencyKey {
	var keys []DependencyKey
	for _, d := range c.Effective() {
		if !d.HasDefault() {
			keys = append(keys, d.Key)
		}
	}
	return keys
}
