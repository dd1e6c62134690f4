package di

import (
	"errors"
	"strconv"
)

var (
	// ErrNilClass is returned when InitDependencies is called without a class.
	ErrNilClass = errors.New("di: nil class")

	// ErrAlreadyInitialized is returned when InitDependencies is called a second
	// time on the same instance. The first binding is left untouched.
	ErrAlreadyInitialized = errors.New("di: dependencies already initialized")

	// ErrFactoryPanic is wrapped by FactoryError when a default factory panics.
	ErrFactoryPanic = errors.New("di: panic in default factory")
)

// Operations reported by UndeclaredDependencyError.
const (
	OpOverride = "override"
	OpResolve  = "resolve"
)

// InvalidKeyError is raised when a class declares a malformed dependency key.
type InvalidKeyError struct {
	Key   DependencyKey
	Class string
}

// Error implements the error interface.
func (e *InvalidKeyError) Error() string {
	// Example: di: invalid dependency key " db" on class "Repo"
	return "di: invalid dependency key " + strconv.Quote(string(e.Key)) + " on class " + strconv.Quote(e.Class)
}

// UndeclaredDependencyError is returned when an override (or a read) names a key
// that is not part of the class's effective declaration set.
type UndeclaredDependencyError struct {
	Key   DependencyKey
	Class string

	// Op is OpOverride when raised by InitDependencies, OpResolve when raised on read.
	Op string
}

// Error implements the error interface.
func (e *UndeclaredDependencyError) Error() string {
	op := e.Op
	if op == "" {
		op = OpOverride
	}
	// Example: di: cannot override undeclared dependency "nope" on class "Dependent"
	return "di: cannot " + op + " undeclared dependency " + strconv.Quote(string(e.Key)) +
		" on class " + strconv.Quote(e.Class)
}

// MissingImplementationError is returned when a dependency declared without a
// default is not present in the overrides passed to InitDependencies.
type MissingImplementationError struct {
	Key   DependencyKey
	Class string
}

// Error implements the error interface.
func (e *MissingImplementationError) Error() string {
	// Example: di: no implementation was provided for dependency "sender" on class "Notifier"
	return "di: no implementation was provided for dependency " + strconv.Quote(string(e.Key)) +
		" on class " + strconv.Quote(e.Class)
}

// UnresolvedDependencyError is returned on read when a key has neither a bound
// override nor a default factory, or when the instance was never bound to a class.
//
// It is a safety net: InitDependencies rejects the first case up front.
type UnresolvedDependencyError struct {
	Key DependencyKey

	// Class is empty when the instance was never bound to a class.
	Class string
}

// Error implements the error interface.
func (e *UnresolvedDependencyError) Error() string {
	if e.Class == "" {
		// Example: di: dependency "db" unresolved (dependencies not initialized)
		return "di: dependency " + strconv.Quote(string(e.Key)) + " unresolved (dependencies not initialized)"
	}
	// Example: di: dependency "db" unresolved on class "Repo"
	return "di: dependency " + strconv.Quote(string(e.Key)) + " unresolved on class " + strconv.Quote(e.Class)
}

// FactoryError wraps a failure raised by a default factory at read time.
type FactoryError struct {
	Key   DependencyKey
	Cause error
}

// Error implements the error interface.
func (e *FactoryError) Error() string {
	return "di: default for dependency " + strconv.Quote(string(e.Key)) + " failed: " + e.Cause.Error()
}

// Unwrap returns the factory's error.
func (e *FactoryError) Unwrap() error { return e.Cause }

// WrongTypeDependencyError is returned by Get when a dependency resolves to a
// value of a different type.
type WrongTypeDependencyError struct {
	Key DependencyKey

	// GotType is the %T rendering of the resolved value.
	GotType string
}

// Error implements the error interface.
func (e *WrongTypeDependencyError) Error() string {
	// Example: di: dependency "db" has wrong type (*mypkg.Logger)
	return "di: dependency " + strconv.Quote(string(e.Key)) + " has wrong type (" + e.GotType + ")"
}

// IsUndeclared reports whether err is (or wraps) an UndeclaredDependencyError.
func IsUndeclared(err error) bool {
	var e *UndeclaredDependencyError
	return errors.As(err, &e)
}

// IsMissingImplementation reports whether err is (or wraps) a MissingImplementationError.
func IsMissingImplementation(err error) bool {
	var e *MissingImplementationError
	return errors.As(err, &e)
}

// IsUnresolved reports whether err is (or wraps) an UnresolvedDependencyError.
func IsUnresolved(err error) bool {
	var e *UnresolvedDependencyError
	return errors.As(err, &e)
}
