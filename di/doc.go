// Package di lets a type declare named, swappable dependencies with optional
// lazy defaults, and lets each instance override them at construction time.
//
// The package has two halves:
//
//   - Class: the per-type declaration set. Dependencies are declared once,
//     usually in a package-level var, each with an optional default Factory.
//     Classes extend other classes (single inheritance); a subclass sees its
//     ancestors' declarations, never the other way round.
//
//   - Deps: the per-instance override set. Embed it in your struct and call
//     InitDependencies from your constructor (or use New). Overrides are
//     validated against the class and bound to that instance only.
//
// Reads go through Resolve / Get: an instance override wins, otherwise the
// class default factory is invoked on every read. Defaults are never evaluated
// at declaration time.
//
// Quick guidance
//
//	var RepoClass = di.NewClass("Repo").
//		Declare("clock", di.Func(func() Clock { return SystemClock{} })).
//		Require("db")
//
//	type Repo struct {
//		di.Deps
//	}
//
//	repo, err := di.New[Repo](RepoClass, di.Overrides{"db": db})
//	clock, err := di.Get[Clock](&repo.Deps, "clock")
//
// Errors
//
//   - *UndeclaredDependencyError: an override names an undeclared key.
//   - *MissingImplementationError: a dependency without default was not supplied.
//   - *UnresolvedDependencyError: a read found neither override nor default
//     (for example on an instance that never ran InitDependencies).
//
// All three are programmer errors; the package neither logs nor retries.
//
// There is no container, no graph resolution and no reflection-based
// injection. cmd/depgen generates typed accessor methods from a JSON spec.
//
// Import
//
//	"github.com/sghaida/injectable/di"
package di
