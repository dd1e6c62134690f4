// Package injectable provides per-instance dependency overrides for Go types.
//
// A type declares a set of named dependencies, each optionally backed by a lazy
// default. Any instance may override some or all of them at construction time
// without affecting other instances or the type's defaults.
//
// The goal is to expose swappable collaborators (for tests or configuration)
// without per-dependency constructor plumbing, and without a container.
//
// Package injectable See subpackages:
//   - di: the declaration / override / resolution library
//   - cmd/depgen: generator for typed accessor methods from *.deps.json
//   - examples/notifier: a runnable service built on di
package injectable
