// Command depgen generates typed dependency accessors for injectable types.
//
// You write a small *.deps.json spec next to a struct that embeds di.Deps and
// add a //go:generate directive in the owner Go file. depgen generates:
//
//   - the class variable, declaring every dependency (Declare / Require)
//   - one accessor method per dependency, returning (T, error)
//   - optionally New<Type>(di.Overrides), the default construction path
//
// Spec format (*.deps.json)
//
//	{
//	  "package": "notifier",
//	  "type": "Notifier",
//	  "class": "NotifierClass",
//	  "constructor": true,
//	  "dependencies": [
//	    { "name": "clock",  "type": "Clock",  "default": "SystemClock{}" },
//	    { "name": "config", "type": "config.Config", "factory": "loadConfig" },
//	    { "name": "sender", "type": "Sender" }
//	  ]
//	}
//
// "default" is a Go expression of the dependency type, "factory" names a
// func() (T, error); a dependency with neither has no default and must be
// overridden at construction time. "method" overrides the accessor name, which
// otherwise is the exported form of "name" (rate_limiter -> RateLimiter).
//
// Subclasses reference their parent class:
//
//	"parent": { "class": "NotifierClass" }                       // same package
//	"parent": { "class": "NotifierClass", "dir": "../notifier" } // import path from go.mod
//	"parent": { "class": "NotifierClass", "import": "example.com/x/notifier" }
//
// Typical go:generate usage
//
//	//go:generate go run ../../cmd/depgen -spec ./notifier.deps.json -out ./notifier_deps.gen.go
//
// The owner file's imports are offered to the generated file so default
// expressions can use them; the output is gofmt'ed and unused imports dropped.
// Invalid specs are reported on stderr with exit code 1, usage errors exit 2.
package main
