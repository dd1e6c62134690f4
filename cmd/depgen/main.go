// cmd/depgen/main.go
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/sghaida/injectable/di"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/imports"
)

// This binary is a code-generation tool.
//
// It reads a JSON specification describing an injectable type and its declared
// dependencies, then generates the class declaration plus one typed accessor
// method per dependency.
//
// Key behaviors:
// - Reads spec JSON: package, type, class, optional parent, dependencies
// - Locates the "owner" Go file (the file containing the go:generate for cmd/depgen) in the same directory
// - Reuses the owner's imports so default expressions can reference them; unused ones are pruned
// - Resolves the parent class import path from go.mod when only parent.dir is given
// - Writes output atomically (temp file + rename) to avoid partial writes

// defaultDIImport is the import path of the di package used by generated code.
const defaultDIImport = "github.com/sghaida/injectable/di"

// Dep describes a single declared dependency.
// Each dependency results in a Declare/Require call and a generated accessor method.
type Dep struct {
	// Name is the dependency key.
	Name string `json:"name"`

	// Method is the accessor method name. Defaults to the exported form of Name.
	Method string `json:"method"`

	// Type is the Go type returned by the accessor.
	Type string `json:"type"`

	// Default is a Go expression of Type used as the default value.
	Default string `json:"default"`

	// Factory names a func() (Type, error) used as the default factory.
	Factory string `json:"factory"`
}

// HasDefault reports whether the dependency has a default.
func (d Dep) HasDefault() bool { return d.Default != "" || d.Factory != "" }

// Parent references the class being extended.
type Parent struct {
	// Class is the parent class variable name.
	Class string `json:"class"`

	// Import is the parent's package import path. Empty means same package,
	// unless Dir is set.
	Import string `json:"import"`

	// Dir is the parent's package directory relative to the spec's output
	// directory. Used to derive Import from go.mod.
	Dir string `json:"dir"`
}

// Spec is the full input schema consumed by the generator.
type Spec struct {
	Package string `json:"package"`

	// Type is the struct embedding di.Deps that receives the accessors.
	Type string `json:"type"`

	// Class is the name of the generated class variable.
	Class string `json:"class"`

	// ClassName is the class name reported in errors. Defaults to Type.
	ClassName string `json:"className"`

	Parent *Parent `json:"parent"`

	// Constructor emits New<Type>(di.Overrides) when true.
	Constructor bool `json:"constructor"`

	// DIImport overrides the di package import path.
	DIImport string `json:"diImport"`

	Dependencies []Dep `json:"dependencies"`
}

// ImportSpec models one Go import: optional alias and full import path.
type ImportSpec struct {
	Alias string
	Path  string
}

// templateData is the input passed to the Go template.
type templateData struct {
	Spec        Spec
	ImportsList []ImportSpec

	// DI is the identifier generated code uses for the di package.
	DI string

	// Base is the class expression the declarations start from.
	Base string

	Decls []string
}

// run executes the generator logic and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("depgen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	specPath := flags.String("spec", "", "path to type.deps.json")
	outPath := flags.String("out", "", "output .gen.go file path")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*specPath) == "" || strings.TrimSpace(*outPath) == "" {
		_, _ = fmt.Fprintln(stderr, "usage: depgen -spec <file.deps.json> -out <file.gen.go>")
		return 2
	}

	rep := newReporter(stderr)
	if err := generate(*specPath, *outPath); err != nil {
		rep.report(err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// generate reads the spec at specPath and writes generated code to outPath.
func generate(specPath, outPath string) error {
	specBytes, err := os.ReadFile(specPath)
	if err != nil {
		return &genError{Stage: "read spec", File: specPath, Cause: err}
	}

	var spec Spec
	if err := json.Unmarshal(specBytes, &spec); err != nil {
		return &genError{Stage: "parse spec", File: specPath, Cause: err}
	}

	if err := validateSpec(&spec); err != nil {
		return &genError{Stage: "validate spec", File: specPath, Cause: err}
	}
	applyDefaults(&spec)

	generatedFilePath := filepath.Clean(outPath)
	packageDir := filepath.Dir(generatedFilePath)

	if err := resolveParentImport(&spec, packageDir); err != nil {
		return &genError{
			Stage: "resolve parent",
			File:  specPath,
			Cause: err,
			Hints: []string{"set parent.import explicitly, or run depgen inside a module"},
		}
	}

	ownerGoFilePath, err := findOwnerGoGenerateFile(packageDir)
	if err != nil {
		// Owner imports are only needed by default expressions; generation can proceed.
		ownerGoFilePath = ""
	}

	importsList := resolveImports(ownerGoFilePath, &spec)
	data := buildTemplateData(spec, importsList)

	var out bytes.Buffer
	if err := genTemplate.Execute(&out, data); err != nil {
		return &genError{Stage: "render", File: specPath, Cause: err}
	}

	src, err := formatSource(generatedFilePath, out.Bytes())
	if err != nil {
		return &genError{
			Stage: "format",
			File:  specPath,
			Cause: err,
			Hints: []string{"check the default expressions and types in the spec"},
		}
	}

	if err := writeFileAtomic(generatedFilePath, src, 0o644); err != nil {
		return &genError{Stage: "write", File: generatedFilePath, Cause: err}
	}
	return nil
}

// validateSpec validates semantic correctness of the input specification.
func validateSpec(spec *Spec) error {
	var missingFields []string

	requireNonEmpty := func(fieldName, value string) {
		if strings.TrimSpace(value) == "" {
			missingFields = append(missingFields, fieldName)
		}
	}

	requireNonEmpty("package", spec.Package)
	requireNonEmpty("type", spec.Type)
	requireNonEmpty("class", spec.Class)

	if len(spec.Dependencies) == 0 {
		missingFields = append(missingFields, "dependencies (must have at least 1)")
	}
	if spec.Parent != nil && strings.TrimSpace(spec.Parent.Class) == "" {
		missingFields = append(missingFields, "parent.class")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("spec missing required fields: %v", missingFields)
	}

	for _, ident := range []string{spec.Package, spec.Type, spec.Class} {
		if !token.IsIdentifier(ident) {
			return fmt.Errorf("not a Go identifier: %q", ident)
		}
	}

	seenNames := make(map[string]struct{}, len(spec.Dependencies))
	seenMethods := make(map[string]struct{}, len(spec.Dependencies))

	for _, dep := range spec.Dependencies {
		if dep.Name == "" || dep.Type == "" {
			return fmt.Errorf("each dependency must have name/type; got: %+v", dep)
		}
		if !di.Key(dep.Name).Valid() {
			return fmt.Errorf("invalid dependency name: %q", dep.Name)
		}
		if dep.Default != "" && dep.Factory != "" {
			return fmt.Errorf("dependency %s: default and factory are mutually exclusive", dep.Name)
		}

		method := dep.Method
		if method == "" {
			method = exportedName(dep.Name)
		}
		if !token.IsIdentifier(method) || !token.IsExported(method) {
			return fmt.Errorf("dependency %s: invalid accessor method name %q", dep.Name, method)
		}

		if _, ok := seenNames[dep.Name]; ok {
			return fmt.Errorf("duplicate dependency name: %s", dep.Name)
		}
		if _, ok := seenMethods[method]; ok {
			return fmt.Errorf("duplicate accessor method: %s", method)
		}
		seenNames[dep.Name] = struct{}{}
		seenMethods[method] = struct{}{}
	}
	return nil
}

// applyDefaults fills optional spec fields. It runs after validateSpec.
func applyDefaults(spec *Spec) {
	if strings.TrimSpace(spec.ClassName) == "" {
		spec.ClassName = spec.Type
	}
	if strings.TrimSpace(spec.DIImport) == "" {
		spec.DIImport = defaultDIImport
	}
	for i := range spec.Dependencies {
		if spec.Dependencies[i].Method == "" {
			spec.Dependencies[i].Method = exportedName(spec.Dependencies[i].Name)
		}
	}
}

// exportedName turns a dependency key such as "rate_limiter" into "RateLimiter".
func exportedName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// findModule walks up from dir to the nearest go.mod and returns the module
// path and the module root directory.
func findModule(dir string) (modulePath, moduleRoot string, err error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}

	for {
		goModPath := filepath.Join(current, "go.mod")
		content, readErr := os.ReadFile(goModPath)
		if readErr == nil {
			modulePath = modfile.ModulePath(content)
			if modulePath == "" {
				return "", "", fmt.Errorf("no module declaration found in %s", goModPath)
			}
			return modulePath, current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", "", errors.New("go.mod file not found")
		}
		current = parent
	}
}

// resolveParentImport fills spec.Parent.Import from spec.Parent.Dir.
//
// A parent directory equal to the output package directory means the parent
// class lives in the same package and needs no import.
func resolveParentImport(spec *Spec, packageDir string) error {
	if spec.Parent == nil || spec.Parent.Import != "" || strings.TrimSpace(spec.Parent.Dir) == "" {
		return nil
	}

	parentDir, err := filepath.Abs(filepath.Join(packageDir, spec.Parent.Dir))
	if err != nil {
		return err
	}
	ownDir, err := filepath.Abs(packageDir)
	if err != nil {
		return err
	}
	if parentDir == ownDir {
		return nil
	}

	modulePath, moduleRoot, err := findModule(parentDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(moduleRoot, parentDir)
	if err != nil {
		return err
	}
	if strings.HasPrefix(rel, "..") {
		return fmt.Errorf("parent dir %s is outside module %s", parentDir, modulePath)
	}

	spec.Parent.Import = path.Join(modulePath, filepath.ToSlash(rel))
	return nil
}

// findOwnerGoGenerateFile finds the Go source file in packageDir that contains a go:generate
// directive invoking cmd/depgen.
//
// This is used to discover the owner file's imports so default expressions can use them.
func findOwnerGoGenerateFile(packageDir string) (string, error) {
	dirEntries, err := os.ReadDir(packageDir)
	if err != nil {
		return "", err
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		if !strings.HasSuffix(fileName, ".go") ||
			strings.HasSuffix(fileName, "_test.go") ||
			strings.HasSuffix(fileName, ".gen.go") {
			continue
		}

		filePath := filepath.Join(packageDir, fileName)
		fileBytes, err := os.ReadFile(filePath)
		if err != nil {
			// Best-effort: unreadable file shouldn't break generation.
			continue
		}

		if bytes.Contains(fileBytes, []byte("go:generate")) && bytes.Contains(fileBytes, []byte("cmd/depgen")) {
			return filePath, nil
		}
	}

	return "", fmt.Errorf("could not find owner file with go:generate invoking cmd/depgen in %s", packageDir)
}

// readImportsFromFile parses imports from a Go file.
func readImportsFromFile(goFilePath string) ([]ImportSpec, error) {
	fileSet := token.NewFileSet()
	parsedFile, err := parser.ParseFile(fileSet, goFilePath, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var specs []ImportSpec
	for _, importDecl := range parsedFile.Imports {
		importPath := strings.Trim(importDecl.Path.Value, `"`)
		importAlias := ""
		if importDecl.Name != nil {
			importAlias = importDecl.Name.Name
		}
		specs = append(specs, ImportSpec{Alias: importAlias, Path: importPath})
	}

	return specs, nil
}

func ensureImport(list *[]ImportSpec, required ImportSpec) {
	for _, existing := range *list {
		if existing.Path == required.Path {
			// Don't duplicate the path; keep existing alias as-is.
			return
		}
	}
	*list = append(*list, required)
}

func importDefaultIdent(importPath string) string {
	// Import paths always use forward slashes, even on Windows.
	return path.Base(strings.TrimSpace(importPath))
}

// identFor returns the identifier generated code uses for importPath.
func identFor(list []ImportSpec, importPath string) string {
	for _, imp := range list {
		if imp.Path == importPath && imp.Alias != "" && imp.Alias != "_" && imp.Alias != "." {
			return imp.Alias
		}
	}
	return importDefaultIdent(importPath)
}

// resolveImports builds the imports list for the generated file.
//
// Rules:
// - Start from the owner file's imports, best-effort (default expressions may use them)
// - Always ensure the di package is present
// - Ensure the parent class package when it lives elsewhere
// Unused imports are pruned later by formatSource.
func resolveImports(ownerFilePath string, spec *Spec) []ImportSpec {
	var importsFromOwner []ImportSpec
	if strings.TrimSpace(ownerFilePath) != "" {
		parsedOwnerImports, err := readImportsFromFile(ownerFilePath)
		if err == nil {
			importsFromOwner = parsedOwnerImports
		}
	}

	finalImports := make([]ImportSpec, 0, len(importsFromOwner)+2)
	for _, imp := range importsFromOwner {
		// blank and dot imports are side-effect imports of the owner, not ours
		if imp.Alias == "_" || imp.Alias == "." {
			continue
		}
		finalImports = append(finalImports, imp)
	}

	ensureImport(&finalImports, ImportSpec{Path: spec.DIImport})
	if spec.Parent != nil && spec.Parent.Import != "" {
		ensureImport(&finalImports, ImportSpec{Path: spec.Parent.Import})
	}
	return finalImports
}

// buildTemplateData renders the declaration chain for the template.
func buildTemplateData(spec Spec, importsList []ImportSpec) templateData {
	diIdent := identFor(importsList, spec.DIImport)

	base := fmt.Sprintf("%s.NewClass(%q)", diIdent, spec.ClassName)
	if spec.Parent != nil {
		parentRef := spec.Parent.Class
		if spec.Parent.Import != "" {
			parentRef = identFor(importsList, spec.Parent.Import) + "." + spec.Parent.Class
		}
		base = fmt.Sprintf("%s.Extend(%q)", parentRef, spec.ClassName)
	}

	decls := make([]string, 0, len(spec.Dependencies))
	for _, dep := range spec.Dependencies {
		switch {
		case dep.Factory != "":
			decls = append(decls, fmt.Sprintf("Declare(%q, %s.FuncErr(%s))", dep.Name, diIdent, dep.Factory))
		case dep.Default != "":
			decls = append(decls, fmt.Sprintf("Declare(%q, %s.Func(func() %s { return %s }))",
				dep.Name, diIdent, dep.Type, dep.Default))
		default:
			decls = append(decls, fmt.Sprintf("Require(%q)", dep.Name))
		}
	}

	return templateData{
		Spec:        spec,
		ImportsList: importsList,
		DI:          diIdent,
		Base:        base,
		Decls:       decls,
	}
}

// formatSource gofmts src and prunes imports the generated code does not use.
func formatSource(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
}

// genTemplate is the Go source template used to generate the accessors.
var genTemplate = template.Must(
	template.New("depgen").Parse(`// Code generated by depgen; DO NOT EDIT.

package {{.Spec.Package}}

import (
{{- range .ImportsList}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)

// {{.Spec.Class}} declares the dependencies of {{.Spec.Type}}.
var {{.Spec.Class}} = {{.Base}}{{range .Decls}}.
	{{.}}{{end}}
{{range .Spec.Dependencies}}
// {{.Method}} resolves the {{printf "%q" .Name}} dependency{{if not .HasDefault}} (no default){{end}}.
func (s *{{$.Spec.Type}}) {{.Method}}() ({{.Type}}, error) {
	return {{$.DI}}.Get[{{.Type}}](&s.Deps, {{printf "%q" .Name}})
}
{{end}}
{{- if .Spec.Constructor}}
// New{{.Spec.Type}} constructs a {{.Spec.Type}} with the given overrides.
func New{{.Spec.Type}}(overrides {{.DI}}.Overrides) (*{{.Spec.Type}}, error) {
	return {{.DI}}.New[{{.Spec.Type}}]({{.Spec.Class}}, overrides)
}
{{- end}}
`),
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes a file atomically.
//
// It writes to a temporary file in the same directory and then renames it
// over the target path, ensuring readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}
