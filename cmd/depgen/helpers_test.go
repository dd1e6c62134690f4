package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// diagnostics are asserted as plain text
	color.NoColor = true
	os.Exit(m.Run())
}

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// minimalSpecJSON returns a deps spec that passes validateSpec and renders
// without needing anything from the owner file.
func minimalSpecJSON() []byte {
	return []byte(`{
  "package": "svc",
  "type": "Service",
  "class": "ServiceClass",
  "constructor": true,
  "dependencies": [
    { "name": "greeting", "type": "string", "default": "\"hello\"" },
    { "name": "sender", "type": "Sender" }
  ]
}`)
}

const ownerSource = `package svc

import (
	"os"
	"time"

	"github.com/sghaida/injectable/di"
)

//go:generate go run ../../cmd/depgen -spec ./service.deps.json -out ./service_deps.gen.go

type Sender interface{ Send(string) error }

type Service struct {
	di.Deps
}

var _ = os.Getenv
var _ = time.Now
`

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
// It lets tests force errors on Write and Close without touching real files.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// swapWriteSeams overrides the global seams used by writeFileAtomic and
// restores them when the test ends. Pass nil for any seam you don't want to override.
func swapWriteSeams(
	t *testing.T,
	createFn func(string, string) (tempFile, error),
	removeFn func(path string) error,
	chmodFn func(path string, mode os.FileMode) error,
	renameFn func(oldpath, newpath string) error,
) {
	t.Helper()

	origCreate, origRemove, origChmod, origRename := createTempFile, removeFile, chmodFile, renameFile
	t.Cleanup(func() {
		createTempFile = origCreate
		removeFile = origRemove
		chmodFile = origChmod
		renameFile = origRename
	})

	if createFn != nil {
		createTempFile = createFn
	}
	if removeFn != nil {
		removeFile = removeFn
	}
	if chmodFn != nil {
		chmodFile = chmodFn
	}
	if renameFn != nil {
		renameFile = renameFn
	}
}
