package di

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// MapRegistry
// -----------------------------------------------------------------------------

func TestMapRegistry_ProvideAndGet(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry()
	require.NotNil(t, r.items)
	assert.Empty(t, r.items)

	ret := r.Provide("sender", "smtp").Provide("retries", 3)
	require.Same(t, r, ret)

	got, ok := r.Get("sender")
	require.True(t, ok)
	assert.Equal(t, "smtp", got)

	got, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.Equal(t, 3, r.MustGet("retries"))
	require.PanicsWithError(t, `di: registry missing key "missing"`, func() {
		_ = r.MustGet("missing")
	})
}

func TestMapRegistry_Resolve(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry().Provide("sender", "smtp")

	val, ok, err := r.Resolve(nil, "sender")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "smtp", val)

	val, ok, err = r.Resolve(map[string]any{"env": "test"}, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

// A nil receiver panics when reading r.items; Resolve reports it as an error.
func TestMapRegistry_ResolveRecoversFromPanic(t *testing.T) {
	t.Parallel()

	var r *MapRegistry

	val, ok, err := r.Resolve(nil, "k")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.ErrorIs(t, err, ErrRegistryPanic)
}

//
// -----------------------------------------------------------------------------
// OverridesFrom / NewFrom
// -----------------------------------------------------------------------------

type failingRegistry struct{ err error }

func (f failingRegistry) Resolve(any, DependencyKey) (any, bool, error) { return nil, false, f.err }

func TestOverridesFrom_OnlyDeclaredKeys(t *testing.T) {
	t.Parallel()

	parent := NewClass("Parent").Require("sender")
	child := parent.Extend("Child").Declare("clock", Value("system"))

	reg := NewMapRegistry().
		Provide("sender", "smtp").
		Provide("clock", "frozen").
		Provide("unrelated", true)

	got, err := OverridesFrom(child, reg, nil)
	require.NoError(t, err)
	assert.Equal(t, Overrides{"sender": "smtp", "clock": "frozen"}, got)

	got, err = OverridesFrom(parent, reg, nil)
	require.NoError(t, err)
	assert.Equal(t, Overrides{"sender": "smtp"}, got)
}

func TestOverridesFrom_Errors(t *testing.T) {
	t.Parallel()

	_, err := OverridesFrom(nil, NewMapRegistry(), nil)
	assert.ErrorIs(t, err, ErrNilClass)

	boom := errors.New("boom")
	_, err = OverridesFrom(NewClass("C").Require("x"), failingRegistry{err: boom}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"x"`)

	got, err := OverridesFrom(NewClass("C").Require("x"), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewFrom(t *testing.T) {
	t.Parallel()

	class := NewClass("Notifier").Require("sender").Declare("clock", Value("system"))

	d, err := class.NewFrom(NewMapRegistry().Provide("sender", "smtp"), nil)
	require.NoError(t, err)
	assert.Equal(t, "smtp", MustGet[string](d, "sender"))
	assert.Equal(t, "system", MustGet[string](d, "clock"))

	_, err = class.NewFrom(NewMapRegistry(), nil)
	assert.True(t, IsMissingImplementation(err))
}
