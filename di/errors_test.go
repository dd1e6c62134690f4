package di_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sghaida/injectable/di"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{
			err:  &di.UndeclaredDependencyError{Key: "nope", Class: "Dependent"},
			want: `di: cannot override undeclared dependency "nope" on class "Dependent"`,
		},
		{
			err:  &di.MissingImplementationError{Key: "sender", Class: "Notifier"},
			want: `di: no implementation was provided for dependency "sender" on class "Notifier"`,
		},
		{
			err:  &di.FactoryError{Key: "cfg", Cause: errors.New("env missing")},
			want: `di: default for dependency "cfg" failed: env missing`,
		},
		{
			err:  &di.InvalidKeyError{Key: "", Class: "C"},
			want: `di: invalid dependency key "" on class "C"`,
		},
	}

	for _, tc := range cases {
		assert.EqualError(t, tc.err, tc.want)
	}
}

func TestErrorPredicates_SeeThroughWrapping(t *testing.T) {
	t.Parallel()

	undeclared := fmt.Errorf("construct: %w", &di.UndeclaredDependencyError{Key: "x"})
	missing := fmt.Errorf("construct: %w", &di.MissingImplementationError{Key: "x"})
	unresolved := fmt.Errorf("read: %w", &di.UnresolvedDependencyError{Key: "x"})

	assert.True(t, di.IsUndeclared(undeclared))
	assert.False(t, di.IsUndeclared(missing))

	assert.True(t, di.IsMissingImplementation(missing))
	assert.False(t, di.IsMissingImplementation(unresolved))

	assert.True(t, di.IsUnresolved(unresolved))
	assert.False(t, di.IsUnresolved(errors.New("plain")))
}
