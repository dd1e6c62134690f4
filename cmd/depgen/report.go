package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// genError carries the failing stage and file so diagnostics can point at them.
type genError struct {
	Stage string
	File  string
	Cause error
	Hints []string
}

func (e *genError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Cause)
}

func (e *genError) Unwrap() error { return e.Cause }

// reporter writes user-facing diagnostics to stderr.
type reporter struct {
	w io.Writer

	errLabel  *color.Color
	hintLabel *color.Color
	dim       *color.Color
}

func newReporter(w io.Writer) *reporter {
	return &reporter{
		w:         w,
		errLabel:  color.New(color.FgRed, color.Bold),
		hintLabel: color.New(color.FgYellow, color.Bold),
		dim:       color.New(color.Faint),
	}
}

// report prints err with its stage, file and hints when it is a genError.
func (r *reporter) report(err error) {
	var ge *genError
	if !errors.As(err, &ge) {
		_, _ = r.errLabel.Fprint(r.w, "error: ")
		_, _ = fmt.Fprintln(r.w, err)
		return
	}

	_, _ = r.errLabel.Fprint(r.w, "error: ")
	_, _ = fmt.Fprintf(r.w, "%s failed: %v\n", ge.Stage, ge.Cause)
	if ge.File != "" {
		_, _ = r.dim.Fprintf(r.w, "  --> %s\n", ge.File)
	}
	for _, h := range ge.Hints {
		_, _ = r.hintLabel.Fprint(r.w, "  hint: ")
		_, _ = fmt.Fprintln(r.w, h)
	}
}
