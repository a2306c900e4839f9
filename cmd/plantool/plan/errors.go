package plan

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed       = errors.New("malformed document")
	ErrMissingKey      = errors.New("missing required key")
	ErrUnknownKey      = errors.New("unknown key")
	ErrWrongShape      = errors.New("wrong value shape")
	ErrNoStepKind      = errors.New("step has no recognized kind")
	ErrMissingName     = errors.New("missing name")
	ErrInvalidName     = errors.New("invalid name")
	ErrUnsupportedExpr = errors.New("unsupported expression")
	ErrUnsupportedStep = errors.New("unsupported step kind")
)

// SchemaError reports input that is not a structurally valid plan.
// Path is the key path of the offending value, e.g. "steps[2].parameters".
type SchemaError struct {
	Path string
	Msg  string
	Err  error
}

// Schemaf builds a SchemaError wrapping sentinel err.
func Schemaf(path string, err error, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *SchemaError) Error() string {
	return formatError("load", e.Path, e.Err, e.Msg)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ExitCode is the process status the CLI uses for schema errors.
func (e *SchemaError) ExitCode() int { return 2 }

// UnsupportedConstructError reports a step kind or expression form that has
// no translation rule. Step is the index of the enclosing step, or -1 when
// the construct sits outside the step list (parameter defaults, return).
type UnsupportedConstructError struct {
	Step      int
	Path      string
	Construct string
	Err       error
}

func (e *UnsupportedConstructError) Error() string {
	return formatError("translate", e.Path, e.Err, e.Construct)
}

func (e *UnsupportedConstructError) Unwrap() error { return e.Err }

// ExitCode is the process status the CLI uses for untranslatable input.
func (e *UnsupportedConstructError) ExitCode() int { return 3 }

func formatError(phase, path string, err error, msg string) string {
	if path == "" {
		path = "<doc>"
	}
	switch {
	case err == nil:
		return fmt.Sprintf("phase=%s path=%s: %s", phase, path, msg)
	case msg == "":
		return fmt.Sprintf("phase=%s path=%s: %v", phase, path, err)
	default:
		return fmt.Sprintf("phase=%s path=%s: %v: %s", phase, path, err, msg)
	}
}
