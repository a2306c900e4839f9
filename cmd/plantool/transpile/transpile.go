// Package transpile turns a loaded plan.Definition into Puppet language
// plan source.
//
// Translation is all-or-nothing: either the complete source text is
// returned or an error is, never partial output. A Transpiler holds no
// per-conversion state and may be shared between goroutines.
package transpile

import (
	"fmt"
	"log/slog"

	"plan-tools/cmd/plantool/plan"
)

// Warning is the notice placed in every generated plan's doc comment.
const Warning = "WARNING: This is an autogenerated plan. It may not behave as expected."

// Transpiler converts plan definitions to source text.
type Transpiler struct {
	logger *slog.Logger
}

// Option configures a Transpiler.
type Option func(*Transpiler)

// WithLogger sets the logger used for debug tracing. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transpiler) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns a Transpiler.
func New(opts ...Option) *Transpiler {
	t := &Transpiler{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Transpile converts def with a default Transpiler.
func Transpile(def *plan.Definition) (string, error) {
	return New().Transpile(def)
}

// translation is the state of one conversion.
type translation struct {
	logger   *slog.Logger
	prepared bool // apply_prep already emitted
}

// Transpile converts def into plan source text.
func (t *Transpiler) Transpile(def *plan.Definition) (string, error) {
	if def == nil {
		return "", fmt.Errorf("transpile: nil plan definition")
	}
	tr := &translation{logger: t.logger.With("plan", def.Name)}

	params, err := parameters(def.Parameters)
	if err != nil {
		return "", err
	}

	var body []string
	for i, s := range def.Steps {
		lines, err := tr.step(i, s)
		if err != nil {
			return "", err
		}
		body = append(body, lines...)
	}

	var ret string
	if def.Return != nil {
		if ret, err = expr(def.Return, site{step: -1, path: "return"}); err != nil {
			return "", err
		}
	}

	out := emit(def, params, body, ret)
	tr.logger.Debug("translated plan", "steps", len(def.Steps), "bytes", len(out))
	return out, nil
}

// parameters renders each signature entry as "[Type ]$name[ = default]".
func parameters(params []plan.Parameter) ([]string, error) {
	out := make([]string, 0, len(params))
	for _, p := range params {
		s := "$" + p.Name
		if p.Type != "" {
			s = p.Type + " " + s
		}
		if p.Default != nil {
			def, err := expr(p.Default, site{step: -1, path: "parameters." + p.Name + ".default"})
			if err != nil {
				return nil, err
			}
			s += " = " + def
		}
		out = append(out, s)
	}
	return out, nil
}
