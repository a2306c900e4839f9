package transpile

import (
	"strings"

	"plan-tools/cmd/plantool/plan"
)

// apply renders a resources step as an apply block. The targets are
// prepared only once per plan, before the first apply block.
func (tr *translation) apply(s plan.Step, b plan.ApplyStep, at site) ([]string, error) {
	targets, err := expr(b.Block.Targets, at.field("targets"))
	if err != nil {
		return nil, err
	}

	var out []string
	if !tr.prepared {
		tr.prepared = true
		out = append(out, invoke("apply_prep", []string{targets}))
		tr.logger.Debug("prepared apply targets", "path", at.path, "targets", targets)
	}

	var opts []pair
	if s.CatchErrors != nil {
		v, err := expr(s.CatchErrors, at.field("catch_errors"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_catch_errors"), v})
	}
	if s.Description != nil {
		v, err := expr(s.Description, at.field("description"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_description"), v})
	}
	if b.Noop != nil {
		v, err := expr(b.Noop, at.field("noop"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_noop"), v})
	}
	if s.RunAs != nil {
		v, err := expr(s.RunAs, at.field("run_as"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_run_as"), v})
	}

	args := []string{targets}
	if len(opts) > 0 {
		args = append(args, renderHash(opts))
	}
	head := bind(s.Name, invoke("apply", args)+" {")
	out = append(out, head...)

	for j, r := range b.Block.Resources {
		if j > 0 {
			out = append(out, indent+"->")
		}
		decl, err := resource(r, at.field("resources").index(j))
		if err != nil {
			return nil, err
		}
		out = append(out, indented(decl)...)
	}
	return append(out, "}"), nil
}

// resource renders one declaration:
//
//	type { title: }
//
// or, with attributes,
//
//	type { title:
//	  attr => value,
//	}
func resource(r plan.Resource, at site) ([]string, error) {
	title, err := expr(r.Title, at.field("title"))
	if err != nil {
		return nil, err
	}
	if len(r.Attributes) == 0 {
		return lines(r.Type + " { " + title + ": }"), nil
	}

	out := lines(r.Type + " { " + title + ":")
	for _, a := range r.Attributes {
		v, err := expr(a.Value, at.field("parameters").field(a.Name))
		if err != nil {
			return nil, err
		}
		out = append(out, indented(lines(a.Name+" => "+v+","))...)
	}
	return append(out, "}"), nil
}

const indent = "  "

// indented shifts every non-empty line one level right.
func indented(in []string) []string {
	out := make([]string, len(in))
	for i, l := range in {
		if strings.TrimSpace(l) == "" {
			out[i] = ""
			continue
		}
		out[i] = indent + l
	}
	return out
}
