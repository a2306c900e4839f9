package transpile

import (
	"fmt"
	"strings"

	"plan-tools/cmd/plantool/plan"
)

// eval renders an eval step.
//
// A code value is emitted as is. When the step is named and the code spans
// several lines it is wrapped in "with() || { ... }" so that the binding
// receives the value of the whole block.
func (tr *translation) eval(s plan.Step, b plan.EvalStep, at site) ([]string, error) {
	if b.Block == nil {
		code, err := expr(b.Value, at.field("eval"))
		if err != nil {
			return nil, err
		}
		body := lines(code)
		if s.Name == "" || len(body) == 1 {
			return bind(s.Name, code), nil
		}
		return wrap(s.Name, body), nil
	}

	body, err := block(b.Block.Statements, at.field("eval"))
	if err != nil {
		return nil, err
	}
	return wrap(s.Name, body), nil
}

func wrap(name string, body []string) []string {
	out := bind(name, "with() || {")
	out = append(out, indented(body)...)
	return append(out, "}")
}

// block renders a statement sequence. A link without a collection consumes
// the value of the statement before it, which is therefore bound: to its
// own name when it has one, otherwise to $link_<n> (1-based position).
// A bound statement spanning several lines is wrapped in "with() || { }"
// so the binding receives the value of its last line.
func block(stmts []plan.Statement, at site) ([]string, error) {
	var out []string
	prev := ""
	for i, st := range stmts {
		sat := at.index(i)

		binding := st.Name
		if binding == "" && i+1 < len(stmts) && stmts[i+1].Link != nil && stmts[i+1].Link.Collection == nil {
			binding = fmt.Sprintf("link_%d", i+1)
		}

		var src []string
		switch {
		case st.Link != nil:
			var err error
			if src, err = link(st.Link, prev, sat); err != nil {
				return nil, err
			}
			if binding != "" {
				src[0] = "$" + binding + " = " + src[0]
			}
		default:
			v, err := expr(st.Value, sat)
			if err != nil {
				return nil, err
			}
			src = lines(v)
			switch {
			case binding != "" && len(src) > 1:
				src = wrap(binding, src)
			case binding != "":
				src[0] = "$" + binding + " = " + src[0]
			}
		}
		out = append(out, src...)
		prev = binding
	}
	return out, nil
}

// link renders "<collection>.<op>[(<initial>)] |$a, $b| { ... }".
func link(l *plan.Link, prev string, at site) ([]string, error) {
	var coll string
	switch {
	case l.Collection != nil:
		c, err := expr(l.Collection, at.field(string(l.Op)))
		if err != nil {
			return nil, err
		}
		switch l.Collection.(type) {
		case plan.Map, plan.Code:
			c = "(" + c + ")"
		}
		coll = c
	case prev != "":
		coll = "$" + prev
	default:
		return nil, at.unsupported("link without a collection")
	}

	head := coll + "." + string(l.Op)
	if l.Initial != nil {
		seed, err := expr(l.Initial, at.field("initial"))
		if err != nil {
			return nil, err
		}
		head += "(" + seed + ")"
	}
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = "$" + p
	}
	head += " |" + strings.Join(params, ", ") + "| {"

	body, err := block(l.Body, at.field("do"))
	if err != nil {
		return nil, err
	}
	out := append([]string{head}, indented(body)...)
	return append(out, "}"), nil
}
