package transpile

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"plan-tools/cmd/plantool/plan"
)

var (
	varRefRe   = regexp.MustCompile(`^\$(::)?[a-z_]\w*(::[a-z_]\w*)*(\.[a-z_]\w*|\[('[^']*'|"[^"]*"|-?\d+)\])*$`)
	functionRe = regexp.MustCompile(`^[a-z]\w*(::[a-z]\w*)*$`)
)

// site locates the construct being translated, for error reporting.
type site struct {
	step int // -1 outside the step list
	path string
}

func (s site) field(name string) site {
	return site{step: s.step, path: s.path + "." + name}
}

func (s site) index(i int) site {
	return site{step: s.step, path: fmt.Sprintf("%s[%d]", s.path, i)}
}

func (s site) unsupported(construct string) error {
	return &plan.UnsupportedConstructError{
		Step:      s.step,
		Path:      s.path,
		Construct: construct,
		Err:       plan.ErrUnsupportedExpr,
	}
}

// Expression renders e as target-language source.
func Expression(e plan.Expr) (string, error) {
	return expr(e, site{step: -1, path: "<expr>"})
}

func expr(e plan.Expr, at site) (string, error) {
	switch v := e.(type) {
	case plan.String:
		return quote(v.Value), nil
	case plan.Interpolated:
		return interpolated(v.Value), nil
	case plan.Code:
		return v.Source, nil
	case plan.Int:
		return strconv.FormatInt(v.Value, 10), nil
	case plan.Float:
		return float(v.Value, at)
	case plan.Bool:
		return strconv.FormatBool(v.Value), nil
	case plan.Null:
		return "undef", nil
	case plan.VarRef:
		if !varRefRe.MatchString(v.Ref) {
			return "", at.unsupported(fmt.Sprintf("malformed variable reference %q", v.Ref))
		}
		return v.Ref, nil
	case plan.List:
		items, err := exprList(v.Items, at)
		if err != nil {
			return "", err
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case plan.Map:
		return hash(v, at)
	case plan.FuncCall:
		return call(v, at)
	case plan.Unsupported:
		return "", at.unsupported(v.Construct)
	case nil:
		return "", at.unsupported("missing value")
	}
	return "", at.unsupported(fmt.Sprintf("expression of type %T", e))
}

func exprList(items []plan.Expr, at site) ([]string, error) {
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, err := expr(item, at.index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// float renders f so that it reads back as a float: a bare "3" would be an
// integer, and exponents carry no '+'.
func float(f float64, at site) (string, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", at.unsupported(fmt.Sprintf("non-finite float %v", f))
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return strings.Replace(s, "e+", "e", 1), nil
}

func hash(m plan.Map, at site) (string, error) {
	pairs, err := hashPairs(m, at)
	if err != nil {
		return "", err
	}
	return renderHash(pairs), nil
}

// pair is a translated hash entry.
type pair struct {
	key   string
	value string
}

func hashPairs(m plan.Map, at site) ([]pair, error) {
	out := make([]pair, 0, len(m.Entries))
	for i, e := range m.Entries {
		eat := at.index(i)
		if s, ok := e.Key.(plan.String); ok {
			eat = at.field(s.Value)
		}
		k, err := expr(e.Key, eat)
		if err != nil {
			return nil, err
		}
		v, err := expr(e.Value, eat)
		if err != nil {
			return nil, err
		}
		out = append(out, pair{key: k, value: v})
	}
	return out, nil
}

func renderHash(pairs []pair) string {
	if len(pairs) == 0 {
		return "{}"
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + " => " + p.value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func call(c plan.FuncCall, at site) (string, error) {
	if !functionRe.MatchString(c.Function) {
		return "", at.unsupported(fmt.Sprintf("function name %q", c.Function))
	}
	args, err := exprList(c.Args, at)
	if err != nil {
		return "", err
	}
	if c.Options != nil {
		opts, err := hash(*c.Options, at.field("options"))
		if err != nil {
			return "", err
		}
		args = append(args, opts)
	}
	return invoke(c.Function, args), nil
}

func invoke(fn string, args []string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}
