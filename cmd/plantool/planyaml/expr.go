package planyaml

import (
	"fmt"
	"regexp"
	"strings"

	"plan-tools/cmd/plantool/plan"

	"gopkg.in/yaml.v3"
)

// callTag marks a function call in the document.
const callTag = "!call"

var functionNameRe = regexp.MustCompile(`^[a-z]\w*(::[a-z]\w*)*$`)

// convertExpr turns a value node into an expression. It never fails:
// constructs without a translation become plan.Unsupported and are
// reported by the transpiler together with their location.
func convertExpr(n *yaml.Node) plan.Expr {
	n = resolve(n)
	if n.Tag == callTag {
		return convertCall(n)
	}
	if isLocalTag(n.Tag) {
		return plan.Unsupported{Construct: fmt.Sprintf("unknown tag %q", n.Tag)}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return convertScalar(n)
	case yaml.SequenceNode:
		items := make([]plan.Expr, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, convertExpr(c))
		}
		return plan.List{Items: items}
	case yaml.MappingNode:
		return convertMap(n)
	}
	return plan.Unsupported{Construct: fmt.Sprintf("YAML node of kind %d", n.Kind)}
}

func convertMap(n *yaml.Node) plan.Map {
	entries := make([]plan.Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		entries = append(entries, plan.Entry{
			Key:   convertExpr(n.Content[i]),
			Value: convertExpr(n.Content[i+1]),
		})
	}
	return plan.Map{Entries: entries}
}

func convertScalar(n *yaml.Node) plan.Expr {
	switch {
	case n.Style&yaml.LiteralStyle != 0:
		return plan.Code{Source: strings.TrimRight(n.Value, "\n")}
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return plan.Interpolated{Value: n.Value}
	case n.Style&(yaml.SingleQuotedStyle|yaml.FoldedStyle) != 0:
		return plan.String{Value: n.Value}
	}

	switch n.ShortTag() {
	case "!!null":
		return plan.Null{}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return plan.Unsupported{Construct: fmt.Sprintf("boolean %q", n.Value)}
		}
		return plan.Bool{Value: b}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return plan.Unsupported{Construct: fmt.Sprintf("integer %s is out of range", n.Value)}
		}
		return plan.Int{Value: i}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return plan.Unsupported{Construct: fmt.Sprintf("float %q", n.Value)}
		}
		return plan.Float{Value: f}
	case "!!binary":
		return plan.Unsupported{Construct: "binary scalar"}
	}

	// Plain (unquoted) strings starting with '$' reference a binding.
	if n.Style&yaml.TaggedStyle == 0 && strings.HasPrefix(n.Value, "$") {
		return plan.VarRef{Ref: n.Value}
	}
	return plan.String{Value: n.Value}
}

// convertCall handles both call shapes:
//
//	!call [fn, arg1, arg2]
//	!call {function: fn, arguments: [...], options: {...}}
func convertCall(n *yaml.Node) plan.Expr {
	switch n.Kind {
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return plan.Unsupported{Construct: "!call needs a function name"}
		}
		fn, ok := functionName(n.Content[0])
		if !ok {
			return plan.Unsupported{Construct: fmt.Sprintf("!call function name %q", resolve(n.Content[0]).Value)}
		}
		call := plan.FuncCall{Function: fn}
		for _, a := range n.Content[1:] {
			call.Args = append(call.Args, convertExpr(a))
		}
		return call

	case yaml.MappingNode:
		var call plan.FuncCall
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := resolve(n.Content[i]), resolve(n.Content[i+1])
			switch k.Value {
			case "function":
				fn, ok := functionName(v)
				if !ok {
					return plan.Unsupported{Construct: fmt.Sprintf("!call function name %q", v.Value)}
				}
				call.Function = fn
			case "arguments":
				if v.Kind != yaml.SequenceNode {
					return plan.Unsupported{Construct: "!call arguments must be a sequence"}
				}
				for _, a := range v.Content {
					call.Args = append(call.Args, convertExpr(a))
				}
			case "options":
				if v.Kind != yaml.MappingNode {
					return plan.Unsupported{Construct: "!call options must be a mapping"}
				}
				opts := convertMap(v)
				call.Options = &opts
			default:
				return plan.Unsupported{Construct: fmt.Sprintf("!call key %q", k.Value)}
			}
		}
		if call.Function == "" {
			return plan.Unsupported{Construct: "!call needs a function name"}
		}
		return call
	}
	return plan.Unsupported{Construct: "!call on a scalar"}
}

func functionName(n *yaml.Node) (string, bool) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", false
	}
	return n.Value, functionNameRe.MatchString(n.Value)
}

// isLocalTag reports whether tag is an explicit application tag such as
// "!foo". Core tags ("!!str") and the non-specific "!" are not local.
func isLocalTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!") && tag != "!"
}
