package planyaml

import (
	"fmt"
	"strings"

	"plan-tools/cmd/plantool/plan"

	"gopkg.in/yaml.v3"
)

// decodeEval accepts a scalar (usually a literal block of code) or a
// structured block. A structured block is a sequence of statements, or a
// single mapping standing for a one-statement block.
func decodeEval(m *mapping, path string) (plan.Body, error) {
	n := m.getRaw("eval")
	if n.Kind == yaml.ScalarNode || n.Tag == callTag || !isStructured(n) {
		return plan.EvalStep{Value: convertExpr(n)}, nil
	}
	nodes := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		nodes = n.Content
	}
	stmts, err := convertStatements(nodes, path+".eval")
	if err != nil {
		return nil, err
	}
	return plan.EvalStep{Block: &plan.EvalBlock{Statements: stmts}}, nil
}

// isStructured reports whether an eval value holds statements rather than a
// data literal: a link mapping, a let binding, or a sequence containing one.
func isStructured(n *yaml.Node) bool {
	switch n.Kind {
	case yaml.MappingNode:
		return isLink(n) || isLet(n)
	case yaml.SequenceNode:
		for _, c := range n.Content {
			c = resolve(c)
			if c.Kind == yaml.MappingNode && (isLink(c) || isLet(c)) {
				return true
			}
		}
	}
	return false
}

func isLink(n *yaml.Node) bool {
	return n.Tag != callTag && hasKey(n, "do")
}

// isLet matches the binding statement {let: name, value: expr}.
func isLet(n *yaml.Node) bool {
	return n.Tag != callTag && len(n.Content) == 4 && hasKey(n, "let") && hasKey(n, "value")
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if resolve(n.Content[i]).Value == key {
			return true
		}
	}
	return false
}

func convertStatements(nodes []*yaml.Node, path string) ([]plan.Statement, error) {
	if len(nodes) == 0 {
		return nil, plan.Schemaf(path, plan.ErrWrongShape, "block needs at least one statement")
	}
	stmts := make([]plan.Statement, 0, len(nodes))
	for i, sn := range nodes {
		spath := fmt.Sprintf("%s[%d]", path, i)
		sn = resolve(sn)

		var st plan.Statement
		var err error
		switch {
		case sn.Kind == yaml.MappingNode && isLink(sn):
			st, err = convertLink(sn, spath)
		case sn.Kind == yaml.MappingNode && isLet(sn):
			st, err = convertLet(sn, spath)
		default:
			st = plan.Statement{Value: convertExpr(sn)}
		}
		if err != nil {
			return nil, err
		}
		if st.Link != nil && st.Link.Collection == nil && i == 0 {
			return nil, plan.Schemaf(spath, plan.ErrMissingKey, "the first link of a block needs a collection")
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

func convertLet(n *yaml.Node, path string) (plan.Statement, error) {
	m, err := asMapping(n, path)
	if err != nil {
		return plan.Statement{}, err
	}
	name, err := nameValue(m.getRaw("let"), path+".let")
	if err != nil {
		return plan.Statement{}, err
	}
	return plan.Statement{Name: name, Value: convertExpr(m.getRaw("value"))}, nil
}

// convertLink decodes one chained iteration:
//
//	{map: <collection or null>, as: <param or [params]>, do: <statements>, name: <binding>}
//
// reduce additionally accepts initial.
func convertLink(n *yaml.Node, path string) (plan.Statement, error) {
	var st plan.Statement
	m, err := asMapping(n, path)
	if err != nil {
		return st, err
	}

	var ops []plan.IterOp
	for _, op := range plan.IterOps {
		if m.has(string(op)) {
			ops = append(ops, op)
		}
	}
	opNames := make([]string, len(plan.IterOps))
	for i, op := range plan.IterOps {
		opNames[i] = string(op)
	}
	if len(ops) != 1 {
		for _, key := range m.keys {
			if hint := suggest(key, opNames); hint != "" && !contains([]string{"as", "do", "name", "initial"}, key) {
				return st, plan.Schemaf(path, plan.ErrMissingKey, "key %q is not an iteration (did you mean %q?)", key, hint)
			}
		}
		return st, plan.Schemaf(path, plan.ErrMissingKey, "a link needs exactly one of: %s", strings.Join(opNames, ", "))
	}

	link := &plan.Link{Op: ops[0]}
	allowed := []string{string(link.Op), "as", "do", "name"}
	if link.Op == plan.OpReduce {
		allowed = append(allowed, "initial")
	}
	if err := m.check(allowed...); err != nil {
		return st, err
	}

	if cn := m.get(string(link.Op)); cn != nil {
		link.Collection = convertExpr(cn)
	}
	if nn := m.get("name"); nn != nil {
		if st.Name, err = nameValue(nn, path+".name"); err != nil {
			return st, err
		}
	}
	if link.Params, err = convertParams(m.get("as"), path+".as"); err != nil {
		return st, err
	}
	lo, hi := 1, 2
	if link.Op == plan.OpReduce {
		lo = 2
	}
	if len(link.Params) < lo || len(link.Params) > hi {
		return st, plan.Schemaf(path+".as", plan.ErrWrongShape, "%s takes %d to %d parameters, got %d", link.Op, lo, hi, len(link.Params))
	}
	if in := m.getRaw("initial"); in != nil {
		link.Initial = convertExpr(in)
	}

	dn := m.getRaw("do")
	body := []*yaml.Node{dn}
	if dn.Kind == yaml.SequenceNode && dn.Tag != callTag {
		body = dn.Content
	}
	if link.Body, err = convertStatements(body, path+".do"); err != nil {
		return st, err
	}

	st.Link = link
	return st, nil
}

func convertParams(n *yaml.Node, path string) ([]string, error) {
	if n == nil {
		return nil, plan.Schemaf(path, plan.ErrMissingKey, "a link needs parameter names")
	}
	if n.Kind == yaml.SequenceNode {
		names := make([]string, 0, len(n.Content))
		for i, c := range n.Content {
			name, err := nameValue(c, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, nil
	}
	name, err := nameValue(n, path)
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}
