// Package planyaml loads declarative YAML plans into plan.Definition values.
//
// Documents are decoded into a yaml.Node tree rather than Go structs so
// that key order and scalar styles survive: a double-quoted scalar is an
// interpolated string and a literal block (|) is verbatim code.
package planyaml

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"plan-tools/cmd/plantool/plan"

	"gopkg.in/yaml.v3"
)

var (
	planNameRe  = regexp.MustCompile(`^[a-z][a-z0-9_]*(::[a-z][a-z0-9_]*)*$`)
	identRe     = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]*$`)
	typeStartRe = regexp.MustCompile(`^[A-Z]`)
)

var topLevelKeys = []string{"description", "parameters", "private", "return", "steps", "version"}

// ---- Parse -----------------------------------------------------------------

// Parse loads a plan document. name is the qualified plan name the
// document is known by (usually derived from its path in a module).
func Parse(name string, in []byte) (*plan.Definition, error) {
	if !planNameRe.MatchString(name) {
		return nil, plan.Schemaf("<name>", plan.ErrInvalidName, "%q is not a valid plan name", name)
	}

	var docNode yaml.Node
	if err := yaml.Unmarshal(in, &docNode); err != nil {
		return nil, &plan.SchemaError{Path: "<doc>", Err: plan.ErrMalformed, Msg: err.Error()}
	}
	if len(docNode.Content) == 0 {
		return nil, plan.Schemaf("<doc>", plan.ErrWrongShape, "empty YAML")
	}
	root := resolve(docNode.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, plan.Schemaf("<doc>", plan.ErrWrongShape, "plan must be a mapping, got %s", kindName(root))
	}
	if err := validateShape(root); err != nil {
		return nil, err
	}

	def, err := convertDocument(root)
	if err != nil {
		return nil, err
	}
	def.Name = name
	return def, nil
}

// ParseFile reads and loads the plan at path.
func ParseFile(name, path string) (*plan.Definition, error) {
	in, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	def, err := Parse(name, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ---- Convert: yaml.Node → plan types ---------------------------------------

func convertDocument(root *yaml.Node) (*plan.Definition, error) {
	m, err := asMapping(root, "")
	if err != nil {
		return nil, err
	}
	if err := m.check(topLevelKeys...); err != nil {
		return nil, err
	}

	def := &plan.Definition{}

	if n := m.get("version"); n != nil {
		var v int
		if n.ShortTag() != "!!int" || n.Decode(&v) != nil || v != 2 {
			return nil, plan.Schemaf("version", plan.ErrWrongShape, "only version 2 plans are supported, got %q", n.Value)
		}
	}
	if n := m.get("description"); n != nil {
		if def.Description, err = stringValue(n, "description"); err != nil {
			return nil, err
		}
	}
	if n := m.get("private"); n != nil {
		var b bool
		if n.ShortTag() != "!!bool" || n.Decode(&b) != nil {
			return nil, plan.Schemaf("private", plan.ErrWrongShape, "must be a boolean, got %q", n.Value)
		}
		def.Private = &b
	}
	if n := m.get("parameters"); n != nil {
		if def.Parameters, err = convertParameters(n); err != nil {
			return nil, err
		}
	}

	stepsNode := m.getRaw("steps")
	if stepsNode == nil {
		return nil, plan.Schemaf("steps", plan.ErrMissingKey, "a plan needs a steps list")
	}
	if stepsNode.Kind != yaml.SequenceNode {
		return nil, plan.Schemaf("steps", plan.ErrWrongShape, "must be a sequence, got %s", kindName(stepsNode))
	}
	for i, sn := range stepsNode.Content {
		s, err := convertStep(sn, i)
		if err != nil {
			return nil, err
		}
		def.Steps = append(def.Steps, s)
	}

	if n := m.get("return"); n != nil {
		def.Return = convertExpr(n)
	}
	return def, nil
}

// convertParameters accepts both parameter forms:
//   - mapping form: name → {type, default, description} (or null)
//   - sequence form: [{name, type, default, description}, ...]
func convertParameters(n *yaml.Node) ([]plan.Parameter, error) {
	var params []plan.Parameter
	seen := make(map[string]bool)

	add := func(p plan.Parameter, path string) error {
		if seen[p.Name] {
			return plan.Schemaf(path, plan.ErrWrongShape, "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		params = append(params, p)
		return nil
	}

	switch n.Kind {
	case yaml.MappingNode:
		m, err := asMapping(n, "parameters")
		if err != nil {
			return nil, err
		}
		for _, key := range m.keys {
			path := "parameters." + key
			if !identRe.MatchString(key) {
				return nil, plan.Schemaf(path, plan.ErrInvalidName, "%q is not a valid parameter name", key)
			}
			p, err := convertParameter(m.get(key), path, false)
			if err != nil {
				return nil, err
			}
			p.Name = key
			if err := add(p, path); err != nil {
				return nil, err
			}
		}

	case yaml.SequenceNode:
		for i, item := range n.Content {
			path := fmt.Sprintf("parameters[%d]", i)
			p, err := convertParameter(resolve(item), path, true)
			if err != nil {
				return nil, err
			}
			if err := add(p, path); err != nil {
				return nil, err
			}
		}

	default:
		return nil, plan.Schemaf("parameters", plan.ErrWrongShape, "must be a mapping or a sequence, got %s", kindName(n))
	}
	return params, nil
}

func convertParameter(n *yaml.Node, path string, named bool) (plan.Parameter, error) {
	var p plan.Parameter
	if n == nil {
		if named {
			return p, plan.Schemaf(path, plan.ErrMissingName, "parameter entry needs a name")
		}
		return p, nil
	}
	m, err := asMapping(n, path)
	if err != nil {
		return p, err
	}
	allowed := []string{"type", "default", "description"}
	if named {
		allowed = append(allowed, "name")
	}
	if err := m.check(allowed...); err != nil {
		return p, err
	}

	if named {
		nn := m.get("name")
		if nn == nil {
			return p, plan.Schemaf(path, plan.ErrMissingName, "parameter entry needs a name")
		}
		if p.Name, err = nameValue(nn, path+".name"); err != nil {
			return p, err
		}
	}
	if tn := m.get("type"); tn != nil {
		if p.Type, err = stringValue(tn, path+".type"); err != nil {
			return p, err
		}
		if err := checkTypeExpr(p.Type, path+".type"); err != nil {
			return p, err
		}
	}
	if dn := m.getRaw("default"); dn != nil {
		p.Default = convertExpr(dn)
	}
	if dn := m.get("description"); dn != nil {
		if p.Description, err = stringValue(dn, path+".description"); err != nil {
			return p, err
		}
	}
	return p, nil
}

// checkTypeExpr accepts a capitalised type name with balanced brackets.
// The content of the type expression is not interpreted.
func checkTypeExpr(s, path string) error {
	if !typeStartRe.MatchString(s) {
		return plan.Schemaf(path, plan.ErrWrongShape, "type %q must start with an upper-case letter", s)
	}
	depth := 0
	for _, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return plan.Schemaf(path, plan.ErrWrongShape, "type %q has unbalanced brackets", s)
			}
		case '\n':
			return plan.Schemaf(path, plan.ErrWrongShape, "type %q spans several lines", s)
		}
	}
	if depth != 0 {
		return plan.Schemaf(path, plan.ErrWrongShape, "type %q has unbalanced brackets", s)
	}
	return nil
}

// ---- Node helpers ----------------------------------------------------------

// mapping is an order-preserving view of a YAML mapping node.
type mapping struct {
	path   string
	keys   []string
	values map[string]*yaml.Node
}

func asMapping(n *yaml.Node, path string) (*mapping, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, plan.Schemaf(displayPath(path), plan.ErrWrongShape, "must be a mapping, got %s", kindName(n))
	}
	m := &mapping{path: path, values: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolve(n.Content[i])
		if k.Kind != yaml.ScalarNode {
			return nil, plan.Schemaf(displayPath(path), plan.ErrWrongShape, "mapping keys must be scalars, got %s", kindName(k))
		}
		if _, dup := m.values[k.Value]; dup {
			return nil, plan.Schemaf(m.child(k.Value), plan.ErrWrongShape, "duplicate key %q", k.Value)
		}
		m.keys = append(m.keys, k.Value)
		m.values[k.Value] = n.Content[i+1]
	}
	return m, nil
}

func (m *mapping) has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// getRaw returns the value node for key, or nil when the key is absent.
func (m *mapping) getRaw(key string) *yaml.Node {
	n, ok := m.values[key]
	if !ok {
		return nil
	}
	return resolve(n)
}

// get is getRaw with explicit nulls treated as absent.
func (m *mapping) get(key string) *yaml.Node {
	n := m.getRaw(key)
	if n == nil || isNull(n) {
		return nil
	}
	return n
}

// check rejects keys outside allowed, suggesting the closest allowed key.
func (m *mapping) check(allowed ...string) error {
	for _, k := range m.keys {
		if contains(allowed, k) {
			continue
		}
		msg := fmt.Sprintf("%q", k)
		if s := suggest(k, allowed); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return plan.Schemaf(m.child(k), plan.ErrUnknownKey, "%s", msg)
	}
	return nil
}

func (m *mapping) child(key string) string {
	if m.path == "" {
		return key
	}
	return m.path + "." + key
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// stringValue returns the text of a string scalar.
func stringValue(n *yaml.Node, path string) (string, error) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return "", plan.Schemaf(path, plan.ErrWrongShape, "must be a string, got %s", kindName(n))
	}
	switch n.ShortTag() {
	case "!!str", "!!timestamp":
		return n.Value, nil
	}
	return "", plan.Schemaf(path, plan.ErrWrongShape, "must be a string, got %s %q", strings.TrimPrefix(n.ShortTag(), "!!"), n.Value)
}

// nameValue returns the text of a scalar that must be a bare identifier.
func nameValue(n *yaml.Node, path string) (string, error) {
	s, err := stringValue(n, path)
	if err != nil {
		return "", err
	}
	if !identRe.MatchString(s) {
		return "", plan.Schemaf(path, plan.ErrInvalidName, "%q is not a valid variable name", s)
	}
	return s, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return "scalar"
	case yaml.DocumentNode:
		return "document"
	}
	return "unknown node"
}

func displayPath(path string) string {
	if path == "" {
		return "<doc>"
	}
	return path
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
