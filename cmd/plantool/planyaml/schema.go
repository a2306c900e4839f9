package planyaml

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"plan-tools/cmd/plantool/plan"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "plantool://plan.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func planSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add plan schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// validateShape checks the top-level document shape against the embedded
// JSON Schema. Finer checks (step kinds, names, expressions) happen while
// converting.
func validateShape(root *yaml.Node) error {
	schema, err := planSchema()
	if err != nil {
		return err
	}
	err = schema.Validate(toJSONValue(root))
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &plan.SchemaError{Path: "<doc>", Err: plan.ErrWrongShape, Msg: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	sentinel := plan.ErrWrongShape
	if strings.HasPrefix(leaf.Message, "missing properties") {
		sentinel = plan.ErrMissingKey
	}
	return &plan.SchemaError{Path: pointerToPath(leaf.InstanceLocation), Err: sentinel, Msg: leaf.Message}
}

// toJSONValue converts a node tree into the value model the validator
// expects (maps, slices, float64, bool, string, nil).
func toJSONValue(n *yaml.Node) any {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[resolve(n.Content[i]).Value] = toJSONValue(n.Content[i+1])
		}
		return out
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, toJSONValue(c))
		}
		return out
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil
		case "!!bool":
			var b bool
			if n.Decode(&b) == nil {
				return b
			}
		case "!!int", "!!float":
			var f float64
			if n.Decode(&f) == nil && !isNonFinite(f) {
				return f
			}
		}
		return n.Value
	}
	return nil
}

func isNonFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// pointerToPath renders a JSON pointer ("/steps/0/name") as a key path
// ("steps[0].name").
func pointerToPath(ptr string) string {
	if ptr == "" || ptr == "/" {
		return "<doc>"
	}
	var b strings.Builder
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if isIndex(seg) {
			fmt.Fprintf(&b, "[%s]", seg)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
