// Package signature extracts the caller-visible interface of a plan
// (name, description, visibility and parameters) from either a loaded
// definition or generated plan source, so that the two can be compared.
package signature

import (
	"strings"

	"plan-tools/cmd/plantool/plan"
	"plan-tools/cmd/plantool/transpile"
)

// Parameter is one parameter of a plan signature.
type Parameter struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	DefaultValue *string `json:"default_value,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// Signature is the interface a plan presents to its callers.
type Signature struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Private     bool        `json:"private"`
	Parameters  []Parameter `json:"parameters"`
}

const anyType = "Any"

// FromDefinition derives the signature of a loaded plan. Untyped
// parameters report the Any type; defaults are rendered as source text.
func FromDefinition(def *plan.Definition) (*Signature, error) {
	sig := &Signature{
		Name:        def.Name,
		Description: docText(def.Description),
		Private:     def.Private != nil && *def.Private,
		Parameters:  make([]Parameter, 0, len(def.Parameters)),
	}
	for _, p := range def.Parameters {
		sp := Parameter{
			Name:        p.Name,
			Type:        p.Type,
			Description: docText(p.Description),
		}
		if sp.Type == "" {
			sp.Type = anyType
		}
		if p.Default != nil {
			d, err := transpile.Expression(p.Default)
			if err != nil {
				return nil, err
			}
			sp.DefaultValue = &d
		}
		sig.Parameters = append(sig.Parameters, sp)
	}
	return sig, nil
}

// docText normalizes description text the way it reads back from doc
// comments: trailing whitespace is dropped from every line, and trailing
// blank lines are dropped.
func docText(s string) string {
	ls := strings.Split(s, "\n")
	for i, l := range ls {
		ls[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Join(trimTrailingBlank(ls), "\n")
}

// StripWarning removes the generated-plan notice from a description read
// back from generated source.
func StripWarning(desc string) string {
	if desc == transpile.Warning {
		return ""
	}
	return strings.TrimSuffix(desc, "\n"+transpile.Warning)
}
