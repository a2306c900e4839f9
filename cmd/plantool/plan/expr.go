package plan

// Expr is the sealed set of expression values that can appear in a plan.
type Expr interface {
	isExpr()
}

// String is a plain string literal.
type String struct{ Value string }

// Interpolated is a string whose ${...} segments are evaluated by the
// target language. It is always emitted double-quoted.
type Interpolated struct{ Value string }

// Code is target-language source carried through verbatim.
type Code struct{ Source string }

// Int is an integer literal.
type Int struct{ Value int64 }

// Float is a floating point literal.
type Float struct{ Value float64 }

// Bool is a boolean literal.
type Bool struct{ Value bool }

// Null is the absent value.
type Null struct{}

// List is an ordered sequence literal.
type List struct{ Items []Expr }

// Map is an ordered mapping literal.
type Map struct{ Entries []Entry }

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   Expr
	Value Expr
}

// VarRef references a previously bound name. Ref holds the source text,
// including the leading '$' and any attribute access (e.g. "$result.targets").
type VarRef struct{ Ref string }

// FuncCall calls Function with positional Args followed, when present, by
// Options rendered as a single trailing hash argument.
type FuncCall struct {
	Function string
	Args     []Expr
	Options  *Map
}

// Unsupported marks a construct the loader recognised structurally but
// that has no translation. Construct describes it for error messages.
type Unsupported struct{ Construct string }

func (String) isExpr()       {}
func (Interpolated) isExpr() {}
func (Code) isExpr()         {}
func (Int) isExpr()          {}
func (Float) isExpr()        {}
func (Bool) isExpr()         {}
func (Null) isExpr()         {}
func (List) isExpr()         {}
func (Map) isExpr()          {}
func (VarRef) isExpr()       {}
func (FuncCall) isExpr()     {}
func (Unsupported) isExpr()  {}
