// Package plan holds the in-memory form of a declarative plan: its
// signature, its ordered steps and the expressions embedded in them.
//
// Values are produced by a loader (see planyaml) and consumed by the
// transpiler. Nothing in this package mutates them after loading.
package plan

// Definition is a fully loaded declarative plan.
//
// Parameter and step order is significant and is preserved verbatim in any
// output derived from the definition.
type Definition struct {
	Name        string // qualified plan name, e.g. "yaml::conversion"
	Description string
	Private     *bool // nil when the document does not say
	Parameters  []Parameter
	Steps       []Step
	Return      Expr // nil when the plan returns nothing
}

// Parameter is one entry of the plan signature.
type Parameter struct {
	Name        string
	Type        string // structural type expression; empty means untyped
	Default     Expr   // nil means the parameter is required
	Description string
}

// Step is one unit of plan behaviour. The kind-specific payload lives in
// Body; the remaining fields are shared by every kind, and a kind that does
// not accept a field leaves it nil.
type Step struct {
	Name        string // result binding; empty when the result is discarded
	Targets     Expr
	Description Expr
	CatchErrors Expr
	RunAs       Expr
	Comment     string // emitted verbatim before the step
	Body        Body
}

// Kind identifies the variant held by a Step.
type Kind int

const (
	KindTask Kind = iota + 1
	KindCommand
	KindScript
	KindPlan
	KindResources
	KindEval
	KindUpload
	KindDownload
	KindMessage
	KindVerbose
	KindCall
)

var kindNames = map[Kind]string{
	KindTask:      "task",
	KindCommand:   "command",
	KindScript:    "script",
	KindPlan:      "plan",
	KindResources: "resources",
	KindEval:      "eval",
	KindUpload:    "upload",
	KindDownload:  "download",
	KindMessage:   "message",
	KindVerbose:   "verbose",
	KindCall:      "call",
}

// String returns the document key that selects the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Body is the sealed set of step payloads.
// The unexported isBody() method prevents external implementations.
type Body interface {
	isBody()
	Kind() Kind
}

// TaskStep runs a task on the step targets.
type TaskStep struct {
	Task       Expr
	Parameters *Map
}

// CommandStep runs a shell command on the step targets.
type CommandStep struct {
	Command Expr
	EnvVars *Map
}

// ScriptStep uploads and runs a script on the step targets.
type ScriptStep struct {
	Script     Expr
	Arguments  *List
	PwshParams *Map
	EnvVars    *Map
}

// PlanStep runs another plan. Targets, when set on the step, are passed as
// the sub-plan's "targets" parameter.
type PlanStep struct {
	Plan       Expr
	Parameters *Map
}

// ApplyStep applies a block of resource declarations to the step targets.
type ApplyStep struct {
	Block ApplyBlock
	Noop  Expr
}

// EvalStep computes a value. Exactly one of Value and Block is set: Value
// carries an expression (usually a code literal) and Block a structured
// sequence of statements.
type EvalStep struct {
	Value Expr
	Block *EvalBlock
}

// UploadStep copies a local file to the step targets.
type UploadStep struct {
	Source      Expr
	Destination Expr
}

// DownloadStep copies a remote file from the step targets.
type DownloadStep struct {
	Source      Expr
	Destination Expr
}

// MessageStep prints a message.
type MessageStep struct {
	Message Expr
}

// VerboseStep prints a message only in verbose mode.
type VerboseStep struct {
	Message Expr
}

// CallStep calls any other function.
type CallStep struct {
	Call FuncCall
}

func (TaskStep) isBody()     {}
func (CommandStep) isBody()  {}
func (ScriptStep) isBody()   {}
func (PlanStep) isBody()     {}
func (ApplyStep) isBody()    {}
func (EvalStep) isBody()     {}
func (UploadStep) isBody()   {}
func (DownloadStep) isBody() {}
func (MessageStep) isBody()  {}
func (VerboseStep) isBody()  {}
func (CallStep) isBody()     {}

func (TaskStep) Kind() Kind     { return KindTask }
func (CommandStep) Kind() Kind  { return KindCommand }
func (ScriptStep) Kind() Kind   { return KindScript }
func (PlanStep) Kind() Kind     { return KindPlan }
func (ApplyStep) Kind() Kind    { return KindResources }
func (EvalStep) Kind() Kind     { return KindEval }
func (UploadStep) Kind() Kind   { return KindUpload }
func (DownloadStep) Kind() Kind { return KindDownload }
func (MessageStep) Kind() Kind  { return KindMessage }
func (VerboseStep) Kind() Kind  { return KindVerbose }
func (CallStep) Kind() Kind     { return KindCall }

// ApplyBlock is the payload of a resources step.
// Resources run in declaration order: each one is ordered before the next.
type ApplyBlock struct {
	Targets   Expr
	Resources []Resource
}

// Resource is a single desired-state declaration.
type Resource struct {
	Type       string
	Title      Expr
	Attributes []Attribute
}

// Attribute is one resource attribute. Order is preserved.
type Attribute struct {
	Name  string
	Value Expr
}

// EvalBlock is a structured computation: a sequence of statements whose
// last value is the value of the block.
type EvalBlock struct {
	Statements []Statement
}

// Statement is one entry of an EvalBlock or of a link body. Exactly one of
// Value and Link is set.
type Statement struct {
	Name  string // optional binding for the statement's value
	Value Expr
	Link  *Link
}

// IterOp is an iteration function applied by a chain link.
type IterOp string

const (
	OpEach      IterOp = "each"
	OpMap       IterOp = "map"
	OpFilter    IterOp = "filter"
	OpReduce    IterOp = "reduce"
	OpAny       IterOp = "any"
	OpAll       IterOp = "all"
	OpFlatMap   IterOp = "flat_map"
	OpGroupBy   IterOp = "group_by"
	OpPartition IterOp = "partition"
)

// IterOps lists every supported iteration function in a stable order.
var IterOps = []IterOp{OpEach, OpMap, OpFilter, OpReduce, OpAny, OpAll, OpFlatMap, OpGroupBy, OpPartition}

// Link is one chained iteration: Op applied to Collection with a lambda
// binding Params and evaluating Body.
type Link struct {
	Op         IterOp
	Collection Expr // nil: the value of the previous statement
	Params     []string
	Initial    Expr // reduce only
	Body       []Statement
}
