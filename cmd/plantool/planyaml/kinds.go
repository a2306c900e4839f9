package planyaml

import "plan-tools/cmd/plantool/plan"

// stepKind describes how one step kind is recognised and decoded.
// A step is recognised by the presence of exactly one kind key.
type stepKind struct {
	kind plan.Kind
	// keys lists every key the step may carry besides the kind key.
	keys []string
	// targets marks kinds that must declare a targets key.
	targets bool
	decode  func(m *mapping, path string) (plan.Body, error)
}

var commonKeys = []string{"name", "targets", "description", "comment", "catch_errors", "run_as"}

// stepKinds is ordered; that order is used when listing kinds in messages.
var stepKinds = []stepKind{
	{kind: plan.KindTask, keys: withCommon("parameters"), targets: true, decode: decodeTask},
	{kind: plan.KindCommand, keys: withCommon("env_vars"), targets: true, decode: decodeCommand},
	{kind: plan.KindScript, keys: withCommon("arguments", "pwsh_params", "env_vars"), targets: true, decode: decodeScript},
	{kind: plan.KindPlan, keys: []string{"name", "targets", "comment", "catch_errors", "run_as", "parameters"}, decode: decodePlan},
	{kind: plan.KindResources, keys: withCommon("noop"), targets: true, decode: decodeResources},
	{kind: plan.KindEval, keys: []string{"name", "comment"}, decode: decodeEval},
	{kind: plan.KindUpload, keys: withCommon("destination"), targets: true, decode: decodeUpload},
	{kind: plan.KindDownload, keys: withCommon("destination"), targets: true, decode: decodeDownload},
	{kind: plan.KindMessage, keys: []string{"comment"}, decode: decodeMessage},
	{kind: plan.KindVerbose, keys: []string{"comment"}, decode: decodeVerbose},
	{kind: plan.KindCall, keys: []string{"name", "comment", "arguments", "options"}, decode: decodeCall},
}

func withCommon(extra ...string) []string {
	keys := make([]string, 0, len(commonKeys)+len(extra))
	keys = append(keys, commonKeys...)
	return append(keys, extra...)
}

// allowedKeys returns the kind key followed by every other accepted key.
func (k stepKind) allowedKeys() []string {
	return append([]string{k.kind.String()}, k.keys...)
}

func (k stepKind) accepts(key string) bool {
	return contains(k.keys, key)
}

func kindKeys() []string {
	keys := make([]string, len(stepKinds))
	for i, k := range stepKinds {
		keys[i] = k.kind.String()
	}
	return keys
}
