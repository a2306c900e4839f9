package planyaml

import (
	"fmt"
	"regexp"
	"strings"

	"plan-tools/cmd/plantool/plan"

	"gopkg.in/yaml.v3"
)

var (
	resourceTypeRe  = regexp.MustCompile(`^[a-z][a-z0-9_]*(::[a-z][a-z0-9_]*)*$`)
	attributeNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func convertStep(n *yaml.Node, i int) (plan.Step, error) {
	path := fmt.Sprintf("steps[%d]", i)
	var s plan.Step

	m, err := asMapping(n, path)
	if err != nil {
		return s, err
	}

	var found []stepKind
	for _, k := range stepKinds {
		if m.has(k.kind.String()) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		msg := fmt.Sprintf("expected one of: %s", strings.Join(kindKeys(), ", "))
		for _, key := range m.keys {
			if hint := suggest(key, kindKeys()); hint != "" {
				msg = fmt.Sprintf("key %q is not a step kind (did you mean %q?)", key, hint)
				break
			}
		}
		return s, plan.Schemaf(path, plan.ErrNoStepKind, "%s", msg)
	case 1:
	default:
		names := make([]string, len(found))
		for j, k := range found {
			names[j] = k.kind.String()
		}
		return s, plan.Schemaf(path, plan.ErrWrongShape, "step declares several kinds: %s", strings.Join(names, ", "))
	}

	kind := found[0]
	if err := m.check(kind.allowedKeys()...); err != nil {
		return s, err
	}

	if nn := m.get("name"); nn != nil {
		if s.Name, err = nameValue(nn, path+".name"); err != nil {
			return s, err
		}
	}
	if cn := m.get("comment"); cn != nil {
		if s.Comment, err = stringValue(cn, path+".comment"); err != nil {
			return s, err
		}
	}
	if tn := m.get("targets"); tn != nil {
		s.Targets = convertExpr(tn)
	} else if kind.targets {
		return s, plan.Schemaf(path+".targets", plan.ErrMissingKey, "%s steps need targets", kind.kind)
	}
	if kind.accepts("description") {
		if dn := m.get("description"); dn != nil {
			s.Description = convertExpr(dn)
		}
	}
	if kind.accepts("catch_errors") {
		if cn := m.get("catch_errors"); cn != nil {
			s.CatchErrors = convertExpr(cn)
		}
	}
	if kind.accepts("run_as") {
		if rn := m.get("run_as"); rn != nil {
			s.RunAs = convertExpr(rn)
		}
	}

	if s.Body, err = kind.decode(m, path); err != nil {
		return s, err
	}
	if a, ok := s.Body.(plan.ApplyStep); ok {
		a.Block.Targets = s.Targets
		s.Body = a
	}
	return s, nil
}

// ---- Kind decoders ---------------------------------------------------------

func decodeTask(m *mapping, path string) (plan.Body, error) {
	task, err := required(m, "task", path)
	if err != nil {
		return nil, err
	}
	params, err := optionalMap(m, "parameters", path)
	if err != nil {
		return nil, err
	}
	return plan.TaskStep{Task: task, Parameters: params}, nil
}

func decodeCommand(m *mapping, path string) (plan.Body, error) {
	cmd, err := required(m, "command", path)
	if err != nil {
		return nil, err
	}
	env, err := optionalMap(m, "env_vars", path)
	if err != nil {
		return nil, err
	}
	return plan.CommandStep{Command: cmd, EnvVars: env}, nil
}

func decodeScript(m *mapping, path string) (plan.Body, error) {
	script, err := required(m, "script", path)
	if err != nil {
		return nil, err
	}
	b := plan.ScriptStep{Script: script}
	if b.Arguments, err = optionalList(m, "arguments", path); err != nil {
		return nil, err
	}
	if b.PwshParams, err = optionalMap(m, "pwsh_params", path); err != nil {
		return nil, err
	}
	if b.EnvVars, err = optionalMap(m, "env_vars", path); err != nil {
		return nil, err
	}
	return b, nil
}

func decodePlan(m *mapping, path string) (plan.Body, error) {
	p, err := required(m, "plan", path)
	if err != nil {
		return nil, err
	}
	params, err := optionalMap(m, "parameters", path)
	if err != nil {
		return nil, err
	}
	return plan.PlanStep{Plan: p, Parameters: params}, nil
}

func decodeUpload(m *mapping, path string) (plan.Body, error) {
	src, err := required(m, "upload", path)
	if err != nil {
		return nil, err
	}
	dest, err := required(m, "destination", path)
	if err != nil {
		return nil, err
	}
	return plan.UploadStep{Source: src, Destination: dest}, nil
}

func decodeDownload(m *mapping, path string) (plan.Body, error) {
	src, err := required(m, "download", path)
	if err != nil {
		return nil, err
	}
	dest, err := required(m, "destination", path)
	if err != nil {
		return nil, err
	}
	return plan.DownloadStep{Source: src, Destination: dest}, nil
}

func decodeMessage(m *mapping, path string) (plan.Body, error) {
	msg, err := required(m, "message", path)
	if err != nil {
		return nil, err
	}
	return plan.MessageStep{Message: msg}, nil
}

func decodeVerbose(m *mapping, path string) (plan.Body, error) {
	msg, err := required(m, "verbose", path)
	if err != nil {
		return nil, err
	}
	return plan.VerboseStep{Message: msg}, nil
}

func decodeCall(m *mapping, path string) (plan.Body, error) {
	fn, ok := functionName(m.getRaw("call"))
	if !ok {
		return nil, plan.Schemaf(path+".call", plan.ErrInvalidName, "%q is not a valid function name", m.getRaw("call").Value)
	}
	call := plan.FuncCall{Function: fn}
	args, err := optionalList(m, "arguments", path)
	if err != nil {
		return nil, err
	}
	if args != nil {
		call.Args = args.Items
	}
	if call.Options, err = optionalMap(m, "options", path); err != nil {
		return nil, err
	}
	return plan.CallStep{Call: call}, nil
}

func decodeResources(m *mapping, path string) (plan.Body, error) {
	rpath := path + ".resources"
	n := m.getRaw("resources")
	if n.Kind != yaml.SequenceNode {
		return nil, plan.Schemaf(rpath, plan.ErrWrongShape, "must be a sequence, got %s", kindName(n))
	}
	if len(n.Content) == 0 {
		return nil, plan.Schemaf(rpath, plan.ErrWrongShape, "needs at least one resource")
	}
	var b plan.ApplyStep
	for i, rn := range n.Content {
		r, err := convertResource(rn, fmt.Sprintf("%s[%d]", rpath, i))
		if err != nil {
			return nil, err
		}
		b.Block.Resources = append(b.Block.Resources, r)
	}
	if nn := m.get("noop"); nn != nil {
		b.Noop = convertExpr(nn)
	}
	return b, nil
}

// convertResource accepts both declaration forms:
//
//	{<type>: <title>, parameters: {...}}
//	{type: <type>, title: <title>, parameters: {...}}
func convertResource(n *yaml.Node, path string) (plan.Resource, error) {
	var r plan.Resource
	m, err := asMapping(n, path)
	if err != nil {
		return r, err
	}

	var titleNode *yaml.Node
	if m.has("type") {
		if err := m.check("type", "title", "parameters"); err != nil {
			return r, err
		}
		tn := m.get("type")
		if tn == nil {
			return r, plan.Schemaf(path+".type", plan.ErrMissingKey, "resource type must not be empty")
		}
		if r.Type, err = stringValue(tn, path+".type"); err != nil {
			return r, err
		}
		titleNode = m.get("title")
		if titleNode == nil {
			return r, plan.Schemaf(path+".title", plan.ErrMissingKey, "resource %q needs a title", r.Type)
		}
	} else {
		var typeKeys []string
		for _, k := range m.keys {
			if k != "parameters" {
				typeKeys = append(typeKeys, k)
			}
		}
		if len(typeKeys) != 1 {
			return r, plan.Schemaf(path, plan.ErrWrongShape, "resource must declare exactly one type, got %d", len(typeKeys))
		}
		r.Type = typeKeys[0]
		titleNode = m.get(r.Type)
		if titleNode == nil {
			return r, plan.Schemaf(path+"."+r.Type, plan.ErrMissingKey, "resource %q needs a title", r.Type)
		}
	}
	if !resourceTypeRe.MatchString(r.Type) {
		return r, plan.Schemaf(path, plan.ErrInvalidName, "%q is not a valid resource type", r.Type)
	}
	r.Title = convertExpr(titleNode)

	pn := m.get("parameters")
	if pn == nil {
		return r, nil
	}
	pm, err := asMapping(pn, path+".parameters")
	if err != nil {
		return r, err
	}
	for _, k := range pm.keys {
		if !attributeNameRe.MatchString(k) {
			return r, plan.Schemaf(pm.child(k), plan.ErrInvalidName, "%q is not a valid attribute name", k)
		}
		r.Attributes = append(r.Attributes, plan.Attribute{Name: k, Value: convertExpr(pm.getRaw(k))})
	}
	return r, nil
}

// ---- Field helpers ---------------------------------------------------------

// required returns the expression under key, rejecting null values.
func required(m *mapping, key, path string) (plan.Expr, error) {
	n := m.get(key)
	if n == nil {
		return nil, plan.Schemaf(path+"."+key, plan.ErrMissingKey, "%s must not be empty", key)
	}
	return convertExpr(n), nil
}

func optionalMap(m *mapping, key, path string) (*plan.Map, error) {
	n := m.get(key)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode || n.Tag == callTag {
		return nil, plan.Schemaf(path+"."+key, plan.ErrWrongShape, "must be a mapping, got %s", kindName(n))
	}
	out := convertMap(n)
	return &out, nil
}

func optionalList(m *mapping, key, path string) (*plan.List, error) {
	n := m.get(key)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode || n.Tag == callTag {
		return nil, plan.Schemaf(path+"."+key, plan.ErrWrongShape, "must be a sequence, got %s", kindName(n))
	}
	l, _ := convertExpr(n).(plan.List)
	return &l, nil
}
