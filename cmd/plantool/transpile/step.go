package transpile

import (
	"fmt"
	"strings"

	"plan-tools/cmd/plantool/plan"
)

// step renders one step as source lines, relative to the plan body.
func (tr *translation) step(i int, s plan.Step) ([]string, error) {
	at := site{step: i, path: fmt.Sprintf("steps[%d]", i)}

	var out []string
	if s.Comment != "" {
		out = append(out, commentLines(s.Comment)...)
	}

	var (
		stmt []string
		err  error
	)
	switch b := s.Body.(type) {
	case plan.TaskStep:
		stmt, err = tr.task(s, b, at)
	case plan.CommandStep:
		stmt, err = tr.command(s, b, at)
	case plan.ScriptStep:
		stmt, err = tr.script(s, b, at)
	case plan.PlanStep:
		stmt, err = tr.runPlan(s, b, at)
	case plan.ApplyStep:
		stmt, err = tr.apply(s, b, at)
	case plan.EvalStep:
		stmt, err = tr.eval(s, b, at)
	case plan.UploadStep:
		stmt, err = tr.transfer("upload_file", s, b.Source, b.Destination, at)
	case plan.DownloadStep:
		stmt, err = tr.transfer("download_file", s, b.Source, b.Destination, at)
	case plan.MessageStep:
		stmt, err = tr.output("out::message", b.Message, at.field("message"))
	case plan.VerboseStep:
		stmt, err = tr.output("out::verbose", b.Message, at.field("verbose"))
	case plan.CallStep:
		stmt, err = tr.call(s, b, at)
	default:
		return nil, &plan.UnsupportedConstructError{
			Step:      i,
			Path:      at.path,
			Construct: fmt.Sprintf("step of type %T", s.Body),
			Err:       plan.ErrUnsupportedStep,
		}
	}
	if err != nil {
		return nil, err
	}
	tr.logger.Debug("translated step", "index", i, "kind", s.Body.Kind().String(), "name", s.Name)
	return append(out, stmt...), nil
}

func (tr *translation) task(s plan.Step, b plan.TaskStep, at site) ([]string, error) {
	task, err := expr(b.Task, at.field("task"))
	if err != nil {
		return nil, err
	}
	var params []pair
	if b.Parameters != nil {
		if params, err = hashPairs(*b.Parameters, at.field("parameters")); err != nil {
			return nil, err
		}
	}
	return tr.targeted("run_task", []string{task}, s, params, at)
}

func (tr *translation) command(s plan.Step, b plan.CommandStep, at site) ([]string, error) {
	cmd, err := expr(b.Command, at.field("command"))
	if err != nil {
		return nil, err
	}
	var opts []pair
	if b.EnvVars != nil {
		env, err := hash(*b.EnvVars, at.field("env_vars"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_env_vars"), env})
	}
	return tr.targeted("run_command", []string{cmd}, s, opts, at)
}

func (tr *translation) script(s plan.Step, b plan.ScriptStep, at site) ([]string, error) {
	script, err := expr(b.Script, at.field("script"))
	if err != nil {
		return nil, err
	}
	var opts []pair
	if b.Arguments != nil {
		args, err := expr(*b.Arguments, at.field("arguments"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("arguments"), args})
	}
	if b.PwshParams != nil {
		pp, err := hash(*b.PwshParams, at.field("pwsh_params"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("pwsh_params"), pp})
	}
	if b.EnvVars != nil {
		env, err := hash(*b.EnvVars, at.field("env_vars"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_env_vars"), env})
	}
	return tr.targeted("run_script", []string{script}, s, opts, at)
}

// runPlan passes the step targets as the sub-plan's targets parameter.
func (tr *translation) runPlan(s plan.Step, b plan.PlanStep, at site) ([]string, error) {
	name, err := expr(b.Plan, at.field("plan"))
	if err != nil {
		return nil, err
	}
	var params []pair
	if b.Parameters != nil {
		if params, err = hashPairs(*b.Parameters, at.field("parameters")); err != nil {
			return nil, err
		}
	}
	if s.Targets != nil {
		t, err := expr(s.Targets, at.field("targets"))
		if err != nil {
			return nil, err
		}
		params = append(params, pair{quote("targets"), t})
	}
	opts, err := runOptions(s, at)
	if err != nil {
		return nil, err
	}
	args := []string{name}
	if all := append(params, opts...); len(all) > 0 {
		args = append(args, renderHash(all))
	}
	return bind(s.Name, invoke("run_plan", args)), nil
}

func (tr *translation) transfer(fn string, s plan.Step, src, dest plan.Expr, at site) ([]string, error) {
	field := strings.TrimSuffix(fn, "_file")
	from, err := expr(src, at.field(field))
	if err != nil {
		return nil, err
	}
	to, err := expr(dest, at.field("destination"))
	if err != nil {
		return nil, err
	}
	return tr.targeted(fn, []string{from, to}, s, nil, at)
}

func (tr *translation) output(fn string, msg plan.Expr, at site) ([]string, error) {
	m, err := expr(msg, at)
	if err != nil {
		return nil, err
	}
	return lines(invoke(fn, []string{m})), nil
}

func (tr *translation) call(s plan.Step, b plan.CallStep, at site) ([]string, error) {
	c, err := call(b.Call, at.field("call"))
	if err != nil {
		return nil, err
	}
	return bind(s.Name, c), nil
}

// targeted renders the common "fn(lead..., targets[, description][, hash])"
// shape shared by the run_* and file transfer functions. The trailing hash
// carries kind-specific entries followed by the step options.
func (tr *translation) targeted(fn string, lead []string, s plan.Step, entries []pair, at site) ([]string, error) {
	targets, err := expr(s.Targets, at.field("targets"))
	if err != nil {
		return nil, err
	}
	args := append(append([]string{}, lead...), targets)
	if s.Description != nil {
		d, err := expr(s.Description, at.field("description"))
		if err != nil {
			return nil, err
		}
		args = append(args, d)
	}
	opts, err := runOptions(s, at)
	if err != nil {
		return nil, err
	}
	if all := append(entries, opts...); len(all) > 0 {
		args = append(args, renderHash(all))
	}
	return bind(s.Name, invoke(fn, args)), nil
}

// runOptions renders the step options understood by every run function.
func runOptions(s plan.Step, at site) ([]pair, error) {
	var opts []pair
	if s.CatchErrors != nil {
		v, err := expr(s.CatchErrors, at.field("catch_errors"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_catch_errors"), v})
	}
	if s.RunAs != nil {
		v, err := expr(s.RunAs, at.field("run_as"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, pair{quote("_run_as"), v})
	}
	return opts, nil
}

// bind prefixes the first line of src with "$name = " when name is set.
func bind(name, src string) []string {
	if name != "" {
		src = "$" + name + " = " + src
	}
	return lines(src)
}

func lines(src string) []string {
	return strings.Split(src, "\n")
}

// commentLines renders text as line comments, one per line.
func commentLines(text string) []string {
	var out []string
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "#"):
			out = append(out, l)
		case l == "":
			out = append(out, "#")
		default:
			out = append(out, "# "+l)
		}
	}
	return out
}
