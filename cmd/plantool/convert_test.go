package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plan-tools/cmd/plantool/plan"
	"plan-tools/cmd/plantool/planyaml"
	"plan-tools/cmd/plantool/signature"
	"plan-tools/pkg/lib"
)

const deployPlan = `description: Deploy the app
parameters:
  targets:
    type: TargetSpec
  version:
    type: String
    default: '1.0'
steps:
  - name: out
    command: "deploy ${version}"
    targets: $targets
return: $out
`

func deployJob(t *testing.T) *convertJob {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web", "plans", "deploy.yaml")
	writeFile(t, path, deployPlan)
	return &convertJob{name: "web::deploy", path: path}
}

func TestConvertJob_Stdout(t *testing.T) {
	job := deployJob(t)
	var out bytes.Buffer
	if err := job.run(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustContain(t, out.String(),
		"# Deploy the app\n# WARNING:",
		"plan web::deploy(\n  TargetSpec $targets,\n  String $version = '1.0'\n) {",
		`$out = run_command("deploy ${version}", $targets)`,
		"  return $out\n}\n",
	)
}

func TestConvertJob_WriteFile(t *testing.T) {
	job := deployJob(t)
	job.dest = outputPath(job.path)

	if err := job.run(nil); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, err := os.ReadFile(job.dest)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	mustContain(t, string(first), "plan web::deploy(")

	// Tests do not run on a terminal, so an existing file is refused.
	err = job.run(nil)
	if err == nil {
		t.Fatal("expected overwrite to be refused")
	}
	mustContain(t, err.Error(), "already exists (use --force to overwrite)")

	job.force = true
	if err := job.run(nil); err != nil {
		t.Fatalf("forced write: %v", err)
	}
}

func TestConvertJob_UncheckableDestination(t *testing.T) {
	job := deployJob(t)
	// A path below a regular file fails to stat with ENOTDIR, not ENOENT.
	job.dest = filepath.Join(job.path, "deploy.pp")

	err := job.run(nil)
	if err == nil {
		t.Fatal("expected stat error to be reported")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stat error reported as missing file: %v", err)
	}
	mustContain(t, err.Error(), "checking "+job.dest)
}

func TestConvertJob_FailureWritesNothing(t *testing.T) {
	t.Run("load error", func(t *testing.T) {
		job := deployJob(t)
		writeFile(t, job.path, "steps:\n  - task: x\n    tragets: $t\n")
		job.dest = outputPath(job.path)

		err := job.run(nil)
		var se *plan.SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("expected SchemaError, got %v", err)
		}
		mustContain(t, err.Error(), job.path, "phase=load", `did you mean "targets"?`)
		if lib.Code(err) != 2 {
			t.Errorf("exit code = %d, want 2", lib.Code(err))
		}
		if _, err := os.Stat(job.dest); !os.IsNotExist(err) {
			t.Fatalf("output file must not exist, stat err = %v", err)
		}
	})

	t.Run("translate error", func(t *testing.T) {
		job := deployJob(t)
		writeFile(t, job.path, "steps:\n  - message: !!binary aGVsbG8=\n")
		var out bytes.Buffer

		err := job.run(&out)
		var ue *plan.UnsupportedConstructError
		if !errors.As(err, &ue) {
			t.Fatalf("expected UnsupportedConstructError, got %v", err)
		}
		if lib.Code(err) != 3 {
			t.Errorf("exit code = %d, want 3", lib.Code(err))
		}
		if out.Len() != 0 {
			t.Fatalf("nothing may be written on failure, got %q", out.String())
		}
	})
}

func TestConvertJob_Verify(t *testing.T) {
	job := deployJob(t)
	job.verify = true
	if err := job.run(&bytes.Buffer{}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestVerifySignature_Mismatch(t *testing.T) {
	src := "# Deploy the app\nplan web::deploy(\n  TargetSpec $targets,\n  Integer $version = 1\n) {\n}\n"
	def, err := planyaml.Parse("web::deploy", []byte(deployPlan))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = verifySignature(def, src)
	if err == nil {
		t.Fatal("expected signature mismatch")
	}
	mustContain(t, err.Error(), "signature differs", "Integer")
}

func TestExamplePlan(t *testing.T) {
	job := &convertJob{name: "web::example", path: "example.yaml", verify: true}
	src, err := job.convert(examplePlanYAML)
	if err != nil {
		t.Fatalf("embedded example does not convert: %v", err)
	}
	mustContain(t, src,
		"run_task('facts', $targets, 'collect facts')",
		"apply_prep($targets)",
		"run_plan('web::database', {'version' => $version, 'targets' => $targets})",
		"$summary = with() || {",
	)
}

func TestValidatePlans(t *testing.T) {
	good := deployJob(t)
	badPath := filepath.Join(t.TempDir(), "web", "plans", "bad.yaml")
	writeFile(t, badPath, "steps: {}\n")

	var out bytes.Buffer
	errs := validatePlans(&out, []planFile{
		{Name: good.name, Path: good.path},
		{Name: "web::bad", Path: badPath},
	}, true)

	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	mustContain(t, errs[0].Error(), badPath, "path=steps")
	mustContain(t, out.String(), "web::deploy")
	if strings.Contains(out.String(), "web::bad") {
		t.Errorf("failed plan reported as ok: %q", out.String())
	}
	if lib.Code(errors.Join(errs...)) != 2 {
		t.Errorf("joined errors should keep the schema exit code")
	}
}

func TestValidatePlans_ReadError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "web", "plans", "gone.yaml")

	errs := validatePlans(&bytes.Buffer{}, []planFile{{Name: "web::gone", Path: missing}}, false)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	mustContain(t, errs[0].Error(), "reading plan "+missing)
	if !errors.Is(errs[0], os.ErrNotExist) {
		t.Errorf("read error should wrap the cause: %v", errs[0])
	}
}

func TestLoadSignature(t *testing.T) {
	job := deployJob(t)
	fromYAML, err := loadSignature(job.path, nil)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}

	job.dest = outputPath(job.path)
	if err := job.run(nil); err != nil {
		t.Fatalf("convert: %v", err)
	}
	fromSource, err := loadSignature(job.dest, nil)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if fromSource.Description != "Deploy the app" {
		t.Errorf("warning not stripped: %q", fromSource.Description)
	}

	var a, b bytes.Buffer
	if err := printSignatureJSON(&a, fromYAML); err != nil {
		t.Fatal(err)
	}
	if err := printSignatureJSON(&b, fromSource); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatalf("signatures differ:\n%s\n%s", a.String(), b.String())
	}

	var decoded signature.Signature
	if err := json.Unmarshal(a.Bytes(), &decoded); err != nil {
		t.Fatalf("json output does not decode: %v", err)
	}
	if decoded.Name != "web::deploy" || len(decoded.Parameters) != 2 || *decoded.Parameters[1].DefaultValue != "'1.0'" {
		t.Errorf("unexpected decoded signature: %+v", decoded)
	}
}

func TestPrintSignature(t *testing.T) {
	def := "'1.0'"
	var out bytes.Buffer
	printSignature(&out, &signature.Signature{
		Name:        "web::deploy",
		Description: "Deploy the app",
		Parameters: []signature.Parameter{
			{Name: "targets", Type: "TargetSpec"},
			{Name: "version", Type: "String", DefaultValue: &def, Description: "Release"},
		},
	})
	mustContain(t, out.String(), "web::deploy", "Deploy the app", "PARAMETER", "TargetSpec", "'1.0'", "Release")

	out.Reset()
	printSignature(&out, &signature.Signature{Name: "web::noop"})
	mustContain(t, out.String(), "no parameters")
}

func TestPrintPlans(t *testing.T) {
	var out bytes.Buffer
	printPlans(&out, nil)
	if out.String() != "no plans found\n" {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	printPlans(&out, []planFile{{Name: "a", Path: "/x/a.yaml"}, {Name: "web::deploy", Path: "/y.yaml"}})
	want := "a            /x/a.yaml\nweb::deploy  /y.yaml\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestRenderError(t *testing.T) {
	got := renderError("Error: plan \"x\" not found\navailable: a, b")
	mustContain(t, got, `plan "x" not found`, "available: a, b")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("info", "json", &buf)
	l.Debug("hidden")
	l.Info("shown", "plan", "web::deploy")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("not a JSON record: %q", out)
	}
	if rec["msg"] != "shown" || rec["plan"] != "web::deploy" {
		t.Errorf("unexpected record: %v", rec)
	}
}
