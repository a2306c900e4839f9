package transpile_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"plan-tools/cmd/plantool/plan"
	"plan-tools/cmd/plantool/planyaml"
	"plan-tools/cmd/plantool/transpile"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, name, yml string) *plan.Definition {
	t.Helper()
	def, err := planyaml.Parse(name, []byte(yml))
	require.NoError(t, err)
	return def
}

func convert(t *testing.T, yml string) string {
	t.Helper()
	out, err := transpile.Transpile(load(t, "mod::test", yml))
	require.NoError(t, err)
	return out
}

func TestGolden(t *testing.T) {
	cases := []struct {
		fixture string
		name    string
	}{
		{"conversion", "yaml::conversion"},
		{"structured", "yaml::conversion"},
		{"kinds", "mymod::kinds"},
	}
	for _, c := range cases {
		t.Run(c.fixture, func(t *testing.T) {
			def, err := planyaml.ParseFile(c.name, filepath.Join("testdata", c.fixture+".yaml"))
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join("testdata", c.fixture+".pp"))
			require.NoError(t, err)

			got, err := transpile.Transpile(def)
			require.NoError(t, err)
			if diff := cmp.Diff(string(want), got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	def, err := planyaml.ParseFile("yaml::conversion", filepath.Join("testdata", "kinds.yaml"))
	require.NoError(t, err)

	tr := transpile.New()
	first, err := tr.Transpile(def)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = tr.Transpile(def)
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		assert.Equal(t, first, r, "run %d differs", i)
	}
}

func TestStepOrderPreserved(t *testing.T) {
	var b strings.Builder
	b.WriteString("steps:\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "  - message: step-%02d\n", i)
	}
	out := convert(t, b.String())

	last := -1
	for i := 0; i < 20; i++ {
		idx := strings.Index(out, fmt.Sprintf("'step-%02d'", i))
		require.Greater(t, idx, last, "step %d out of order", i)
		last = idx
	}
}

func TestResourceChain(t *testing.T) {
	var b strings.Builder
	b.WriteString("steps:\n  - targets: $t\n    resources:\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "      - notify: n%d\n", i)
	}
	out := convert(t, b.String())

	assert.Equal(t, 4, strings.Count(out, "\n    ->\n"))
	last := -1
	for i := 0; i < 5; i++ {
		idx := strings.Index(out, fmt.Sprintf("notify { 'n%d': }", i))
		require.Greater(t, idx, last, "resource %d out of order", i)
		last = idx
	}
}

func TestApplyPrepOnlyBeforeFirstApply(t *testing.T) {
	out := convert(t, `
steps:
  - message: before
  - name: first
    targets: $web
    resources:
      - notify: a
  - targets: $db
    resources:
      - notify: b
    noop: true
  - targets: $web
    description: again
    resources:
      - notify: c
`)
	assert.Equal(t, 1, strings.Count(out, "apply_prep("))
	assert.Contains(t, out, "  apply_prep($web)\n  $first = apply($web) {\n")
	assert.Contains(t, out, "  apply($db, {'_noop' => true}) {\n")
	assert.Contains(t, out, "  apply($web, {'_description' => 'again'}) {\n")
	assert.Less(t, strings.Index(out, "out::message('before')"), strings.Index(out, "apply_prep("))
}

func TestCommentPrecedesApplyPrep(t *testing.T) {
	out := convert(t, `
steps:
  - comment: |
      configure
      the web tier
    targets: $web
    resources:
      - notify: a
`)
	assert.Contains(t, out, "  # configure\n  # the web tier\n  apply_prep($web)\n")
}

func TestNoParameters(t *testing.T) {
	out := convert(t, "steps:\n  - message: hi\n")
	want := "# WARNING: This is an autogenerated plan. It may not behave as expected.\n" +
		"plan mod::test() {\n" +
		"  out::message('hi')\n" +
		"}\n"
	assert.Equal(t, want, out)
}

func TestNoTrailingWhitespace(t *testing.T) {
	out := convert(t, `
description: "trailing   "
steps:
  - name: x
    eval: |
      if true {

        1
      }
`)
	for i, l := range strings.Split(out, "\n") {
		assert.Equal(t, strings.TrimRight(l, " \t"), l, "line %d has trailing whitespace", i+1)
	}
}

func TestEvalForms(t *testing.T) {
	t.Run("named one-liner binds directly", func(t *testing.T) {
		out := convert(t, "steps:\n  - name: x\n    eval: $a.b\n")
		assert.Contains(t, out, "  $x = $a.b\n")
	})
	t.Run("unnamed multi-line stays inline", func(t *testing.T) {
		out := convert(t, "steps:\n  - eval: |\n      notice(1)\n      notice(2)\n")
		assert.Contains(t, out, ") {\n  notice(1)\n  notice(2)\n}\n")
		assert.NotContains(t, out, "with()")
	})
	t.Run("implicit collection binds the previous statement", func(t *testing.T) {
		out := convert(t, `
steps:
  - name: names
    eval:
      - filter: $targets
        as: t
        do: $t.facts['web']
      - map:
        as: t
        do: $t.name
`)
		want := "  $names = with() || {\n" +
			"    $link_1 = $targets.filter |$t| {\n" +
			"      $t.facts['web']\n" +
			"    }\n" +
			"    $link_1.map |$t| {\n" +
			"      $t.name\n" +
			"    }\n" +
			"  }\n"
		assert.Contains(t, out, want)
	})
	t.Run("multi-line let value is wrapped", func(t *testing.T) {
		out := convert(t, `
steps:
  - name: y
    eval:
      - let: x
        value: |
          $a = 1
          $a + 1
      - $x
`)
		want := "  $y = with() || {\n" +
			"    $x = with() || {\n" +
			"      $a = 1\n" +
			"      $a + 1\n" +
			"    }\n" +
			"    $x\n" +
			"  }\n"
		assert.Contains(t, out, want)
		assert.NotContains(t, out, "$x = $a = 1")
	})
	t.Run("multi-line statement feeding an implicit collection is wrapped", func(t *testing.T) {
		out := convert(t, `
steps:
  - name: doubled
    eval:
      - |
        $a = [1]
        $a + [2]
      - map:
        as: v
        do: $v
`)
		want := "  $doubled = with() || {\n" +
			"    $link_1 = with() || {\n" +
			"      $a = [1]\n" +
			"      $a + [2]\n" +
			"    }\n" +
			"    $link_1.map |$v| {\n" +
			"      $v\n" +
			"    }\n" +
			"  }\n"
		assert.Contains(t, out, want)
	})
	t.Run("reduce with initial and nested link", func(t *testing.T) {
		out := convert(t, `
steps:
  - name: total
    eval:
      reduce: $groups
      as: [memo, g]
      initial: 0
      do:
        - let: sizes
          value: !call [length, $g]
        - |
          $memo + $sizes
`)
		want := "  $total = with() || {\n" +
			"    $groups.reduce(0) |$memo, $g| {\n" +
			"      $sizes = length($g)\n" +
			"      $memo + $sizes\n" +
			"    }\n" +
			"  }\n"
		assert.Contains(t, out, want)
	})
	t.Run("nested links get their own scope", func(t *testing.T) {
		out := convert(t, `
steps:
  - eval:
      - each: $groups
        as: [name, members]
        do:
          map: $members
          as: m
          do: !call [notice, "${name}: ${m}"]
`)
		want := "  with() || {\n" +
			"    $groups.each |$name, $members| {\n" +
			"      $members.map |$m| {\n" +
			"        notice(\"${name}: ${m}\")\n" +
			"      }\n" +
			"    }\n" +
			"  }\n"
		assert.Contains(t, out, want)
	})
}

func TestLiterals(t *testing.T) {
	out := convert(t, `
steps:
  - call: f
    arguments:
      - 0x10
      - -7
      - 3.0
      - 1.5e+30
      - 2.5e-7
      - false
      - ~
      - [a, [1, 2]]
      - {a: 1, 'b c': [x]}
      - {}
      - []
`)
	assert.Contains(t, out, "f(16, -7, 3.0, 1.5e30, 2.5e-07, false, undef, ['a', [1, 2]], {'a' => 1, 'b c' => ['x']}, {}, [])")
}

func TestUnsupported(t *testing.T) {
	cases := []struct {
		name      string
		yml       string
		step      int
		path      string
		sentinel  error
		construct string
	}{
		{
			name:      "unknown tag in parameters",
			yml:       "steps:\n  - message: ok\n  - task: t\n    targets: $x\n    parameters:\n      p: !secret abc\n",
			step:      1,
			path:      "steps[1].parameters.p",
			sentinel:  plan.ErrUnsupportedExpr,
			construct: `unknown tag "!secret"`,
		},
		{
			name:      "malformed variable reference",
			yml:       "steps:\n  - message: $not a var\n",
			step:      0,
			path:      "steps[0].message",
			sentinel:  plan.ErrUnsupportedExpr,
			construct: "malformed variable reference",
		},
		{
			name:      "bad call shape in resource attribute",
			yml:       "steps:\n  - targets: $t\n    resources:\n      - file: /x\n        parameters:\n          content: !call {fn: x}\n",
			step:      0,
			path:      "steps[0].resources[0].parameters.content",
			sentinel:  plan.ErrUnsupportedExpr,
			construct: "!call key",
		},
		{
			name:      "infinite float",
			yml:       "steps:\n  - message: .inf\n",
			step:      0,
			path:      "steps[0].message",
			sentinel:  plan.ErrUnsupportedExpr,
			construct: "non-finite",
		},
		{
			name:      "parameter default",
			yml:       "parameters:\n  a:\n    default: !nope 1\nsteps: []\n",
			step:      -1,
			path:      "parameters.a.default",
			sentinel:  plan.ErrUnsupportedExpr,
			construct: "!nope",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := transpile.Transpile(load(t, "mod::test", c.yml))
			require.Error(t, err)
			assert.Empty(t, out, "no partial output on failure")

			var uce *plan.UnsupportedConstructError
			require.True(t, errors.As(err, &uce), "want *plan.UnsupportedConstructError, got %T", err)
			assert.Equal(t, c.step, uce.Step)
			assert.Equal(t, c.path, uce.Path)
			assert.ErrorIs(t, err, c.sentinel)
			assert.Contains(t, uce.Construct, c.construct)
		})
	}
}

// unknownBody is a step payload the translator has no rule for.
type unknownBody struct{ plan.Body }

func TestUnsupportedStepKind(t *testing.T) {
	def := &plan.Definition{
		Name:  "mod::test",
		Steps: []plan.Step{{Body: plan.MessageStep{Message: plan.String{Value: "ok"}}}, {Body: unknownBody{}}},
	}
	out, err := transpile.Transpile(def)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, plan.ErrUnsupportedStep)

	var uce *plan.UnsupportedConstructError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, 1, uce.Step)
	assert.Equal(t, "steps[1]", uce.Path)
}

func TestNilDefinition(t *testing.T) {
	_, err := transpile.Transpile(nil)
	assert.Error(t, err)
}
