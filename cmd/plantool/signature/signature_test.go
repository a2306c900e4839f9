package signature_test

import (
	"path/filepath"
	"testing"

	"plan-tools/cmd/plantool/planyaml"
	"plan-tools/cmd/plantool/signature"
	"plan-tools/cmd/plantool/transpile"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestFromDefinition(t *testing.T) {
	def, err := planyaml.ParseFile("yaml::conversion", filepath.Join("..", "transpile", "testdata", "conversion.yaml"))
	require.NoError(t, err)

	got, err := signature.FromDefinition(def)
	require.NoError(t, err)

	want := &signature.Signature{
		Name:        "yaml::conversion",
		Description: "A yaml plan for testing plan conversion",
		Parameters: []signature.Parameter{
			{Name: "targets", Type: "TargetSpec", Description: "The targets to run the plan on"},
			{Name: "message", Type: "String", DefaultValue: ptr("'hello world'"), Description: "A string to print"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

// The generated source must present the same interface as the document it
// came from, once the generated-plan notice is removed.
func TestRoundTrip(t *testing.T) {
	fixtures := map[string]string{
		"conversion": "yaml::conversion",
		"structured": "yaml::conversion",
		"kinds":      "mymod::kinds",
	}
	for fixture, name := range fixtures {
		t.Run(fixture, func(t *testing.T) {
			def, err := planyaml.ParseFile(name, filepath.Join("..", "transpile", "testdata", fixture+".yaml"))
			require.NoError(t, err)
			src, err := transpile.Transpile(def)
			require.NoError(t, err)

			fromYAML, err := signature.FromDefinition(def)
			require.NoError(t, err)
			fromSource, err := signature.FromSource(src)
			require.NoError(t, err)
			fromSource.Description = signature.StripWarning(fromSource.Description)

			if diff := cmp.Diff(fromYAML, fromSource); diff != "" {
				t.Errorf("signature mismatch (-yaml +source):\n%s", diff)
			}
		})
	}
}

// Doc comments never carry trailing whitespace, so descriptions ending in
// spaces must still compare equal after conversion.
func TestRoundTrip_TrailingWhitespace(t *testing.T) {
	def, err := planyaml.Parse("mod::spaces", []byte(`
description: "deploy  "
parameters:
  - name: x
    type: String
    description: 'x '
  - name: y
    description: "first \nsecond\t\n\n"
steps:
  - message: hi
`))
	require.NoError(t, err)
	src, err := transpile.Transpile(def)
	require.NoError(t, err)

	fromYAML, err := signature.FromDefinition(def)
	require.NoError(t, err)
	fromSource, err := signature.FromSource(src)
	require.NoError(t, err)
	fromSource.Description = signature.StripWarning(fromSource.Description)

	if diff := cmp.Diff(fromYAML, fromSource); diff != "" {
		t.Errorf("signature mismatch (-yaml +source):\n%s", diff)
	}
	assert.Equal(t, "deploy", fromYAML.Description)
	assert.Equal(t, "x", fromYAML.Parameters[0].Description)
	assert.Equal(t, "first\nsecond", fromYAML.Parameters[1].Description)
}

func TestFromSource_Handwritten(t *testing.T) {
	src := `# Deploys things.
# @param nodes Where to deploy
# @param opts Extra settings,
#   merged with defaults
# @private true
plan site::deploy (
  TargetSpec $nodes,
  Hash[String, Variant[String, Integer]] $opts = {'a' => 1, 'b' => 'x,y'},
  Optional[String] $tag = undef,
  $flag = 1 == 1,
) {
  return undef
}
`
	sig, err := signature.FromSource(src)
	require.NoError(t, err)

	assert.Equal(t, "site::deploy", sig.Name)
	assert.Equal(t, "Deploys things.", sig.Description)
	assert.True(t, sig.Private)
	require.Len(t, sig.Parameters, 4)

	assert.Equal(t, signature.Parameter{Name: "nodes", Type: "TargetSpec", Description: "Where to deploy"}, sig.Parameters[0])
	assert.Equal(t, "Hash[String, Variant[String, Integer]]", sig.Parameters[1].Type)
	assert.Equal(t, "{'a' => 1, 'b' => 'x,y'}", *sig.Parameters[1].DefaultValue)
	assert.Equal(t, "Extra settings,\nmerged with defaults", sig.Parameters[1].Description)
	assert.Equal(t, "undef", *sig.Parameters[2].DefaultValue)
	assert.Equal(t, "Any", sig.Parameters[3].Type)
	assert.Equal(t, "1 == 1", *sig.Parameters[3].DefaultValue)
}

func TestFromSource_Errors(t *testing.T) {
	_, err := signature.FromSource("# just a comment\n")
	assert.ErrorIs(t, err, signature.ErrNoPlan)

	_, err = signature.FromSource("plan a::b(\n  String $x\n")
	assert.ErrorIs(t, err, signature.ErrUnterminated)
}

func TestStripWarning(t *testing.T) {
	assert.Equal(t, "", signature.StripWarning(transpile.Warning))
	assert.Equal(t, "Doc.", signature.StripWarning("Doc.\n"+transpile.Warning))
	assert.Equal(t, "Doc.", signature.StripWarning("Doc."))
}
