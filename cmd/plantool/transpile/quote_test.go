package transpile

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unquote reads back a string literal the way the plan language does.
func unquote(t *testing.T, lit string) string {
	t.Helper()
	require.GreaterOrEqual(t, len(lit), 2)
	body := lit[1 : len(lit)-1]
	var b strings.Builder

	if lit[0] == '\'' {
		for i := 0; i < len(body); i++ {
			if body[i] == '\\' && i+1 < len(body) && (body[i+1] == '\\' || body[i+1] == '\'') {
				i++
			}
			b.WriteByte(body[i])
		}
		return b.String()
	}

	require.Equal(t, byte('"'), lit[0])
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			b.WriteByte(body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\', '"', '$', '\'':
			b.WriteByte(body[i])
		case 'u':
			end := strings.IndexByte(body[i:], '}')
			require.Positive(t, end)
			n, err := strconv.ParseUint(body[i+2:i+end], 16, 32)
			require.NoError(t, err)
			b.WriteRune(rune(n))
			i += end
		default:
			t.Fatalf("unexpected escape \\%c in %s", body[i], lit)
		}
	}
	return b.String()
}

func TestQuoteRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"it's",
		`back\slash`,
		`trailing\`,
		`\'`,
		"$not_interpolated ${nor_this}",
		"line one\nline two",
		"tab\there",
		"bell\a and del\x7f",
		"unicode é ✓ 𝄞",
		`"double"`,
	}
	for _, in := range inputs {
		lit := quote(in)
		assert.Equal(t, in, unquote(t, lit), "literal %s", lit)
	}
}

func TestQuotePrefersSingleQuotes(t *testing.T) {
	assert.Equal(t, `'hello world'`, quote("hello world"))
	assert.Equal(t, `'it\'s'`, quote("it's"))
	assert.Equal(t, `'$x'`, quote("$x"))
	assert.Equal(t, `"a\nb \$x"`, quote("a\nb $x"))
}

func TestInterpolatedKeepsVariables(t *testing.T) {
	assert.Equal(t, `"Hello ${name}!"`, interpolated("Hello ${name}!"))
	assert.Equal(t, `"say \"hi\"\n"`, interpolated("say \"hi\"\n"))
	assert.Equal(t, `"a\\b"`, interpolated(`a\b`))
}

func TestFloat(t *testing.T) {
	cases := map[float64]string{
		0:       "0.0",
		3:       "3.0",
		-2.5:    "-2.5",
		0.1:     "0.1",
		1e21:    "1e21",
		1.5e-10: "1.5e-10",
	}
	for in, want := range cases {
		got, err := float(in, site{})
		require.NoError(t, err)
		assert.Equal(t, want, got)

		back, err := strconv.ParseFloat(got, 64)
		require.NoError(t, err)
		assert.Equal(t, in, back)
	}
}
