package transpile

import (
	"fmt"
	"strings"
)

var singleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote renders s as a string literal whose runtime value is exactly s.
// Single quotes are used unless s holds characters that only a
// double-quoted literal can spell.
func quote(s string) string {
	if needsEscapes(s) {
		return `"` + escapeDouble(s, true) + `"`
	}
	return "'" + singleQuoteEscaper.Replace(s) + "'"
}

// interpolated renders s as a double-quoted literal that keeps its ${...}
// and $var segments live.
func interpolated(s string) string {
	return `"` + escapeDouble(s, false) + `"`
}

func needsEscapes(s string) bool {
	for _, r := range s {
		if isControl(r) {
			return true
		}
	}
	return false
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

func escapeDouble(s string, literalDollar bool) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			if literalDollar {
				b.WriteString(`\$`)
			} else {
				b.WriteRune(r)
			}
		default:
			if isControl(r) {
				fmt.Fprintf(&b, `\u{%X}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
