package transpile

import (
	"strings"

	"plan-tools/cmd/plantool/plan"
)

// emit assembles the final source text:
//
//	# <description lines>
//	# WARNING: ...
//	# @param <name> <description>
//	# @private true
//	plan <name>(
//	  <parameters>
//	) {
//	  <body>
//
//	  return <expr>
//	}
func emit(def *plan.Definition, params, body []string, ret string) string {
	var b strings.Builder

	if def.Description != "" {
		writeLines(&b, docLines(def.Description))
	}
	b.WriteString("# " + Warning + "\n")
	for _, p := range def.Parameters {
		writeLines(&b, paramTag(p))
	}
	if def.Private != nil {
		if *def.Private {
			b.WriteString("# @private true\n")
		} else {
			b.WriteString("# @private false\n")
		}
	}

	b.WriteString("plan " + def.Name + "(")
	if len(params) > 0 {
		b.WriteString("\n")
		for i, p := range params {
			b.WriteString(indent + p)
			if i < len(params)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(") {\n")

	writeLines(&b, indented(body))
	if ret != "" {
		b.WriteString("\n")
		writeLines(&b, indented(lines("return "+ret)))
	}
	b.WriteString("}\n")
	return b.String()
}

// paramTag renders "# @param name description". Continuation lines of a
// multi-line description are indented under the tag.
func paramTag(p plan.Parameter) []string {
	desc := strings.Split(strings.TrimRight(p.Description, "\n"), "\n")
	head := "# @param " + p.Name
	if desc[0] != "" {
		head += " " + desc[0]
	}
	out := []string{head}
	for _, l := range desc[1:] {
		if l == "" {
			out = append(out, "#")
			continue
		}
		out = append(out, "#   "+l)
	}
	return out
}

// docLines renders text as doc comment lines. Unlike step comments, lines
// that already start with '#' are prefixed too, so the text reads back
// unchanged.
func docLines(text string) []string {
	var out []string
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if l == "" {
			out = append(out, "#")
			continue
		}
		out = append(out, "# "+l)
	}
	return out
}

func writeLines(b *strings.Builder, ls []string) {
	for _, l := range ls {
		b.WriteString(strings.TrimRight(l, " \t"))
		b.WriteString("\n")
	}
}
