package signature

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoPlan       = errors.New("no plan declaration found")
	ErrUnterminated = errors.New("unterminated parameter list")
)

// FromSource reads the signature of plan source text: the leading comment
// block (description and @param / @private tags) and the plan header.
// The description keeps the generated-plan notice; see StripWarning.
func FromSource(src string) (*Signature, error) {
	sig := &Signature{Parameters: []Parameter{}}
	lines := strings.Split(src, "\n")

	var (
		desc      []string
		paramDesc = map[string][]string{}
		current   []string // description being continued, if any
		curName   string
		inTags    bool
		i         int
	)
	flush := func() {
		if curName != "" {
			paramDesc[curName] = trimTrailingBlank(current)
		}
		curName, current = "", nil
	}

	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")
		if !strings.HasPrefix(line, "#") {
			break
		}
		text := strings.TrimPrefix(line, "#")

		switch {
		case strings.HasPrefix(text, " @param "):
			flush()
			inTags = true
			rest := strings.TrimPrefix(text, " @param ")
			name, d, _ := strings.Cut(rest, " ")
			curName = name
			current = []string{d}
		case strings.HasPrefix(text, " @private "):
			flush()
			inTags = true
			sig.Private = strings.TrimSpace(strings.TrimPrefix(text, " @private ")) == "true"
		case inTags && curName != "" && (text == "" || strings.HasPrefix(text, "   ")):
			current = append(current, strings.TrimPrefix(text, "   "))
		case inTags:
			flush()
		default:
			desc = append(desc, strings.TrimPrefix(text, " "))
		}
	}
	flush()
	sig.Description = strings.Join(trimTrailingBlank(desc), "\n")

	for ; i < len(lines) && strings.TrimSpace(lines[i]) == ""; i++ {
	}
	if i >= len(lines) || !strings.HasPrefix(lines[i], "plan ") {
		return nil, ErrNoPlan
	}

	header := strings.Join(lines[i:], "\n")
	open := strings.IndexByte(header, '(')
	if open < 0 {
		return nil, fmt.Errorf("signature: %w", ErrUnterminated)
	}
	sig.Name = strings.TrimSpace(strings.TrimPrefix(header[:open], "plan "))
	end := closing(header, open)
	if end < 0 {
		return nil, fmt.Errorf("signature: plan %s: %w", sig.Name, ErrUnterminated)
	}

	for _, raw := range splitTopLevel(header[open+1:end], ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := parseParam(raw)
		if err != nil {
			return nil, fmt.Errorf("signature: plan %s: %w", sig.Name, err)
		}
		if d, ok := paramDesc[p.Name]; ok {
			p.Description = strings.Join(d, "\n")
		}
		sig.Parameters = append(sig.Parameters, p)
	}
	return sig, nil
}

// parseParam reads "[Type ]$name[ = default]".
func parseParam(s string) (Parameter, error) {
	var p Parameter
	decl := s
	if eq := assignment(s); eq >= 0 {
		decl = strings.TrimSpace(s[:eq])
		d := strings.TrimSpace(s[eq+1:])
		p.DefaultValue = &d
	}
	dollar := strings.LastIndexByte(decl, '$')
	if dollar < 0 {
		return p, fmt.Errorf("parameter %q has no name", s)
	}
	p.Name = strings.TrimSpace(decl[dollar+1:])
	p.Type = strings.TrimSpace(decl[:dollar])
	if p.Type == "" {
		p.Type = anyType
	}
	return p, nil
}

// assignment returns the index of the top-level '=' in s, ignoring "=>",
// "==" and comparison operators, or -1.
func assignment(s string) int {
	idx := -1
	scan(s, func(i int, depth int) bool {
		if depth != 0 || s[i] != '=' {
			return true
		}
		if i+1 < len(s) && (s[i+1] == '>' || s[i+1] == '=' || s[i+1] == '~') {
			return true
		}
		if i > 0 && strings.IndexByte("=!<>", s[i-1]) >= 0 {
			return true
		}
		idx = i
		return false
	})
	return idx
}

// closing returns the index of the bracket closing the one at open, or -1.
func closing(s string, open int) int {
	idx := -1
	scan(s[open:], func(i int, depth int) bool {
		if depth == 0 && i > 0 {
			idx = open + i
			return false
		}
		return true
	})
	return idx
}

// splitTopLevel splits s on sep outside quotes and brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	start := 0
	scan(s, func(i int, depth int) bool {
		if depth == 0 && s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
		return true
	})
	return append(parts, s[start:])
}

// scan walks s, calling fn for every byte outside string literals with the
// bracket depth in effect before that byte. Closing brackets are reported
// at the depth after closing. fn returns false to stop.
func scan(s string, fn func(i, depth int) bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			continue
		case '(', '[', '{':
			if !fn(i, depth) {
				return
			}
			depth++
			continue
		case ')', ']', '}':
			depth--
		}
		if !fn(i, depth) {
			return
		}
	}
}

func trimTrailingBlank(ls []string) []string {
	for len(ls) > 0 && ls[len(ls)-1] == "" {
		ls = ls[:len(ls)-1]
	}
	return ls
}
