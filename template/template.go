// Package template implements the three substitution forms used in
// workflow configuration and message outputs:
//
//	{{$.path}}   the first match, with its native JSON type
//	{[$.path]}   every match, as a JSON array
//	pre{a.b}post inline interpolation into a string
//
// Any other string is a literal.
package template

import (
	"fmt"
	"strings"

	"github.com/aura-studio/message-adapter/jsonpath"
)

type Kind int

const (
	Literal Kind = iota
	Interpolated
	ArrayPath
	RawPath
)

func (k Kind) String() string {
	switch k {
	case Interpolated:
		return "interpolated"
	case ArrayPath:
		return "array-path"
	case RawPath:
		return "raw-path"
	default:
		return "literal"
	}
}

// Part is one piece of an interpolated string: literal text, or a
// placeholder when Path is set.
type Part struct {
	Text string
	Path *jsonpath.Path
}

type Template struct {
	Kind  Kind
	Text  string
	Path  jsonpath.Path
	Parts []Part
}

// Parse classifies s. Whole-string {{...}} takes precedence over {[...]},
// which takes precedence over inline placeholders. A placeholder whose body
// is not a path is kept as literal text.
func Parse(s string) (Template, error) {
	if body, ok := enclosed(s, "{{", "}}"); ok {
		p, err := jsonpath.Parse(body)
		if err != nil {
			return Template{}, fmt.Errorf("template: %q: %w", s, err)
		}
		return Template{Kind: RawPath, Text: s, Path: p}, nil
	}
	if body, ok := enclosed(s, "{[", "]}"); ok {
		p, err := jsonpath.Parse(body)
		if err != nil {
			return Template{}, fmt.Errorf("template: %q: %w", s, err)
		}
		return Template{Kind: ArrayPath, Text: s, Path: p}, nil
	}
	if parts, ok := interpolate(s); ok {
		return Template{Kind: Interpolated, Text: s, Parts: parts}, nil
	}
	return Template{Kind: Literal, Text: s}, nil
}

func enclosed(s, open, close string) (string, bool) {
	if len(s) < len(open)+len(close)+1 || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	body := s[len(open) : len(s)-len(close)]
	if strings.ContainsAny(body, "{}") {
		return "", false
	}
	return body, true
}

func interpolate(s string) ([]Part, bool) {
	var (
		parts []Part
		lit   strings.Builder
		found bool
	)
	for i := 0; i < len(s); {
		if s[i] != '{' {
			lit.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexAny(s[i+1:], "{}")
		if end < 0 || s[i+1+end] != '}' {
			lit.WriteByte(s[i])
			i++
			continue
		}
		body := s[i+1 : i+1+end]
		p, err := jsonpath.Parse(body)
		if err != nil {
			lit.WriteString(s[i : i+2+end])
			i += end + 2
			continue
		}
		if lit.Len() > 0 {
			parts = append(parts, Part{Text: lit.String()})
			lit.Reset()
		}
		parts = append(parts, Part{Text: s[i : i+2+end], Path: &p})
		found = true
		i += end + 2
	}
	if lit.Len() > 0 {
		parts = append(parts, Part{Text: lit.String()})
	}
	return parts, found
}
