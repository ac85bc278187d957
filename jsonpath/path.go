// Package jsonpath resolves and assigns values addressed by the two path
// notations used in message templates: dot-paths ("meta.foo") and
// root-anchored paths ("$.meta.foo", "$.items[0]", "$.items[*]").
package jsonpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSyntax        = errors.New("jsonpath: syntax error")
	ErrNotAssignable = errors.New("jsonpath: path is not assignable")
)

type Mode int

const (
	// DotPath is the bare notation, e.g. meta.foo
	DotPath Mode = iota
	// Rooted is anchored at $, e.g. $.meta.foo
	Rooted
)

type Kind int

const (
	Key Kind = iota
	Index
	Wildcard
)

type Segment struct {
	Kind  Kind
	Key   string
	Index int
}

func (s Segment) String() string {
	switch s.Kind {
	case Index:
		return "[" + strconv.Itoa(s.Index) + "]"
	case Wildcard:
		return "[*]"
	default:
		return "." + s.Key
	}
}

type Path struct {
	Mode     Mode
	Segments []Segment
	raw      string
}

// Root is the path addressing the whole document.
var Root = Path{Mode: Rooted, raw: "$"}

func (p Path) String() string { return p.raw }

func (p Path) IsRoot() bool { return len(p.Segments) == 0 }

// Definite reports whether p can match at most one node.
func (p Path) Definite() bool {
	for _, s := range p.Segments {
		if s.Kind == Wildcard {
			return false
		}
	}
	return true
}

// Head returns the first segment's key when p starts with a key segment.
func (p Path) Head() (string, bool) {
	if len(p.Segments) == 0 || p.Segments[0].Kind != Key {
		return "", false
	}
	return p.Segments[0].Key, true
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse parses a dot-path or a root-anchored path expression.
func Parse(expr string) (Path, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrSyntax)
	}

	p := Path{raw: s}
	rest := s
	if strings.HasPrefix(s, "$") {
		p.Mode = Rooted
		rest = s[1:]
		if rest != "" && rest[0] != '.' && rest[0] != '[' {
			return Path{}, fmt.Errorf("%w: unexpected %q after $ in %q", ErrSyntax, rest[0], s)
		}
	} else {
		p.Mode = DotPath
		if s[0] != '[' {
			rest = "." + s
		}
	}

	segs, err := parseSegments(rest)
	if err != nil {
		return Path{}, fmt.Errorf("%w in %q", err, s)
	}
	if p.Mode == DotPath && len(segs) == 0 {
		return Path{}, fmt.Errorf("%w: empty path", ErrSyntax)
	}
	p.Segments = segs
	return p, nil
}

func parseSegments(s string) ([]Segment, error) {
	var segs []Segment
	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			i++
			if i < len(s) && s[i] == '.' {
				return nil, fmt.Errorf("%w: recursive descent is not supported", ErrSyntax)
			}
			if i < len(s) && s[i] == '*' {
				segs = append(segs, Segment{Kind: Wildcard})
				i++
				continue
			}
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				if s[j] == ']' || s[j] == '{' || s[j] == '}' {
					return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, s[j])
				}
				j++
			}
			if j == i {
				return nil, fmt.Errorf("%w: empty key", ErrSyntax)
			}
			segs = append(segs, Segment{Kind: Key, Key: s[i:j]})
			i = j
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated bracket", ErrSyntax)
			}
			seg, err := parseBracket(s[i+1 : i+end])
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i += end + 1
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, s[i])
		}
	}
	return segs, nil
}

func parseBracket(body string) (Segment, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "*":
		return Segment{Kind: Wildcard}, nil
	case len(body) >= 2 && (body[0] == '\'' || body[0] == '"') && body[len(body)-1] == body[0]:
		return Segment{Kind: Key, Key: body[1 : len(body)-1]}, nil
	}
	n, err := strconv.Atoi(body)
	if err != nil || n < 0 {
		return Segment{}, fmt.Errorf("%w: unsupported selector [%s]", ErrSyntax, body)
	}
	return Segment{Kind: Index, Index: n}, nil
}

// Keys builds a rooted path from literal keys.
func Keys(keys ...string) Path {
	p := Path{Mode: Rooted, raw: "$"}
	for _, k := range keys {
		p.Segments = append(p.Segments, Segment{Kind: Key, Key: k})
		p.raw += "." + k
	}
	return p
}
