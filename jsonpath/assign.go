package jsonpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Assign writes raw at p inside doc and returns the new document. Missing
// intermediate objects are created; an intermediate that exists but cannot
// hold the next segment is overwritten. doc itself is left untouched.
func Assign(doc []byte, p Path, raw []byte) ([]byte, error) {
	if p.IsRoot() {
		return nil, fmt.Errorf("%w: %q addresses the document root", ErrNotAssignable, p.raw)
	}
	if !p.Definite() {
		return nil, fmt.Errorf("%w: %q contains a wildcard", ErrNotAssignable, p.raw)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: value for %q is not valid JSON", ErrNotAssignable, p.raw)
	}

	out := make([]byte, len(doc))
	copy(out, doc)
	if !gjson.ParseBytes(out).IsObject() {
		out = []byte(`{}`)
	}

	var err error
	for i := 1; i < len(p.Segments); i++ {
		prefix := setterPath(p.Segments[:i])
		v := gjson.GetBytes(out, prefix)
		next := p.Segments[i]
		if v.IsObject() && next.Kind == Key {
			continue
		}
		if v.IsArray() && next.Kind == Index {
			continue
		}
		if out, err = sjson.SetRawBytes(out, prefix, []byte(`{}`)); err != nil {
			return nil, fmt.Errorf("jsonpath: assign %q: %w", p.raw, err)
		}
	}

	if out, err = sjson.SetRawBytes(out, setterPath(p.Segments), raw); err != nil {
		return nil, fmt.Errorf("jsonpath: assign %q: %w", p.raw, err)
	}
	return out, nil
}

// Delete removes the node at a definite path. Deleting a missing node is a
// no-op.
func Delete(doc []byte, p Path) ([]byte, error) {
	if p.IsRoot() || !p.Definite() {
		return nil, fmt.Errorf("%w: cannot delete %q", ErrNotAssignable, p.raw)
	}
	path := setterPath(p.Segments)
	if !gjson.GetBytes(doc, path).Exists() {
		out := make([]byte, len(doc))
		copy(out, doc)
		return out, nil
	}
	return sjson.DeleteBytes(doc, path)
}

// Field returns the gjson/sjson path of a single top-level key.
func Field(key string) string {
	return escapeKey(key)
}

func setterPath(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		switch s.Kind {
		case Index:
			parts = append(parts, strconv.Itoa(s.Index))
		default:
			parts = append(parts, escapeKey(s.Key))
		}
	}
	return strings.Join(parts, ".")
}

func escapeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		switch c := key[i]; c {
		case '.', '*', '?', '\\', '|', '#', '@', '!', '=', '<', '>', '%', ':':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
