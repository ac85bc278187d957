package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Scope is the document a template is resolved against.
type Scope interface {
	Lookup(p jsonpath.Path) []gjson.Result
}

type docScope struct {
	doc gjson.Result
}

// Doc returns a scope backed by a single JSON document.
func Doc(raw []byte) Scope {
	return docScope{doc: gjson.ParseBytes(raw)}
}

func (s docScope) Lookup(p jsonpath.Path) []gjson.Result {
	return jsonpath.Resolve(p, s.doc)
}

type layeredScope struct {
	primary  gjson.Result
	fallback gjson.Result
}

// Layered returns a scope where $ is primary. Paths whose first key is
// missing from primary are looked up in fallback instead.
func Layered(primary, fallback []byte) Scope {
	return layeredScope{primary: gjson.ParseBytes(primary), fallback: gjson.ParseBytes(fallback)}
}

func (s layeredScope) Lookup(p jsonpath.Path) []gjson.Result {
	if _, ok := p.Head(); !ok {
		return jsonpath.Resolve(p, s.primary)
	}
	head := jsonpath.Path{Mode: jsonpath.Rooted, Segments: p.Segments[:1]}
	if jsonpath.Resolve(head, s.primary) != nil {
		return jsonpath.Resolve(p, s.primary)
	}
	if jsonpath.Resolve(head, s.fallback) != nil {
		return jsonpath.Resolve(p, s.fallback)
	}
	return nil
}

// Resolve evaluates t against s. ok is false when a path form matched
// nothing; the caller then leaves its destination unset.
func (t Template) Resolve(s Scope) (raw []byte, ok bool) {
	switch t.Kind {
	case RawPath:
		matches := s.Lookup(t.Path)
		if len(matches) == 0 {
			return nil, false
		}
		return []byte(matches[0].Raw), true
	case ArrayPath:
		matches := s.Lookup(t.Path)
		if len(matches) == 0 {
			return nil, false
		}
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, m := range matches {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(m.Raw)
		}
		buf.WriteByte(']')
		return buf.Bytes(), true
	case Interpolated:
		var b strings.Builder
		for _, part := range t.Parts {
			if part.Path == nil {
				b.WriteString(part.Text)
				continue
			}
			if matches := s.Lookup(*part.Path); len(matches) > 0 {
				b.WriteString(matches[0].String())
			}
		}
		return Quote(b.String()), true
	default:
		return Quote(t.Text), true
	}
}

// ResolveString parses and resolves s in one step.
func ResolveString(str string, s Scope) ([]byte, bool, error) {
	t, err := Parse(str)
	if err != nil {
		return nil, false, err
	}
	raw, ok := t.Resolve(s)
	return raw, ok, nil
}

// ResolveConfig resolves every string inside config. Object members whose
// path form matched nothing are dropped, array elements become null.
func ResolveConfig(config []byte, s Scope) ([]byte, error) {
	root := gjson.ParseBytes(config)
	if !root.Exists() {
		return []byte(`null`), nil
	}
	raw, ok, err := resolveNode(root, s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte(`null`), nil
	}
	return raw, nil
}

func resolveNode(node gjson.Result, s Scope) ([]byte, bool, error) {
	switch {
	case node.Type == gjson.String:
		return ResolveString(node.String(), s)
	case node.IsObject():
		out := []byte(`{}`)
		var err error
		node.ForEach(func(k, v gjson.Result) bool {
			raw, ok, rerr := resolveNode(v, s)
			if rerr != nil {
				err = fmt.Errorf("%s: %w", k.String(), rerr)
				return false
			}
			if !ok {
				return true
			}
			if out, rerr = sjson.SetRawBytes(out, jsonpath.Field(k.String()), raw); rerr != nil {
				err = rerr
				return false
			}
			return true
		})
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	case node.IsArray():
		out := []byte(`[]`)
		var err error
		node.ForEach(func(_, v gjson.Result) bool {
			raw, ok, rerr := resolveNode(v, s)
			if rerr != nil {
				err = rerr
				return false
			}
			if !ok {
				raw = []byte(`null`)
			}
			if out, rerr = sjson.SetRawBytes(out, "-1", raw); rerr != nil {
				err = rerr
				return false
			}
			return true
		})
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	default:
		return []byte(node.Raw), true, nil
	}
}

// Quote encodes s as a JSON string without HTML escaping.
func Quote(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
