package jsonpath

import (
	"github.com/tidwall/gjson"
)

// Resolve returns every node of doc matched by p, in document order.
// A path that addresses nothing yields an empty result.
func Resolve(p Path, doc gjson.Result) []gjson.Result {
	if !doc.Exists() {
		return nil
	}
	current := []gjson.Result{doc}
	for _, seg := range p.Segments {
		var next []gjson.Result
		for _, r := range current {
			next = append(next, step(r, seg)...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// First returns the first match of p in doc.
func First(p Path, doc gjson.Result) (gjson.Result, bool) {
	matches := Resolve(p, doc)
	if len(matches) == 0 {
		return gjson.Result{}, false
	}
	return matches[0], true
}

func step(r gjson.Result, seg Segment) []gjson.Result {
	switch seg.Kind {
	case Key:
		if !r.IsObject() {
			return nil
		}
		var out []gjson.Result
		r.ForEach(func(k, v gjson.Result) bool {
			if k.String() == seg.Key {
				out = append(out, v)
				return false
			}
			return true
		})
		return out
	case Index:
		if !r.IsArray() {
			return nil
		}
		var out []gjson.Result
		i := 0
		r.ForEach(func(_, v gjson.Result) bool {
			if i == seg.Index {
				out = append(out, v)
				return false
			}
			i++
			return true
		})
		return out
	case Wildcard:
		if !r.IsObject() && !r.IsArray() {
			return nil
		}
		var out []gjson.Result
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, v)
			return true
		})
		return out
	}
	return nil
}
