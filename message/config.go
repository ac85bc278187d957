package message

import (
	"fmt"
	"strings"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/tidwall/gjson"
)

type PathPair struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// MessageConfig is the cumulus_message block of a task configuration.
// Outputs is nil when the block has no outputs key and non-nil (possibly
// empty) when it does.
type MessageConfig struct {
	Input   string     `json:"input,omitempty"`
	Inputs  []PathPair `json:"inputs,omitempty"`
	Outputs []PathPair `json:"outputs,omitempty"`
}

// ParseMessageConfig decodes a message config. Empty input and null yield
// a nil config.
func ParseMessageConfig(b []byte) (*MessageConfig, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: message config is not valid JSON", ErrMalformedInput)
	}
	doc := gjson.ParseBytes(b)
	if doc.Type == gjson.Null {
		return nil, nil
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: message config is not a JSON object", ErrMalformedInput)
	}

	cfg := &MessageConfig{}
	if v := doc.Get("input"); v.Exists() {
		if v.Type != gjson.String {
			return nil, fmt.Errorf("%w: message config input must be a string", ErrMalformedInput)
		}
		cfg.Input = v.String()
	}
	var err error
	if v := doc.Get("inputs"); v.Exists() {
		if cfg.Inputs, err = parsePairs("inputs", v); err != nil {
			return nil, err
		}
	}
	if v := doc.Get("outputs"); v.Exists() {
		if cfg.Outputs, err = parsePairs("outputs", v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func parsePairs(name string, v gjson.Result) ([]PathPair, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: message config %s must be an array", ErrMalformedInput, name)
	}
	pairs := []PathPair{}
	var err error
	v.ForEach(func(_, item gjson.Result) bool {
		src, dst := item.Get("source"), item.Get("destination")
		if src.Type != gjson.String || dst.Type != gjson.String {
			err = fmt.Errorf("%w: message config %s entries need string source and destination", ErrMalformedInput, name)
			return false
		}
		pairs = append(pairs, PathPair{Source: src.String(), Destination: dst.String()})
		return true
	})
	return pairs, err
}

// HasOutputs reports whether an outputs list was declared, even if empty.
func (c *MessageConfig) HasOutputs() bool {
	return c != nil && c.Outputs != nil
}

// DestinationPath strips template delimiters from a destination and parses
// what remains.
func DestinationPath(dst string) (jsonpath.Path, error) {
	s := strings.TrimSpace(dst)
	for _, d := range [][2]string{{"{{", "}}"}, {"{[", "]}"}, {"{", "}"}} {
		if strings.HasPrefix(s, d[0]) && strings.HasSuffix(s, d[1]) && len(s) >= len(d[0])+len(d[1]) {
			s = s[len(d[0]) : len(s)-len(d[1])]
			break
		}
	}
	p, err := jsonpath.Parse(s)
	if err != nil {
		return jsonpath.Path{}, fmt.Errorf("%w: destination %q: %v", ErrMalformedInput, dst, err)
	}
	if p.IsRoot() {
		return jsonpath.Path{}, fmt.Errorf("%w: destination %q addresses the whole event", ErrMalformedInput, dst)
	}
	if !p.Definite() {
		return jsonpath.Path{}, fmt.Errorf("%w: destination %q contains a wildcard", ErrMalformedInput, dst)
	}
	return p, nil
}
