// Package message holds the workflow message model and the pure
// transformations applied to it between task invocations.
package message

import (
	"errors"
	"fmt"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	FieldCumulusMeta    = "cumulus_meta"
	FieldMeta           = "meta"
	FieldPayload        = "payload"
	FieldException      = "exception"
	FieldWorkflowConfig = "workflow_config"
	FieldTaskConfig     = "task_config"
	FieldReplace        = "replace"
	FieldReplaceConfig  = "ReplaceConfig"
	FieldParameters     = "cma"
)

const (
	SourceSFN   = "sfn"
	SourceLocal = "local"

	ExceptionNone = "None"
)

var (
	ErrMalformedInput = errors.New("message: malformed input")
	ErrInvalidEvent   = errors.New("message: invalid event")
)

// Event is an immutable workflow message. Every edit returns a new Event.
type Event struct {
	raw []byte
}

// ParseEvent validates b as a JSON object and keeps a compact copy of it.
func ParseEvent(b []byte) (Event, error) {
	if !gjson.ValidBytes(b) {
		return Event{}, fmt.Errorf("%w: event is not valid JSON", ErrMalformedInput)
	}
	if !gjson.ParseBytes(b).IsObject() {
		return Event{}, fmt.Errorf("%w: event is not a JSON object", ErrMalformedInput)
	}
	return Event{raw: Compact(b)}, nil
}

// MustParseEvent is like ParseEvent but panics on error.
func MustParseEvent(s string) Event {
	e, err := ParseEvent([]byte(s))
	if err != nil {
		panic(err)
	}
	return e
}

// Compact returns a whitespace-free copy of a JSON document.
func Compact(b []byte) []byte {
	return pretty.Ugly(b)
}

func (e Event) Bytes() []byte {
	if e.raw == nil {
		return []byte(`{}`)
	}
	out := make([]byte, len(e.raw))
	copy(out, e.raw)
	return out
}

func (e Event) String() string { return string(e.Bytes()) }

func (e Event) MarshalJSON() ([]byte, error) { return e.Bytes(), nil }

func (e *Event) UnmarshalJSON(b []byte) error {
	parsed, err := ParseEvent(b)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Get returns the value at a top-level field.
func (e Event) Get(field string) gjson.Result {
	return gjson.GetBytes(e.Bytes(), jsonpath.Field(field))
}

// Lookup returns the value at a gjson path such as "cumulus_meta.task".
func (e Event) Lookup(path string) gjson.Result {
	return gjson.GetBytes(e.Bytes(), path)
}

func (e Event) Has(field string) bool { return e.Get(field).Exists() }

// With returns a copy of e with raw stored at the top-level field.
func (e Event) With(field string, raw []byte) (Event, error) {
	out, err := sjson.SetRawBytes(e.Bytes(), jsonpath.Field(field), Compact(raw))
	if err != nil {
		return Event{}, fmt.Errorf("message: set %s: %w", field, err)
	}
	return Event{raw: out}, nil
}

// WithString returns a copy of e with a string stored at a gjson path.
func (e Event) WithString(path, value string) (Event, error) {
	out, err := sjson.SetBytes(e.Bytes(), path, value)
	if err != nil {
		return Event{}, fmt.Errorf("message: set %s: %w", path, err)
	}
	return Event{raw: out}, nil
}

// Assign writes raw at p, creating intermediate objects.
func (e Event) Assign(p jsonpath.Path, raw []byte) (Event, error) {
	out, err := jsonpath.Assign(e.Bytes(), p, Compact(raw))
	if err != nil {
		return Event{}, err
	}
	return Event{raw: out}, nil
}

// Without returns a copy of e lacking the given top-level fields.
func (e Event) Without(fields ...string) Event {
	out := e.Bytes()
	for _, f := range fields {
		if !gjson.GetBytes(out, jsonpath.Field(f)).Exists() {
			continue
		}
		if b, err := sjson.DeleteBytes(out, jsonpath.Field(f)); err == nil {
			out = b
		}
	}
	return Event{raw: out}
}

// Merge overlays every top-level field of other onto e.
func (e Event) Merge(other Event) (Event, error) {
	out := e
	var err error
	gjson.ParseBytes(other.Bytes()).ForEach(func(k, v gjson.Result) bool {
		out, err = out.With(k.String(), []byte(v.Raw))
		return err == nil
	})
	return out, err
}

// Source reports cumulus_meta.message_source.
func (e Event) Source() string {
	return e.Lookup(FieldCumulusMeta + ".message_source").String()
}

// Task reports cumulus_meta.task.
func (e Event) Task() string {
	return e.Lookup(FieldCumulusMeta + ".task").String()
}

// Validate checks the shape every outgoing message must have.
func Validate(e Event) error {
	doc := gjson.ParseBytes(e.Bytes())
	if doc.Get(FieldReplace).Exists() {
		return fmt.Errorf("%w: unexpanded replace pointer", ErrInvalidEvent)
	}
	for _, f := range []string{FieldCumulusMeta, FieldMeta, FieldPayload, FieldException, FieldWorkflowConfig} {
		if !doc.Get(jsonpath.Field(f)).Exists() {
			return fmt.Errorf("%w: missing %s", ErrInvalidEvent, f)
		}
	}
	if !doc.Get(FieldCumulusMeta).IsObject() {
		return fmt.Errorf("%w: %s is not an object", ErrInvalidEvent, FieldCumulusMeta)
	}
	if !doc.Get(FieldWorkflowConfig).IsObject() {
		return fmt.Errorf("%w: %s is not an object", ErrInvalidEvent, FieldWorkflowConfig)
	}
	if doc.Get(FieldException).Type != gjson.String && !doc.Get(FieldException).IsObject() {
		return fmt.Errorf("%w: %s must be a string or an object", ErrInvalidEvent, FieldException)
	}
	return nil
}
