package message

import (
	"fmt"

	"github.com/aura-studio/message-adapter/template"
	"github.com/tidwall/gjson"
)

// CreateNextEvent folds a task's response into the event that invoked it.
//
// With outputs declared, payload starts empty and each pair is applied in
// order: the source is resolved with the response as $ (keys absent from
// the response fall back to the prior event) and written at the
// destination. Without outputs the response becomes the payload.
func CreateNextEvent(response []byte, prior Event, cfg *MessageConfig) (Event, error) {
	if !gjson.ValidBytes(response) {
		return Event{}, fmt.Errorf("%w: handler response is not valid JSON", ErrMalformedInput)
	}
	response = Compact(response)

	next := prior.Without(FieldReplace)
	next, err := withDefaults(next)
	if err != nil {
		return Event{}, err
	}
	if next.Source() != SourceSFN {
		if next, err = next.WithString(FieldCumulusMeta+".message_source", SourceLocal); err != nil {
			return Event{}, err
		}
	}

	if cfg.HasOutputs() {
		if next, err = next.With(FieldPayload, []byte(`{}`)); err != nil {
			return Event{}, err
		}
		scope := template.Layered(response, prior.Bytes())
		for _, pair := range cfg.Outputs {
			if next, err = applyOutput(next, scope, pair); err != nil {
				return Event{}, err
			}
		}
	} else if next, err = next.With(FieldPayload, response); err != nil {
		return Event{}, err
	}

	exception := template.Quote(ExceptionNone)
	if v := gjson.GetBytes(response, FieldException); v.Exists() && v.Type != gjson.Null && v.String() != ExceptionNone && v.String() != "" {
		exception = []byte(v.Raw)
	}
	if next, err = next.With(FieldException, exception); err != nil {
		return Event{}, err
	}

	if err := Validate(next); err != nil {
		return Event{}, err
	}
	return next, nil
}

func applyOutput(next Event, scope template.Scope, pair PathPair) (Event, error) {
	dst, err := DestinationPath(pair.Destination)
	if err != nil {
		return Event{}, err
	}
	tmpl, err := template.Parse(pair.Source)
	if err != nil {
		return Event{}, fmt.Errorf("%w: source %q: %v", ErrMalformedInput, pair.Source, err)
	}
	raw, ok := tmpl.Resolve(scope)
	if !ok {
		return next, nil
	}
	return next.Assign(dst, raw)
}

// withDefaults fills the primary fields a prior event may lack.
func withDefaults(e Event) (Event, error) {
	defaults := []struct {
		field string
		raw   string
	}{
		{FieldCumulusMeta, `{}`},
		{FieldMeta, `{}`},
		{FieldPayload, `null`},
		{FieldWorkflowConfig, `{}`},
	}
	var err error
	for _, d := range defaults {
		if e.Has(d.field) {
			continue
		}
		if e, err = e.With(d.field, []byte(d.raw)); err != nil {
			return Event{}, err
		}
	}
	return e, nil
}
