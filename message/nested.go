package message

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/aura-studio/message-adapter/template"
	"github.com/tidwall/gjson"
)

// NestedEvent is what a task handler receives.
type NestedEvent struct {
	Input         json.RawMessage `json:"input"`
	Config        json.RawMessage `json:"config"`
	MessageConfig json.RawMessage `json:"messageConfig,omitempty"`
	CumulusConfig json.RawMessage `json:"cumulus_config,omitempty"`
}

func (n NestedEvent) Bytes() []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(n)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// ParseMessageConfig decodes the messageConfig carried by n.
func (n NestedEvent) ParseMessageConfig() (*MessageConfig, error) {
	return ParseMessageConfig(n.MessageConfig)
}

// Nest derives the handler's input and configuration from e. The task
// configuration comes from task_config when present, otherwise from
// workflow_config[task]; its templates are resolved against e.
func Nest(e Event, task string) (NestedEvent, error) {
	doc := e.Bytes()
	scope := template.Doc(doc)

	config := e.Get(FieldTaskConfig)
	if !config.Exists() && task != "" {
		config = gjson.GetBytes(doc, FieldWorkflowConfig+"."+jsonpath.Field(task))
	}
	if config.Exists() && config.Type != gjson.Null && !config.IsObject() {
		return NestedEvent{}, fmt.Errorf("%w: configuration of task %q is not an object", ErrMalformedInput, task)
	}

	out := NestedEvent{}
	configRaw := []byte(`{}`)
	if config.IsObject() {
		configRaw = []byte(config.Raw)
	}
	if mc := gjson.GetBytes(configRaw, "cumulus_message"); mc.Exists() {
		out.MessageConfig = json.RawMessage(mc.Raw)
		var err error
		if configRaw, err = jsonpath.Delete(configRaw, jsonpath.Keys("cumulus_message")); err != nil {
			return NestedEvent{}, err
		}
	}

	resolved, err := template.ResolveConfig(configRaw, scope)
	if err != nil {
		return NestedEvent{}, fmt.Errorf("message: resolve config of task %q: %w", task, err)
	}
	out.Config = resolved

	mc, err := ParseMessageConfig(out.MessageConfig)
	if err != nil {
		return NestedEvent{}, err
	}
	if out.Input, err = nestInput(e, mc, scope); err != nil {
		return NestedEvent{}, err
	}

	meta := e.Get(FieldCumulusMeta)
	if sm, name := meta.Get("state_machine"), meta.Get("execution_name"); sm.Exists() && name.Exists() {
		cc := []byte(`{}`)
		if cc, err = jsonpath.Assign(cc, jsonpath.Keys("state_machine"), []byte(sm.Raw)); err != nil {
			return NestedEvent{}, err
		}
		if cc, err = jsonpath.Assign(cc, jsonpath.Keys("execution_name"), []byte(name.Raw)); err != nil {
			return NestedEvent{}, err
		}
		if ctx := meta.Get("cumulus_context"); ctx.Exists() {
			if cc, err = jsonpath.Assign(cc, jsonpath.Keys("cumulus_context"), []byte(ctx.Raw)); err != nil {
				return NestedEvent{}, err
			}
		}
		out.CumulusConfig = cc
	}
	return out, nil
}

func nestInput(e Event, mc *MessageConfig, scope template.Scope) (json.RawMessage, error) {
	switch {
	case mc != nil && mc.Input != "":
		raw, ok, err := template.ResolveString(mc.Input, scope)
		if err != nil {
			return nil, fmt.Errorf("%w: input template: %v", ErrMalformedInput, err)
		}
		if !ok {
			return json.RawMessage(`null`), nil
		}
		return raw, nil
	case mc != nil && len(mc.Inputs) > 0:
		input := []byte(`{}`)
		for _, pair := range mc.Inputs {
			dst, err := DestinationPath(pair.Destination)
			if err != nil {
				return nil, err
			}
			raw, ok, err := template.ResolveString(pair.Source, scope)
			if err != nil {
				return nil, fmt.Errorf("%w: input source %q: %v", ErrMalformedInput, pair.Source, err)
			}
			if !ok {
				continue
			}
			if input, err = jsonpath.Assign(input, dst, raw); err != nil {
				return nil, err
			}
		}
		return input, nil
	}
	if v := e.Get(FieldPayload); v.Exists() {
		return json.RawMessage(v.Raw), nil
	}
	return json.RawMessage(`null`), nil
}
