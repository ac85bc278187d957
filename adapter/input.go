package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aura-studio/message-adapter/message"
	"github.com/tidwall/gjson"
)

// Input holds the documents a command consumes. Absent documents are nil.
type Input struct {
	Event           []byte
	Context         []byte
	HandlerResponse []byte
	MessageConfig   []byte
}

// DecodeInput reads the documents of a command. Two layouts are accepted:
// a single object with event, context, handler_response and message_config
// members, or a sequence of JSON documents in command order
// (createNextEvent: handler response, event, message config; the other
// commands: event, context).
func DecodeInput(command string, b []byte) (Input, error) {
	docs, err := splitDocuments(b)
	if err != nil {
		return Input{}, err
	}
	if len(docs) == 0 {
		return Input{}, fmt.Errorf("%w: no input documents", message.ErrMalformedInput)
	}

	if len(docs) == 1 {
		if doc := gjson.ParseBytes(docs[0]); doc.IsObject() && doc.Get("event").Exists() && !doc.Get(message.FieldCumulusMeta).Exists() {
			return Input{
				Event:           member(doc, "event"),
				Context:         member(doc, "context"),
				HandlerResponse: member(doc, "handler_response", "handlerResponse"),
				MessageConfig:   member(doc, "message_config", "messageConfig"),
			}, nil
		}
	}

	switch command {
	case CommandCreateNextEvent:
		if len(docs) < 2 {
			return Input{}, fmt.Errorf("%w: %s needs a handler response and an event", message.ErrMalformedInput, command)
		}
		in := Input{HandlerResponse: docs[0], Event: docs[1]}
		if len(docs) > 2 {
			in.MessageConfig = docs[2]
		}
		return in, nil
	default:
		in := Input{Event: docs[0]}
		if len(docs) > 1 {
			in.Context = docs[1]
		}
		return in, nil
	}
}

func member(doc gjson.Result, keys ...string) []byte {
	for _, k := range keys {
		if v := doc.Get(k); v.Exists() {
			return []byte(v.Raw)
		}
	}
	return nil
}

func splitDocuments(b []byte) ([][]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var docs [][]byte
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", message.ErrMalformedInput, len(docs)+1, err)
		}
		docs = append(docs, []byte(raw))
	}
}
