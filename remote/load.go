package remote

import (
	"context"
	"fmt"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/aura-studio/message-adapter/message"
	"github.com/tidwall/gjson"
)

// ParsePointer reads the replace block of e. ok is false when e has none.
func ParsePointer(e message.Event) (p Pointer, ok bool, err error) {
	v := e.Get(message.FieldReplace)
	if !v.Exists() || v.Type == gjson.Null {
		return Pointer{}, false, nil
	}
	if !v.IsObject() {
		return Pointer{}, false, fmt.Errorf("%w: replace must be an object", message.ErrMalformedInput)
	}
	p = Pointer{
		Bucket:     v.Get("Bucket").String(),
		Key:        v.Get("Key").String(),
		TargetPath: v.Get("TargetPath").String(),
	}
	if p.Bucket == "" || p.Key == "" {
		return Pointer{}, false, fmt.Errorf("%w: replace needs Bucket and Key", message.ErrMalformedInput)
	}
	if p.TargetPath == "" {
		p.TargetPath = "$"
	}
	return p, true, nil
}

// Load expands a truncated event. Events without a replace pointer are
// returned as they are. Otherwise the stored document is merged at the
// pointer's TargetPath and the pointer is dropped. A non-None local
// exception survives the merge.
func Load(ctx context.Context, store Store, e message.Event) (message.Event, error) {
	p, ok, err := ParsePointer(e)
	if err != nil || !ok {
		return e, err
	}

	body, err := store.Fetch(ctx, p)
	if err != nil {
		return message.Event{}, err
	}
	if !gjson.ValidBytes(body) {
		return message.Event{}, fmt.Errorf("%w: %s is not valid JSON", ErrFetch, p)
	}
	body = message.Compact(body)

	target, err := jsonpath.Parse(p.TargetPath)
	if err != nil {
		return message.Event{}, fmt.Errorf("%w: %q: %v", ErrTarget, p.TargetPath, err)
	}

	localException := e.Get(message.FieldException)
	base := e.Without(message.FieldReplace)

	var loaded message.Event
	if target.IsRoot() {
		loaded, err = mergeRoot(base, body)
	} else {
		loaded, err = mergeAt(base, target, body)
	}
	if err != nil {
		return message.Event{}, err
	}
	loaded = loaded.Without(message.FieldReplace)

	if isException(localException) && !isException(loaded.Get(message.FieldException)) {
		if loaded, err = loaded.With(message.FieldException, []byte(localException.Raw)); err != nil {
			return message.Event{}, err
		}
	}
	return loaded, nil
}

func mergeRoot(base message.Event, body []byte) (message.Event, error) {
	if !gjson.ParseBytes(body).IsObject() {
		return message.Event{}, fmt.Errorf("%w: stored event at $ must be an object", ErrTarget)
	}
	remote, err := message.ParseEvent(body)
	if err != nil {
		return message.Event{}, err
	}
	return base.Merge(remote)
}

func mergeAt(base message.Event, target jsonpath.Path, body []byte) (message.Event, error) {
	matches := jsonpath.Resolve(target, gjson.ParseBytes(base.Bytes()))
	if len(matches) != 1 || !target.Definite() {
		return message.Event{}, fmt.Errorf("%w: %s must address exactly one node, got %d", ErrTarget, target, len(matches))
	}
	merged := body
	if matches[0].IsObject() && gjson.ParseBytes(body).IsObject() {
		merged = []byte(matches[0].Raw)
		var err error
		gjson.ParseBytes(body).ForEach(func(k, v gjson.Result) bool {
			merged, err = jsonpath.Assign(merged, jsonpath.Keys(k.String()), []byte(v.Raw))
			return err == nil
		})
		if err != nil {
			return message.Event{}, err
		}
	}
	return base.Assign(target, merged)
}

func isException(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return false
	}
	return v.String() != "" && v.String() != message.ExceptionNone
}
