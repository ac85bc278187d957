package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/aura-studio/message-adapter/message"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ReplaceConfig asks for part of an outgoing event to be stored remotely
// once it grows to MaxSize bytes.
type ReplaceConfig struct {
	Path        string
	TargetPath  string
	MaxSize     int64
	FullMessage bool
}

// ParseReplaceConfig reads the ReplaceConfig block of e. A negative MaxSize
// means the block did not set one.
func ParseReplaceConfig(e message.Event) (ReplaceConfig, bool) {
	v := e.Get(message.FieldReplaceConfig)
	if !v.IsObject() {
		return ReplaceConfig{}, false
	}
	rc := ReplaceConfig{
		Path:        v.Get("Path").String(),
		TargetPath:  v.Get("TargetPath").String(),
		MaxSize:     -1,
		FullMessage: v.Get("FullMessage").Bool(),
	}
	if m := v.Get("MaxSize"); m.Exists() {
		rc.MaxSize = m.Int()
	}
	if rc.FullMessage || rc.Path == "" {
		rc.Path = "$"
	}
	if rc.TargetPath == "" {
		rc.TargetPath = rc.Path
	}
	return rc, true
}

// Offloader stores oversized event parts.
type Offloader struct {
	Store          Store
	DefaultMaxSize int64
	// KeyFunc names stored objects; defaults to events/<uuid>.
	KeyFunc func() string
}

func (o *Offloader) key() string {
	if o.KeyFunc != nil {
		return o.KeyFunc()
	}
	return "events/" + uuid.NewString()
}

// Offload applies e's ReplaceConfig. Events without one are returned as
// they are. The config and task_config are always removed; the value at
// Path is stored and cleared, and a replace pointer added, only when its
// estimated size reaches MaxSize.
func (o *Offloader) Offload(ctx context.Context, e message.Event) (message.Event, error) {
	rc, ok := ParseReplaceConfig(e)
	if !ok {
		return e, nil
	}
	if rc.MaxSize < 0 {
		rc.MaxSize = o.DefaultMaxSize
	}

	e = e.Without(message.FieldReplaceConfig, message.FieldTaskConfig)

	path, err := jsonpath.Parse(rc.Path)
	if err != nil {
		return message.Event{}, fmt.Errorf("%w: ReplaceConfig.Path %q: %v", ErrTarget, rc.Path, err)
	}
	matches := jsonpath.Resolve(path, gjson.ParseBytes(e.Bytes()))
	if len(matches) != 1 {
		return message.Event{}, fmt.Errorf("%w: ReplaceConfig.Path %q must address exactly one node, got %d", ErrTarget, rc.Path, len(matches))
	}
	value := message.Compact([]byte(matches[0].Raw))
	if estimatedSize(value) < rc.MaxSize {
		return e, nil
	}

	bucket := e.Lookup(message.FieldCumulusMeta + ".system_bucket").String()
	if bucket == "" {
		return message.Event{}, fmt.Errorf("remote: offload needs %s.system_bucket", message.FieldCumulusMeta)
	}
	key := o.key()
	if err := o.Store.Put(ctx, bucket, key, value); err != nil {
		return message.Event{}, err
	}

	if path.IsRoot() {
		e, err = message.ParseEvent([]byte(`{}`))
		if err == nil {
			e, err = e.With(message.FieldCumulusMeta, []byte(gjson.GetBytes(value, message.FieldCumulusMeta).Raw))
		}
	} else {
		e, err = e.Assign(path, emptyLike(matches[0]))
	}
	if err != nil {
		return message.Event{}, err
	}

	pointer, err := json.Marshal(Pointer{Bucket: bucket, Key: key, TargetPath: rc.TargetPath})
	if err != nil {
		return message.Event{}, err
	}
	return e.With(message.FieldReplace, pointer)
}

func emptyLike(v gjson.Result) []byte {
	switch {
	case v.IsObject():
		return []byte(`{}`)
	case v.IsArray():
		return []byte(`[]`)
	default:
		return []byte(`""`)
	}
}

// estimatedSize is the length of compact once written with ", " and ": "
// separators and ASCII-only escapes (\uXXXX, surrogate pairs above the BMP),
// the size other Cumulus message adapters compare MaxSize against.
func estimatedSize(compact []byte) int64 {
	var (
		n        int64
		inString bool
		escaped  bool
	)
	for i := 0; i < len(compact); {
		r, width := utf8.DecodeRune(compact[i:])
		i += width

		switch {
		case r >= utf8.RuneSelf:
			if r > 0xFFFF {
				n += 12
			} else {
				n += 6
			}
			escaped = false
			continue
		case inString && escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case !inString && (r == ',' || r == ':'):
			n++
		}
		n++
	}
	return n
}
