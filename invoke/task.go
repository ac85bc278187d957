package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/aura-studio/dynamic"
	"github.com/aura-studio/message-adapter/message"
	"github.com/tidwall/gjson"
)

var ErrNoTask = errors.New("invoke: no handler for task")

// Task is the business logic run between loadNestedEvent and
// createNextEvent. It returns the handler response as JSON.
type Task interface {
	Handle(ctx context.Context, in message.NestedEvent) ([]byte, error)
}

type TaskFunc func(ctx context.Context, in message.NestedEvent) ([]byte, error)

func (f TaskFunc) Handle(ctx context.Context, in message.NestedEvent) ([]byte, error) {
	return f(ctx, in)
}

// TunnelTask runs a task inside a dynamic package. The package receives the
// nested event as its request; a reply of the form {"error": "..."} fails
// the task.
type TunnelTask struct {
	Tunnel dynamic.Tunnel
	Route  string
}

func (t TunnelTask) Handle(_ context.Context, in message.NestedEvent) ([]byte, error) {
	rsp := t.Tunnel.Invoke(t.Route, string(in.Bytes()))
	if !gjson.Valid(rsp) {
		return nil, fmt.Errorf("invoke: package route %s returned invalid JSON", t.Route)
	}
	doc := gjson.Parse(rsp)
	if e := doc.Get("error"); doc.IsObject() && e.Type == gjson.String && len(doc.Map()) == 1 {
		return nil, fmt.Errorf("invoke: package route %s: %s", t.Route, e.String())
	}
	return []byte(rsp), nil
}
