package adapter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/aura-studio/message-adapter/execution"
	"github.com/aura-studio/message-adapter/message"
	"github.com/aura-studio/message-adapter/remote"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/tidwall/gjson"
)

var ErrUnknownCommand = errors.New("adapter: unknown command")

// Engine runs the message adapter commands against a remote store and an
// execution history.
type Engine struct {
	*Options
	r         *router
	running   atomic.Int32
	store     remote.Store
	history   execution.History
	offloader *remote.Offloader
}

// NewEngine builds an engine. Outside testing mode, collaborators not given
// as options are backed by AWS clients from the default config chain.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		Options: NewOptions(opts...),
	}
	e.store, e.history = e.Store, e.History

	switch {
	case e.store != nil && e.history != nil:
	case e.TestingMode:
		if e.store == nil {
			if e.FixturesDir != "" {
				e.store = remote.NewDirStore(e.FixturesDir)
			} else {
				e.store = remote.NewMemoryStore()
			}
		}
		if e.history == nil {
			e.history = execution.NewStaticHistory()
		}
	default:
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			panic(err)
		}
		if e.store == nil {
			e.store = remote.NewS3Store(cfg)
		}
		if e.history == nil {
			e.history = execution.NewSFNHistory(cfg)
		}
	}

	e.offloader = &remote.Offloader{Store: e.store, DefaultMaxSize: e.RemoteMaxSize}
	e.running.Store(1)
	e.InstallHandlers()
	return e
}

func (e *Engine) Start() {
	e.running.Store(1)
}

func (e *Engine) Stop() {
	e.running.Store(0)
}

func (e *Engine) IsRunning() bool {
	return e.running.Load() == 1
}

// Invoke runs command on the raw input documents and returns the JSON result.
func (e *Engine) Invoke(ctx context.Context, command string, input []byte) ([]byte, error) {
	return e.dispatch(&Context{Ctx: ctx, Engine: e, RawCommand: command, Command: command, raw: input})
}

// InvokeInput runs command on already separated documents.
func (e *Engine) InvokeInput(ctx context.Context, command string, in Input) ([]byte, error) {
	return e.dispatch(&Context{Ctx: ctx, Engine: e, RawCommand: command, Command: command, Input: in})
}

func (e *Engine) dispatch(c *Context) ([]byte, error) {
	if !e.IsRunning() {
		return nil, fmt.Errorf("adapter: engine is stopped")
	}
	if c.Ctx == nil {
		c.Ctx = context.Background()
	}
	c.DebugMode = e.DebugMode

	e.r.dispatch(c)

	if e.DebugMode {
		if c.Err != nil {
			log.Printf("[Adapter] %s error: %v", c.Command, c.Err)
		} else {
			log.Printf("[Adapter] %s response: %s", c.Command, c.Response)
		}
	}
	return c.Response, c.Err
}

// LoadRemoteEvent expands a truncated event.
func (e *Engine) LoadRemoteEvent(ctx context.Context, ev message.Event) (message.Event, error) {
	return remote.Load(ctx, e.store, ev)
}

// LoadAndUpdateRemoteEvent expands ev and stamps the running task into it.
// A parameterized message ({"cma": {"event": ..., ...}}) is unwrapped first
// and its other members are laid over the expanded event.
func (e *Engine) LoadAndUpdateRemoteEvent(ctx context.Context, ev message.Event, mc message.Context) (message.Event, error) {
	inner, params, err := unwrapParameters(ev)
	if err != nil {
		return message.Event{}, err
	}
	loaded, err := remote.Load(ctx, e.store, inner)
	if err != nil {
		return message.Event{}, err
	}
	if loaded, err = loaded.Merge(params); err != nil {
		return message.Event{}, err
	}
	return message.UpdateIdentity(loaded, mc)
}

// LoadNestedEvent derives the handler input for ev.
func (e *Engine) LoadNestedEvent(ctx context.Context, ev message.Event, mc message.Context) (message.NestedEvent, error) {
	nested, _, err := e.LoadNestedTask(ctx, ev, mc)
	return nested, err
}

// LoadNestedTask is LoadNestedEvent that also reports the task the input was
// derived for. Messages coming from a state machine are completed from the
// execution's original input, and the task is named after the state that
// scheduled the context's resource.
func (e *Engine) LoadNestedTask(ctx context.Context, ev message.Event, mc message.Context) (message.NestedEvent, string, error) {
	task := ev.Task()
	if ev.Source() == message.SourceSFN {
		sm := ev.Lookup(message.FieldCumulusMeta + ".state_machine").String()
		name := ev.Lookup(message.FieldCumulusMeta + ".execution_name").String()
		if sm == "" || name == "" {
			return message.NestedEvent{}, "", fmt.Errorf("%w: sfn message lacks state_machine or execution_name", execution.ErrLookup)
		}

		var err error
		if ev, err = e.completeFromOriginalInput(ctx, ev, sm, name); err != nil {
			return message.NestedEvent{}, "", err
		}
		if arn := mc.ResourceArn(); arn != "" {
			if task, err = e.history.GetTaskName(ctx, sm, name, arn); err != nil {
				return message.NestedEvent{}, "", err
			}
		}
	}
	if e.DebugMode {
		log.Printf("[Adapter] nesting event for task %q", task)
	}
	nested, err := message.Nest(ev, task)
	return nested, task, err
}

// CreateNextEvent builds the event for the next step and offloads it when
// the event asks for that.
func (e *Engine) CreateNextEvent(ctx context.Context, response []byte, ev message.Event, cfg *message.MessageConfig) (message.Event, error) {
	next, err := message.CreateNextEvent(response, ev, cfg)
	if err != nil {
		return message.Event{}, err
	}
	return e.offloader.Offload(ctx, next)
}

func (e *Engine) completeFromOriginalInput(ctx context.Context, ev message.Event, sm, name string) (message.Event, error) {
	missing := false
	for _, f := range []string{message.FieldMeta, message.FieldPayload, message.FieldWorkflowConfig} {
		if !ev.Has(f) {
			missing = true
		}
	}
	if !missing {
		return ev, nil
	}

	b, err := e.history.GetOriginalInput(ctx, sm, name)
	if err != nil {
		return message.Event{}, err
	}
	orig, err := message.ParseEvent(b)
	if err != nil {
		return message.Event{}, fmt.Errorf("%w: original input: %v", execution.ErrLookup, err)
	}
	gjson.ParseBytes(orig.Bytes()).ForEach(func(k, v gjson.Result) bool {
		if ev.Has(k.String()) {
			return true
		}
		ev, err = ev.With(k.String(), []byte(v.Raw))
		return err == nil
	})
	return ev, err
}

func unwrapParameters(ev message.Event) (inner, params message.Event, err error) {
	cma := ev.Get(message.FieldParameters)
	if !cma.IsObject() {
		return ev, message.Event{}, nil
	}
	wrapped, err := message.ParseEvent([]byte(cma.Get("event").Raw))
	if err != nil {
		return message.Event{}, message.Event{}, fmt.Errorf("%w: cma.event: %v", message.ErrMalformedInput, err)
	}
	rest, err := message.ParseEvent([]byte(cma.Raw))
	if err != nil {
		return message.Event{}, message.Event{}, err
	}
	return wrapped, rest.Without("event"), nil
}
