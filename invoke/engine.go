package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/dynamic"
	"github.com/aura-studio/message-adapter/message"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Engine 是 Lambda 任务包装器：加载远程事件、派生任务输入、执行任务并生成下一步事件
type Engine struct {
	*Options
	*dynamic.Dynamic
	adapter *adapter.Engine
	r       *router
	running atomic.Int32
}

func NewEngine(opts ...ServeOption) *Engine {
	bag := &serveOptionBag{}
	bag.apply(opts...)

	e := &Engine{
		Options: NewOptions(bag.invoke...),
		Dynamic: dynamic.NewDynamic(bag.dynamic...),
		adapter: adapter.NewEngine(bag.adapter...),
	}
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

// Adapter exposes the message adapter the engine runs tasks with.
func (e *Engine) Adapter() *adapter.Engine {
	return e.adapter
}

// Invoke 处理一次 Lambda 直接调用，payload 为工作流消息，返回下一步事件
func (e *Engine) Invoke(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	if !e.IsRunning() {
		return nil, fmt.Errorf("invoke: engine is stopped")
	}

	ev, err := message.ParseEvent(payload)
	if err != nil {
		return nil, err
	}
	next, err := e.Run(ctx, ev, LambdaContext(ctx))
	if err != nil {
		e.logf("Error: %v", err)
		return nil, err
	}
	return json.RawMessage(next.Bytes()), nil
}

// Run passes ev through the whole task pipeline: loadAndUpdateRemoteEvent,
// loadNestedEvent, the task handler and createNextEvent.
func (e *Engine) Run(ctx context.Context, ev message.Event, mc message.Context) (message.Event, error) {
	loaded, err := e.adapter.LoadAndUpdateRemoteEvent(ctx, ev, mc)
	if err != nil {
		return message.Event{}, err
	}
	nested, task, err := e.adapter.LoadNestedTask(ctx, loaded, mc)
	if err != nil {
		return message.Event{}, err
	}

	c := &Context{
		Ctx:     ctx,
		Engine:  e,
		Task:    task,
		RawPath: "/" + task,
		Path:    "/" + task,
		Input:   nested,
	}
	e.logf("Request: %s %s", c.Path, nested.Bytes())
	e.r.dispatch(c)
	if c.Err != nil {
		return message.Event{}, c.Err
	}
	e.logf("Response: %s %s", c.Path, c.Response)

	cfg, err := nested.ParseMessageConfig()
	if err != nil {
		return message.Event{}, err
	}
	return e.adapter.CreateNextEvent(ctx, c.Response, loaded, cfg)
}

// LambdaContext reads the running function's identity.
func LambdaContext(ctx context.Context) message.Context {
	mc := message.Context{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		mc.InvokedFunctionArn = lc.InvokedFunctionArn
	}
	return mc
}

func (e *Engine) logf(format string, args ...any) {
	if e.DebugMode {
		log.Printf("[Invoke] "+format, args...)
	}
}
