package adapter

import (
	"github.com/aura-studio/message-adapter/message"
)

const (
	CommandLoadRemoteEvent          = "loadRemoteEvent"
	CommandLoadAndUpdateRemoteEvent = "loadAndUpdateRemoteEvent"
	CommandLoadNestedEvent          = "loadNestedEvent"
	CommandCreateNextEvent          = "createNextEvent"
)

func (e *Engine) InstallHandlers() {
	if e.r == nil {
		e.r = newRouter()
	}

	e.r.Use(e.StaticLink)

	e.r.Handle(CommandLoadRemoteEvent, e.Decode, e.HandleLoadRemoteEvent)
	e.r.Handle(CommandLoadAndUpdateRemoteEvent, e.Decode, e.HandleLoadAndUpdateRemoteEvent)
	e.r.Handle(CommandLoadNestedEvent, e.Decode, e.HandleLoadNestedEvent)
	e.r.Handle(CommandCreateNextEvent, e.Decode, e.HandleCreateNextEvent)
}

// Commands lists the commands the engine answers to.
func (e *Engine) Commands() []string {
	return e.r.Commands()
}

func (e *Engine) StaticLink(c *Context) {
	if e.StaticLinkMap == nil {
		return
	}
	if dst, ok := e.StaticLinkMap[c.Command]; ok {
		c.Command = dst
	}
}

// Decode is a no-op when the caller already filled c.Input.
func (e *Engine) Decode(c *Context) {
	if c.Input.Event != nil {
		return
	}
	c.Input, c.Err = DecodeInput(c.Command, c.raw)
}

func (e *Engine) HandleLoadRemoteEvent(c *Context) {
	ev, err := message.ParseEvent(c.Input.Event)
	if err != nil {
		c.Err = err
		return
	}
	out, err := e.LoadRemoteEvent(c.Ctx, ev)
	if err != nil {
		c.Err = err
		return
	}
	c.Response = out.Bytes()
}

func (e *Engine) HandleLoadAndUpdateRemoteEvent(c *Context) {
	ev, mc, err := eventAndContext(c.Input)
	if err != nil {
		c.Err = err
		return
	}
	out, err := e.LoadAndUpdateRemoteEvent(c.Ctx, ev, mc)
	if err != nil {
		c.Err = err
		return
	}
	c.Response = out.Bytes()
}

func (e *Engine) HandleLoadNestedEvent(c *Context) {
	ev, mc, err := eventAndContext(c.Input)
	if err != nil {
		c.Err = err
		return
	}
	out, err := e.LoadNestedEvent(c.Ctx, ev, mc)
	if err != nil {
		c.Err = err
		return
	}
	c.Response = out.Bytes()
}

func (e *Engine) HandleCreateNextEvent(c *Context) {
	ev, err := message.ParseEvent(c.Input.Event)
	if err != nil {
		c.Err = err
		return
	}
	cfg, err := message.ParseMessageConfig(c.Input.MessageConfig)
	if err != nil {
		c.Err = err
		return
	}
	rsp := c.Input.HandlerResponse
	if rsp == nil {
		rsp = []byte(`null`)
	}
	out, err := e.CreateNextEvent(c.Ctx, rsp, ev, cfg)
	if err != nil {
		c.Err = err
		return
	}
	c.Response = out.Bytes()
}

func eventAndContext(in Input) (message.Event, message.Context, error) {
	ev, err := message.ParseEvent(in.Event)
	if err != nil {
		return message.Event{}, message.Context{}, err
	}
	mc, err := message.ParseContext(in.Context)
	if err != nil {
		return message.Event{}, message.Context{}, err
	}
	return ev, mc, nil
}
