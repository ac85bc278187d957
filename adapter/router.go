package adapter

import (
	"context"
	"fmt"
)

type HandlerFunc func(*Context)

type Context struct {
	Ctx    context.Context
	Engine *Engine

	// RawCommand is the command as given by the caller (before link rewriting).
	RawCommand string
	// Command is the effective command (after link rewriting).
	Command string

	Input    Input
	raw      []byte
	Response []byte
	Err      error

	DebugMode bool

	aborted bool
}

func (c *Context) Abort() { c.aborted = true }

type route struct {
	command  string
	handlers []HandlerFunc
}

type router struct {
	pre []HandlerFunc

	routes  []route
	noRoute []HandlerFunc
}

func newRouter() *router {
	return &router{}
}

func (r *router) Use(handlers ...HandlerFunc) {
	r.pre = append(r.pre, handlers...)
}

func (r *router) Handle(command string, handlers ...HandlerFunc) {
	r.routes = append(r.routes, route{command: command, handlers: handlers})
}

func (r *router) NoRoute(handlers ...HandlerFunc) { r.noRoute = handlers }

func (r *router) dispatch(c *Context) {
	defer func() {
		if v := recover(); v != nil {
			c.Err = fmt.Errorf("adapter: panic in %s: %v", c.Command, v)
		}
	}()

	for _, h := range r.pre {
		if h == nil {
			continue
		}
		h(c)
		if c.aborted {
			return
		}
	}

	handlers, ok := r.match(c.Command)
	if !ok {
		handlers = r.noRoute
	}
	if len(handlers) == 0 {
		c.Err = fmt.Errorf("%w: %q", ErrUnknownCommand, c.Command)
		return
	}

	for _, h := range handlers {
		if h == nil {
			continue
		}
		h(c)
		if c.aborted || c.Err != nil {
			return
		}
	}
}

func (r *router) match(command string) ([]HandlerFunc, bool) {
	for _, rt := range r.routes {
		if rt.command == command {
			return rt.handlers, true
		}
	}
	return nil, false
}

// Commands lists the registered command names in registration order.
func (r *router) Commands() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.command)
	}
	return out
}
