package invoke

import (
	"context"
	"fmt"
	"strings"

	"github.com/aura-studio/message-adapter/message"
)

type HandlerFunc func(*Context)

type Context struct {
	Ctx    context.Context
	Engine *Engine

	// Task is the name the nested event was derived for.
	Task string
	// RawPath is "/" + Task; Path is the handler path after link rewriting.
	RawPath string
	Path    string
	// ParamPath is the wildcard value for patterns ending in "*path".
	ParamPath string

	Input    message.NestedEvent
	Response []byte
	Err      error

	aborted bool
}

func (c *Context) Abort() { c.aborted = true }

type route struct {
	pattern  string
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

func (r *router) Handle(pattern string, handlers ...HandlerFunc) {
	r.routes = append(r.routes, route{pattern: pattern, handlers: handlers})
}

func (r *router) NoRoute(handlers ...HandlerFunc) { r.noRoute = handlers }

// dispatch runs the chain for c.Path. A panicking handler fails the task.
func (r *router) dispatch(c *Context) {
	defer func() {
		if v := recover(); v != nil {
			c.Err = fmt.Errorf("invoke: panic in task %s: %v", c.Task, v)
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

	handlers, ok := r.match(c)
	if !ok {
		handlers = r.noRoute
	}
	if len(handlers) == 0 {
		c.Err = fmt.Errorf("%w: %q", ErrNoTask, c.Path)
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

func (r *router) match(c *Context) ([]HandlerFunc, bool) {
	for _, rt := range r.routes {
		if param, ok := matchPattern(rt.pattern, c.Path); ok {
			c.ParamPath = param
			return rt.handlers, true
		}
	}
	return nil, false
}

func matchPattern(pattern, path string) (param string, ok bool) {
	if prefix, found := strings.CutSuffix(pattern, "*path"); found {
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		rest, found := strings.CutPrefix(path, prefix)
		if !found {
			return "", false
		}
		return "/" + rest, true
	}
	return "", pattern == path
}
