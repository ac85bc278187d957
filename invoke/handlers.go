package invoke

import (
	"fmt"
	"sort"
	"strings"
)

func (e *Engine) InstallHandlers() {
	if e.r == nil {
		e.r = newRouter()
	}

	e.r.Use(e.StaticLink, e.PrefixLink)

	names := make([]string, 0, len(e.Tasks))
	for name := range e.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.r.Handle("/"+name, e.RunTask(e.Tasks[name]))
	}

	e.r.NoRoute(e.Package)
}

func (e *Engine) Use(handlers ...HandlerFunc) {
	if e.r == nil {
		e.r = newRouter()
	}
	e.r.Use(handlers...)
}

func (e *Engine) Handle(pattern string, handlers ...HandlerFunc) {
	if e.r == nil {
		e.r = newRouter()
	}
	e.r.Handle(pattern, handlers...)
}

func (e *Engine) StaticLink(c *Context) {
	if dst, ok := e.StaticLinkMap[c.Path]; ok {
		c.Path = dst
	}
}

func (e *Engine) PrefixLink(c *Context) {
	for oldPrefix, newPrefix := range e.PrefixLinkMap {
		if strings.HasPrefix(c.Path, oldPrefix) {
			c.Path = strings.Replace(c.Path, oldPrefix, newPrefix, 1)
			return
		}
	}
}

// RunTask adapts an in-process Task to a route handler.
func (e *Engine) RunTask(t Task) HandlerFunc {
	return func(c *Context) {
		c.Response, c.Err = t.Handle(c.Ctx, c.Input)
	}
}

// Package runs the task in the dynamic package named by the handler path
// /<package>/<version>[/route].
func (e *Engine) Package(c *Context) {
	tunnel, route, err := e.Resolve(c.Path)
	if err != nil {
		c.Err = fmt.Errorf("%w %s: %v", ErrNoTask, c.Task, err)
		return
	}
	c.Response, c.Err = TunnelTask{Tunnel: tunnel, Route: route}.Handle(c.Ctx, c.Input)
}
