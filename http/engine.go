package http

import (
	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/dynamic"
	"github.com/gin-gonic/gin"
)

// Engine serves the adapter commands over HTTP for local development.
type Engine struct {
	*Options
	*gin.Engine
	*dynamic.Dynamic
	adapter *adapter.Engine
}

func NewEngine(opts ...ServeOption) *Engine {
	bag := &serveOptionBag{}
	bag.apply(opts...)

	e := &Engine{
		Options: NewOptions(bag.http...),
		Dynamic: dynamic.NewDynamic(bag.dynamic...),
		adapter: adapter.NewEngine(bag.adapter...),
	}

	if !e.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	e.Engine = gin.Default()

	if e.CorsMode {
		e.Use(Cors())
	}

	e.InstallHandlers()

	return e
}

// Adapter exposes the engine commands are run with.
func (e *Engine) Adapter() *adapter.Engine {
	return e.adapter
}
