package http

import (
	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/dynamic"
)

type ServeOption interface {
	apply(*serveOptionBag)
}

type serveOptionBag struct {
	http    []Option
	adapter []adapter.Option
	dynamic []dynamic.Option
}

func (b *serveOptionBag) apply(opts ...ServeOption) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(b)
		}
	}
}

type httpServeOption struct{ opt Option }

func (o httpServeOption) apply(b *serveOptionBag) {
	if o.opt != nil {
		b.http = append(b.http, o.opt)
	}
}

type adapterServeOption struct{ opt adapter.Option }

func (o adapterServeOption) apply(b *serveOptionBag) {
	if o.opt != nil {
		b.adapter = append(b.adapter, o.opt)
	}
}

type dynamicServeOption struct{ opt dynamic.Option }

func (o dynamicServeOption) apply(b *serveOptionBag) {
	if o.opt != nil {
		b.dynamic = append(b.dynamic, o.opt)
	}
}

func HTTP(opt Option) ServeOption { return httpServeOption{opt: opt} }

func Adapter(opt adapter.Option) ServeOption { return adapterServeOption{opt: opt} }

func Dyn(opt dynamic.Option) ServeOption { return dynamicServeOption{opt: opt} }
