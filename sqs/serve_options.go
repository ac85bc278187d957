package sqs

import "github.com/aura-studio/message-adapter/invoke"

type ServeOption interface {
	apply(*serveOptionBag)
}

type serveOptionBag struct {
	sqs    []Option
	invoke []invoke.ServeOption
}

func (b *serveOptionBag) apply(opts ...ServeOption) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(b)
		}
	}
}

type sqsServeOption struct{ opt Option }

func (o sqsServeOption) apply(b *serveOptionBag) {
	if o.opt != nil {
		b.sqs = append(b.sqs, o.opt)
	}
}

type taskServeOption struct{ opt invoke.ServeOption }

func (o taskServeOption) apply(b *serveOptionBag) {
	if o.opt != nil {
		b.invoke = append(b.invoke, o.opt)
	}
}

func SQS(opt Option) ServeOption { return sqsServeOption{opt: opt} }

// Task configures the task pipeline run for each record.
func Task(opt invoke.ServeOption) ServeOption { return taskServeOption{opt: opt} }
