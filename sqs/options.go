package sqs

import "github.com/mohae/deepcopy"

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	SQSClient SQSClient
	// SuspendMode fails the whole batch on the first failing record.
	SuspendMode bool
	// PartialMode reports failed records through BatchItemFailures.
	PartialMode bool
	// ReplyMode forwards each next event to ReplyQueueURL, or to the queue
	// named by the record's ReplyQueueUrl attribute.
	ReplyMode     bool
	ReplyQueueURL string
	DebugMode     bool
}

var defaultOptions = &Options{
	SQSClient:     nil,
	SuspendMode:   false,
	PartialMode:   false,
	ReplyMode:     false,
	ReplyQueueURL: "",
	DebugMode:     false,
}

func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	options.init(opts...)
	return options
}

func (o *Options) init(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
}

// -------------- Sqs Options ----------------
func WithSQSClient(client SQSClient) Option {
	return OptionFunc(func(o *Options) {
		o.SQSClient = client
	})
}

func WithSuspendMode(suspend bool) Option {
	return OptionFunc(func(o *Options) {
		o.SuspendMode = suspend
	})
}

func WithPartialMode(partial bool) Option {
	return OptionFunc(func(o *Options) {
		o.PartialMode = partial
	})
}

func WithReplyMode(reply bool) Option {
	return OptionFunc(func(o *Options) {
		o.ReplyMode = reply
	})
}

func WithReplyQueueURL(url string) Option {
	return OptionFunc(func(o *Options) {
		o.ReplyQueueURL = url
	})
}

func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}
