package invoke

import (
	"github.com/mohae/deepcopy"
)

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	// StaticLinkMap 将任务名映射为处理器路径，例如 "/SyncGranule" -> "/sync/v1/granule"
	StaticLinkMap map[string]string
	// PrefixLinkMap 按前缀改写处理器路径
	PrefixLinkMap map[string]string
	// Tasks 是进程内注册的任务处理器，键为任务名
	Tasks     map[string]Task
	DebugMode bool
}

var defaultOptions = &Options{
	StaticLinkMap: map[string]string{},
	PrefixLinkMap: map[string]string{},
	Tasks:         map[string]Task{},
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

// -------------- Invoke Options ----------------
func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}

// WithTask registers an in-process handler for the named task.
func WithTask(name string, task Task) Option {
	return OptionFunc(func(o *Options) {
		o.Tasks[name] = task
	})
}

func WithStaticLink(srcPath, dstPath string) Option {
	return OptionFunc(func(o *Options) {
		o.StaticLinkMap[srcPath] = dstPath
	})
}

func WithPrefixLink(srcPrefix string, dstPrefix string) Option {
	return OptionFunc(func(o *Options) {
		o.PrefixLinkMap[srcPrefix] = dstPrefix
	})
}
