package dynamic

import (
	"github.com/aura-studio/dynamic"
	"github.com/mohae/deepcopy"
)

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

// Toolchain identifies the build of the handler packages to load.
type Toolchain struct {
	OS       string
	Arch     string
	Compiler string
	Variant  string
}

type Options struct {
	Toolchain Toolchain

	LocalWarehouse  string
	RemoteWarehouse string

	HandlerNamespace      string
	HandlerDefaultVersion string

	// Builtins are compiled in and registered without loading.
	Builtins []*Package
	// Preload is loaded at startup so the first message does not pay for it.
	Preload []*Package
}

var defaultOptions = &Options{
	Builtins: []*Package{},
	Preload:  []*Package{},
}

func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(options)
		}
	}
	return options
}

func WithToolchain(tc Toolchain) Option {
	return OptionFunc(func(o *Options) {
		o.Toolchain = tc
	})
}

func WithWarehouse(local, remote string) Option {
	return OptionFunc(func(o *Options) {
		o.LocalWarehouse = local
		o.RemoteWarehouse = remote
	})
}

func WithNamespace(namespace string) Option {
	return OptionFunc(func(o *Options) {
		o.HandlerNamespace = namespace
	})
}

func WithDefaultVersion(version string) Option {
	return OptionFunc(func(o *Options) {
		o.HandlerDefaultVersion = version
	})
}

// WithBuiltin registers a handler tunnel linked into the binary.
func WithBuiltin(pkg, version string, tunnel dynamic.Tunnel) Option {
	return OptionFunc(func(o *Options) {
		o.Builtins = append(o.Builtins, &Package{Package: pkg, Version: version, Tunnel: tunnel})
	})
}

func WithPreload(pkg, version string) Option {
	return OptionFunc(func(o *Options) {
		o.Preload = append(o.Preload, &Package{Package: pkg, Version: version})
	})
}
