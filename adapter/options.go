package adapter

import (
	"os"

	"github.com/aura-studio/message-adapter/execution"
	"github.com/aura-studio/message-adapter/remote"
	"github.com/mohae/deepcopy"
)

// EnvName selects testing mode when set to "testing".
const EnvName = "CUMULUS_ENV"

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	// StaticLinkMap maps command aliases to command names.
	StaticLinkMap map[string]string
	DebugMode     bool
	TestingMode   bool
	// FixturesDir backs the remote store in testing mode.
	FixturesDir   string
	RemoteMaxSize int64
	Store         remote.Store
	History       execution.History
}

var defaultOptions = &Options{
	StaticLinkMap: map[string]string{
		"load_remote_event":            CommandLoadRemoteEvent,
		"load_and_update_remote_event": CommandLoadAndUpdateRemoteEvent,
		"load_nested_event":            CommandLoadNestedEvent,
		"create_next_event":            CommandCreateNextEvent,
	},
	DebugMode:     false,
	TestingMode:   false,
	FixturesDir:   "",
	RemoteMaxSize: 0,
	Store:         nil,
	History:       nil,
}

func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	options.TestingMode = os.Getenv(EnvName) == "testing"
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

// -------------- Adapter Options ----------------
func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}

func WithTestingMode(testing bool) Option {
	return OptionFunc(func(o *Options) {
		o.TestingMode = testing
	})
}

func WithFixturesDir(dir string) Option {
	return OptionFunc(func(o *Options) {
		o.FixturesDir = dir
	})
}

func WithRemoteMaxSize(size int64) Option {
	return OptionFunc(func(o *Options) {
		o.RemoteMaxSize = size
	})
}

func WithStore(store remote.Store) Option {
	return OptionFunc(func(o *Options) {
		o.Store = store
	})
}

func WithHistory(history execution.History) Option {
	return OptionFunc(func(o *Options) {
		o.History = history
	})
}

func WithStaticLink(alias, command string) Option {
	return OptionFunc(func(o *Options) {
		o.StaticLinkMap[alias] = command
	})
}
