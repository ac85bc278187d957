package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/http"
	"github.com/aura-studio/message-adapter/invoke"
	"github.com/aura-studio/message-adapter/sqs"
	yaml "gopkg.in/yaml.v2"
)

const (
	ModeInvoke = "invoke"
	ModeSQS    = "sqs"
	ModeHTTP   = "http"
)

// yamlServerConfig is the top of the shared document. The invoke, sqs,
// http, adapter and dynamic sections are read by the packages they
// configure.
type yamlServerConfig struct {
	Mode    string `yaml:"mode"`
	Adapter any    `yaml:"adapter"`
}

type Option interface {
	Apply(*Options)
}

type Options struct {
	Mode   string
	Invoke []invoke.ServeOption
	SQS    []sqs.ServeOption
	HTTP   []http.ServeOption
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

func NewOptions(opts ...Option) *Options {
	o := &Options{Mode: ModeInvoke}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	return o
}

func WithMode(mode string) Option {
	return OptionFunc(func(o *Options) {
		o.Mode = mode
	})
}

// WithAdapter applies opt to the adapter of whichever mode runs.
func WithAdapter(opt adapter.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Invoke = append(o.Invoke, invoke.Adapter(opt))
		o.SQS = append(o.SQS, sqs.Task(invoke.Adapter(opt)))
		o.HTTP = append(o.HTTP, http.Adapter(opt))
	})
}

func WithInvoke(opt invoke.ServeOption) Option {
	return OptionFunc(func(o *Options) {
		o.Invoke = append(o.Invoke, opt)
		o.SQS = append(o.SQS, sqs.Task(opt))
	})
}

func WithSQS(opt sqs.ServeOption) Option {
	return OptionFunc(func(o *Options) {
		o.SQS = append(o.SQS, opt)
	})
}

func WithHTTP(opt http.ServeOption) Option {
	return OptionFunc(func(o *Options) {
		o.HTTP = append(o.HTTP, opt)
	})
}

// WithServeConfig parses the shared YAML document: mode selects the server,
// the other sections are handed to every mode.
// It panics if the YAML is invalid.
func WithServeConfig(yamlBytes []byte) Option {
	var cfg yamlServerConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		panic(fmt.Errorf("server.WithServeConfig: %w", err))
	}

	return OptionFunc(func(o *Options) {
		if cfg.Mode != "" {
			o.Mode = cfg.Mode
		}
		o.Invoke = append(o.Invoke, invoke.WithServeConfig(yamlBytes))
		o.SQS = append(o.SQS, sqs.WithServeConfig(yamlBytes))
		o.HTTP = append(o.HTTP, http.WithServeConfig(yamlBytes))
	})
}

// WithServeConfigFile loads a YAML file and applies it as WithServeConfig.
func WithServeConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("server.WithServeConfigFile(%s): %w", path, err))
	}
	return WithServeConfig(b)
}

// AdapterConfig reads the adapter section of the shared document. The
// command line runs the adapter alone and needs nothing else.
func AdapterConfig(yamlBytes []byte) (adapter.Option, error) {
	var cfg yamlServerConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return nil, fmt.Errorf("server.AdapterConfig: %w", err)
	}
	if cfg.Adapter == nil {
		return nil, nil
	}
	b, err := yaml.Marshal(cfg.Adapter)
	if err != nil {
		return nil, fmt.Errorf("server.AdapterConfig: %w", err)
	}
	return adapter.WithConfig(b), nil
}

// DefaultConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default config.
func DefaultConfigCandidates() []string {
	return []string{
		"message-adapter.yaml",
		"message-adapter.yml",
		"server.yaml",
		"server.yml",
		filepath.FromSlash("config/message-adapter.yaml"),
		filepath.FromSlash("config/message-adapter.yml"),
	}
}

// FindDefaultConfigFile searches for a config file in a small set of
// well-known locations (CWD then executable directory).
func FindDefaultConfigFile() (string, error) {
	candidates := DefaultConfigCandidates()

	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	for _, dir := range dirs {
		for _, rel := range candidates {
			p := rel
			if dir != "." {
				p = filepath.Join(dir, rel)
			}
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("server config not found (expected %v)", candidates)
}
