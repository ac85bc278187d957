package invoke

import (
	"fmt"
	"os"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/dynamic"
	yaml "gopkg.in/yaml.v2"
)

type yamlInvokeConfig struct {
	Mode struct {
		Debug bool `yaml:"debug"`
	} `yaml:"mode"`
	StaticLink []struct {
		SrcPath string `yaml:"srcPath"`
		DstPath string `yaml:"dstPath"`
	} `yaml:"staticLink"`
	PrefixLink []struct {
		SrcPrefix string `yaml:"srcPrefix"`
		DstPrefix string `yaml:"dstPrefix"`
	} `yaml:"prefixLink"`
}

type yamlServeConfig struct {
	Invoke  yamlInvokeConfig `yaml:"invoke"`
	Adapter any              `yaml:"adapter"`
	Dynamic any              `yaml:"dynamic"`
}

func optionFromInvokeConfig(cfg yamlInvokeConfig) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Mode.Debug

		for _, link := range cfg.StaticLink {
			if link.SrcPath == "" || link.DstPath == "" {
				continue
			}
			o.StaticLinkMap[link.SrcPath] = link.DstPath
		}
		for _, link := range cfg.PrefixLink {
			if link.SrcPrefix == "" || link.DstPrefix == "" {
				continue
			}
			o.PrefixLinkMap[link.SrcPrefix] = link.DstPrefix
		}
	})
}

// WithConfig parses YAML bytes with mode, staticLink and prefixLink sections.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	var cfg yamlInvokeConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("invoke.WithConfig: %w", err))
		})
	}
	return optionFromInvokeConfig(cfg)
}

type serveConfigOption struct {
	invokeOpt  Option
	adapterOpt adapter.Option
	dynOpt     dynamic.Option
	err        error
}

func (o serveConfigOption) apply(b *serveOptionBag) {
	if o.err != nil {
		panic(fmt.Errorf("invoke.WithServeConfig: %w", o.err))
	}
	invokeServeOption{o.invokeOpt}.apply(b)
	adapterServeOption{o.adapterOpt}.apply(b)
	dynamicServeOption{o.dynOpt}.apply(b)
}

// WithServeConfig parses a YAML document whose invoke, adapter and dynamic
// sections configure the respective components.
// It panics if the YAML is invalid.
func WithServeConfig(yamlBytes []byte) ServeOption {
	var cfg yamlServeConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return serveConfigOption{err: err}
	}

	o := serveConfigOption{invokeOpt: optionFromInvokeConfig(cfg.Invoke)}
	if cfg.Adapter != nil {
		b, err := yaml.Marshal(cfg.Adapter)
		if err != nil {
			return serveConfigOption{err: err}
		}
		o.adapterOpt = adapter.WithConfig(b)
	}
	if cfg.Dynamic != nil {
		b, err := yaml.Marshal(cfg.Dynamic)
		if err != nil {
			return serveConfigOption{err: err}
		}
		o.dynOpt = dynamic.WithConfig(b)
	}
	return o
}

// WithServeConfigFile loads a YAML file and applies it as ServeOption.
// It panics if the file cannot be read or YAML is invalid.
func WithServeConfigFile(path string) ServeOption {
	b, err := os.ReadFile(path)
	if err != nil {
		return serveConfigOption{err: fmt.Errorf("invoke.WithServeConfigFile(%s): %w", path, err)}
	}
	return WithServeConfig(b)
}
