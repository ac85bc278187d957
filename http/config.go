package http

import (
	"fmt"
	"os"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/dynamic"
	yaml "gopkg.in/yaml.v2"
)

type yamlHTTPConfig struct {
	Address    string `yaml:"address"`
	Debug      bool   `yaml:"debug"`
	Cors       bool   `yaml:"cors"`
	StaticLink []struct {
		SrcPath string `yaml:"srcPath"`
		DstPath string `yaml:"dstPath"`
	} `yaml:"staticLink"`
	PrefixLink []struct {
		SrcPrefix string `yaml:"srcPrefix"`
		DstPrefix string `yaml:"dstPrefix"`
	} `yaml:"prefixLink"`
	HeaderLinkKey []struct {
		Key    string `yaml:"key"`
		Prefix string `yaml:"prefix"`
	} `yaml:"headerLinkKey"`
}

type yamlServeConfig struct {
	HTTP    yamlHTTPConfig `yaml:"http"`
	Adapter any            `yaml:"adapter"`
	Dynamic any            `yaml:"dynamic"`
}

func optionFromHTTPConfig(cfg yamlHTTPConfig) Option {
	return HttpOption(func(o *Options) {
		if cfg.Address != "" {
			o.Address = cfg.Address
		}
		o.DebugMode = cfg.Debug
		o.CorsMode = cfg.Cors

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
		for _, link := range cfg.HeaderLinkKey {
			if link.Key == "" || link.Prefix == "" {
				continue
			}
			o.HeaderLinkMap[link.Key] = link.Prefix
		}
	})
}

// WithConfig parses the http section layout and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	var cfg yamlHTTPConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return HttpOption(func(*Options) {
			panic(fmt.Errorf("http.WithConfig: %w", err))
		})
	}
	return optionFromHTTPConfig(cfg)
}

type serveConfigOption struct {
	httpOpt    Option
	adapterOpt adapter.Option
	dynOpt     dynamic.Option
	err        error
}

func (o serveConfigOption) apply(b *serveOptionBag) {
	if o.err != nil {
		panic(fmt.Errorf("http.WithServeConfig: %w", o.err))
	}
	httpServeOption{o.httpOpt}.apply(b)
	adapterServeOption{o.adapterOpt}.apply(b)
	dynamicServeOption{o.dynOpt}.apply(b)
}

// WithServeConfig parses a YAML document whose http, adapter and dynamic
// sections configure the respective components.
// It panics if the YAML is invalid.
func WithServeConfig(yamlBytes []byte) ServeOption {
	var cfg yamlServeConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return serveConfigOption{err: err}
	}

	o := serveConfigOption{httpOpt: optionFromHTTPConfig(cfg.HTTP)}
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
		return serveConfigOption{err: fmt.Errorf("http.WithServeConfigFile(%s): %w", path, err)}
	}
	return WithServeConfig(b)
}
