package adapter

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

type yamlAdapterConfig struct {
	Mode struct {
		Debug   bool `yaml:"debug"`
		Testing bool `yaml:"testing"`
	} `yaml:"mode"`
	Remote struct {
		MaxSize  int64  `yaml:"maxSize"`
		Fixtures string `yaml:"fixtures"`
	} `yaml:"remote"`
	StaticLink []struct {
		Alias   string `yaml:"alias"`
		Command string `yaml:"command"`
	} `yaml:"staticLink"`
}

func optionFromAdapterConfig(cfg yamlAdapterConfig) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Mode.Debug
		if cfg.Mode.Testing {
			o.TestingMode = true
		}
		o.RemoteMaxSize = cfg.Remote.MaxSize
		if cfg.Remote.Fixtures != "" {
			o.FixturesDir = cfg.Remote.Fixtures
		}

		if o.StaticLinkMap == nil {
			o.StaticLinkMap = make(map[string]string)
		}
		for _, link := range cfg.StaticLink {
			if link.Alias == "" || link.Command == "" {
				continue
			}
			o.StaticLinkMap[link.Alias] = link.Command
		}
	})
}

func optionFromConfigBytes(b []byte) (Option, error) {
	var cfg yamlAdapterConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	return optionFromAdapterConfig(cfg), nil
}

// WithConfig parses the adapter section (mode, remote, staticLink) and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := optionFromConfigBytes(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("adapter.WithConfig: %w", err))
		})
	}
	return opt
}

// WithConfigFile loads a YAML file and applies it to Options.
// It panics if the file cannot be read or YAML is invalid.
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("adapter.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}
