package sqs

import (
	"fmt"
	"os"

	"github.com/aura-studio/message-adapter/invoke"
	yaml "gopkg.in/yaml.v2"
)

type yamlSQSConfig struct {
	Debug         bool   `yaml:"debug"`
	SuspendMode   bool   `yaml:"suspendMode"`
	PartialMode   bool   `yaml:"partialMode"`
	ReplyMode     bool   `yaml:"replyMode"`
	ReplyQueueURL string `yaml:"replyQueueUrl"`
}

type yamlServeConfig struct {
	SQS yamlSQSConfig `yaml:"sqs"`
}

func optionFromSQSConfig(cfg yamlSQSConfig) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Debug
		o.SuspendMode = cfg.SuspendMode
		o.PartialMode = cfg.PartialMode
		o.ReplyMode = cfg.ReplyMode
		o.ReplyQueueURL = cfg.ReplyQueueURL
	})
}

// WithConfig parses the sqs section layout (debug, suspendMode, partialMode,
// replyMode, replyQueueUrl) and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	var cfg yamlSQSConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("sqs.WithConfig: %w", err))
		})
	}
	return optionFromSQSConfig(cfg)
}

type serveConfigOption struct {
	sqsOpt  Option
	taskOpt invoke.ServeOption
	err     error
}

func (o serveConfigOption) apply(b *serveOptionBag) {
	if o.err != nil {
		panic(fmt.Errorf("sqs.WithServeConfig: %w", o.err))
	}
	sqsServeOption{o.sqsOpt}.apply(b)
	taskServeOption{o.taskOpt}.apply(b)
}

// WithServeConfig parses a YAML document with an sqs section; its invoke,
// adapter and dynamic sections configure the task pipeline.
// It panics if the YAML is invalid.
func WithServeConfig(yamlBytes []byte) ServeOption {
	var cfg yamlServeConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return serveConfigOption{err: err}
	}
	return serveConfigOption{
		sqsOpt:  optionFromSQSConfig(cfg.SQS),
		taskOpt: invoke.WithServeConfig(yamlBytes),
	}
}

// WithServeConfigFile loads a YAML file and applies it as ServeOption.
// It panics if the file cannot be read or YAML is invalid.
func WithServeConfigFile(path string) ServeOption {
	b, err := os.ReadFile(path)
	if err != nil {
		return serveConfigOption{err: fmt.Errorf("sqs.WithServeConfigFile(%s): %w", path, err)}
	}
	return WithServeConfig(b)
}
