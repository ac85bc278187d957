package client

import (
	"net/http"
	"time"

	"github.com/mohae/deepcopy"
)

// HTTPClient HTTP 客户端接口
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	HTTPClient HTTPClient
	// BaseURL 是开发服务器地址，例如 http://localhost:8080
	BaseURL        string
	DefaultTimeout time.Duration
	Headers        map[string]string
	// Debug 使用 /_/api 路由，返回调试信息而不是结果
	Debug bool
}

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

var defaultOptions = &Options{
	DefaultTimeout: 30 * time.Second,
	Headers:        map[string]string{},
}

func NewOptions(opts ...Option) *Options {
	o := deepcopy.Copy(defaultOptions).(*Options)
	o.HTTPClient = http.DefaultClient
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	return o
}

func WithHTTPClient(client HTTPClient) Option {
	return OptionFunc(func(o *Options) {
		o.HTTPClient = client
	})
}

func WithBaseURL(url string) Option {
	return OptionFunc(func(o *Options) {
		o.BaseURL = url
	})
}

func WithDefaultTimeout(timeout time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.DefaultTimeout = timeout
	})
}

func WithHeader(key, value string) Option {
	return OptionFunc(func(o *Options) {
		o.Headers[key] = value
	})
}

func WithDebug(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.Debug = debug
	})
}
