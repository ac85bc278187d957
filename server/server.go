package server

import (
	"fmt"

	"github.com/aura-studio/message-adapter/http"
	"github.com/aura-studio/message-adapter/invoke"
	"github.com/aura-studio/message-adapter/sqs"
)

// Serve runs the selected mode. The Lambda modes do not return.
func Serve(opts ...Option) error {
	options := NewOptions(opts...)

	switch options.Mode {
	case ModeInvoke:
		invoke.Serve(options.Invoke...)
		return nil
	case ModeSQS:
		sqs.Serve(options.SQS...)
		return nil
	case ModeHTTP:
		return http.Serve(options.HTTP...)
	default:
		return fmt.Errorf("server: unknown mode %q", options.Mode)
	}
}

func Close() error {
	invoke.Close()
	sqs.Close()
	return http.Close()
}
