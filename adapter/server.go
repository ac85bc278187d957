package adapter

import (
	"context"
	"fmt"
	"io"
)

var engine *Engine

// Serve runs one command, or the stream protocol when command is "stream",
// and returns the process exit status. Failures are written to stderr.
func Serve(command string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) (code int) {
	defer func() {
		if v := recover(); v != nil {
			fmt.Fprintf(stderr, "adapter: %v\n", v)
			code = 1
		}
	}()

	engine = NewEngine(opts...)

	var err error
	if command == CommandStream {
		err = engine.Stream(context.Background(), stdin, stdout)
	} else {
		err = engine.Run(context.Background(), command, stdin, stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func Close() {
	if engine != nil {
		engine.Stop()
	}
}
