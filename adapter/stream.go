package adapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	CommandStream = "stream"

	EndOfCommand = "<EOC>"
	ExitCommand  = "<EXIT>"
)

// Run executes one command: every document on r is input, the JSON result
// is written to w followed by a newline.
func (e *Engine) Run(ctx context.Context, command string, r io.Reader, w io.Writer) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("adapter: read input: %w", err)
	}
	out, err := e.Invoke(ctx, command, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// Stream serves commands until <EXIT> or end of input. Each request is a
// command line followed by its JSON documents and an <EOC> line; each reply
// is the JSON result followed by an <EOC> line. The first failing command
// ends the stream with its error.
func (e *Engine) Stream(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var (
		command string
		body    bytes.Buffer
	)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == ExitCommand:
			return nil
		case command == "":
			if trimmed == "" {
				continue
			}
			command = trimmed
		case trimmed == EndOfCommand:
			out, err := e.Invoke(ctx, command, body.Bytes())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n%s\n", out, EndOfCommand); err != nil {
				return err
			}
			command = ""
			body.Reset()
		default:
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("adapter: read stream: %w", err)
	}
	return nil
}
