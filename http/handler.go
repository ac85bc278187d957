package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/message"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/sjson"
)

const (
	DebugContext = "debug"
)

var methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodHead, http.MethodOptions}

func (e *Engine) InstallHandlers() {
	e.Use(e.HeaderLink, e.StaticLink, e.PrefixLink)

	e.HandleAllMethods("/", e.OK)
	e.HandleAllMethods("/health-check", e.OK)
	e.POST("/api/:command", e.API)
	e.POST("/_/api/:command", e.Debug, e.API)
	e.GET("/meta", e.Meta)
	e.NoRoute(e.PageNotFound)
	e.NoMethod(e.MethodNotAllowed)
}

func (e *Engine) HandleAllMethods(relativePath string, handlers ...gin.HandlerFunc) {
	for _, method := range methods {
		e.Handle(method, relativePath, handlers...)
	}
}

func (e *Engine) HeaderLink(c *gin.Context) {
	for key, prefix := range e.HeaderLinkMap {
		if headerLink, ok := c.Request.Header[http.CanonicalHeaderKey(key)]; ok && len(headerLink) > 0 {
			strs := []string{strings.TrimRight(prefix, "/"), strings.TrimLeft(headerLink[0], "/")}
			c.Request.URL.Path = strings.Join(strs, "/")
			c.Request.Header.Del(key)
			e.HandleContext(c)
			c.Abort()
			return
		}
	}
}

func (e *Engine) StaticLink(c *gin.Context) {
	if dstPath, ok := e.StaticLinkMap[c.Request.URL.Path]; ok {
		c.Request.URL.Path = dstPath
		e.HandleContext(c)
		c.Abort()
		return
	}
}

func (e *Engine) PrefixLink(c *gin.Context) {
	for oldPrefix, newPrefix := range e.PrefixLinkMap {
		if strings.HasPrefix(c.Request.URL.Path, oldPrefix) {
			c.Request.URL.Path = strings.Replace(c.Request.URL.Path, oldPrefix, newPrefix, 1)
			e.HandleContext(c)
			c.Abort()
			return
		}
	}
}

func (e *Engine) OK(c *gin.Context) {
	c.String(http.StatusOK, "OK")
	c.Abort()
}

func (e *Engine) Debug(c *gin.Context) {
	c.Set(DebugContext, true)
}

// API runs the command named in the path on the request body, which holds
// the same documents the command line reads from standard input.
func (e *Engine) API(c *gin.Context) {
	command := c.Param("command")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		c.Abort()
		return
	}

	var rsp []byte
	run := func() {
		rsp, err = e.adapter.Invoke(c.Request.Context(), command, body)
	}

	if c.GetBool(DebugContext) {
		stdout, stderr, panicErr := e.doDebug(run)
		c.String(http.StatusOK, formatDebug(c, command, body, rsp, err, panicErr, stdout, stderr))
		c.Abort()
		return
	}

	if panicErr := e.doSafe(run); panicErr != nil {
		err = panicErr
	}
	if err != nil {
		c.String(statusOf(err), err.Error())
		c.Abort()
		return
	}
	c.Data(http.StatusOK, "application/json", rsp)
	c.Abort()
}

// Meta describes the server. With package and version query parameters the
// package's own meta is merged in.
func (e *Engine) Meta(c *gin.Context) {
	extra, _ := sjson.SetBytes([]byte(`{}`), "commands", e.adapter.Commands())
	if pkg, version := c.Query("package"), c.Query("version"); pkg != "" && version != "" {
		tunnel, err := e.GetPackage(pkg, version)
		if err != nil {
			c.String(http.StatusNotFound, err.Error())
			c.Abort()
			return
		}
		extra, _ = sjson.SetRawBytes(extra, "package", []byte(tunnel.Meta()))
	}
	c.Data(http.StatusOK, "application/json", e.Dynamic.Meta(extra))
	c.Abort()
}

func (e *Engine) PageNotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "404 page not found")
	c.Abort()
}

func (e *Engine) MethodNotAllowed(c *gin.Context) {
	c.String(http.StatusMethodNotAllowed, "405 method not allowed")
	c.Abort()
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, adapter.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, message.ErrMalformedInput), errors.Is(err, message.ErrInvalidEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formatDebug(c *gin.Context, command string, req, rsp []byte, err, panicErr error, stdout, stderr string) string {
	var buf bytes.Buffer
	line := func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\n")
	}
	errString := func(err error) string {
		if err == nil {
			return ""
		}
		return err.Error()
	}

	line("Method", c.Request.Method)
	line("Path", c.Request.URL.Path)
	line("Command", command)
	line("Stdout", stdout)
	line("Stderr", stderr)
	line("Error", errString(err))
	line("Panic", errString(panicErr))
	line("Request", string(req))
	line("Response", string(rsp))
	return buf.String()
}

func (e *Engine) doSafe(f func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic: %v", v)
		}
	}()

	f()

	return nil
}

// doDebug runs f while copying everything written to stdout, stderr and the
// standard logger.
func (e *Engine) doDebug(f func()) (stdout string, stderr string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic: %v", v)
		}
	}()

	originStdout := os.Stdout
	originStderr := os.Stderr
	originLog := log.Writer()
	defer func() {
		os.Stdout = originStdout
		os.Stderr = originStderr
		log.SetOutput(originLog)
	}()

	stdoutPipeReader, stdoutPipeWriter, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	defer stdoutPipeWriter.Close()
	stderrPipeReader, stderrPipeWriter, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	defer stderrPipeWriter.Close()

	os.Stdout = stdoutPipeWriter
	os.Stderr = stderrPipeWriter
	log.SetOutput(stderrPipeWriter)

	var (
		stdoutBuf bytes.Buffer
		stderrBuf bytes.Buffer
	)
	copyErrCh := make(chan error, 2)
	go func() {
		_, err := io.Copy(io.MultiWriter(&stdoutBuf, originStdout), stdoutPipeReader)
		copyErrCh <- err
	}()
	go func() {
		_, err := io.Copy(io.MultiWriter(&stderrBuf, originStderr), stderrPipeReader)
		copyErrCh <- err
	}()

	func() {
		defer func() {
			if v := recover(); v != nil {
				err = fmt.Errorf("panic: %v", v)
			}
		}()
		f()
	}()

	stdoutPipeWriter.Close()
	stderrPipeWriter.Close()
	for i := 0; i < 2; i++ {
		if copyErr := <-copyErrCh; copyErr != nil && err == nil {
			err = copyErr
		}
	}

	return stdoutBuf.String(), stderrBuf.String(), err
}
