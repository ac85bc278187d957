package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/execution"
	adapterhttp "github.com/aura-studio/message-adapter/http"
	"github.com/aura-studio/message-adapter/remote"
	"github.com/tidwall/gjson"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := adapterhttp.NewEngine(
		adapterhttp.Adapter(adapter.WithStore(remote.NewMemoryStore())),
		adapterhttp.Adapter(adapter.WithHistory(execution.NewStaticHistory())),
	)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Call(t *testing.T) {
	srv := newServer(t)
	c := NewClient(WithBaseURL(srv.URL+"/"), WithHeader("X-Trace", "1"))

	out, err := c.Call(context.Background(), adapter.CommandCreateNextEvent,
		[]byte(`{"ok":true}`),
		[]byte(`{"cumulus_meta":{},"meta":{},"payload":{}}`),
	)
	if err != nil {
		t.Fatal(err)
	}
	if !gjson.GetBytes(out, "payload.ok").Bool() {
		t.Fatalf("next event = %s", out)
	}
}

func TestClient_CallError(t *testing.T) {
	srv := newServer(t)
	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Call(context.Background(), "bogus", []byte(`{}`))
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v", err)
	}
}

func TestClient_Debug(t *testing.T) {
	srv := newServer(t)
	c := NewClient(WithBaseURL(srv.URL), WithDebug(true))

	out, err := c.Call(context.Background(), adapter.CommandLoadRemoteEvent, []byte(`{"payload":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "Command: loadRemoteEvent") {
		t.Fatalf("debug output = %s", out)
	}
}

func TestClient_Meta(t *testing.T) {
	srv := newServer(t)
	out, err := NewClient(WithBaseURL(srv.URL)).Meta(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(gjson.GetBytes(out, "commands").Array()) != 4 {
		t.Fatalf("meta = %s", out)
	}
}
