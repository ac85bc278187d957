package adapter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aura-studio/message-adapter/execution"
	"github.com/aura-studio/message-adapter/message"
	"github.com/aura-studio/message-adapter/remote"
	"github.com/tidwall/gjson"
)

const (
	lambdaArn    = "arn:aws:lambda:us-west-2:123456789012:function:ExampleCloudFormationStackName-ExampleLambdaFunctionResourceName-AULC3LB8Q02F"
	stateMachine = "arn:aws:states:us-east-1:1234:stateMachine:MySfn"
)

const sfnEvent = `{
  "cumulus_meta": {
    "task": "Example",
    "message_source": "sfn",
    "id": "id-1234",
    "state_machine": "arn:aws:states:us-east-1:1234:stateMachine:MySfn",
    "execution_name": "MyExecution__id-1234"
  },
  "meta": {"foo": "bar"},
  "workflow_config": {
    "Example": {
      "inlinestr": "prefix{meta.foo}suffix",
      "array": "{[$.meta.foo]}",
      "object": "{{$.meta}}"
    }
  },
  "payload": {"anykey": "anyvalue"},
  "exception": "None"
}`

func newTestEngine(opts ...Option) (*Engine, *remote.MemoryStore, *execution.StaticHistory) {
	store := remote.NewMemoryStore()
	history := execution.NewStaticHistory()
	opts = append([]Option{WithStore(store), WithHistory(history)}, opts...)
	return NewEngine(opts...), store, history
}

func TestLoadRemoteEventCommand(t *testing.T) {
	e, store, _ := newTestEngine()
	_ = store.Put(context.Background(), "bucket", "events/1", []byte(`{"payload":{"full":true}}`))

	out, err := e.Invoke(context.Background(), CommandLoadRemoteEvent, []byte(`{"cumulus_meta":{},"replace":{"Bucket":"bucket","Key":"events/1"}}`+"\n"))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(out)
	if doc.Get("replace").Exists() || doc.Get("payload.full").Raw != "true" {
		t.Fatalf("loadRemoteEvent = %s", out)
	}
}

func TestLoadAndUpdateRemoteEventCommand(t *testing.T) {
	e, _, _ := newTestEngine()
	input := `{"event":` + sfnEvent + `,"context":{"functionName":"Renamed","functionVersion":"1","invokedFunctionArn":"` + lambdaArn + `"}}`
	out, err := e.Invoke(context.Background(), "load_and_update_remote_event", []byte(input))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(out)
	if got := doc.Get("cumulus_meta.task").String(); got != "Renamed" {
		t.Errorf("task = %q", got)
	}
	if got := doc.Get("cumulus_meta.id").String(); got != "id-1234" {
		t.Errorf("id = %q", got)
	}
	if got := doc.Get("meta.workflow_tasks.0.arn").String(); got != lambdaArn {
		t.Errorf("workflow task arn = %q", got)
	}
}

func TestLoadAndUpdateRemoteEventParameters(t *testing.T) {
	e, store, _ := newTestEngine()
	_ = store.Put(context.Background(), "b", "k", []byte(`{"payload":"remote","task_config":"remote"}`))

	input := `{"cma":{"event":{"cumulus_meta":{"task":"T"},"replace":{"Bucket":"b","Key":"k"}},"task_config":{"from":"parameters"}}}`
	out, err := e.Invoke(context.Background(), CommandLoadAndUpdateRemoteEvent, []byte(input))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(out)
	if doc.Get("cma").Exists() {
		t.Errorf("cma wrapper must be removed: %s", out)
	}
	if got := doc.Get("payload").String(); got != "remote" {
		t.Errorf("payload = %q", got)
	}
	if got := doc.Get("task_config").Raw; got != `{"from":"parameters"}` {
		t.Errorf("task_config = %s", got)
	}
	if got := doc.Get("cumulus_meta.message_source").String(); got != message.SourceLocal {
		t.Errorf("message_source = %q", got)
	}
}

func TestLoadNestedEventCommand(t *testing.T) {
	e, _, history := newTestEngine()
	history.SetTaskName(stateMachine, "MyExecution__id-1234", lambdaArn, "Example")

	out, err := e.Invoke(context.Background(), CommandLoadNestedEvent, []byte(sfnEvent+"\n"+`{"invokedFunctionArn":"`+lambdaArn+`"}`+"\n"))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(out)
	checks := map[string]string{
		"config.inlinestr":              `"prefixbarsuffix"`,
		"config.array":                  `["bar"]`,
		"config.object":                 `{"foo":"bar"}`,
		"input":                         `{"anykey":"anyvalue"}`,
		"cumulus_config.execution_name": `"MyExecution__id-1234"`,
	}
	for path, want := range checks {
		if got := doc.Get(path).Raw; got != want {
			t.Errorf("%s = %s, want %s", path, got, want)
		}
	}
}

func TestLoadNestedEventFailsWithoutHistory(t *testing.T) {
	e := NewEngine(WithTestingMode(true))
	_, err := e.Invoke(context.Background(), CommandLoadNestedEvent, []byte(`{"event":`+sfnEvent+`,"context":{"invokedFunctionArn":"`+lambdaArn+`"}}`))
	if !errors.Is(err, execution.ErrLookup) {
		t.Fatalf("error = %v, want ErrLookup", err)
	}
}

func TestLoadNestedEventCompletesFromOriginalInput(t *testing.T) {
	e, _, history := newTestEngine()
	history.SetOriginalInput(stateMachine, "exec", []byte(`{"payload":{"from":"origin"},"meta":{"m":1},"workflow_config":{"T":{"k":"{meta.m}"}}}`))

	ev := `{"cumulus_meta":{"task":"T","message_source":"sfn","state_machine":"` + stateMachine + `","execution_name":"exec"},"payload":{"own":true}}`
	out, err := e.Invoke(context.Background(), CommandLoadNestedEvent, []byte(ev))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(out)
	if got := doc.Get("input").Raw; got != `{"own":true}` {
		t.Errorf("input = %s", got)
	}
	if got := doc.Get("config").Raw; got != `{"k":"1"}` {
		t.Errorf("config = %s", got)
	}
}

func TestCreateNextEventCommand(t *testing.T) {
	e, _, _ := newTestEngine()
	event := `{"workflow_config":{"Example":{}},"cumulus_meta":{"task":"Example","message_source":"local","id":"id-1234"},"meta":{"foo":"bar"},"payload":{"anykey":"anyvalue"}}`
	cfg := `{"outputs":[{"source":"{{$}}","destination":"{{$.payload}}"},{"source":"{{$.input.anykey}}","destination":"{{$.meta.baz}}"}]}`
	rsp := `{"input":{"anykey":"innerValue"}}`

	positional, err := e.Invoke(context.Background(), CommandCreateNextEvent, []byte(rsp+"\n"+event+"\n"+cfg+"\n"))
	if err != nil {
		t.Fatal(err)
	}
	combined, err := e.Invoke(context.Background(), "create_next_event", []byte(`{"event":`+event+`,"handler_response":`+rsp+`,"message_config":`+cfg+`}`))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(positional, combined) {
		t.Fatalf("input layouts disagree:\n%s\n%s", positional, combined)
	}
	doc := gjson.ParseBytes(positional)
	if got := doc.Get("meta").Raw; got != `{"foo":"bar","baz":"innerValue"}` {
		t.Errorf("meta = %s", got)
	}
	if got := doc.Get("payload").Raw; got != rsp {
		t.Errorf("payload = %s", got)
	}
}

func TestCreateNextEventOffloads(t *testing.T) {
	e, store, _ := newTestEngine(WithRemoteMaxSize(1))
	event := `{"cumulus_meta":{"system_bucket":"sys"},"ReplaceConfig":{"Path":"$.payload"}}`
	out, err := e.Invoke(context.Background(), CommandCreateNextEvent, []byte(`{"big":"payload"}`+"\n"+event))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(out)
	if !doc.Get("replace.Key").Exists() || store.Len() != 1 {
		t.Fatalf("payload was not offloaded: %s", out)
	}
	if !strings.HasPrefix(doc.Get("replace.Key").String(), "events/") {
		t.Fatalf("offloaded key = %s", doc.Get("replace.Key"))
	}
}

func TestInvokeErrors(t *testing.T) {
	e, _, _ := newTestEngine()
	if _, err := e.Invoke(context.Background(), "noSuchCommand", []byte(`{}`)); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v", err)
	}
	if _, err := e.Invoke(context.Background(), CommandLoadRemoteEvent, []byte(`{bad`)); !errors.Is(err, message.ErrMalformedInput) {
		t.Errorf("malformed input error = %v", err)
	}
	if _, err := e.Invoke(context.Background(), CommandCreateNextEvent, []byte(`{}`)); !errors.Is(err, message.ErrMalformedInput) {
		t.Errorf("missing event error = %v", err)
	}

	e.Stop()
	if _, err := e.Invoke(context.Background(), CommandLoadRemoteEvent, []byte(`{}`)); err == nil {
		t.Errorf("stopped engine must refuse commands")
	}
	e.Start()
	if !e.IsRunning() {
		t.Errorf("engine should run after Start")
	}
}

func TestCommands(t *testing.T) {
	e, _, _ := newTestEngine()
	got := strings.Join(e.Commands(), ",")
	want := "loadRemoteEvent,loadAndUpdateRemoteEvent,loadNestedEvent,createNextEvent"
	if got != want {
		t.Fatalf("Commands = %s", got)
	}
}
