package invokecli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/execution"
	"github.com/aura-studio/message-adapter/invoke"
	"github.com/aura-studio/message-adapter/message"
	"github.com/aura-studio/message-adapter/remote"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/tidwall/gjson"
)

// engineClient forwards invocations to an in-process task pipeline.
type engineClient struct {
	engine *invoke.Engine
	inputs []*lambda.InvokeInput
}

func (m *engineClient) Invoke(ctx context.Context, params *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	m.inputs = append(m.inputs, params)
	ctx = lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:1:function:" + aws.ToString(params.FunctionName),
	})
	out, err := m.engine.Invoke(ctx, json.RawMessage(params.Payload))
	if err != nil {
		b, _ := json.Marshal(map[string]string{"errorMessage": err.Error(), "errorType": "errorString"})
		return &lambda.InvokeOutput{StatusCode: 200, FunctionError: aws.String("Unhandled"), Payload: b}, nil
	}
	return &lambda.InvokeOutput{StatusCode: 200, Payload: out}, nil
}

func newClient(t *testing.T) (*Client, *engineClient) {
	t.Helper()
	upper := invoke.TaskFunc(func(_ context.Context, in message.NestedEvent) ([]byte, error) {
		if gjson.GetBytes(in.Input, "fail").Bool() {
			return nil, errors.New("task failed")
		}
		return []byte(`{"done":true}`), nil
	})
	engine := invoke.NewEngine(
		invoke.Adapter(adapter.WithStore(remote.NewMemoryStore())),
		invoke.Adapter(adapter.WithHistory(execution.NewStaticHistory())),
		invoke.Invoke(invoke.WithTask("Upper", upper)),
	)
	mock := &engineClient{engine: engine}
	return NewClient(WithLambdaClient(mock), WithFunctionName("Upper"), WithQualifier("live")), mock
}

func TestClient_Call(t *testing.T) {
	client, mock := newClient(t)

	next, err := client.Call(context.Background(), []byte(`{"cumulus_meta":{},"payload":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(next, "payload.done").Bool(); !got {
		t.Fatalf("next event = %s", next)
	}
	if q := aws.ToString(mock.inputs[0].Qualifier); q != "live" {
		t.Errorf("qualifier = %q", q)
	}
	if mock.inputs[0].InvocationType != types.InvocationTypeRequestResponse {
		t.Errorf("invocation type = %s", mock.inputs[0].InvocationType)
	}
}

func TestClient_CallFunctionError(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.Call(context.Background(), []byte(`{"cumulus_meta":{},"payload":{"fail":true}}`))
	if !errors.Is(err, ErrFunction) {
		t.Fatalf("error = %v, want ErrFunction", err)
	}
}

func TestClient_CallInvalidEvent(t *testing.T) {
	client, mock := newClient(t)
	if _, err := client.Call(context.Background(), []byte(`{`)); err == nil {
		t.Fatal("invalid JSON must be rejected before invoking")
	}
	if len(mock.inputs) != 0 {
		t.Fatal("no invocation expected")
	}
}

func TestClient_Send(t *testing.T) {
	client, mock := newClient(t)
	if err := client.Send(context.Background(), []byte(`{"cumulus_meta":{},"payload":{}}`)); err != nil {
		t.Fatal(err)
	}
	if mock.inputs[0].InvocationType != types.InvocationTypeEvent {
		t.Errorf("invocation type = %s", mock.inputs[0].InvocationType)
	}
}
