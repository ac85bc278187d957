package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

const (
	stateMachine = "arn:aws:states:us-east-1:1234:stateMachine:MySfn"
	lambdaArn    = "arn:aws:lambda:us-west-2:123456789012:function:Example"
)

func TestArn(t *testing.T) {
	want := "arn:aws:states:us-east-1:1234:execution:MySfn:MyExecution__id-1234"
	if got := Arn(stateMachine, "MyExecution__id-1234"); got != want {
		t.Fatalf("Arn = %q, want %q", got, want)
	}
}

type mockSFNClient struct {
	input  *string
	pages  [][]types.HistoryEvent
	err    error
	calls  int
	lastIn *sfn.GetExecutionHistoryInput
}

func (m *mockSFNClient) DescribeExecution(_ context.Context, in *sfn.DescribeExecutionInput, _ ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &sfn.DescribeExecutionOutput{ExecutionArn: in.ExecutionArn, Input: m.input}, nil
}

func (m *mockSFNClient) GetExecutionHistory(_ context.Context, in *sfn.GetExecutionHistoryInput, _ ...func(*sfn.Options)) (*sfn.GetExecutionHistoryOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastIn = in
	out := &sfn.GetExecutionHistoryOutput{Events: m.pages[m.calls]}
	m.calls++
	if m.calls < len(m.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func entered(id, prev int64, typ types.HistoryEventType, name string) types.HistoryEvent {
	return types.HistoryEvent{
		Id:                       id,
		PreviousEventId:          prev,
		Type:                     typ,
		StateEnteredEventDetails: &types.StateEnteredEventDetails{Name: aws.String(name)},
	}
}

func scheduled(id, prev int64, resource string) types.HistoryEvent {
	return types.HistoryEvent{
		Id:                                  id,
		PreviousEventId:                     prev,
		Type:                                types.HistoryEventTypeLambdaFunctionScheduled,
		LambdaFunctionScheduledEventDetails: &types.LambdaFunctionScheduledEventDetails{Resource: aws.String(resource)},
	}
}

func TestSFNGetTaskName(t *testing.T) {
	client := &mockSFNClient{pages: [][]types.HistoryEvent{
		{
			scheduled(5, 4, "arn:aws:lambda:us-west-2:123456789012:function:Other"),
			entered(4, 3, types.HistoryEventTypeTaskStateEntered, "OtherStep"),
		},
		{
			scheduled(3, 2, lambdaArn),
			entered(2, 1, types.HistoryEventTypeTaskStateEntered, "ExampleStep"),
			{Id: 1, Type: types.HistoryEventTypeExecutionStarted},
		},
	}}
	h := &SFNHistory{Client: client}
	name, err := h.GetTaskName(context.Background(), stateMachine, "exec", lambdaArn)
	if err != nil {
		t.Fatal(err)
	}
	if name != "ExampleStep" {
		t.Fatalf("task name = %q, want ExampleStep", name)
	}
	if !client.lastIn.ReverseOrder {
		t.Errorf("history must be read newest first")
	}
}

func TestTaskNameFallsBackToLatestTaskState(t *testing.T) {
	events := []types.HistoryEvent{
		entered(4, 3, types.HistoryEventTypeTaskStateEntered, "Latest"),
		entered(2, 1, types.HistoryEventTypeTaskStateEntered, "Earlier"),
	}
	name, ok := TaskNameFromHistory(events, lambdaArn)
	if !ok || name != "Latest" {
		t.Fatalf("TaskNameFromHistory = %q, %v", name, ok)
	}
	if _, ok := TaskNameFromHistory(nil, lambdaArn); ok {
		t.Fatalf("empty history must not produce a name")
	}
}

func TestSFNErrors(t *testing.T) {
	h := &SFNHistory{Client: &mockSFNClient{err: errors.New("AccessDenied")}}
	if _, err := h.GetOriginalInput(context.Background(), stateMachine, "exec"); !errors.Is(err, ErrLookup) {
		t.Errorf("GetOriginalInput error = %v", err)
	}
	if _, err := h.GetTaskName(context.Background(), stateMachine, "exec", lambdaArn); !errors.Is(err, ErrLookup) {
		t.Errorf("GetTaskName error = %v", err)
	}
}

func TestSFNGetOriginalInput(t *testing.T) {
	h := &SFNHistory{Client: &mockSFNClient{input: aws.String(`{"payload":1}`)}}
	b, err := h.GetOriginalInput(context.Background(), stateMachine, "exec")
	if err != nil || string(b) != `{"payload":1}` {
		t.Fatalf("GetOriginalInput = %s, %v", b, err)
	}
}

func TestStaticHistory(t *testing.T) {
	h := NewStaticHistory()
	if _, err := h.GetOriginalInput(context.Background(), stateMachine, "exec"); !errors.Is(err, ErrLookup) {
		t.Fatalf("unseeded lookup error = %v", err)
	}
	h.SetOriginalInput(stateMachine, "exec", []byte(`{}`))
	h.SetTaskName(stateMachine, "exec", lambdaArn, "Example")
	if b, err := h.GetOriginalInput(context.Background(), stateMachine, "exec"); err != nil || string(b) != `{}` {
		t.Fatalf("GetOriginalInput = %s, %v", b, err)
	}
	if name, err := h.GetTaskName(context.Background(), stateMachine, "exec", lambdaArn); err != nil || name != "Example" {
		t.Fatalf("GetTaskName = %q, %v", name, err)
	}
}
