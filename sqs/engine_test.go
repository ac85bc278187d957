package sqs

import (
	"context"
	"sync"
	"testing"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/execution"
	"github.com/aura-studio/message-adapter/invoke"
	"github.com/aura-studio/message-adapter/message"
	"github.com/aura-studio/message-adapter/remote"
	events "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/tidwall/gjson"
)

type mockSQSClient struct {
	SQSClient
	mu   sync.Mutex
	sent []*sqs.SendMessageInput
}

func (m *mockSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("reply")}, nil
}

var echo = invoke.TaskFunc(func(_ context.Context, in message.NestedEvent) ([]byte, error) {
	return in.Input, nil
})

func newTestEngine(opts ...ServeOption) (*Engine, *mockSQSClient) {
	mock := &mockSQSClient{}
	opts = append([]ServeOption{
		SQS(WithSQSClient(mock)),
		Task(invoke.Adapter(adapter.WithStore(remote.NewMemoryStore()))),
		Task(invoke.Adapter(adapter.WithHistory(execution.NewStaticHistory()))),
		Task(invoke.Invoke(invoke.WithTask("Echo", echo))),
	}, opts...)
	return NewEngine(opts...), mock
}

func record(id, body string) events.SQSMessage {
	return events.SQSMessage{MessageId: id, Body: body}
}

func batch() events.SQSEvent {
	ok := record("ok", `{"cumulus_meta":{"task":"Echo"},"payload":{"v":1}}`)
	ok.MessageAttributes = map[string]events.SQSMessageAttribute{
		AttributeCorrelationID: {DataType: "String", StringValue: aws.String("corr-1")},
	}
	return events.SQSEvent{Records: []events.SQSMessage{
		ok,
		record("garbled", `{"cumulus_meta":`),
		record("unrouted", `{"cumulus_meta":{"task":"Missing"}}`),
	}}
}

func failedIDs(resp events.SQSEventResponse) []string {
	ids := make([]string, 0, len(resp.BatchItemFailures))
	for _, f := range resp.BatchItemFailures {
		ids = append(ids, f.ItemIdentifier)
	}
	return ids
}

func TestPartialMode(t *testing.T) {
	e, mock := newTestEngine(
		SQS(WithPartialMode(true)),
		SQS(WithReplyMode(true)),
		SQS(WithReplyQueueURL("https://sqs.us-east-1.amazonaws.com/1/next")),
	)

	resp, err := e.Invoke(context.Background(), batch())
	if err != nil {
		t.Fatal(err)
	}
	ids := failedIDs(resp)
	if len(ids) != 2 || ids[0] != "garbled" || ids[1] != "unrouted" {
		t.Fatalf("failures = %v", ids)
	}

	if len(mock.sent) != 1 {
		t.Fatalf("replies = %d", len(mock.sent))
	}
	reply := mock.sent[0]
	if aws.ToString(reply.QueueUrl) != "https://sqs.us-east-1.amazonaws.com/1/next" {
		t.Errorf("queue = %s", aws.ToString(reply.QueueUrl))
	}
	if got := gjson.Get(aws.ToString(reply.MessageBody), "payload").Raw; got != `{"v":1}` {
		t.Errorf("reply body = %s", aws.ToString(reply.MessageBody))
	}
	if got := aws.ToString(reply.MessageAttributes[AttributeCorrelationID].StringValue); got != "corr-1" {
		t.Errorf("correlation id = %q", got)
	}
}

func TestWholeBatchRetry(t *testing.T) {
	e, mock := newTestEngine()
	if _, err := e.Invoke(context.Background(), batch()); err == nil {
		t.Fatal("failures must fail the batch without partial mode")
	}
	if len(mock.sent) != 0 {
		t.Fatal("no reply without reply mode")
	}
}

func TestSuspendMode(t *testing.T) {
	e, _ := newTestEngine(SQS(WithPartialMode(true)), SQS(WithSuspendMode(true)))
	ev := batch()
	ev.Records = ev.Records[2:]
	if _, err := e.Invoke(context.Background(), ev); err == nil {
		t.Fatal("suspend mode must surface the task error")
	}
}

func TestReplyQueueFromAttribute(t *testing.T) {
	e, mock := newTestEngine(SQS(WithPartialMode(true)), SQS(WithReplyMode(true)))
	msg := record("ok", `{"cumulus_meta":{"task":"Echo"},"payload":null}`)
	msg.MessageAttributes = map[string]events.SQSMessageAttribute{
		AttributeReplyQueueURL: {DataType: "String", StringValue: aws.String("per-record")},
	}
	resp, err := e.Invoke(context.Background(), events.SQSEvent{Records: []events.SQSMessage{msg}})
	if err != nil || len(resp.BatchItemFailures) != 0 {
		t.Fatalf("resp = %+v, err = %v", resp, err)
	}
	if len(mock.sent) != 1 || aws.ToString(mock.sent[0].QueueUrl) != "per-record" {
		t.Fatalf("replies = %+v", mock.sent)
	}
}

func TestStoppedEngine(t *testing.T) {
	e, _ := newTestEngine(SQS(WithPartialMode(true)))
	e.Stop()
	resp, err := e.Invoke(context.Background(), batch())
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.BatchItemFailures) != 3 {
		t.Fatalf("failures = %v", failedIDs(resp))
	}
	e.Start()
}

func TestWithServeConfig(t *testing.T) {
	doc := []byte(`
sqs:
  partialMode: true
  replyMode: true
  replyQueueUrl: next
invoke:
  staticLink:
    - srcPath: /A
      dstPath: /pkg/v1/a
adapter:
  mode:
    testing: true
`)
	e := NewEngine(WithServeConfig(doc), SQS(WithSQSClient(&mockSQSClient{})))
	if !e.PartialMode || !e.ReplyMode || e.ReplyQueueURL != "next" {
		t.Errorf("sqs options = %+v", e.Options)
	}
	if e.Task().StaticLinkMap["/A"] != "/pkg/v1/a" {
		t.Error("invoke section not applied")
	}
}
