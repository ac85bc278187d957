package sqs

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/aura-studio/message-adapter/invoke"
	"github.com/aura-studio/message-adapter/message"
	events "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	// AttributeCorrelationID is copied from a record to its reply.
	AttributeCorrelationID = "CorrelationId"
	// AttributeReplyQueueURL on a record overrides the configured reply queue.
	AttributeReplyQueueURL = "ReplyQueueUrl"
)

type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Engine runs the task pipeline for every record of an SQS batch. A record
// body is a workflow message.
type Engine struct {
	*Options
	task      *invoke.Engine
	running   atomic.Int32
	sqsClient SQSClient
}

func NewEngine(opts ...ServeOption) *Engine {
	bag := &serveOptionBag{}
	bag.apply(opts...)

	e := &Engine{
		Options: NewOptions(bag.sqs...),
		task:    invoke.NewEngine(bag.invoke...),
	}
	switch {
	case e.Options.SQSClient != nil:
		e.sqsClient = e.Options.SQSClient
	case e.ReplyMode:
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			panic(err)
		}
		e.sqsClient = sqs.NewFromConfig(cfg)
	}
	e.running.Store(1)
	return e
}

func (e *Engine) Start() {
	e.running.Store(1)
}

func (e *Engine) Stop() {
	e.running.Store(0)
}

// Task exposes the pipeline records are run through.
func (e *Engine) Task() *invoke.Engine {
	return e.task
}

// HandleSQSMessagesWithoutResponse 失败时重试全部数据
func (e *Engine) HandleSQSMessagesWithoutResponse(ctx context.Context, ev events.SQSEvent) error {
	resp, err := e.handleSQSMessages(ctx, ev)
	if err != nil {
		return err
	}
	if len(resp.BatchItemFailures) > 0 {
		return fmt.Errorf("sqs: batch item failures: %d", len(resp.BatchItemFailures))
	}
	return nil
}

// HandleSQSMessagesWithResponse 部分重试
func (e *Engine) HandleSQSMessagesWithResponse(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	return e.handleSQSMessages(ctx, ev)
}

func (e *Engine) Invoke(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	if e.PartialMode {
		return e.HandleSQSMessagesWithResponse(ctx, ev)
	}
	return events.SQSEventResponse{}, e.HandleSQSMessagesWithoutResponse(ctx, ev)
}

func (e *Engine) handleSQSMessages(ctx context.Context, ev events.SQSEvent) (resp events.SQSEventResponse, err error) {
	mc := invoke.LambdaContext(ctx)
	fail := func(msg events.SQSMessage) {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
	}

	for _, msg := range ev.Records {
		if e.running.Load() == 0 {
			e.logf("Engine stopped, message %s failed", msg.MessageId)
			fail(msg)
			continue
		}

		event, err := message.ParseEvent([]byte(msg.Body))
		if err != nil {
			e.logf("Parse message %s body error: %v", msg.MessageId, err)
			fail(msg)
			continue
		}

		e.logf("Request: %s %s", msg.MessageId, msg.Body)
		next, err := e.task.Run(ctx, event, mc)
		if err != nil {
			if e.SuspendMode {
				return resp, err
			}
			e.logf("Run message %s error: %v", msg.MessageId, err)
			fail(msg)
			continue
		}
		e.logf("Response: %s %s", msg.MessageId, next)

		if err := e.reply(ctx, msg, next); err != nil {
			e.logf("Send reply for message %s error: %v", msg.MessageId, err)
			fail(msg)
			continue
		}
	}

	return resp, nil
}

func (e *Engine) reply(ctx context.Context, msg events.SQSMessage, next message.Event) error {
	if !e.ReplyMode {
		return nil
	}
	queue := e.ReplyQueueURL
	if attr, ok := msg.MessageAttributes[AttributeReplyQueueURL]; ok && attr.StringValue != nil {
		queue = *attr.StringValue
	}
	if queue == "" {
		return nil
	}
	if e.sqsClient == nil {
		return fmt.Errorf("sqs: no client to reply with")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queue),
		MessageBody: aws.String(next.String()),
	}
	if attr, ok := msg.MessageAttributes[AttributeCorrelationID]; ok && attr.StringValue != nil {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			AttributeCorrelationID: {DataType: aws.String("String"), StringValue: attr.StringValue},
		}
	}
	_, err := e.sqsClient.SendMessage(ctx, input)
	return err
}

func (e *Engine) logf(format string, args ...any) {
	if e.DebugMode {
		log.Printf("[SQS] "+format, args...)
	}
}
