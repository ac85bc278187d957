package sqscli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aura-studio/message-adapter/sqs"
	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var ErrTimeout = errors.New("sqscli: request timeout")

// Client queues workflow messages for an SQS-triggered task and, with a
// response queue, waits for the next events it sends back.
type Client struct {
	*Options
	pendingRequests sync.Map // correlation id -> chan []byte
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		Options:  NewOptions(opts...),
		stopChan: make(chan struct{}),
	}

	if c.ResponseQueueURL != "" {
		c.wg.Add(1)
		go c.listener()
	}

	return c
}

func (c *Client) Close() {
	close(c.stopChan)
	c.wg.Wait()
}

func (c *Client) listener() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		output, err := c.SQSClient.ReceiveMessage(context.Background(), &awssqs.ReceiveMessageInput{
			QueueUrl:              &c.ResponseQueueURL,
			MaxNumberOfMessages:   10,
			WaitTimeSeconds:       20,
			MessageAttributeNames: []string{sqs.AttributeCorrelationID},
		})
		if err != nil {
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range output.Messages {
			c.handleIncomingMessage(msg)
			c.SQSClient.DeleteMessage(context.Background(), &awssqs.DeleteMessageInput{
				QueueUrl:      &c.ResponseQueueURL,
				ReceiptHandle: msg.ReceiptHandle,
			})
		}
	}
}

func (c *Client) handleIncomingMessage(msg types.Message) {
	if msg.Body == nil {
		return
	}
	attr, ok := msg.MessageAttributes[sqs.AttributeCorrelationID]
	if !ok || attr.StringValue == nil {
		return
	}
	if ch, ok := c.pendingRequests.Load(*attr.StringValue); ok {
		ch.(chan []byte) <- []byte(*msg.Body)
	}
}

// Send queues event and returns the correlation id it was sent with.
func (c *Client) Send(ctx context.Context, event []byte) (string, error) {
	return c.send(ctx, uuid.New().String(), event)
}

func (c *Client) send(ctx context.Context, correlationID string, event []byte) (string, error) {
	if !gjson.ValidBytes(event) {
		return "", fmt.Errorf("sqscli: event is not valid JSON")
	}
	attrs := map[string]types.MessageAttributeValue{
		sqs.AttributeCorrelationID: {DataType: aws.String("String"), StringValue: aws.String(correlationID)},
	}
	if c.ResponseQueueURL != "" {
		attrs[sqs.AttributeReplyQueueURL] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(c.ResponseQueueURL)}
	}

	_, err := c.SQSClient.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:          &c.RequestQueueURL,
		MessageBody:       aws.String(string(event)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("sqscli: send: %w", err)
	}
	return correlationID, nil
}

// Call queues event and waits for the next event the task replies with.
func (c *Client) Call(ctx context.Context, event []byte) ([]byte, error) {
	if c.ResponseQueueURL == "" {
		return nil, fmt.Errorf("sqscli: Call needs a response queue")
	}

	correlationID := uuid.New().String()
	respChan := make(chan []byte, 1)
	c.pendingRequests.Store(correlationID, respChan)
	defer c.pendingRequests.Delete(correlationID)

	if _, err := c.send(ctx, correlationID, event); err != nil {
		return nil, err
	}

	timeout := c.DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	select {
	case resp := <-respChan:
		return resp, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
