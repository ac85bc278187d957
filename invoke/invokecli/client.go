package invokecli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/tidwall/gjson"
)

// ErrFunction is returned when the task Lambda reports a function error.
var ErrFunction = errors.New("invokecli: function error")

// Client runs workflow messages through a deployed task Lambda.
type Client struct {
	*Options
}

// NewClient builds a client. Without WithLambdaClient, the AWS client comes
// from the default config chain.
func NewClient(opts ...Option) *Client {
	c := &Client{
		Options: NewOptions(opts...),
	}
	if c.LambdaClient == nil {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			panic(err)
		}
		c.LambdaClient = lambda.NewFromConfig(cfg)
	}
	return c
}

// Call sends event synchronously and returns the next event.
func (c *Client) Call(ctx context.Context, event []byte) ([]byte, error) {
	if !gjson.ValidBytes(event) {
		return nil, fmt.Errorf("invokecli: event is not valid JSON")
	}
	if _, ok := ctx.Deadline(); !ok && c.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DefaultTimeout)
		defer cancel()
	}

	input := &lambda.InvokeInput{
		FunctionName:   aws.String(c.FunctionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        event,
	}
	if c.Qualifier != "" {
		input.Qualifier = aws.String(c.Qualifier)
	}

	output, err := c.LambdaClient.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("invokecli: invoke %s: %w", c.FunctionName, err)
	}
	if output.FunctionError != nil {
		msg := gjson.GetBytes(output.Payload, "errorMessage").String()
		if msg == "" {
			msg = string(output.Payload)
		}
		return nil, fmt.Errorf("%w (%s): %s", ErrFunction, aws.ToString(output.FunctionError), msg)
	}
	return output.Payload, nil
}

// Send queues event for asynchronous processing.
func (c *Client) Send(ctx context.Context, event []byte) error {
	_, err := c.LambdaClient.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.FunctionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        event,
	})
	if err != nil {
		return fmt.Errorf("invokecli: invoke %s: %w", c.FunctionName, err)
	}
	return nil
}
