package message

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Context is the invocation metadata of the running task. Both the camelCase
// keys of the Lambda runtime and the snake_case keys of older callers are
// accepted.
type Context struct {
	FunctionName       string `json:"functionName,omitempty"`
	FunctionVersion    string `json:"functionVersion,omitempty"`
	InvokedFunctionArn string `json:"invokedFunctionArn,omitempty"`
	ActivityArn        string `json:"activityArn,omitempty"`
}

// ParseContext decodes a context document. Empty input and null both yield
// the zero Context.
func ParseContext(b []byte) (Context, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return Context{}, nil
	}
	if !gjson.ValidBytes(b) {
		return Context{}, fmt.Errorf("%w: context is not valid JSON", ErrMalformedInput)
	}
	doc := gjson.ParseBytes(b)
	if doc.Type == gjson.Null {
		return Context{}, nil
	}
	if !doc.IsObject() {
		return Context{}, fmt.Errorf("%w: context is not a JSON object", ErrMalformedInput)
	}
	return Context{
		FunctionName:       first(doc, "functionName", "function_name"),
		FunctionVersion:    first(doc, "functionVersion", "function_version"),
		InvokedFunctionArn: first(doc, "invokedFunctionArn", "invoked_function_arn"),
		ActivityArn:        first(doc, "activityArn", "activity_arn"),
	}, nil
}

func first(doc gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := doc.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func (c Context) IsEmpty() bool { return c == Context{} }

// ResourceArn is the ARN Step Functions scheduled for this task.
func (c Context) ResourceArn() string {
	if c.InvokedFunctionArn != "" {
		return c.InvokedFunctionArn
	}
	return c.ActivityArn
}

// TaskName is the function name, or the resource name taken from the ARN.
func (c Context) TaskName() string {
	if c.FunctionName != "" {
		return c.FunctionName
	}
	return ResourceName(c.ResourceArn())
}

// ResourceName extracts NAME from arn:partition:service:region:account:type:NAME[:qualifier].
func ResourceName(arn string) string {
	if arn == "" {
		return ""
	}
	parts := strings.Split(arn, ":")
	if len(parts) >= 7 && parts[0] == "arn" {
		return parts[6]
	}
	return parts[len(parts)-1]
}
