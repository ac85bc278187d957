// Package execution looks up Step Functions execution details a task needs
// but its message may not carry.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrLookup = errors.New("execution: lookup failed")

// History answers questions about a running execution.
type History interface {
	// GetOriginalInput returns the input the execution was started with.
	GetOriginalInput(ctx context.Context, stateMachineArn, executionName string) ([]byte, error)
	// GetTaskName returns the state name that scheduled resourceArn.
	GetTaskName(ctx context.Context, stateMachineArn, executionName, resourceArn string) (string, error)
}

// Arn derives an execution ARN from its state machine ARN and name.
func Arn(stateMachineArn, executionName string) string {
	return strings.Replace(stateMachineArn, ":stateMachine:", ":execution:", 1) + ":" + executionName
}

// StaticHistory answers from canned data, keyed by execution ARN. It is the
// history used in testing mode, where no Step Functions API is reachable.
type StaticHistory struct {
	mu     sync.RWMutex
	inputs map[string][]byte
	tasks  map[string]string
}

func NewStaticHistory() *StaticHistory {
	return &StaticHistory{inputs: map[string][]byte{}, tasks: map[string]string{}}
}

func (h *StaticHistory) SetOriginalInput(stateMachineArn, executionName string, input []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputs[Arn(stateMachineArn, executionName)] = input
}

func (h *StaticHistory) SetTaskName(stateMachineArn, executionName, resourceArn, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks[Arn(stateMachineArn, executionName)+"|"+resourceArn] = name
}

func (h *StaticHistory) GetOriginalInput(_ context.Context, stateMachineArn, executionName string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	arn := Arn(stateMachineArn, executionName)
	b, ok := h.inputs[arn]
	if !ok {
		return nil, fmt.Errorf("%w: no recorded input for %s", ErrLookup, arn)
	}
	return b, nil
}

func (h *StaticHistory) GetTaskName(_ context.Context, stateMachineArn, executionName, resourceArn string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	arn := Arn(stateMachineArn, executionName)
	name, ok := h.tasks[arn+"|"+resourceArn]
	if !ok {
		return "", fmt.Errorf("%w: no recorded task for %s in %s", ErrLookup, resourceArn, arn)
	}
	return name, nil
}
