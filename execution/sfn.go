package execution

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

// SFNClient is the subset of *sfn.Client used by SFNHistory.
type SFNClient interface {
	DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
	GetExecutionHistory(ctx context.Context, params *sfn.GetExecutionHistoryInput, optFns ...func(*sfn.Options)) (*sfn.GetExecutionHistoryOutput, error)
}

// SFNHistory reads execution details from the Step Functions API.
type SFNHistory struct {
	Client SFNClient
}

func NewSFNHistory(cfg aws.Config) *SFNHistory {
	return &SFNHistory{Client: sfn.NewFromConfig(cfg)}
}

func (h *SFNHistory) GetOriginalInput(ctx context.Context, stateMachineArn, executionName string) ([]byte, error) {
	arn := Arn(stateMachineArn, executionName)
	out, err := h.Client.DescribeExecution(ctx, &sfn.DescribeExecutionInput{ExecutionArn: aws.String(arn)})
	if err != nil {
		return nil, fmt.Errorf("%w: describe %s: %v", ErrLookup, arn, err)
	}
	if out.Input == nil {
		return nil, fmt.Errorf("%w: %s has no input", ErrLookup, arn)
	}
	return []byte(*out.Input), nil
}

// GetTaskName walks the history newest first. The state that scheduled
// resourceArn is the one entered just before the matching scheduled event;
// without a match, the most recent TaskStateEntered names the task.
func (h *SFNHistory) GetTaskName(ctx context.Context, stateMachineArn, executionName, resourceArn string) (string, error) {
	arn := Arn(stateMachineArn, executionName)
	var history []types.HistoryEvent
	p := sfn.NewGetExecutionHistoryPaginator(h.Client, &sfn.GetExecutionHistoryInput{
		ExecutionArn: aws.String(arn),
		ReverseOrder: true,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: history of %s: %v", ErrLookup, arn, err)
		}
		history = append(history, page.Events...)
	}

	if name, ok := TaskNameFromHistory(history, resourceArn); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: no task for %s in %s", ErrLookup, resourceArn, arn)
}

// TaskNameFromHistory applies the lookup to events ordered newest first.
func TaskNameFromHistory(events []types.HistoryEvent, resourceArn string) (string, bool) {
	byID := make(map[int64]types.HistoryEvent, len(events))
	for _, ev := range events {
		byID[ev.Id] = ev
	}

	for _, ev := range events {
		if scheduledResource(ev) != resourceArn || resourceArn == "" {
			continue
		}
		prev, ok := byID[ev.PreviousEventId]
		if ok && prev.StateEnteredEventDetails != nil && prev.StateEnteredEventDetails.Name != nil {
			return *prev.StateEnteredEventDetails.Name, true
		}
	}

	for _, ev := range events {
		if ev.Type == types.HistoryEventTypeTaskStateEntered && ev.StateEnteredEventDetails != nil && ev.StateEnteredEventDetails.Name != nil {
			return *ev.StateEnteredEventDetails.Name, true
		}
	}
	return "", false
}

func scheduledResource(ev types.HistoryEvent) string {
	switch ev.Type {
	case types.HistoryEventTypeLambdaFunctionScheduled:
		if d := ev.LambdaFunctionScheduledEventDetails; d != nil && d.Resource != nil {
			return *d.Resource
		}
	case types.HistoryEventTypeActivityScheduled:
		if d := ev.ActivityScheduledEventDetails; d != nil && d.Resource != nil {
			return *d.Resource
		}
	}
	return ""
}
