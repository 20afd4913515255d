package pipelinenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	nodex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/nodes"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

func Plan(
	ctx context.Context,
	in *GraphState,
	planner contractx.Reasoner,
	systemPrompt string,
) (*GraphState, error) {
	if in == nil || len(in.History) == 0 {
		return nil, fmt.Errorf("%w: pipeline history is empty", contractx.ErrGraphState)
	}

	outcome, err := planner.Reason(ctx, []string{systemPrompt}, in.History)
	if err != nil {
		return nil, err
	}
	in.History = append(in.History, outcome.Message())
	in.Outcome = outcome
	return in, nil
}

// NeedsTools is the pipeline's routing condition.
func NeedsTools(in *GraphState) bool {
	if in == nil || len(in.History) == 0 {
		return false
	}
	return nodex.Route(in.History[len(in.History)-1]) == nodex.DispatchTools
}

// ExecuteTools runs the single tool round of the pipeline.
func ExecuteTools(
	ctx context.Context,
	in *GraphState,
	executor contractx.ToolExecutor,
) (*GraphState, error) {
	if !NeedsTools(in) {
		return nil, fmt.Errorf("%w: no pending tool requests", contractx.ErrGraphState)
	}
	last := in.History[len(in.History)-1]

	results, err := executor.Execute(ctx, last.ToolCalls)
	if err != nil {
		return nil, err
	}
	in.History = append(in.History, results...)
	in.Tools = len(results)
	return in, nil
}

func Summarize(
	ctx context.Context,
	in *GraphState,
	summarizer contractx.Completer,
	systemPrompt string,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrGraphState)
	}

	text, err := summarizer.Complete(ctx, []string{systemPrompt}, in.History)
	if err != nil {
		return nil, err
	}
	in.Raw = text
	in.History = append(in.History, statex.NewAssistantMessage(text, nil))
	return in, nil
}
