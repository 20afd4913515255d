package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

// ExecuteTools runs the requests of the newest assistant turn and appends
// their results. It fails with ErrToolLoopExceeded once maxIterations
// rounds have already run in this turn.
func ExecuteTools(
	ctx context.Context,
	in *GraphState,
	executor contractx.ToolExecutor,
	maxIterations int,
) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrGraphState)
	}
	last, ok := in.Conversation.LastMessage()
	if !ok || Route(last) != DispatchTools {
		return nil, fmt.Errorf("%w: no pending tool requests", contractx.ErrGraphState)
	}
	if in.Iterations >= maxIterations {
		return nil, fmt.Errorf("%w: limit=%d", contractx.ErrToolLoopExceeded, maxIterations)
	}

	results, err := executor.Execute(ctx, last.ToolCalls)
	if err != nil {
		return nil, err
	}
	if err := in.Conversation.Append(results...); err != nil {
		return nil, err
	}
	in.Iterations++
	return in, nil
}
