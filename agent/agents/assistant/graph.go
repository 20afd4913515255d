package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	nodex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/nodes"
)

func (s *Service) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateState(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("append_user_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AppendUserMessage(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node append_user_message: %w", err)
	}

	if err := graph.AddLambdaNode("reason",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Reason(ctx, in, s.reasoner, s.persona)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reason: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tools",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, s.executor, s.maxToolIterations)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tools: %w", err)
	}

	if err := graph.AddLambdaNode("compaction_check",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compaction_check: %w", err)
	}

	if err := graph.AddLambdaNode("compact_memory",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CompactMemory(ctx, in, s.compactor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compact_memory: %w", err)
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	routeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Conversation == nil {
				return "", fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
			}
			if nodex.RouteLast(in.Conversation) == nodex.DispatchTools {
				return "execute_tools", nil
			}
			return "compaction_check", nil
		},
		map[string]bool{
			"execute_tools":    true,
			"compaction_check": true,
		},
	)
	if err := graph.AddBranch("reason", routeBranch); err != nil {
		return nil, fmt.Errorf("add branch reason: %w", err)
	}

	compactionBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if nodex.ShouldCompact(in, s.compactor) {
				return "compact_memory", nil
			}
			return "save_state", nil
		},
		map[string]bool{
			"compact_memory": true,
			"save_state":     true,
		},
	)
	if err := graph.AddBranch("compaction_check", compactionBranch); err != nil {
		return nil, fmt.Errorf("add branch compaction_check: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_state"},
		{"load_or_create_state", "append_user_message"},
		{"append_user_message", "reason"},
		{"execute_tools", "reason"},
		{"compact_memory", "save_state"},
		{"save_state", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("assistant.handle_message"),
		compose.WithMaxRunSteps(maxRunSteps(s.maxToolIterations)),
	)
	if err != nil {
		return nil, fmt.Errorf("compile assistant graph: %w", err)
	}
	return runner, nil
}

// maxRunSteps bounds graph supersteps: the straight path plus two steps
// (execute, reason) per tool round and one for the rejected extra round.
func maxRunSteps(maxToolIterations int) int {
	return 10 + 2*(maxToolIterations+1)
}
