package routeplanner

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	pipelinenode "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/nodes/pipeline"
)

func (s *Service) compileOptimizeGraph(
	ctx context.Context,
) (compose.Runnable[contractx.RouteRequest, pipelinenode.GraphOutput], error) {
	graph := compose.NewGraph[contractx.RouteRequest, pipelinenode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.RouteRequest) (*pipelinenode.GraphState, error) {
			return pipelinenode.ValidateRequest(ctx, in, s.requestTemplate)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("plan",
		compose.InvokableLambda(func(ctx context.Context, in *pipelinenode.GraphState) (*pipelinenode.GraphState, error) {
			return pipelinenode.Plan(ctx, in, s.planner, s.prompts.Planner)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tools",
		compose.InvokableLambda(func(ctx context.Context, in *pipelinenode.GraphState) (*pipelinenode.GraphState, error) {
			return pipelinenode.ExecuteTools(ctx, in, s.executor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tools: %w", err)
	}

	if err := graph.AddLambdaNode("summarize",
		compose.InvokableLambda(func(ctx context.Context, in *pipelinenode.GraphState) (*pipelinenode.GraphState, error) {
			return pipelinenode.Summarize(ctx, in, s.summarizer, s.prompts.Summarizer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node summarize: %w", err)
	}

	if err := graph.AddLambdaNode("validate_output",
		compose.InvokableLambda(func(ctx context.Context, in *pipelinenode.GraphState) (pipelinenode.GraphOutput, error) {
			return pipelinenode.ValidateOutput(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_output: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *pipelinenode.GraphState) (string, error) {
			if pipelinenode.NeedsTools(in) {
				return "execute_tools", nil
			}
			return "summarize", nil
		},
		map[string]bool{
			"execute_tools": true,
			"summarize":     true,
		},
	)
	if err := graph.AddBranch("plan", branch); err != nil {
		return nil, fmt.Errorf("add branch plan: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "plan"},
		{"execute_tools", "summarize"},
		{"summarize", "validate_output"},
		{"validate_output", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("routeplanner.optimize"))
	if err != nil {
		return nil, fmt.Errorf("compile route planner graph: %w", err)
	}
	return runner, nil
}
