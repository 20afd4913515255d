package routeplanner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	pipelinenode "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/nodes/pipeline"
	promptx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/prompt"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/tool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "transpectra/agent/routeplanner"

// Prompts are the texts the pipeline needs.
type Prompts struct {
	Planner      string
	Summarizer   string
	RouteRequest string
}

func PromptsFrom(set promptx.PromptSet) Prompts {
	return Prompts{Planner: set.Planner, Summarizer: set.Summarizer, RouteRequest: set.RouteRequest}
}

// Service answers route requests: the planner gathers data with one round of
// tools, the summarizer writes the answer and the validator enforces its
// shape. Runs are stateless and take no lock.
type Service struct {
	planner    contractx.Reasoner
	executor   contractx.ToolExecutor
	summarizer contractx.Completer
	prompts    Prompts

	requestTemplate einoprompt.ChatTemplate
	graphRunner     compose.Runnable[contractx.RouteRequest, pipelinenode.GraphOutput]
}

var _ tool.RoutePlanner = (*Service)(nil)

func New(
	planner contractx.Reasoner,
	executor contractx.ToolExecutor,
	summarizer contractx.Completer,
	prompts Prompts,
) (*Service, error) {
	if planner == nil {
		return nil, errors.New("planner reasoner is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	if strings.TrimSpace(prompts.Planner) == "" || strings.TrimSpace(prompts.Summarizer) == "" || strings.TrimSpace(prompts.RouteRequest) == "" {
		return nil, contractx.ErrPromptMissing
	}

	s := &Service{
		planner:    planner,
		executor:   executor,
		summarizer: summarizer,
		prompts:    prompts,
		requestTemplate: einoprompt.FromMessages(
			schema.FString,
			schema.UserMessage(prompts.RouteRequest),
		),
	}

	graphRunner, err := s.compileOptimizeGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner
	return s, nil
}

// Optimize returns the validated route JSON, or the fallback when the
// summarizer's answer does not validate. Errors only come from the model or
// tool boundary.
func (s *Service) Optimize(ctx context.Context, req contractx.RouteRequest) (pipelinenode.GraphOutput, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "routeplanner.Optimize",
		trace.WithAttributes(
			attribute.String("source", req.Source),
			attribute.String("destination", req.Destination),
		),
	)
	defer span.End()

	out, err := s.graphRunner.Invoke(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("source", req.Source).Str("destination", req.Destination).Msg("route pipeline failed")
		return pipelinenode.GraphOutput{}, err
	}

	span.SetAttributes(attribute.Bool("fallback", out.Invalid != nil), attribute.Int("tool_results", out.Tools))
	evt := log.Info()
	if out.Invalid != nil {
		evt = evt.Str("validation", string(out.Invalid.Kind))
	}
	evt.Str("source", req.Source).Str("destination", req.Destination).Int("tool_results", out.Tools).Msg("route pipeline finished")
	return out, nil
}

// Plan lets the assistant call the pipeline as a tool.
func (s *Service) Plan(ctx context.Context, source, destination string) (json.RawMessage, error) {
	out, err := s.Optimize(ctx, contractx.RouteRequest{Source: source, Destination: destination})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out.JSON), nil
}
