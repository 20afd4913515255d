package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	tracerName         = "transpectra/agent/tool"
	defaultConcurrency = 4
	defaultToolTimeout = 60 * time.Second
)

// Executor runs a batch of tool requests against a Registry.
type Executor struct {
	registry    *Registry
	concurrency int
	timeout     time.Duration
}

type ExecutorOption func(*Executor)

func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:    registry,
		concurrency: defaultConcurrency,
		timeout:     defaultToolTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

var _ contractx.ToolExecutor = (*Executor)(nil)

// Execute returns one tool message per request, in request order. Unknown
// tool names fail the whole batch before anything runs. Tool failures are
// reported inside the result payload; only parent context errors abort.
func (e *Executor) Execute(ctx context.Context, reqs []statex.ToolInvocationRequest) ([]statex.Message, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	defs := make([]Definition, len(reqs))
	for i, req := range reqs {
		def, ok := e.registry.Lookup(req.ToolName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, req.ToolName)
		}
		defs[i] = def
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "tool.Executor.Execute",
		trace.WithAttributes(attribute.Int("batch_size", len(reqs))),
	)
	defer span.End()

	results := make([]statex.Message, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range reqs {
		i := i
		g.Go(func() error {
			payload := e.invoke(gctx, defs[i], reqs[i])
			results[i] = statex.NewToolMessage(reqs[i].ID, reqs[i].ToolName, payload)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return results, nil
}

func (e *Executor) invoke(ctx context.Context, def Definition, req statex.ToolInvocationRequest) string {
	timeout := e.timeout
	if def.Timeout > 0 {
		timeout = def.Timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := e.call(callCtx, def, req.Arguments)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			status = "timeout"
			err = fmt.Errorf("tool %s timed out after %s", def.Name, timeout)
		}
		log.Warn().Err(err).Str("tool", def.Name).Str("call_id", req.ID).Msg("tool invocation failed")
		metrics.RecordToolCall(def.Name, status, elapsed)
		return errorPayload(err)
	}

	metrics.RecordToolCall(def.Name, status, elapsed)
	log.Debug().Str("tool", def.Name).Str("call_id", req.ID).Dur("elapsed", elapsed).Msg("tool invocation finished")

	if s, ok := out.(string); ok {
		return s
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return errorPayload(fmt.Errorf("%w: encode result: %v", contractx.ErrToolInternal, err))
	}
	return string(raw)
}

func (e *Executor) call(ctx context.Context, def Definition, args map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", contractx.ErrToolInternal, r)
		}
	}()

	if args == nil {
		args = map[string]any{}
	}
	if err := validateArguments(def.Params, args); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return def.Handler(ctx, args)
}

func errorPayload(err error) string {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(raw)
}
