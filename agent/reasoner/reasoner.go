package reasoner

import (
	"context"
	"errors"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName     = "transpectra/agent/reasoner"
	defaultTimeout = 60 * time.Second
)

type options struct {
	timeout time.Duration
	retry   bool
}

type Option func(*options)

// WithCallTimeout bounds a single model call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetry allows one more attempt when the backend is unavailable.
func WithRetry(enabled bool) Option {
	return func(o *options) {
		o.retry = enabled
	}
}

func buildOptions(opts []Option) options {
	o := options{timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// ToolReasoner is a Reasoner over a tool-bound chat model.
type ToolReasoner struct {
	role  contractx.AgentType
	model einomodel.BaseChatModel
	opts  options
}

var _ contractx.Reasoner = (*ToolReasoner)(nil)

// NewToolReasoner binds tools to chatModel. An empty tool list leaves the
// model unbound.
func NewToolReasoner(
	_ context.Context,
	role contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	tools []*schema.ToolInfo,
	opts ...Option,
) (*ToolReasoner, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is nil for role=%s", contractx.ErrValidation, role)
	}

	bound := chatModel
	if len(tools) > 0 {
		m, err := chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for role=%s: %v", contractx.ErrBackendUnavailable, role, err)
		}
		bound = m
	}
	return &ToolReasoner{role: role, model: bound, opts: buildOptions(opts)}, nil
}

func (r *ToolReasoner) Reason(ctx context.Context, system []string, history []statex.Message) (contractx.Outcome, error) {
	msgs, err := toSchemaMessages(system, history)
	if err != nil {
		return contractx.Outcome{}, err
	}

	out, err := generate(ctx, r.role, r.model, msgs, r.opts)
	if err != nil {
		return contractx.Outcome{}, err
	}
	return toOutcome(out)
}

// generate calls the model without a nested graph so the classified error
// survives the caller's graph node wrapping.
func generate(
	ctx context.Context,
	role contractx.AgentType,
	model einomodel.BaseChatModel,
	msgs []*schema.Message,
	opts options,
) (*schema.Message, error) {
	var out *schema.Message
	err := invoke(ctx, role, len(msgs), opts, func(callCtx context.Context) error {
		var err error
		out, err = model.Generate(callCtx, msgs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// invoke runs call under the configured timeout with at most one retry,
// recording metrics per attempt and one span per request.
func invoke(
	ctx context.Context,
	role contractx.AgentType,
	messages int,
	opts options,
	call func(ctx context.Context) error,
) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reasoner.invoke",
		trace.WithAttributes(
			attribute.String("role", string(role)),
			attribute.Int("messages", messages),
		),
	)
	defer span.End()

	attempts := 1
	if opts.retry {
		attempts = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		err := callOnce(ctx, opts.timeout, call)
		metrics.RecordReasonerCall(string(role), callOutcome(err), time.Since(start))
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().Err(err).Str("role", string(role)).Int("attempt", attempt).Msg("model call failed")
		if !retryable(ctx, err) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return lastErr
}

func callOnce(ctx context.Context, timeout time.Duration, call func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := call(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: no reply within %s", contractx.ErrBackendTimeout, timeout)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return classify(err)
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, contractx.ErrBackendTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
