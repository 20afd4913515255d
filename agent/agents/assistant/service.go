package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	nodex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/nodes"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName               = "transpectra/agent/assistant"
	DefaultMaxToolIterations = 8
)

var ErrInvalidPrompt = nodex.ErrInvalidPrompt

// Config is loaded with the ASSISTANT prefix.
type Config struct {
	MaxToolIterations int `envconfig:"MAX_TOOL_ITERATIONS" split_words:"true" default:"8"`
}

// Service runs conversational turns. Turns on the same thread are
// serialised; turns on different threads run independently.
type Service struct {
	store     statex.Store
	locker    *statex.ThreadLocker
	reasoner  contractx.Reasoner
	executor  contractx.ToolExecutor
	compactor contractx.Compactor
	persona   string

	maxToolIterations int

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*Service)

// WithLocker shares a locker between services that touch the same store.
func WithLocker(l *statex.ThreadLocker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	store statex.Store,
	reasoner contractx.Reasoner,
	executor contractx.ToolExecutor,
	compactor contractx.Compactor,
	persona string,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}
	if compactor == nil {
		return nil, errors.New("memory compactor is required")
	}
	if strings.TrimSpace(persona) == "" {
		return nil, contractx.ErrPromptMissing
	}

	maxIter := cfg.MaxToolIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxToolIterations
	}

	s := &Service{
		store:             store,
		locker:            statex.NewThreadLocker(),
		reasoner:          reasoner,
		executor:          executor,
		compactor:         compactor,
		persona:           strings.TrimSpace(persona),
		maxToolIterations: maxIter,
		now:               time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	graphRunner, err := s.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage runs one turn and returns the assistant's reply. The
// checkpoint is only written when the turn completes.
func (s *Service) HandleMessage(ctx context.Context, threadID string, prompt string) (contractx.ChatReply, error) {
	threadID = strings.TrimSpace(threadID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "assistant.HandleMessage",
		trace.WithAttributes(attribute.String("thread_id", threadID)),
	)
	defer span.End()

	unlock, err := s.locker.Lock(ctx, threadID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return contractx.ChatReply{}, err
	}
	defer unlock()

	start := s.now()
	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID: threadID,
		Prompt:   prompt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("thread_id", threadID).Msg("assistant turn failed")
		return contractx.ChatReply{}, err
	}

	span.SetAttributes(
		attribute.Int("tool_iterations", out.Iterations),
		attribute.Bool("compacted", out.Compacted),
	)
	log.Info().
		Str("thread_id", out.ThreadID).
		Int("tool_iterations", out.Iterations).
		Bool("compacted", out.Compacted).
		Dur("elapsed", s.now().Sub(start)).
		Msg("assistant turn finished")

	return contractx.ChatReply{ThreadID: out.ThreadID, Reply: out.Reply}, nil
}

// Reset drops the checkpoint of a thread.
func (s *Service) Reset(ctx context.Context, threadID string) error {
	unlock, err := s.locker.Lock(ctx, threadID)
	if err != nil {
		return err
	}
	defer unlock()
	return s.store.Delete(ctx, strings.TrimSpace(threadID))
}

// History returns the stored checkpoint of a thread.
func (s *Service) History(ctx context.Context, threadID string) (*statex.ConversationState, error) {
	return s.store.Load(ctx, strings.TrimSpace(threadID))
}
