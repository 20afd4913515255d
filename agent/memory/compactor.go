package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
)

const (
	DefaultThreshold = 6
	DefaultKeep      = 2

	createPrompt = "Create a summary of the conversation above:"
	extendPrompt = "This is summary of the conversation to date: %s\n\nExtend the summary by taking into account the new messages above:"
)

// Config is loaded with the MEMORY prefix.
type Config struct {
	Threshold int `envconfig:"THRESHOLD" default:"6"`
	Keep      int `envconfig:"KEEP" default:"2"`
}

// Compactor folds old history into a rolling summary once it grows past
// the threshold.
type Compactor struct {
	completer contractx.Completer
	threshold int
	keep      int
}

var _ contractx.Compactor = (*Compactor)(nil)

func NewCompactor(completer contractx.Completer, cfg Config) (*Compactor, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: compactor needs a completer", contractx.ErrValidation)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	if cfg.Keep > cfg.Threshold {
		return nil, fmt.Errorf("%w: keep=%d exceeds threshold=%d", contractx.ErrValidation, cfg.Keep, cfg.Threshold)
	}
	return &Compactor{completer: completer, threshold: cfg.Threshold, keep: cfg.Keep}, nil
}

func (c *Compactor) ShouldCompact(st *statex.ConversationState) bool {
	return st != nil && len(st.Messages) > c.threshold
}

// Compact asks the completer for an extended summary and keeps only the
// newest messages. On failure st is left exactly as it was.
func (c *Compactor) Compact(ctx context.Context, st *statex.ConversationState) error {
	if st == nil {
		return fmt.Errorf("%w: %w", contractx.ErrCompaction, statex.ErrNilConversation)
	}

	history := make([]statex.Message, 0, len(st.Messages)+1)
	history = append(history, st.Messages...)
	history = append(history, statex.NewUserMessage(Prompt(st.Summary)))

	summary, err := c.completer.Complete(ctx, nil, history)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = fmt.Errorf("%w: empty summary", contractx.ErrSchemaViolation)
	}
	metrics.RecordCompaction(err)
	if err != nil {
		log.Warn().Err(err).Str("thread_id", st.ThreadID).Int("messages", len(st.Messages)).Msg("memory compaction failed")
		return fmt.Errorf("%w: %w", contractx.ErrCompaction, err)
	}

	dropped := st.Compact(strings.TrimSpace(summary), c.keep)
	log.Debug().Str("thread_id", st.ThreadID).Int("dropped", len(dropped)).Msg("memory compacted")
	return nil
}

// Prompt is the instruction appended after the history for a summary.
func Prompt(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return createPrompt
	}
	return fmt.Sprintf(extendPrompt, summary)
}
