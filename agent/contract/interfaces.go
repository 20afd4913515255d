package contract

import (
	"context"

	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

// Reasoner asks a tool-bound model for the next step. It never mutates
// history; callers append Outcome.Message themselves.
type Reasoner interface {
	Reason(ctx context.Context, system []string, history []statex.Message) (Outcome, error)
}

// Completer is a plain text completion without tools.
type Completer interface {
	Complete(ctx context.Context, system []string, history []statex.Message) (string, error)
}

type ToolExecutor interface {
	Execute(ctx context.Context, reqs []statex.ToolInvocationRequest) ([]statex.Message, error)
}

type Compactor interface {
	ShouldCompact(st *statex.ConversationState) bool
	Compact(ctx context.Context, st *statex.ConversationState) error
}
