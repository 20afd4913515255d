package nodes

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

var ErrInvalidPrompt = errors.New("prompt is empty")

type GraphInput struct {
	ThreadID string
	Prompt   string
}

type GraphOutput struct {
	ThreadID   string
	Reply      string
	Iterations int
	Compacted  bool
}

type GraphState struct {
	ThreadID string
	Prompt   string
	Now      time.Time

	Conversation *statex.ConversationState
	Outcome      contractx.Outcome
	Iterations   int
	Compacted    bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, statex.ErrInvalidThread
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, ErrInvalidPrompt
	}

	return &GraphState{
		ThreadID: threadID,
		Prompt:   prompt,
		Now:      nowFn().UTC(),
	}, nil
}
