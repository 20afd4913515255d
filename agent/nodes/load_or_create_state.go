package nodes

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

func LoadOrCreateState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrGraphState)
	}

	st, err := store.Load(ctx, in.ThreadID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrStateNotFound):
		st = statex.NewConversationState(in.ThreadID, in.Now)
	default:
		return nil, err
	}
	in.Conversation = st
	return in, nil
}

func AppendUserMessage(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrGraphState)
	}
	if err := in.Conversation.Append(statex.NewUserMessage(in.Prompt)); err != nil {
		return nil, err
	}
	return in, nil
}
