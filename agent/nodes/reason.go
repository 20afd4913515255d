package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	promptx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/prompt"
)

// Reason asks the assistant model for the next step. The persona and the
// rolling summary are sent as system context on every call and are never
// stored in the history.
func Reason(
	ctx context.Context,
	in *GraphState,
	reasoner contractx.Reasoner,
	persona string,
) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrGraphState)
	}
	if len(in.Conversation.Messages) == 0 {
		return nil, fmt.Errorf("%w: reasoning needs history", contractx.ErrGraphState)
	}

	system := []string{persona}
	if summary := promptx.SummaryContext(in.Conversation.Summary); summary != "" {
		system = append(system, summary)
	}

	outcome, err := reasoner.Reason(ctx, system, in.Conversation.Messages)
	if err != nil {
		return nil, err
	}
	if err := in.Conversation.Append(outcome.Message()); err != nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrSchemaViolation, err)
	}
	in.Outcome = outcome
	return in, nil
}
