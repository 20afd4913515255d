package pipelinenode

import (
	"context"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/output"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

type GraphOutput struct {
	JSON    string
	Invalid *output.ValidationError
	Tools   int
}

type GraphState struct {
	Source      string
	Destination string

	History []statex.Message
	Outcome contractx.Outcome
	Tools   int
	Raw     string
}

// ValidateRequest renders the route request template into the opening user
// message.
func ValidateRequest(
	ctx context.Context,
	in contractx.RouteRequest,
	template einoprompt.ChatTemplate,
) (*GraphState, error) {
	source := strings.TrimSpace(in.Source)
	destination := strings.TrimSpace(in.Destination)
	if source == "" || destination == "" {
		return nil, fmt.Errorf("%w: source and destination are required", contractx.ErrValidation)
	}

	msgs, err := template.Format(ctx, map[string]any{
		"source":      source,
		"destination": destination,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: render route request: %v", contractx.ErrPromptMissing, err)
	}
	if len(msgs) == 0 || strings.TrimSpace(msgs[0].Content) == "" {
		return nil, fmt.Errorf("%w: route request rendered empty", contractx.ErrPromptMissing)
	}

	return &GraphState{
		Source:      source,
		Destination: destination,
		History:     []statex.Message{statex.NewUserMessage(msgs[0].Content)},
	}, nil
}
