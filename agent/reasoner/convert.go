package reasoner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

// liveHistory drops tool messages whose request is not in view. Compaction
// can keep a tool result while removing the assistant turn that asked for it,
// and providers reject such orphans.
func liveHistory(history []statex.Message) []statex.Message {
	out := make([]statex.Message, 0, len(history))
	open := map[string]struct{}{}
	for _, m := range history {
		switch m.Role {
		case statex.RoleTool:
			if _, ok := open[m.ToolResultOf]; !ok {
				continue
			}
			delete(open, m.ToolResultOf)
		case statex.RoleTombstone:
			continue
		default:
			open = map[string]struct{}{}
			for _, call := range m.ToolCalls {
				open[call.ID] = struct{}{}
			}
		}
		out = append(out, m)
	}
	return out
}

func toSchemaMessages(system []string, history []statex.Message) ([]*schema.Message, error) {
	live := liveHistory(history)
	out := make([]*schema.Message, 0, len(system)+len(live))
	for _, s := range system {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, schema.SystemMessage(s))
	}

	for _, m := range live {
		switch m.Role {
		case statex.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case statex.RoleUser:
			out = append(out, schema.UserMessage(m.Content))
		case statex.RoleAssistant:
			calls := make([]schema.ToolCall, 0, len(m.ToolCalls))
			for _, c := range m.ToolCalls {
				args, err := json.Marshal(c.Arguments)
				if err != nil {
					return nil, fmt.Errorf("%w: encode arguments of %s: %v", contractx.ErrGraphState, c.ToolName, err)
				}
				if c.Arguments == nil {
					args = []byte("{}")
				}
				calls = append(calls, schema.ToolCall{
					ID:   c.ID,
					Type: "function",
					Function: schema.FunctionCall{
						Name:      c.ToolName,
						Arguments: string(args),
					},
				})
			}
			if len(calls) == 0 {
				calls = nil
			}
			out = append(out, schema.AssistantMessage(m.Content, calls))
		case statex.RoleTool:
			out = append(out, schema.ToolMessage(m.Content, m.ToolResultOf))
		}
	}
	return out, nil
}

// toOutcome reads the model reply. Calls without an id get one so results
// can be paired later.
func toOutcome(msg *schema.Message) (contractx.Outcome, error) {
	if msg == nil {
		return contractx.Outcome{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	if len(msg.ToolCalls) == 0 {
		return contractx.FinalAnswer(msg.Content), nil
	}

	calls := make([]statex.ToolInvocationRequest, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return contractx.Outcome{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.Outcome{}, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		id := strings.TrimSpace(call.ID)
		if id == "" {
			id = "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		calls = append(calls, statex.ToolInvocationRequest{ID: id, ToolName: name, Arguments: args})
	}
	return contractx.ToolCallBatch(msg.Content, calls), nil
}
