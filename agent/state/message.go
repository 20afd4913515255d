package state

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleTombstone Role = "tombstone"
)

var ErrInvalidMessage = errors.New("invalid message")

// ToolInvocationRequest is one tool call issued by an assistant turn.
type ToolInvocationRequest struct {
	ID        string         `json:"id"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is a tagged variant keyed by Role. Only the fields documented for
// a role may be set:
//   - system, user: Content
//   - assistant:    Content, ToolCalls
//   - tool:         Content, ToolResultOf, ToolName
//   - tombstone:    ID only (the id of the removed message)
type Message struct {
	ID           string                  `json:"id"`
	Role         Role                    `json:"role"`
	Content      string                  `json:"content,omitempty"`
	ToolCalls    []ToolInvocationRequest `json:"tool_calls,omitempty"`
	ToolResultOf string                  `json:"tool_result_of,omitempty"`
	ToolName     string                  `json:"tool_name,omitempty"`
}

func NewSystemMessage(content string) Message {
	return Message{ID: newMessageID(), Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{ID: newMessageID(), Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant turn. Content may be empty when
// the turn only carries tool calls.
func NewAssistantMessage(content string, calls []ToolInvocationRequest) Message {
	m := Message{ID: newMessageID(), Role: RoleAssistant, Content: content}
	if len(calls) > 0 {
		m.ToolCalls = append([]ToolInvocationRequest(nil), calls...)
	}
	return m
}

func NewToolMessage(requestID, toolName, content string) Message {
	return Message{
		ID:           newMessageID(),
		Role:         RoleTool,
		Content:      content,
		ToolResultOf: requestID,
		ToolName:     toolName,
	}
}

// NewTombstone marks the message with the given id as deleted.
func NewTombstone(messageID string) Message {
	return Message{ID: messageID, Role: RoleTombstone}
}

func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidMessage)
	}

	switch m.Role {
	case RoleSystem, RoleUser:
		if len(m.ToolCalls) > 0 || m.ToolResultOf != "" || m.ToolName != "" {
			return fmt.Errorf("%w: %s message carries tool fields", ErrInvalidMessage, m.Role)
		}
	case RoleAssistant:
		if m.ToolResultOf != "" || m.ToolName != "" {
			return fmt.Errorf("%w: assistant message carries tool result fields", ErrInvalidMessage)
		}
		for i, call := range m.ToolCalls {
			if strings.TrimSpace(call.ID) == "" {
				return fmt.Errorf("%w: tool call %d has empty id", ErrInvalidMessage, i)
			}
			if strings.TrimSpace(call.ToolName) == "" {
				return fmt.Errorf("%w: tool call %d has empty tool name", ErrInvalidMessage, i)
			}
		}
	case RoleTool:
		if strings.TrimSpace(m.ToolResultOf) == "" {
			return fmt.Errorf("%w: tool message without tool_result_of", ErrInvalidMessage)
		}
		if len(m.ToolCalls) > 0 {
			return fmt.Errorf("%w: tool message carries tool calls", ErrInvalidMessage)
		}
	case RoleTombstone:
		if m.Content != "" || len(m.ToolCalls) > 0 || m.ToolResultOf != "" || m.ToolName != "" {
			return fmt.Errorf("%w: tombstone carries payload", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown role=%q", ErrInvalidMessage, m.Role)
	}
	return nil
}
