package contract

import (
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

// AgentType names a model role. Each role may run on its own model.
type AgentType string

const (
	AgentTypePlanner    AgentType = "planner"
	AgentTypeSummarizer AgentType = "summarizer"
	AgentTypeAssistant  AgentType = "assistant"
)

type OutcomeKind string

const (
	OutcomeFinalAnswer   OutcomeKind = "final_answer"
	OutcomeToolCallBatch OutcomeKind = "tool_call_batch"
)

// Outcome is the result of one reasoning step: either final text or a
// non-empty batch of tool requests. Content may accompany a batch.
type Outcome struct {
	Kind  OutcomeKind
	Text  string
	Calls []statex.ToolInvocationRequest
}

func FinalAnswer(text string) Outcome {
	return Outcome{Kind: OutcomeFinalAnswer, Text: text}
}

func ToolCallBatch(text string, calls []statex.ToolInvocationRequest) Outcome {
	return Outcome{Kind: OutcomeToolCallBatch, Text: text, Calls: calls}
}

func (o Outcome) IsFinal() bool {
	return o.Kind == OutcomeFinalAnswer
}

// Message converts the outcome into the assistant turn to append to history.
func (o Outcome) Message() statex.Message {
	if o.Kind == OutcomeToolCallBatch {
		return statex.NewAssistantMessage(o.Text, o.Calls)
	}
	return statex.NewAssistantMessage(o.Text, nil)
}

// RouteRequest is the pipeline input.
type RouteRequest struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// ChatRequest is one conversational turn. ChatID is accepted as an alias
// of ThreadID.
type ChatRequest struct {
	ThreadID string `json:"thread_id"`
	ChatID   string `json:"chat_id"`
	Prompt   string `json:"prompt" binding:"required"`
}

func (r ChatRequest) Thread() string {
	if r.ThreadID != "" {
		return r.ThreadID
	}
	return r.ChatID
}

type ChatReply struct {
	ThreadID string `json:"thread_id"`
	Reply    string `json:"reply"`
}
