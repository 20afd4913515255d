// Package reasonertest provides a scripted chat model for tests.
package reasonertest

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrScriptExhausted = errors.New("no scripted response left")

// Step is one scripted reply. Respond, when set, wins over Msg and Err.
type Step struct {
	Msg     *schema.Message
	Err     error
	Respond func(ctx context.Context, input []*schema.Message) (*schema.Message, error)
}

// Model replays Steps in order and records every input it sees.
type Model struct {
	mu     sync.Mutex
	steps  []Step
	inputs [][]*schema.Message
	tools  []*schema.ToolInfo
}

var _ einomodel.ToolCallingChatModel = (*Model)(nil)

func New(steps ...Step) *Model {
	return &Model{steps: steps}
}

// Reply is a Step returning a plain assistant text.
func Reply(text string) Step {
	return Step{Msg: schema.AssistantMessage(text, nil)}
}

// Calls is a Step returning an assistant turn with tool calls.
func Calls(text string, calls ...schema.ToolCall) Step {
	return Step{Msg: schema.AssistantMessage(text, calls)}
}

func Call(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func Fail(err error) Step {
	return Step{Err: err}
}

func (m *Model) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, append([]*schema.Message(nil), input...))
	if len(m.steps) == 0 {
		m.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	m.mu.Unlock()

	if step.Respond != nil {
		return step.Respond(ctx, input)
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Msg, nil
}

func (m *Model) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in scripted model")
}

// WithTools records the tools and returns the same model so the script is
// shared by bound and unbound callers.
func (m *Model) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = append([]*schema.ToolInfo(nil), tools...)
	return m, nil
}

func (m *Model) Inputs() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.inputs...)
}

func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

func (m *Model) Tools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*schema.ToolInfo(nil), m.tools...)
}

func (m *Model) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}
