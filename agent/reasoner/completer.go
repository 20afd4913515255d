package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	oshared "github.com/openai/openai-go/shared"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

// ModelCompleter is a Completer over an eino chat model with no tools bound.
type ModelCompleter struct {
	role  contractx.AgentType
	model einomodel.BaseChatModel
	opts  options
}

var _ contractx.Completer = (*ModelCompleter)(nil)

func NewModelCompleter(
	_ context.Context,
	role contractx.AgentType,
	chatModel einomodel.BaseChatModel,
	opts ...Option,
) (*ModelCompleter, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is nil for role=%s", contractx.ErrValidation, role)
	}
	return &ModelCompleter{role: role, model: chatModel, opts: buildOptions(opts)}, nil
}

func (c *ModelCompleter) Complete(ctx context.Context, system []string, history []statex.Message) (string, error) {
	msgs, err := toSchemaMessages(system, history)
	if err != nil {
		return "", err
	}
	out, err := generate(ctx, c.role, c.model, msgs, c.opts)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	return out.Content, nil
}

// ChatCompletions is the part of the OpenAI SDK the completer calls.
type ChatCompletions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAICompleter calls the chat completions endpoint directly. It is used
// where no tool binding is needed and the raw SDK is enough.
type OpenAICompleter struct {
	role        contractx.AgentType
	api         ChatCompletions
	model       string
	maxTokens   int64
	temperature float64
	opts        options
}

var _ contractx.Completer = (*OpenAICompleter)(nil)

func NewOpenAICompleter(
	role contractx.AgentType,
	api ChatCompletions,
	model string,
	maxTokens int,
	temperature float32,
	opts ...Option,
) (*OpenAICompleter, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: openai client is nil for role=%s", contractx.ErrValidation, role)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model is required for role=%s", contractx.ErrValidation, role)
	}
	return &OpenAICompleter{
		role:        role,
		api:         api,
		model:       strings.TrimSpace(model),
		maxTokens:   int64(maxTokens),
		temperature: float64(temperature),
		opts:        buildOptions(opts),
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, system []string, history []statex.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       oshared.ChatModel(c.model),
		Messages:    toOpenAIMessages(system, history),
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	var resp *openai.ChatCompletion
	err := invoke(ctx, c.role, len(params.Messages), c.opts, func(callCtx context.Context) error {
		var err error
		resp, err = c.api.New(callCtx, params)
		return err
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion", contractx.ErrSchemaViolation)
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(system []string, history []statex.Message) []openai.ChatCompletionMessageParamUnion {
	live := liveHistory(history)
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(system)+len(live))
	for _, s := range system {
		if strings.TrimSpace(s) != "" {
			out = append(out, openai.SystemMessage(s))
		}
	}

	for _, m := range live {
		switch m.Role {
		case statex.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case statex.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case statex.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolResultOf))
		case statex.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, call := range m.ToolCalls {
				args, _ := json.Marshal(call.Arguments)
				if call.Arguments == nil {
					args = []byte("{}")
				}
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.ToolName,
						Arguments: string(args),
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}
