package runtime

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/agents/assistant"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/agents/resources"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/agents/routeplanner"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/llm"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/memory"
	promptx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/prompt"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/reasoner"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/tool"
	configx "github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/config"
	openrouterx "github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/openrouter"
)

// Settings groups every config block the runtime needs.
type Settings struct {
	LLM        llm.Config
	Tools      tool.Config
	Checkpoint statex.StoreConfig
	Memory     memory.Config
	Assistant  assistant.Config
}

// LoadSettings reads each block under its prefix.
func LoadSettings() (Settings, error) {
	llmCfg, err := configx.New[llm.Config]("LLM")
	if err != nil {
		return Settings{}, fmt.Errorf("load LLM config: %w", err)
	}
	toolsCfg, err := configx.New[tool.Config]("TOOLS")
	if err != nil {
		return Settings{}, fmt.Errorf("load TOOLS config: %w", err)
	}
	storeCfg, err := configx.New[statex.StoreConfig]("CHECKPOINT")
	if err != nil {
		return Settings{}, fmt.Errorf("load CHECKPOINT config: %w", err)
	}
	memoryCfg, err := configx.New[memory.Config]("MEMORY")
	if err != nil {
		return Settings{}, fmt.Errorf("load MEMORY config: %w", err)
	}
	assistantCfg, err := configx.New[assistant.Config]("ASSISTANT")
	if err != nil {
		return Settings{}, fmt.Errorf("load ASSISTANT config: %w", err)
	}
	return Settings{
		LLM:        *llmCfg,
		Tools:      *toolsCfg,
		Checkpoint: *storeCfg,
		Memory:     *memoryCfg,
		Assistant:  *assistantCfg,
	}, nil
}

// ModelFactory builds the chat model for a role.
type ModelFactory func(ctx context.Context, role contractx.AgentType) (einomodel.ToolCallingChatModel, error)

// Runtime owns every long-lived component. Build it once per process and
// Close it on shutdown.
type Runtime struct {
	Store        statex.Store
	Tools        tool.Deps
	Prompts      promptx.PromptSet
	Assistant    *assistant.Service
	RoutePlanner *routeplanner.Service
	Resources    *resources.Service

	closeStore func() error
}

type options struct {
	models      ModelFactory
	completions reasoner.ChatCompletions
	deps        *tool.Deps
}

type Option func(*options)

// WithModelFactory replaces the OpenRouter chat models.
func WithModelFactory(f ModelFactory) Option {
	return func(o *options) { o.models = f }
}

// WithChatCompletions replaces the OpenAI SDK completions client.
func WithChatCompletions(api reasoner.ChatCompletions) Option {
	return func(o *options) { o.completions = api }
}

// WithToolDeps replaces the tool collaborators built from Settings.Tools.
func WithToolDeps(deps tool.Deps) Option {
	return func(o *options) { o.deps = &deps }
}

func New(ctx context.Context, s Settings, opts ...Option) (*Runtime, error) {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.models == nil || o.completions == nil {
		if err := s.LLM.Validate(); err != nil {
			return nil, err
		}
	}
	if o.models == nil {
		o.models = openRouterModels(s.LLM)
	}
	if o.completions == nil {
		client := openrouterx.NewClient(s.LLM.OpenRouterFor(contractx.AgentTypeSummarizer))
		if client == nil {
			return nil, fmt.Errorf("%w: openrouter client needs an api key", contractx.ErrValidation)
		}
		o.completions = &client.Chat.Completions
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	deps := tool.NewDeps(s.Tools)
	if o.deps != nil {
		deps = *o.deps
	}
	reasonerOpts := []reasoner.Option{
		reasoner.WithCallTimeout(s.LLM.Timeout),
		reasoner.WithRetry(s.LLM.RetryOnce),
	}

	routeSvc, err := buildRoutePlanner(ctx, s, o, deps, prompts, reasonerOpts)
	if err != nil {
		return nil, err
	}
	deps.Planner = routeSvc

	store, closeStore, err := statex.OpenStore(ctx, s.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	assistantSvc, err := buildAssistant(ctx, s, o, deps, store, prompts, reasonerOpts)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	assistantModel := s.LLM.OpenRouterFor(contractx.AgentTypeAssistant)
	resourceCompleter, err := reasoner.NewOpenAICompleter(contractx.AgentTypeAssistant, o.completions,
		assistantModel.Model, s.LLM.MaxCompletionToken, assistantModel.Temperature, reasonerOpts...)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	resourceSvc, err := resources.New(resourceCompleter, prompts.Resources)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	log.Info().
		Str("checkpoint_backend", s.Checkpoint.Backend).
		Int("max_tool_iterations", s.Assistant.MaxToolIterations).
		Msg("runtime ready")

	return &Runtime{
		Store:        store,
		Tools:        deps,
		Prompts:      prompts,
		Assistant:    assistantSvc,
		RoutePlanner: routeSvc,
		Resources:    resourceSvc,
		closeStore:   closeStore,
	}, nil
}

func (r *Runtime) Close() error {
	if r == nil || r.closeStore == nil {
		return nil
	}
	return r.closeStore()
}

func buildRoutePlanner(
	ctx context.Context,
	s Settings,
	o options,
	deps tool.Deps,
	prompts promptx.PromptSet,
	reasonerOpts []reasoner.Option,
) (*routeplanner.Service, error) {
	reg, err := tool.BuildForAgent(contractx.AgentTypePlanner, deps)
	if err != nil {
		return nil, err
	}
	chatModel, err := o.models(ctx, contractx.AgentTypePlanner)
	if err != nil {
		return nil, err
	}
	planner, err := reasoner.NewToolReasoner(ctx, contractx.AgentTypePlanner, chatModel, reg.Infos(), reasonerOpts...)
	if err != nil {
		return nil, err
	}

	summarizerModel := s.LLM.OpenRouterFor(contractx.AgentTypeSummarizer)
	summarizer, err := reasoner.NewOpenAICompleter(contractx.AgentTypeSummarizer, o.completions,
		summarizerModel.Model, s.LLM.MaxCompletionToken, summarizerModel.Temperature, reasonerOpts...)
	if err != nil {
		return nil, err
	}

	executor := tool.NewExecutor(reg, tool.WithConcurrency(s.Tools.Concurrency), tool.WithTimeout(s.Tools.Timeout))
	return routeplanner.New(planner, executor, summarizer, routeplanner.PromptsFrom(prompts))
}

func buildAssistant(
	ctx context.Context,
	s Settings,
	o options,
	deps tool.Deps,
	store statex.Store,
	prompts promptx.PromptSet,
	reasonerOpts []reasoner.Option,
) (*assistant.Service, error) {
	reg, err := tool.BuildForAgent(contractx.AgentTypeAssistant, deps)
	if err != nil {
		return nil, err
	}
	chatModel, err := o.models(ctx, contractx.AgentTypeAssistant)
	if err != nil {
		return nil, err
	}
	r, err := reasoner.NewToolReasoner(ctx, contractx.AgentTypeAssistant, chatModel, reg.Infos(), reasonerOpts...)
	if err != nil {
		return nil, err
	}

	// Compaction runs on the assistant's own model without tools.
	summaries, err := reasoner.NewModelCompleter(ctx, contractx.AgentTypeAssistant, chatModel, reasonerOpts...)
	if err != nil {
		return nil, err
	}
	compactor, err := memory.NewCompactor(summaries, s.Memory)
	if err != nil {
		return nil, err
	}

	executor := tool.NewExecutor(reg, tool.WithConcurrency(s.Tools.Concurrency), tool.WithTimeout(s.Tools.Timeout))
	return assistant.New(store, r, executor, compactor, prompts.Assistant, s.Assistant)
}

func openRouterModels(cfg llm.Config) ModelFactory {
	return func(ctx context.Context, role contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		orCfg := cfg.OpenRouterFor(role)
		m, err := orCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", contractx.ErrBackendUnavailable, err)
		}
		return m, nil
	}
}
