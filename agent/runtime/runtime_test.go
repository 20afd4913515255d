package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/reasoner/reasonertest"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/tool"
)

const routesJSON = `[
{"total_cost":1,"total_time":"1h","total_carbon_emission":"1kg","feature":"cheap","route":[]},
{"total_cost":2,"total_time":"2h","total_carbon_emission":"2kg","feature":"fast","route":[]},
{"total_cost":3,"total_time":"3h","total_carbon_emission":"3kg","feature":"green","route":[]}
]`

type scriptedCompletions struct {
	mu      sync.Mutex
	replies []string
	models  []string
}

func (s *scriptedCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append(s.models, string(body.Model))
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted completion left")
	}
	text := s.replies[0]
	s.replies = s.replies[1:]
	return &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Content: text},
	}}}, nil
}

type staticForecaster map[string]int

func (f staticForecaster) Forecast(context.Context, []string) (map[string]int, error) {
	return f, nil
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	csvPath := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,qty\nRice,10\nWheat,4\n"), 0o600))

	var s Settings
	s.LLM.Model = "default-model"
	s.LLM.SummarizerModel = "summary-model"
	s.Tools.ProductsCSV = csvPath
	s.Checkpoint.Backend = statex.BackendMemory
	return s
}

func TestNewWiresServices(t *testing.T) {
	t.Parallel()

	planner := reasonertest.New(reasonertest.Reply("I already know enough."))
	assistantModel := reasonertest.New(
		reasonertest.Calls("", reasonertest.Call("c1", tool.ToolBestRoute, `{"source":"Pune","destination":"Delhi"}`)),
		reasonertest.Reply("Here are three routes."),
	)
	completions := &scriptedCompletions{replies: []string{routesJSON, `{"forklifts":3,"trucks":2,"labour":40}`}}

	settings := testSettings(t)
	deps := tool.NewDeps(settings.Tools)
	deps.Forecaster = staticForecaster{"Rice": 12}

	rt, err := New(context.Background(), settings,
		WithModelFactory(func(_ context.Context, role contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
			if role == contractx.AgentTypePlanner {
				return planner, nil
			}
			return assistantModel, nil
		}),
		WithChatCompletions(completions),
		WithToolDeps(deps),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	names := make([]string, 0, 3)
	for _, info := range assistantModel.Tools() {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	require.Equal(t, []string{tool.ToolBestRoute, tool.ToolProducts, tool.ToolStockForecast}, names)
	require.Len(t, planner.Tools(), 4)

	reply, err := rt.Assistant.HandleMessage(context.Background(), "t1", "best way to ship to Delhi?")
	require.NoError(t, err)
	require.Equal(t, "Here are three routes.", reply.Reply)

	st, err := rt.Store.Load(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, st.Messages, 4)
	require.Contains(t, st.Messages[2].Content, `"feature": "green"`)

	est, err := rt.Resources.Estimate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, est.Forklifts)
	require.Equal(t, []string{"summary-model", "default-model"}, completions.models)

	products, err := rt.Tools.Catalogue.Products(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Rice", "Wheat"}, products)
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), testSettings(t))
	require.ErrorIs(t, err, contractx.ErrValidation)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	settings.Checkpoint.Backend = "floppy"
	_, err := New(context.Background(), settings,
		WithModelFactory(func(context.Context, contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
			return reasonertest.New(), nil
		}),
		WithChatCompletions(&scriptedCompletions{}),
	)
	require.Error(t, err)
}
