package routeplanner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/output"
	promptx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/prompt"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/reasoner"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/reasoner/reasonertest"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/tool"
)

const validAnswer = "```json\n[" +
	`{"total_cost":1,"total_time":"1h","total_carbon_emission":"1kg","feature":"a","route":[{"from":"Pune","to":"Mumbai","distance":"150 km","mode":"truck"}]},` +
	`{"total_cost":2,"total_time":"2h","total_carbon_emission":"2kg","feature":"b","route":[]},` +
	`{"total_cost":3,"total_time":"3h","total_carbon_emission":"3kg","feature":"c","route":[]}` +
	"]\n```"

type harness struct {
	planner    *reasonertest.Model
	summarizer *reasonertest.Model
	toolCalls  *atomic.Int32
	svc        *Service
}

// newHarness wires the real reasoner, executor and graph around scripted
// models and route tools that return empty lists.
func newHarness(t *testing.T, planner, summarizer []reasonertest.Step) *harness {
	t.Helper()

	var calls atomic.Int32
	reg := tool.NewRegistry()
	for _, name := range []string{tool.ToolAirways, tool.ToolRailways, tool.ToolRoadways, tool.ToolSeaways} {
		reg.MustRegister(tool.Definition{
			Name: name,
			Desc: "stub " + name,
			Params: map[string]*schema.ParameterInfo{
				"source": {Type: schema.String},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				calls.Add(1)
				return []any{}, nil
			},
		})
	}

	h := &harness{
		planner:    reasonertest.New(planner...),
		summarizer: reasonertest.New(summarizer...),
		toolCalls:  &calls,
	}

	ctx := context.Background()
	r, err := reasoner.NewToolReasoner(ctx, contractx.AgentTypePlanner, h.planner, reg.Infos())
	require.NoError(t, err)
	c, err := reasoner.NewModelCompleter(ctx, contractx.AgentTypeSummarizer, h.summarizer)
	require.NoError(t, err)

	h.svc, err = New(r, tool.NewExecutor(reg), c, PromptsFrom(promptx.LoadPromptSet()))
	require.NoError(t, err)
	return h
}

func TestOptimizeEmptyToolsFallsBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		[]reasonertest.Step{reasonertest.Calls("",
			reasonertest.Call("a", tool.ToolAirways, `{"source":"Pune"}`),
			reasonertest.Call("r", tool.ToolRailways, `{"source":"PUNE"}`),
			reasonertest.Call("d", tool.ToolRoadways, `{"source":"Pune"}`),
			reasonertest.Call("s", tool.ToolSeaways, `{"source":"Mumbai"}`),
		)},
		[]reasonertest.Step{reasonertest.Reply("Sorry, no routes were found between Pune and California.")},
	)

	out, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune", Destination: "California"})
	require.NoError(t, err)
	require.NotNil(t, out.Invalid)
	require.Equal(t, output.KindMalformedJSON, out.Invalid.Kind)
	require.Equal(t, 4, out.Tools)
	require.EqualValues(t, 4, h.toolCalls.Load())

	var routes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.JSON), &routes))
	require.Len(t, routes, 1)
	require.Equal(t, float64(0), routes[0]["total_cost"])
	require.Equal(t, "Error", routes[0]["total_time"])

	// The summarizer sees the request, the tool batch and every result.
	inputs := h.summarizer.Inputs()
	require.Len(t, inputs, 1)
	require.Len(t, inputs[0], 1+1+1+4)
	require.Equal(t, schema.System, inputs[0][0].Role)
	require.True(t, strings.Contains(inputs[0][1].Content, "from Pune to California"))
	require.Equal(t, schema.Tool, inputs[0][6].Role)
	require.Equal(t, "s", inputs[0][6].ToolCallID)
	require.Equal(t, "[]", inputs[0][6].Content)
}

func TestOptimizeValidAnswer(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		[]reasonertest.Step{reasonertest.Calls("", reasonertest.Call("a", tool.ToolAirways, `{}`))},
		[]reasonertest.Step{reasonertest.Reply(validAnswer)},
	)

	out, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune", Destination: "Delhi"})
	require.NoError(t, err)
	require.Nil(t, out.Invalid)

	res, err := output.Validate(out.JSON)
	require.NoError(t, err)
	require.Equal(t, out.JSON, res.Canonical)
}

func TestPlanReturnsRawJSON(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		[]reasonertest.Step{reasonertest.Reply("no tools needed")},
		[]reasonertest.Step{reasonertest.Reply(validAnswer)},
	)

	raw, err := h.svc.Plan(context.Background(), "Pune", "Delhi")
	require.NoError(t, err)
	require.True(t, json.Valid(raw))

	var routes []output.RouteOption
	require.NoError(t, json.Unmarshal(raw, &routes))
	require.Len(t, routes, 3)
	require.Equal(t, output.Text("truck"), routes[0].Route[0].Mode)
}

func TestOptimizePlannerWithoutToolsStillValidates(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		[]reasonertest.Step{reasonertest.Reply("I know these routes already.")},
		[]reasonertest.Step{reasonertest.Reply(validAnswer)},
	)

	out, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune", Destination: "Delhi"})
	require.NoError(t, err)
	require.Nil(t, out.Invalid)
	require.Zero(t, out.Tools)
	require.Zero(t, h.toolCalls.Load())
}

func TestOptimizeBoundaryErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown tool", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t,
			[]reasonertest.Step{reasonertest.Calls("", reasonertest.Call("x", "teleport", `{}`))},
			nil,
		)
		_, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune", Destination: "Delhi"})
		require.ErrorIs(t, err, contractx.ErrUnknownTool)
		require.Zero(t, h.summarizer.Calls())
	})

	t.Run("backend timeout", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, []reasonertest.Step{reasonertest.Fail(context.DeadlineExceeded)}, nil)
		_, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune", Destination: "Delhi"})
		require.ErrorIs(t, err, contractx.ErrBackendTimeout)
	})

	t.Run("backend unavailable", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, []reasonertest.Step{reasonertest.Fail(errors.New("backend down"))}, nil)
		_, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune", Destination: "Delhi"})
		require.ErrorIs(t, err, contractx.ErrBackendUnavailable)
		require.Zero(t, h.summarizer.Calls())
	})

	t.Run("missing destination", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, nil)
		_, err := h.svc.Optimize(context.Background(), contractx.RouteRequest{Source: "Pune"})
		require.ErrorIs(t, err, contractx.ErrValidation)
		require.Zero(t, h.planner.Calls())
	})
}
