package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

func newTestRegistry() *Registry {
	return NewRegistry().MustRegister(
		Definition{
			Name: "slow",
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				time.Sleep(30 * time.Millisecond)
				return map[string]any{"tool": "slow"}, nil
			},
		},
		Definition{
			Name: "fast",
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return map[string]any{"tool": "fast"}, nil
			},
		},
		Definition{
			Name: "broken",
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return nil, errors.New("upstream exploded")
			},
		},
		Definition{
			Name: "strict",
			Params: map[string]*schema.ParameterInfo{
				"q": {Type: schema.String, Required: true},
			},
			Handler: echoHandler,
		},
		Definition{
			Name:    "hang",
			Timeout: 20 * time.Millisecond,
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
		Definition{
			Name: "panics",
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				panic("boom")
			},
		},
	)
}

func decodePayload(t *testing.T, m statex.Message) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(m.Content), &out))
	return out
}

func TestExecutorPreservesRequestOrder(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(newTestRegistry(), WithConcurrency(4))
	reqs := []statex.ToolInvocationRequest{
		{ID: "c1", ToolName: "slow"},
		{ID: "c2", ToolName: "fast"},
	}

	msgs, err := exec.Execute(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "c1", msgs[0].ToolResultOf)
	require.Equal(t, "slow", decodePayload(t, msgs[0])["tool"])
	require.Equal(t, "c2", msgs[1].ToolResultOf)
	require.Equal(t, "fast", decodePayload(t, msgs[1])["tool"])
	for _, m := range msgs {
		require.Equal(t, statex.RoleTool, m.Role)
		require.NoError(t, m.Validate())
	}
}

func TestExecutorUnknownToolFailsBeforeRunning(t *testing.T) {
	t.Parallel()

	var ran int32
	reg := NewRegistry().MustRegister(Definition{
		Name: "counted",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			atomic.AddInt32(&ran, 1)
			return "ok", nil
		},
	})

	_, err := NewExecutor(reg).Execute(context.Background(), []statex.ToolInvocationRequest{
		{ID: "c1", ToolName: "counted"},
		{ID: "c2", ToolName: "teleport"},
	})
	require.ErrorIs(t, err, contractx.ErrUnknownTool)
	require.Zero(t, atomic.LoadInt32(&ran))
}

func TestExecutorReportsToolFailuresInPayload(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(newTestRegistry())
	msgs, err := exec.Execute(context.Background(), []statex.ToolInvocationRequest{
		{ID: "c1", ToolName: "broken"},
		{ID: "c2", ToolName: "strict", Arguments: map[string]any{"q": 3}},
		{ID: "c3", ToolName: "hang"},
		{ID: "c4", ToolName: "panics"},
		{ID: "c5", ToolName: "fast"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	require.Contains(t, decodePayload(t, msgs[0])["error"], "upstream exploded")
	require.Contains(t, decodePayload(t, msgs[1])["error"], `argument "q" must be string`)
	require.Contains(t, decodePayload(t, msgs[2])["error"], "timed out")
	require.Contains(t, decodePayload(t, msgs[3])["error"], "panic")
	require.Equal(t, "fast", decodePayload(t, msgs[4])["tool"])
}

func TestExecutorSurfacesParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(newTestRegistry()).Execute(ctx, []statex.ToolInvocationRequest{{ID: "c1", ToolName: "fast"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecutorRespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var active, peak int32
	reg := NewRegistry().MustRegister(Definition{
		Name: "track",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return "done", nil
		},
	})

	reqs := make([]statex.ToolInvocationRequest, 6)
	for i := range reqs {
		reqs[i] = statex.ToolInvocationRequest{ID: strings.Repeat("c", i+1), ToolName: "track"}
	}
	msgs, err := NewExecutor(reg, WithConcurrency(2)).Execute(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, msgs, 6)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	require.Equal(t, "done", msgs[0].Content)
}
