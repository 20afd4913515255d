package assistant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/memory"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/reasoner"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/reasoner/reasonertest"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/tool"
)

const persona = "You are a chatbot for Transpectra."

type harness struct {
	model      *reasonertest.Model
	summarizer *reasonertest.Model
	store      *statex.MemoryStore
	svc        *Service
}

func newHarness(t *testing.T, cfg Config, model, summarizer []reasonertest.Step) *harness {
	t.Helper()

	reg := tool.NewRegistry()
	reg.MustRegister(tool.Definition{
		Name:   tool.ToolProducts,
		Desc:   "list products",
		Params: map[string]*schema.ParameterInfo{},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return tool.ProductList{Products: []string{"Rice", "Wheat"}}, nil
		},
	})

	h := &harness{
		model:      reasonertest.New(model...),
		summarizer: reasonertest.New(summarizer...),
		store:      statex.NewMemoryStore(),
	}

	ctx := context.Background()
	r, err := reasoner.NewToolReasoner(ctx, contractx.AgentTypeAssistant, h.model, reg.Infos())
	require.NoError(t, err)
	c, err := reasoner.NewModelCompleter(ctx, contractx.AgentTypeSummarizer, h.summarizer)
	require.NoError(t, err)
	compactor, err := memory.NewCompactor(c, memory.Config{})
	require.NoError(t, err)

	h.svc, err = New(h.store, r, tool.NewExecutor(reg), compactor, persona, cfg)
	require.NoError(t, err)
	return h
}

func (h *harness) seed(t *testing.T, threadID string, n int) *statex.ConversationState {
	t.Helper()
	st := statex.NewConversationState(threadID, time.Now())
	for i := 0; i < n; i++ {
		m := statex.NewUserMessage("earlier question")
		if i%2 == 1 {
			m = statex.NewAssistantMessage("earlier answer", nil)
		}
		require.NoError(t, st.Append(m))
	}
	require.NoError(t, h.store.Save(context.Background(), st))
	loaded, err := h.store.Load(context.Background(), threadID)
	require.NoError(t, err)
	return loaded
}

func TestHandleMessageSimpleReply(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{}, []reasonertest.Step{reasonertest.Reply(" Hello, manager! ")}, nil)

	reply, err := h.svc.HandleMessage(context.Background(), "t1", "hi")
	require.NoError(t, err)
	require.Equal(t, "Hello, manager!", reply.Reply)
	require.Equal(t, "t1", reply.ThreadID)

	st, err := h.store.Load(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, st.Messages, 2)
	require.Equal(t, statex.RoleUser, st.Messages[0].Role)
	require.Equal(t, statex.RoleAssistant, st.Messages[1].Role)

	// The persona is sent as system context and never stored.
	inputs := h.model.Inputs()
	require.Equal(t, schema.System, inputs[0][0].Role)
	require.Equal(t, persona, inputs[0][0].Content)
}

func TestHandleMessageToolRound(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{}, []reasonertest.Step{
		reasonertest.Calls("", reasonertest.Call("c1", tool.ToolProducts, `{}`)),
		reasonertest.Reply("We stock Rice and Wheat."),
	}, nil)

	reply, err := h.svc.HandleMessage(context.Background(), "t1", "what do we stock?")
	require.NoError(t, err)
	require.Equal(t, "We stock Rice and Wheat.", reply.Reply)

	st, err := h.store.Load(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, st.Messages, 4)
	require.Equal(t, "c1", st.Messages[2].ToolResultOf)
	require.JSONEq(t, `{"products":["Rice","Wheat"]}`, st.Messages[2].Content)

	second := h.model.Inputs()[1]
	require.Equal(t, schema.Tool, second[len(second)-1].Role)
}

func TestHandleMessageCompactsLongHistory(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{},
		[]reasonertest.Step{reasonertest.Reply("Trucks leave at 6.")},
		[]reasonertest.Step{reasonertest.Reply("The manager asked about stock and trucks.")},
	)
	h.seed(t, "t1", 7)

	reply, err := h.svc.HandleMessage(context.Background(), "t1", "when do trucks leave?")
	require.NoError(t, err)
	require.Equal(t, "Trucks leave at 6.", reply.Reply)

	st, err := h.store.Load(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "The manager asked about stock and trucks.", st.Summary)
	require.Len(t, st.Messages, 2)
	require.Equal(t, "when do trucks leave?", st.Messages[0].Content)
	require.Equal(t, "Trucks leave at 6.", st.Messages[1].Content)

	compaction := h.summarizer.Inputs()[0]
	require.Len(t, compaction, 10)
	require.Equal(t, "Create a summary of the conversation above:", compaction[9].Content)
}

func TestHandleMessageSummaryReachesNextTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{}, []reasonertest.Step{reasonertest.Reply("ok")}, nil)
	st := h.seed(t, "t1", 2)
	st.Summary = "asked about forklifts"
	require.NoError(t, h.store.Save(context.Background(), st))

	_, err := h.svc.HandleMessage(context.Background(), "t1", "and trucks?")
	require.NoError(t, err)

	in := h.model.Inputs()[0]
	require.Equal(t, "Summary of conversation earlier: asked about forklifts", in[1].Content)
	require.Zero(t, h.summarizer.Calls())
}

func TestHandleMessageUnknownToolLeavesCheckpoint(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{},
		[]reasonertest.Step{reasonertest.Calls("", reasonertest.Call("c1", "teleport_cargo", `{}`))}, nil)
	before := h.seed(t, "t1", 3)

	_, err := h.svc.HandleMessage(context.Background(), "t1", "teleport my cargo")
	require.ErrorIs(t, err, contractx.ErrUnknownTool)

	after, err := h.store.Load(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, before.Messages, after.Messages)
	require.Equal(t, before.Summary, after.Summary)
}

func TestHandleMessageToolLoopCap(t *testing.T) {
	t.Parallel()

	loop := func(id string) reasonertest.Step {
		return reasonertest.Calls("", reasonertest.Call(id, tool.ToolProducts, `{}`))
	}
	h := newHarness(t, Config{MaxToolIterations: 2}, []reasonertest.Step{loop("a"), loop("b"), loop("c"), reasonertest.Reply("never")}, nil)

	_, err := h.svc.HandleMessage(context.Background(), "t1", "loop forever")
	require.ErrorIs(t, err, contractx.ErrToolLoopExceeded)
	require.Equal(t, 3, h.model.Calls())

	_, err = h.store.Load(context.Background(), "t1")
	require.ErrorIs(t, err, statex.ErrStateNotFound)
}

func TestHandleMessageCompactionFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{},
		[]reasonertest.Step{reasonertest.Reply("answer")},
		[]reasonertest.Step{reasonertest.Fail(errors.New("summarizer down"))},
	)
	before := h.seed(t, "t1", 7)

	_, err := h.svc.HandleMessage(context.Background(), "t1", "one more")
	require.ErrorIs(t, err, contractx.ErrCompaction)
	require.ErrorIs(t, err, contractx.ErrBackendUnavailable)

	after, err := h.store.Load(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, before.Messages, after.Messages)
	require.Empty(t, after.Summary)
}

func TestHandleMessageSurfacesBackendErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		cause error
		want  error
	}{
		{name: "unavailable", cause: errors.New("backend down"), want: contractx.ErrBackendUnavailable},
		{name: "timeout", cause: context.DeadlineExceeded, want: contractx.ErrBackendTimeout},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, Config{}, []reasonertest.Step{reasonertest.Fail(tc.cause)}, nil)
			_, err := h.svc.HandleMessage(context.Background(), "t1", "hello")
			require.ErrorIs(t, err, tc.want)

			_, err = h.store.Load(context.Background(), "t1")
			require.ErrorIs(t, err, statex.ErrStateNotFound)
		})
	}
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{}, nil, nil)
	_, err := h.svc.HandleMessage(context.Background(), " ", "hi")
	require.ErrorIs(t, err, statex.ErrInvalidThread)

	_, err = h.svc.HandleMessage(context.Background(), "t1", " ")
	require.ErrorIs(t, err, ErrInvalidPrompt)
	require.Zero(t, h.model.Calls())
}

func TestThreadsAreIsolated(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{}, []reasonertest.Step{
		reasonertest.Reply("reply for alpha"),
		reasonertest.Reply("reply for beta"),
	}, nil)

	_, err := h.svc.HandleMessage(context.Background(), "alpha", "alpha question")
	require.NoError(t, err)
	_, err = h.svc.HandleMessage(context.Background(), "beta", "beta question")
	require.NoError(t, err)

	alpha, err := h.store.Load(context.Background(), "alpha")
	require.NoError(t, err)
	beta, err := h.store.Load(context.Background(), "beta")
	require.NoError(t, err)
	require.Len(t, alpha.Messages, 2)
	require.Len(t, beta.Messages, 2)
	require.Equal(t, "alpha question", alpha.Messages[0].Content)
	require.Equal(t, "beta question", beta.Messages[0].Content)

	// beta's model input never contains alpha's turn.
	for _, m := range h.model.Inputs()[1] {
		require.NotContains(t, m.Content, "alpha")
	}
}

// trackingStep records how many model calls overlap. When barrier is set
// each call waits for another call to arrive, up to a short deadline.
func trackingStep(inflight, peak *atomic.Int32, barrier *sync.WaitGroup) reasonertest.Step {
	return reasonertest.Step{Respond: func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if barrier != nil {
			barrier.Done()
			done := make(chan struct{})
			go func() { barrier.Wait(); close(done) }()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
			}
		} else {
			time.Sleep(30 * time.Millisecond)
		}
		inflight.Add(-1)
		return schema.AssistantMessage("done", nil), nil
	}}
}

func TestSameThreadTurnsAreSerialised(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int32
	h := newHarness(t, Config{}, []reasonertest.Step{
		trackingStep(&inflight, &peak, nil),
		trackingStep(&inflight, &peak, nil),
	}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.HandleMessage(context.Background(), "shared", "hello")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, peak.Load())
	st, err := h.store.Load(context.Background(), "shared")
	require.NoError(t, err)
	require.Len(t, st.Messages, 4)
}

func TestDifferentThreadsRunInParallel(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int32
	var barrier sync.WaitGroup
	barrier.Add(2)
	h := newHarness(t, Config{}, []reasonertest.Step{
		trackingStep(&inflight, &peak, &barrier),
		trackingStep(&inflight, &peak, &barrier),
	}, nil)

	var wg sync.WaitGroup
	for _, id := range []string{"one", "two"} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.HandleMessage(context.Background(), id, "hello")
			if err != nil {
				t.Errorf("thread %s: %v", id, err)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 2, peak.Load())
}

func TestResetDeletesCheckpoint(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{}, nil, nil)
	h.seed(t, "t1", 2)

	require.NoError(t, h.svc.Reset(context.Background(), "t1"))
	_, err := h.svc.History(context.Background(), "t1")
	require.ErrorIs(t, err, statex.ErrStateNotFound)
}
