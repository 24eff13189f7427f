package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirecj/agentsim/agent"
	"github.com/hirecj/agentsim/agent/window"
	"github.com/hirecj/agentsim/config"
	"github.com/hirecj/agentsim/internal/cache"
	"github.com/hirecj/agentsim/session"
	"github.com/hirecj/agentsim/types"
	"github.com/hirecj/agentsim/universe"
	"github.com/hirecj/agentsim/workflow"
)

// --- mocks ---

type mockRuntime struct {
	response string
	err      error
	calls    int
	lastReq  *agent.Request
}

func (m *mockRuntime) Respond(_ context.Context, req *agent.Request) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// --- helpers ---

func newTestSession(workflowName string) *session.Session {
	return &session.Session{
		ID:           "sess-1",
		Conversation: types.NewConversation("conv-1", "acme", "growth", workflowName),
		Active:       true,
	}
}

func newProcessor(rt agent.Runtime, cacheMgr *cache.Manager) *Processor {
	builder := window.NewBuilder(config.WindowConfig{MaxMessages: 10}, nil)
	return New(rt, builder, "cj", cacheMgr, nil, zap.NewNop())
}

func TestProcess_AppendsExactlyTwoMessages(t *testing.T) {
	t.Parallel()
	rt := &mockRuntime{response: "Happy to help!"}
	p := newProcessor(rt, nil)
	sess := newTestSession("")

	resp, err := p.Process(context.Background(), sess, "where is my order?", types.SenderMerchant)
	require.NoError(t, err)

	require.Equal(t, 2, sess.Conversation.Len())
	assert.Equal(t, types.SenderMerchant, sess.Conversation.Messages[0].Sender)
	assert.Equal(t, "where is my order?", sess.Conversation.Messages[0].Content)
	assert.Equal(t, types.Sender("cj"), sess.Conversation.Messages[1].Sender)
	assert.Equal(t, "Happy to help!", sess.Conversation.Messages[1].Content)

	plain, ok := resp.(types.PlainMessage)
	require.True(t, ok)
	assert.Equal(t, "Happy to help!", plain.Content)
}

func TestProcess_RuntimeFailureYieldsFallback(t *testing.T) {
	t.Parallel()
	rt := &mockRuntime{err: errors.New("model timed out")}
	p := newProcessor(rt, nil)
	sess := newTestSession("")

	resp, err := p.Process(context.Background(), sess, "hello?", types.SenderMerchant)
	require.NoError(t, err, "runtime failures must not propagate")

	// The user's message is still recorded, followed by the fallback.
	require.Equal(t, 2, sess.Conversation.Len())
	assert.Equal(t, "hello?", sess.Conversation.Messages[0].Content)
	assert.Equal(t, FallbackResponse, sess.Conversation.Messages[1].Content)
	assert.Equal(t, FallbackResponse, resp.ResponseContent())

	assert.Equal(t, 1, sess.Metrics.Errors)
	assert.Equal(t, 1, sess.Metrics.Messages)
}

func TestProcess_MetricsAccumulate(t *testing.T) {
	t.Parallel()
	rt := &mockRuntime{response: "ok"}
	p := newProcessor(rt, nil)
	sess := newTestSession("")

	for i := 0; i < 3; i++ {
		_, err := p.Process(context.Background(), sess, "ping", types.SenderMerchant)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, sess.Metrics.Messages)
	assert.Zero(t, sess.Metrics.Errors)
	assert.False(t, sess.Metrics.LastActivity.IsZero())
	assert.GreaterOrEqual(t, sess.Metrics.TotalResponseTime, time.Duration(0))
	assert.Equal(t, 6, sess.Conversation.Len())
}

func TestProcess_ContextWindowIsLogSuffix(t *testing.T) {
	t.Parallel()
	rt := &mockRuntime{response: "reply"}
	builder := window.NewBuilder(config.WindowConfig{MaxMessages: 4}, nil)
	p := New(rt, builder, "cj", nil, nil, zap.NewNop())
	sess := newTestSession("")

	for i := 0; i < 5; i++ {
		_, err := p.Process(context.Background(), sess, "msg", types.SenderMerchant)
		require.NoError(t, err)
	}

	win := sess.Conversation.State.ContextWindow
	require.Len(t, win, 4)
	logTail := sess.Conversation.Messages[sess.Conversation.Len()-4:]
	assert.Equal(t, logTail, win)
}

func TestProcess_RuntimeSeesContextAndTools(t *testing.T) {
	t.Parallel()
	rt := &mockRuntime{response: "reply"}
	p := newProcessor(rt, nil)

	sess := newTestSession("daily_briefing")
	sess.DataAgent = universe.NewDataAgent(&universe.Universe{
		ID:           "acme_growth",
		MerchantName: "acme",
		Customers:    []universe.Customer{{ID: "c1", Name: "Jo"}},
	})

	_, err := p.Process(context.Background(), sess, "run it", types.SenderSystem)
	require.NoError(t, err)

	require.NotNil(t, rt.lastReq)
	assert.Contains(t, rt.lastReq.Context, "SYSTEM: run it")
	assert.Equal(t, "acme", rt.lastReq.MerchantID)
	assert.Equal(t, "daily_briefing", rt.lastReq.WorkflowID)
	assert.NotEmpty(t, rt.lastReq.Tools)
}

func TestProcess_UIExtractionOnlyForOnboardingWorkflow(t *testing.T) {
	t.Parallel()
	raw := "Let's connect your store: {{oauth:shopify}}"

	// Onboarding workflow: structured response, clean text persisted.
	rt := &mockRuntime{response: raw}
	p := newProcessor(rt, nil)
	sess := newTestSession(workflow.ShopifyOnboarding)

	resp, err := p.Process(context.Background(), sess, "hi", types.SenderMerchant)
	require.NoError(t, err)

	structured, ok := resp.(types.MessageWithUI)
	require.True(t, ok)
	assert.Equal(t, "message_with_ui", structured.Type)
	require.Len(t, structured.UIElements, 1)
	assert.Equal(t, "shopify", structured.UIElements[0].Provider)

	stored := sess.Conversation.Messages[1].Content
	assert.Contains(t, stored, "__OAUTH_BUTTON_1__")
	assert.NotContains(t, stored, "{{")

	// Any other workflow: markers pass through verbatim.
	rt2 := &mockRuntime{response: raw}
	p2 := newProcessor(rt2, nil)
	sess2 := newTestSession("daily_briefing")

	resp2, err := p2.Process(context.Background(), sess2, "hi", types.SenderMerchant)
	require.NoError(t, err)
	_, plain := resp2.(types.PlainMessage)
	assert.True(t, plain)
	assert.Equal(t, raw, sess2.Conversation.Messages[1].Content)
}

func TestProcess_OnboardingWithoutMarkersStaysPlain(t *testing.T) {
	t.Parallel()
	rt := &mockRuntime{response: "Just text, no buttons."}
	p := newProcessor(rt, nil)
	sess := newTestSession(workflow.ShopifyOnboarding)

	resp, err := p.Process(context.Background(), sess, "hi", types.SenderMerchant)
	require.NoError(t, err)

	plain, ok := resp.(types.PlainMessage)
	require.True(t, ok)
	assert.Equal(t, "Just text, no buttons.", plain.Content)
}

func TestProcess_WarmableTurnsPopulateAndHitCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cacheMgr, err := cache.NewManager(config.RedisConfig{Addr: mr.Addr(), DefaultTTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheMgr.Close() })

	rt := &mockRuntime{response: "Your daily briefing: all good."}
	p := newProcessor(rt, cacheMgr)

	mkSession := func() *session.Session {
		sess := newTestSession("daily_briefing")
		sess.DataAgent = universe.NewDataAgent(&universe.Universe{ID: "acme_growth"})
		return sess
	}

	// First turn invokes the runtime and populates the cache.
	_, err = p.Process(context.Background(), mkSession(), "Start the daily_briefing workflow", types.SenderSystem)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.calls)

	// Second turn for the same pair is served from the cache.
	resp, err := p.Process(context.Background(), mkSession(), "Start the daily_briefing workflow", types.SenderSystem)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.calls, "cached turn must not invoke the runtime")
	assert.Equal(t, "Your daily briefing: all good.", resp.ResponseContent())
}
