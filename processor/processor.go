// Package processor orchestrates one conversation turn: append the inbound
// message, invoke the agent runtime against the bounded context window,
// extract structured UI from the result, and record metrics.
package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hirecj/agentsim/agent"
	"github.com/hirecj/agentsim/agent/extract"
	"github.com/hirecj/agentsim/agent/window"
	"github.com/hirecj/agentsim/internal/cache"
	"github.com/hirecj/agentsim/internal/metrics"
	"github.com/hirecj/agentsim/session"
	"github.com/hirecj/agentsim/types"
	"github.com/hirecj/agentsim/workflow"
)

// FallbackResponse is returned when the agent runtime fails. The failure is
// contained here so one bad model call cannot crash the orchestration loop.
const FallbackResponse = "I'm having trouble accessing my systems right now. Could you give me a moment and try again?"

// Processor drives request/response cycles for live sessions. It holds no
// per-session state and is safe to share across sessions; within one
// session the transport layer serializes turns.
type Processor struct {
	runtime   agent.Runtime
	builder   *window.Builder
	agentName string

	cache     *cache.Manager     // optional
	collector *metrics.Collector // optional
	logger    *zap.Logger
}

// New creates a Processor. cache and collector may be nil.
func New(runtime agent.Runtime, builder *window.Builder, agentName string, cacheMgr *cache.Manager, collector *metrics.Collector, logger *zap.Logger) *Processor {
	if agentName == "" {
		agentName = string(types.SenderCJ)
	}
	return &Processor{
		runtime:   runtime,
		builder:   builder,
		agentName: agentName,
		cache:     cacheMgr,
		collector: collector,
		logger:    logger.With(zap.String("component", "processor")),
	}
}

// Process runs one turn. The conversation log grows by exactly two entries:
// the inbound message and either the agent response or the fallback. Runtime
// failures never propagate; the returned error is reserved for future
// invariant violations and is currently always nil.
func (p *Processor) Process(ctx context.Context, sess *session.Session, text string, sender types.Sender) (types.Response, error) {
	start := time.Now()
	conv := sess.Conversation

	conv.Append(types.NewMessage(sender, text))

	raw, failed := p.respond(ctx, sess, conv)

	var response types.Response
	if !failed && workflow.SupportsUI(conv.WorkflowName) {
		clean, elements := extract.Extract(raw)
		if len(elements) > 0 {
			// Persist the clean text; raw markers never reach the log.
			conv.Append(types.NewAgentMessage(p.agentName, clean))
			response = types.NewMessageWithUI(clean, elements)
		}
	}
	if response == nil {
		conv.Append(types.NewAgentMessage(p.agentName, raw))
		response = types.PlainMessage{Content: raw}
	}

	conv.State.ContextWindow = p.builder.Window(conv)

	elapsed := time.Since(start)
	sess.RecordTurn(elapsed, failed)
	if p.collector != nil {
		p.collector.RecordTurn(conv.WorkflowName, elapsed, failed)
	}

	p.logger.Debug("turn processed",
		zap.String("session_id", sess.ID),
		zap.String("sender", string(sender)),
		zap.Bool("fallback", failed),
		zap.Duration("elapsed", elapsed),
	)
	return response, nil
}

// respond produces the raw agent text for the current turn, consulting the
// response cache for agent-initiated workflow triggers and falling back to
// FallbackResponse when the runtime errors.
func (p *Processor) respond(ctx context.Context, sess *session.Session, conv *types.Conversation) (string, bool) {
	cacheable := p.cache != nil && workflow.IsWarmable(conv.WorkflowName) && sess.DataAgent != nil

	var universeID string
	if cacheable {
		universeID = sess.DataAgent.Universe().ID
		if cached, ok, err := p.cache.GetResponse(ctx, universeID, conv.WorkflowName); err == nil && ok {
			if p.collector != nil {
				p.collector.RecordCacheLookup(true)
			}
			return cached, false
		} else if err != nil {
			p.logger.Warn("response cache lookup failed", zap.Error(err))
		} else if p.collector != nil {
			p.collector.RecordCacheLookup(false)
		}
	}

	req := &agent.Request{
		Context:    p.builder.Build(conv),
		MerchantID: conv.MerchantName,
		ScenarioID: conv.ScenarioName,
		WorkflowID: conv.WorkflowName,
	}
	if sess.DataAgent != nil {
		req.Tools = sess.DataAgent.Tools()
	}

	raw, err := p.runtime.Respond(ctx, req)
	if err != nil {
		p.logger.Error("agent runtime failed, returning fallback",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return FallbackResponse, true
	}

	if cacheable && raw != "" {
		if err := p.cache.SetResponse(ctx, universeID, conv.WorkflowName, raw); err != nil {
			p.logger.Warn("failed to populate response cache", zap.Error(err))
		}
	}
	return raw, false
}
