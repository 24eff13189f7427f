// Package api hosts the production conversation transport: a WebSocket
// endpoint speaking the start_conversation / message / end_conversation
// protocol over the session store and message processor.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/hirecj/agentsim/archive"
	"github.com/hirecj/agentsim/internal/metrics"
	"github.com/hirecj/agentsim/processor"
	"github.com/hirecj/agentsim/session"
	"github.com/hirecj/agentsim/types"
)

// Inbound production frame envelope. One connection drives at most one
// conversation; the read loop serializes turns, which is what upholds the
// single-in-flight-turn-per-session invariant.
type chatFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// ConversationID is accepted for wire compatibility; the connection
	// already pins the conversation, so it is informational only.
	ConversationID string `json:"conversation_id,omitempty"`
	Data           struct {
		ShopSubdomain string `json:"shop_subdomain,omitempty"`
		MerchantID    string `json:"merchant_id,omitempty"`
		Scenario      string `json:"scenario,omitempty"`
		Workflow      string `json:"workflow,omitempty"`
		Reason        string `json:"reason,omitempty"`
	} `json:"data,omitempty"`
}

// cjMessage is the outbound agent response frame.
type cjMessage struct {
	Type string `json:"type"`
	Data struct {
		Content    string            `json:"content"`
		UIElements []types.UIElement `json:"ui_elements,omitempty"`
	} `json:"data"`
}

type conversationStarted struct {
	Type string `json:"type"`
	Data struct {
		ConversationID string `json:"conversation_id"`
	} `json:"data"`
}

type errorFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ChatHandler serves the production conversation WebSocket.
type ChatHandler struct {
	sessions  *session.Store
	processor *processor.Processor
	archive   *archive.Archive   // optional
	collector *metrics.Collector // optional
	logger    *zap.Logger
}

// NewChatHandler creates the conversation endpoint handler. arc may be nil,
// which disables transcript archiving.
func NewChatHandler(sessions *session.Store, proc *processor.Processor, arc *archive.Archive, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		sessions:  sessions,
		processor: proc,
		archive:   arc,
		logger:    logger.With(zap.String("component", "chat")),
	}
}

// WithCollector attaches the metrics collector so the handler can keep the
// active-sessions gauge current.
func (h *ChatHandler) WithCollector(c *metrics.Collector) *ChatHandler {
	h.collector = c
	return h
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Error("failed to accept chat connection", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "conversation ended")

	ctx := r.Context()
	var sessionID string
	defer func() {
		// Connection teardown ends a conversation the client left open.
		if sessionID != "" {
			h.endSession(sessionID)
		}
	}()

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var frame chatFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.writeError(ctx, conn, "frame is not valid JSON")
			continue
		}

		switch frame.Type {
		case "start_conversation":
			sessionID = h.handleStart(ctx, conn, &frame, sessionID)
		case "message":
			h.handleMessage(ctx, conn, &frame, sessionID)
		case "end_conversation":
			if sessionID != "" {
				h.endSession(sessionID)
				sessionID = ""
			}
		case "ping":
			_ = h.writeJSON(ctx, conn, map[string]string{"type": "pong"})
		case "fact_check":
			// Knowledge grounding is served elsewhere; acknowledge so the
			// playground UI does not stall.
			_ = h.writeJSON(ctx, conn, map[string]string{"type": "fact_check_queued"})
		default:
			h.writeError(ctx, conn, "unknown message type "+frame.Type)
		}
	}
}

func (h *ChatHandler) handleStart(ctx context.Context, conn *websocket.Conn, frame *chatFrame, current string) string {
	if current != "" {
		h.endSession(current)
	}

	merchant := frame.Data.ShopSubdomain
	if merchant == "" {
		merchant = frame.Data.MerchantID
	}
	if merchant == "" || frame.Data.Scenario == "" {
		h.writeError(ctx, conn, "start_conversation requires shop_subdomain and scenario")
		return ""
	}

	sess, err := h.sessions.Create(ctx, merchant, frame.Data.Scenario, frame.Data.Workflow)
	if err != nil {
		h.logger.Error("session creation failed", zap.Error(err))
		h.writeError(ctx, conn, "could not start conversation")
		return ""
	}

	if h.collector != nil {
		h.collector.SetActiveSessions(h.sessions.Count())
	}

	var started conversationStarted
	started.Type = "conversation_started"
	started.Data.ConversationID = sess.Conversation.ID
	_ = h.writeJSON(ctx, conn, started)
	return sess.ID
}

func (h *ChatHandler) handleMessage(ctx context.Context, conn *websocket.Conn, frame *chatFrame, sessionID string) {
	if sessionID == "" {
		h.writeError(ctx, conn, "no active conversation")
		return
	}
	sess := h.sessions.Get(sessionID)
	if sess == nil {
		h.writeError(ctx, conn, "conversation no longer exists")
		return
	}
	if frame.Text == "" {
		h.writeError(ctx, conn, "message requires text")
		return
	}

	resp, err := h.processor.Process(ctx, sess, frame.Text, types.SenderMerchant)
	if err != nil {
		h.logger.Error("turn processing failed", zap.Error(err))
		h.writeError(ctx, conn, "could not process message")
		return
	}

	var out cjMessage
	out.Type = "cj_message"
	out.Data.Content = resp.ResponseContent()
	if structured, ok := resp.(types.MessageWithUI); ok {
		out.Data.UIElements = structured.UIElements
	}
	_ = h.writeJSON(ctx, conn, out)
}

func (h *ChatHandler) endSession(id string) {
	sess := h.sessions.End(id)
	if sess == nil {
		return
	}
	if h.collector != nil {
		h.collector.SetActiveSessions(h.sessions.Count())
	}
	if h.archive == nil {
		return
	}
	if err := h.archive.SaveTranscript(sess); err != nil {
		h.logger.Error("failed to archive transcript",
			zap.String("session_id", id),
			zap.Error(err),
		)
	}
}

func (h *ChatHandler) writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func (h *ChatHandler) writeError(ctx context.Context, conn *websocket.Conn, text string) {
	data, _ := json.Marshal(errorFrame{Type: "error", Text: text})
	_ = conn.Write(ctx, websocket.MessageText, data)
}
