package bridge

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Handler accepts playground WebSocket connections and relays them onto the
// production conversation endpoint. Each connection gets its own relay with
// two pump goroutines; when either leg closes or errors, both are torn down
// so neither side is left half-open.
type Handler struct {
	upstreamURL   string
	allowedOrigin string
	logger        *zap.Logger
}

// NewHandler creates a bridge handler relaying to upstreamURL.
func NewHandler(upstreamURL, allowedOrigin string, logger *zap.Logger) *Handler {
	return &Handler{
		upstreamURL:   upstreamURL,
		allowedOrigin: allowedOrigin,
		logger:        logger.With(zap.String("component", "bridge")),
	}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.allowedOrigin == "*" {
		opts.InsecureSkipVerify = true
	} else if h.allowedOrigin != "" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	client, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Error("failed to accept playground connection", zap.Error(err))
		return
	}
	defer client.Close(websocket.StatusNormalClosure, "relay ended")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// If the production side is unreachable the client gets one descriptive
	// error frame and the connection closes, never a silent drop.
	upstream, _, err := websocket.Dial(ctx, h.upstreamURL, nil)
	if err != nil {
		h.logger.Error("upstream unavailable at bridge open",
			zap.String("upstream_url", h.upstreamURL),
			zap.Error(err),
		)
		_ = client.Write(ctx, websocket.MessageText,
			errorFrame("conversation service is unavailable, please retry shortly"))
		client.Close(websocket.StatusGoingAway, "upstream unavailable")
		return
	}
	defer upstream.Close(websocket.StatusNormalClosure, "relay ended")

	h.logger.Info("relay opened", zap.String("remote", r.RemoteAddr))

	var wg sync.WaitGroup
	wg.Add(2)

	// Client -> upstream: validate and transform.
	go func() {
		defer wg.Done()
		defer cancel()
		h.clientLoop(ctx, client, upstream)
	}()

	// Upstream -> client: verbatim.
	go func() {
		defer wg.Done()
		defer cancel()
		h.upstreamLoop(ctx, client, upstream)
	}()

	wg.Wait()
	h.logger.Info("relay closed", zap.String("remote", r.RemoteAddr))
}

// clientLoop pumps inbound client frames through validation. Rejected
// frames produce an error frame and keep the connection open; only relay
// transport failures end the loop.
func (h *Handler) clientLoop(ctx context.Context, client, upstream *websocket.Conn) {
	state := &relayState{}
	for {
		_, raw, err := client.Read(ctx)
		if err != nil {
			h.logDisconnect("client", err)
			return
		}

		frames, verr := state.transform(raw)
		if verr != nil {
			h.logger.Debug("frame rejected",
				zap.String("code", string(verr.Code)),
				zap.String("reason", verr.Message),
			)
			if err := client.Write(ctx, websocket.MessageText, errorFrame(verr.Message)); err != nil {
				return
			}
			continue
		}

		for _, frame := range frames {
			if err := upstream.Write(ctx, websocket.MessageText, frame); err != nil {
				h.logDisconnect("upstream", err)
				_ = client.Write(ctx, websocket.MessageText,
					errorFrame("lost connection to conversation service"))
				return
			}
		}
	}
}

// upstreamLoop forwards production frames to the client unchanged.
func (h *Handler) upstreamLoop(ctx context.Context, client, upstream *websocket.Conn) {
	for {
		_, raw, err := upstream.Read(ctx)
		if err != nil {
			h.logDisconnect("upstream", err)
			return
		}
		if err := client.Write(ctx, websocket.MessageText, raw); err != nil {
			h.logDisconnect("client", err)
			return
		}
	}
}

func (h *Handler) logDisconnect(side string, err error) {
	if websocket.CloseStatus(err) != -1 {
		h.logger.Debug("leg closed", zap.String("side", side))
	} else {
		h.logger.Warn("leg errored", zap.String("side", side), zap.Error(err))
	}
}
