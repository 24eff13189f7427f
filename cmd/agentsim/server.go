package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hirecj/agentsim/agent"
	"github.com/hirecj/agentsim/agent/window"
	"github.com/hirecj/agentsim/api"
	"github.com/hirecj/agentsim/archive"
	"github.com/hirecj/agentsim/bridge"
	"github.com/hirecj/agentsim/config"
	"github.com/hirecj/agentsim/internal/cache"
	"github.com/hirecj/agentsim/internal/metrics"
	"github.com/hirecj/agentsim/memory"
	"github.com/hirecj/agentsim/processor"
	"github.com/hirecj/agentsim/session"
	"github.com/hirecj/agentsim/universe"
	"github.com/hirecj/agentsim/warming"
	"github.com/hirecj/agentsim/workflow"
)

// Server owns the wired component graph and the HTTP listener.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	collector *metrics.Collector
	cache     *cache.Manager
	archive   *archive.Archive
	sessions  *session.Store
	processor *processor.Processor
	warmer    *warming.Warmer

	httpServer    *http.Server
	warmingCancel context.CancelFunc
	serveErr      chan error
}

// NewServer creates an unstarted server.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		serveErr: make(chan error, 1),
	}
}

// Start wires the components and begins listening. It returns once the
// listener is up; cache warming continues in the background.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("agentsim", s.logger)

	if s.cfg.Redis.Enabled {
		mgr, err := cache.NewManager(s.cfg.Redis, s.logger)
		if err != nil {
			s.logger.Warn("Redis unavailable, response cache disabled", zap.Error(err))
		} else {
			s.cache = mgr
		}
	}

	if s.cfg.Archive.Enabled {
		arc, err := archive.Open(s.cfg.Archive.Path, s.logger)
		if err != nil {
			s.logger.Warn("Archive unavailable, transcripts will not be persisted", zap.Error(err))
		} else {
			s.archive = arc
		}
	}

	universes := universe.NewFileSource(s.cfg.Data.UniverseDir, s.logger)
	workflows := workflow.NewFileRegistry(s.cfg.Data.WorkflowDir, s.logger)

	var memories *memory.Store
	if s.cfg.Data.MemoryDir != "" {
		store, err := memory.NewStore(s.cfg.Data.MemoryDir, s.logger)
		if err != nil {
			s.logger.Warn("Merchant memory unavailable", zap.Error(err))
		} else {
			memories = store
		}
	}

	s.sessions = session.NewStore(universes, memories, s.logger)

	var counter window.TokenCounter
	if s.cfg.Window.MaxTokens > 0 {
		tc, err := window.NewTiktokenCounter(s.cfg.Window.TokenModel)
		if err != nil {
			s.logger.Warn("Tokenizer unavailable, window falls back to message count only", zap.Error(err))
		} else {
			counter = tc
		}
	}
	builder := window.NewBuilder(s.cfg.Window, counter)

	runtime := s.buildRuntime()
	s.processor = processor.New(runtime, builder, s.cfg.Agent.Name, s.cache, s.collector, s.logger)

	if s.cfg.Warming.Enabled && s.cache != nil {
		s.warmer = warming.New(s.cfg.Warming, s.sessions, s.processor, universes, workflows, s.collector, s.logger)
		ctx, cancel := context.WithCancel(context.Background())
		s.warmingCancel = cancel
		s.warmer.Start(ctx)
	} else if s.cfg.Warming.Enabled {
		s.logger.Info("Cache warming skipped, no cache backend")
	}

	return s.startHTTPServer()
}

// buildRuntime selects the agent runtime. Without an endpoint the server
// still comes up so the playground can exercise the transport path.
func (s *Server) buildRuntime() agent.Runtime {
	if s.cfg.Agent.Endpoint != "" {
		s.logger.Info("Using HTTP agent runtime", zap.String("endpoint", s.cfg.Agent.Endpoint))
		return agent.NewHTTPRuntime(s.cfg.Agent.Endpoint, s.cfg.Agent.Timeout)
	}
	s.logger.Warn("Agent endpoint not configured, serving canned responses")
	return agent.RuntimeFunc(func(_ context.Context, req *agent.Request) (string, error) {
		return fmt.Sprintf("Hi, I'm %s. The agent runtime is not connected yet, so I can't look at %s's data right now.",
			s.cfg.Agent.Name, req.MerchantID), nil
	})
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.Handle("/ws/chat", api.NewChatHandler(s.sessions, s.processor, s.archive, s.logger).WithCollector(s.collector))
	mux.Handle("/ws/playground", bridge.NewHandler(s.cfg.Server.UpstreamURL, s.cfg.Server.AllowedOrigin, s.logger))
	mux.Handle("/metrics", s.collector.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","active_sessions":%d}`, s.sessions.Count())
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":%q,"build_time":%q,"git_commit":%q}`, Version, BuildTime, GitCommit)
	})

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		Handler:     mux,
		ReadTimeout: s.cfg.Server.ReadTimeout,
		// WriteTimeout stays unset: the WebSocket endpoints hold
		// connections open for the life of a conversation.
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.serveErr <- err
		}
	}()

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM or a listener failure, then
// shuts everything down.
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		s.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-s.serveErr:
		s.logger.Error("HTTP server failed", zap.Error(err))
	}

	s.Shutdown()
}

// Shutdown stops the listener, cancels background warming, and releases
// storage handles.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	if s.warmingCancel != nil {
		s.warmingCancel()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Cache close error", zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Error("Archive close error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
