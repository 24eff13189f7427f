// Package session owns the registry of live conversation sessions and the
// auxiliary per-session resources attached at creation time.
package session

import (
	"time"

	"github.com/hirecj/agentsim/memory"
	"github.com/hirecj/agentsim/types"
	"github.com/hirecj/agentsim/universe"
)

// Metrics accumulates per-session turn statistics. The Message Processor is
// the only writer after creation.
type Metrics struct {
	Messages          int           `json:"messages"`
	Errors            int           `json:"errors"`
	TotalResponseTime time.Duration `json:"total_response_time"`
	LastActivity      time.Time     `json:"last_activity"`
}

// Session is the runtime handle wrapping one Conversation plus its
// auxiliary resources. Sessions are created and removed exclusively by the
// Store; other components receive references through it.
//
// A Session is not internally synchronized: correctness relies on the
// transport layer issuing at most one in-flight turn per session.
type Session struct {
	ID           string
	Conversation *types.Conversation
	DataAgent    *universe.DataAgent
	Memory       *memory.MerchantMemory
	Active       bool
	Metrics      Metrics
}

// RecordTurn updates metrics after a completed process() call.
func (s *Session) RecordTurn(elapsed time.Duration, failed bool) {
	s.Metrics.Messages++
	s.Metrics.TotalResponseTime += elapsed
	s.Metrics.LastActivity = time.Now()
	if failed {
		s.Metrics.Errors++
	}
}
