package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hirecj/agentsim/memory"
	"github.com/hirecj/agentsim/types"
	"github.com/hirecj/agentsim/universe"
)

// Store is the single writer of Session objects. The map is guarded so
// operations on different sessions may run in parallel; mutation of one
// session's conversation is serialized by the caller, not here.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	universes universe.Source
	memories  *memory.Store
	logger    *zap.Logger
}

// NewStore creates an empty session registry. universes and memories may be
// nil in tests; a nil universe source behaves as an empty catalog.
func NewStore(universes universe.Source, memories *memory.Store, logger *zap.Logger) *Store {
	return &Store{
		sessions:  make(map[string]*Session),
		universes: universes,
		memories:  memories,
		logger:    logger.With(zap.String("component", "session_store")),
	}
}

// Create allocates a fresh session with a new conversation. The business
// data universe for (merchant, scenario) is attached when it exists; an
// absent universe is tolerated and the session proceeds without a data
// agent. Any other attachment failure aborts creation.
func (s *Store) Create(ctx context.Context, merchant, scenario, workflow string) (*Session, error) {
	id := uuid.NewString()
	sess := &Session{
		ID:           id,
		Conversation: types.NewConversation(uuid.NewString(), merchant, scenario, workflow),
		Active:       true,
	}

	if s.universes != nil {
		u, err := s.universes.Load(ctx, universeID(merchant, scenario))
		if err != nil {
			return nil, types.NewError(types.ErrSessionCreation, "failed to load universe").WithCause(err)
		}
		if u == nil {
			s.logger.Warn("no universe for session, proceeding without data agent",
				zap.String("merchant", merchant),
				zap.String("scenario", scenario),
			)
		} else {
			sess.DataAgent = universe.NewDataAgent(u)
		}
	}

	if s.memories != nil {
		mem, err := s.memories.Load(merchant)
		if err != nil {
			// Corrupt or unreadable memory is a real error, not an absence.
			return nil, types.NewError(types.ErrSessionCreation, "failed to load merchant memory").WithCause(err)
		}
		sess.Memory = mem
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("merchant", merchant),
		zap.String("scenario", scenario),
		zap.String("workflow", workflow),
		zap.Bool("has_data_agent", sess.DataAgent != nil),
	)
	return sess, nil
}

// Get returns the session for id, or nil when unknown.
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Suspend marks a session inactive. Returns false for an unknown id.
func (s *Store) Suspend(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Active = false
	return true
}

// Resume reactivates a suspended session. Returns false for an unknown id.
func (s *Store) Resume(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Active = true
	return true
}

// End removes the session from the registry and returns it, or nil when the
// id is unknown. A second End for the same id is a no-op returning nil.
func (s *Store) End(id string) *Session {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	sess.Active = false
	s.logger.Info("session ended",
		zap.String("session_id", id),
		zap.Int("messages", sess.Metrics.Messages),
		zap.Int("errors", sess.Metrics.Errors),
	)
	return sess
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// universeID derives the catalog key for a (merchant, scenario) pair.
func universeID(merchant, scenario string) string {
	return fmt.Sprintf("%s_%s", merchant, scenario)
}
