// Package memory persists per-merchant fact logs across conversations.
// Memories are append-only: facts are added, never edited or removed.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hirecj/agentsim/types"
)

// Fact is one remembered statement about a merchant.
type Fact struct {
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"` // conversation id that produced it
	LearnedAt time.Time `json:"learned_at"`
}

// MerchantMemory is the durable fact log for one merchant.
type MerchantMemory struct {
	MerchantID string    `json:"merchant_id"`
	Facts      []Fact    `json:"facts"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AddFact appends a fact to the log.
func (m *MerchantMemory) AddFact(text, source string) {
	m.Facts = append(m.Facts, Fact{
		Text:      text,
		Source:    source,
		LearnedAt: time.Now(),
	})
	m.UpdatedAt = time.Now()
}

// Store reads and writes merchant memories under a base directory, one
// JSON file per merchant.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a memory store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With(zap.String("component", "memory")),
	}, nil
}

// Load returns the memory for a merchant. An absent file yields an empty
// memory; a corrupt file or I/O failure is a real error and propagates.
func (s *Store) Load(merchantID string) (*MerchantMemory, error) {
	path, err := s.path(merchantID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &MerchantMemory{MerchantID: merchantID}, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrStorageIO, "failed to read merchant memory").WithCause(err)
	}

	var mem MerchantMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		return nil, types.NewError(types.ErrMemoryCorrupt,
			fmt.Sprintf("corrupt memory file for merchant %s", merchantID)).WithCause(err)
	}
	if mem.MerchantID == "" {
		mem.MerchantID = merchantID
	}
	return &mem, nil
}

// Save writes the memory atomically (temp file + rename) so a crash mid-write
// never leaves a truncated file behind.
func (s *Store) Save(mem *MerchantMemory) error {
	path, err := s.path(mem.MerchantID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return types.NewError(types.ErrStorageIO, "failed to encode merchant memory").WithCause(err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return types.NewError(types.ErrStorageIO, "failed to write merchant memory").WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return types.NewError(types.ErrStorageIO, "failed to replace merchant memory").WithCause(err)
	}

	s.logger.Debug("merchant memory saved",
		zap.String("merchant_id", mem.MerchantID),
		zap.Int("facts", len(mem.Facts)),
	)
	return nil
}

func (s *Store) path(merchantID string) (string, error) {
	if merchantID == "" || strings.ContainsAny(merchantID, "/\\") {
		return "", fmt.Errorf("invalid merchant id %q", merchantID)
	}
	return filepath.Join(s.dir, merchantID+".json"), nil
}
