// Package workflow exposes the workflow catalog and the fixed eligibility
// allow-lists the orchestration core keys decisions on.
package workflow

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Agent-initiated workflows eligible for cache warming. The warming service
// only pre-drives conversations the agent opens on its own.
const (
	DailyBriefing = "daily_briefing"
	WeeklyReview  = "weekly_review"
)

// ShopifyOnboarding is the single workflow whose responses may carry
// structured UI elements.
const ShopifyOnboarding = "shopify_onboarding"

var warmable = map[string]bool{
	DailyBriefing: true,
	WeeklyReview:  true,
}

var uiEnabled = map[string]bool{
	ShopifyOnboarding: true,
}

// IsWarmable reports whether a workflow is agent-initiated and therefore
// eligible for cache warming.
func IsWarmable(id string) bool {
	return warmable[id]
}

// SupportsUI reports whether responses in this workflow may carry
// structured UI elements.
func SupportsUI(id string) bool {
	return uiEnabled[id]
}

// Registry is the sole authority on which workflow ids exist.
type Registry interface {
	List(ctx context.Context) ([]string, error)
}

// FileRegistry lists workflows from a directory of YAML definitions. The
// definitions themselves are loaded elsewhere; the core only needs the ids.
type FileRegistry struct {
	dir    string
	logger *zap.Logger
}

// NewFileRegistry creates a registry over a workflow definition directory.
func NewFileRegistry(dir string, logger *zap.Logger) *FileRegistry {
	return &FileRegistry{
		dir:    dir,
		logger: logger.With(zap.String("component", "workflow")),
	}
}

// List returns every workflow id found in the directory, sorted. A missing
// directory yields an empty catalog.
func (r *FileRegistry) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(ids)
	return ids, nil
}

// StaticRegistry serves a fixed id list; used by tests and warming dry runs.
type StaticRegistry struct {
	IDs []string
}

// List implements Registry.
func (r *StaticRegistry) List(_ context.Context) ([]string, error) {
	return r.IDs, nil
}
