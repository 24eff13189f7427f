// Package universe loads pre-generated, immutable business-data snapshots
// ("universes") that back a simulated merchant.
package universe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Universe is a snapshot of one merchant's simulated business data.
// Universes are read-only after load.
type Universe struct {
	ID           string         `yaml:"id"`
	MerchantName string         `yaml:"merchant_name"`
	ScenarioName string         `yaml:"scenario_name"`
	Metrics      Metrics        `yaml:"metrics"`
	Customers    []Customer     `yaml:"customers,omitempty"`
	Orders       []Order        `yaml:"orders,omitempty"`
	Tickets      []Ticket       `yaml:"tickets,omitempty"`
	Metadata     map[string]any `yaml:"metadata,omitempty"`
}

// Metrics holds headline business numbers for the snapshot period.
type Metrics struct {
	MRR            float64 `yaml:"mrr"`
	Subscribers    int     `yaml:"subscribers"`
	ChurnRate      float64 `yaml:"churn_rate"`
	CSATScore      float64 `yaml:"csat_score"`
	SupportTickets int     `yaml:"support_tickets"`
	AverageOrder   float64 `yaml:"average_order"`
}

// Customer is one simulated customer record.
type Customer struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Segment  string `yaml:"segment,omitempty"`
	Lifetime int    `yaml:"lifetime_months,omitempty"`
}

// Order is one simulated order record.
type Order struct {
	ID         string  `yaml:"id"`
	CustomerID string  `yaml:"customer_id"`
	Total      float64 `yaml:"total"`
	Status     string  `yaml:"status"`
}

// Ticket is one simulated support ticket.
type Ticket struct {
	ID       string `yaml:"id"`
	Subject  string `yaml:"subject"`
	Status   string `yaml:"status"`
	Category string `yaml:"category,omitempty"`
}

// Source exposes the universe catalog. A missing universe is a recoverable
// signal reported as (nil, nil), not an error.
type Source interface {
	Load(ctx context.Context, id string) (*Universe, error)
	List(ctx context.Context) ([]string, error)
}

// FileSource reads universes from <dir>/<id>.yaml.
type FileSource struct {
	dir    string
	logger *zap.Logger
}

// NewFileSource creates a universe source over a directory of YAML files.
func NewFileSource(dir string, logger *zap.Logger) *FileSource {
	return &FileSource{
		dir:    dir,
		logger: logger.With(zap.String("component", "universe")),
	}
}

// Load reads one universe by id. Returns (nil, nil) when the file does not
// exist; corrupt YAML or I/O failures are real errors.
func (s *FileSource) Load(_ context.Context, id string) (*Universe, error) {
	if strings.ContainsAny(id, "/\\") {
		return nil, fmt.Errorf("invalid universe id %q", id)
	}

	path := filepath.Join(s.dir, id+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Debug("universe not found", zap.String("universe_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read universe %s: %w", id, err)
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe %s: %w", id, err)
	}
	if u.ID == "" {
		u.ID = id
	}
	return &u, nil
}

// List returns every universe id found in the directory, sorted. A missing
// directory yields an empty catalog.
func (s *FileSource) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list universes: %w", err)
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
