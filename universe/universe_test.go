package universe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleUniverse = `
id: acme_growth
merchant_name: acme
scenario_name: steady_growth
metrics:
  mrr: 48200.50
  subscribers: 1290
  churn_rate: 0.055
  csat_score: 4.4
  support_tickets: 23
customers:
  - id: cust_1
    name: Jordan Blake
    email: jordan@example.com
    segment: vip
tickets:
  - id: tkt_1
    subject: Where is my order?
    status: open
`

func setupSource(t *testing.T) (*FileSource, string) {
	t.Helper()
	dir := t.TempDir()
	return NewFileSource(dir, zap.NewNop()), dir
}

func writeUniverse(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0644))
}

func TestFileSource_LoadExisting(t *testing.T) {
	t.Parallel()
	src, dir := setupSource(t)
	writeUniverse(t, dir, "acme_growth", sampleUniverse)

	u, err := src.Load(context.Background(), "acme_growth")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "acme", u.MerchantName)
	assert.Equal(t, 1290, u.Metrics.Subscribers)
	assert.Len(t, u.Customers, 1)
}

func TestFileSource_LoadAbsentIsNilNil(t *testing.T) {
	t.Parallel()
	src, _ := setupSource(t)

	u, err := src.Load(context.Background(), "no_such_universe")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestFileSource_LoadCorruptIsError(t *testing.T) {
	t.Parallel()
	src, dir := setupSource(t)
	writeUniverse(t, dir, "broken", "metrics: [not: a mapping")

	u, err := src.Load(context.Background(), "broken")
	assert.Error(t, err)
	assert.Nil(t, u)
}

func TestFileSource_LoadRejectsPathTraversal(t *testing.T) {
	t.Parallel()
	src, _ := setupSource(t)

	_, err := src.Load(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

func TestFileSource_ListSorted(t *testing.T) {
	t.Parallel()
	src, dir := setupSource(t)
	writeUniverse(t, dir, "zeta", sampleUniverse)
	writeUniverse(t, dir, "acme", sampleUniverse)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644))

	ids, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "zeta"}, ids)
}

func TestFileSource_ListMissingDirIsEmpty(t *testing.T) {
	t.Parallel()
	src := NewFileSource("/nonexistent/universes", zap.NewNop())

	ids, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDataAgent_ToolsAndSnapshot(t *testing.T) {
	t.Parallel()
	src, dir := setupSource(t)
	writeUniverse(t, dir, "acme_growth", sampleUniverse)

	u, err := src.Load(context.Background(), "acme_growth")
	require.NoError(t, err)

	da := NewDataAgent(u)
	toolNames := make([]string, 0, 3)
	for _, tool := range da.Tools() {
		toolNames = append(toolNames, tool.Name)
	}
	assert.Contains(t, toolNames, "get_business_metrics")
	assert.Contains(t, toolNames, "lookup_customer")
	assert.Contains(t, toolNames, "search_tickets")

	snap := da.Snapshot()
	assert.Contains(t, snap, "acme")
	assert.Contains(t, snap, "1290")
}
