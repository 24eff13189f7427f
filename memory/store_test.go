package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirecj/agentsim/types"
)

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)
	return store, dir
}

func TestStore_LoadAbsentIsEmptyMemory(t *testing.T) {
	t.Parallel()
	store, _ := setupStore(t)

	mem, err := store.Load("acme")
	require.NoError(t, err)
	require.NotNil(t, mem)
	assert.Equal(t, "acme", mem.MerchantID)
	assert.Empty(t, mem.Facts)
}

func TestStore_SaveAndReload(t *testing.T) {
	t.Parallel()
	store, _ := setupStore(t)

	mem, err := store.Load("acme")
	require.NoError(t, err)
	mem.AddFact("prefers weekly summaries", "conv-1")
	mem.AddFact("ships from two warehouses", "conv-2")
	require.NoError(t, store.Save(mem))

	reloaded, err := store.Load("acme")
	require.NoError(t, err)
	require.Len(t, reloaded.Facts, 2)
	assert.Equal(t, "prefers weekly summaries", reloaded.Facts[0].Text)
	assert.Equal(t, "conv-2", reloaded.Facts[1].Source)
}

func TestStore_CorruptFileIsError(t *testing.T) {
	t.Parallel()
	store, dir := setupStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.json"), []byte("{not json"), 0644))

	mem, err := store.Load("acme")
	require.Error(t, err)
	assert.Nil(t, mem)
	assert.True(t, types.IsCode(err, types.ErrMemoryCorrupt))
}

func TestStore_RejectsBadMerchantID(t *testing.T) {
	t.Parallel()
	store, _ := setupStore(t)

	_, err := store.Load("../escape")
	assert.Error(t, err)

	_, err = store.Load("")
	assert.Error(t, err)
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()
	store, dir := setupStore(t)

	mem := &MerchantMemory{MerchantID: "acme"}
	mem.AddFact("fact", "")
	require.NoError(t, store.Save(mem))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme.json", entries[0].Name())
}
