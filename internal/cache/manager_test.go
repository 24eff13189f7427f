package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirecj/agentsim/config"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	manager, err := NewManager(config.RedisConfig{
		Addr:       mr.Addr(),
		DefaultTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return mr, manager
}

func TestManager_MissThenHit(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	_, ok, err := manager.GetResponse(ctx, "acme_growth", "daily_briefing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, manager.SetResponse(ctx, "acme_growth", "daily_briefing", "Good morning!"))

	val, ok, err := manager.GetResponse(ctx, "acme_growth", "daily_briefing")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Good morning!", val)
}

func TestManager_KeysAreScopedPerPair(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.SetResponse(ctx, "acme_growth", "daily_briefing", "daily"))
	require.NoError(t, manager.SetResponse(ctx, "acme_growth", "weekly_review", "weekly"))

	val, ok, err := manager.GetResponse(ctx, "acme_growth", "weekly_review")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "weekly", val)
}

func TestManager_EntriesExpire(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.SetResponse(ctx, "acme_growth", "daily_briefing", "stale soon"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := manager.GetResponse(ctx, "acme_growth", "daily_briefing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewManager_UnreachableRedisFails(t *testing.T) {
	_, err := NewManager(config.RedisConfig{Addr: "localhost:1"}, zap.NewNop())
	assert.Error(t, err)
}
