package window

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirecj/agentsim/config"
	"github.com/hirecj/agentsim/types"
)

// --- mocks ---

type mockCounter struct{}

func (mockCounter) CountTokens(text string) int { return len(text) / 4 }

// --- helpers ---

func conv(contents ...string) *types.Conversation {
	c := types.NewConversation("conv-1", "acme", "growth", "")
	for i, content := range contents {
		sender := types.SenderMerchant
		if i%2 == 1 {
			sender = types.SenderCJ
		}
		c.Append(types.NewMessage(sender, content))
	}
	return c
}

func TestBuilder_EmptyLogReturnsSentinel(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.WindowConfig{MaxMessages: 10}, nil)
	assert.Equal(t, EmptyContext, b.Build(conv()))
}

func TestBuilder_ShortLogReturnsFullLog(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.WindowConfig{MaxMessages: 10}, nil)

	out := b.Build(conv("hello", "hi there"))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "MERCHANT: hello", lines[0])
	assert.Equal(t, "CJ: hi there", lines[1])
}

func TestBuilder_LongLogKeepsLastW(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.WindowConfig{MaxMessages: 3}, nil)

	contents := make([]string, 8)
	for i := range contents {
		contents[i] = fmt.Sprintf("m%d", i+1)
	}

	out := b.Build(conv(contents...))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	// Newest last.
	assert.Contains(t, lines[0], "m6")
	assert.Contains(t, lines[2], "m8")
}

func TestBuilder_NeverReturnsMoreThanW(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.WindowConfig{MaxMessages: 5}, nil)

	for n := 0; n < 12; n++ {
		contents := make([]string, n)
		for i := range contents {
			contents[i] = fmt.Sprintf("m%d", i)
		}
		c := conv(contents...)

		want := n
		if want > 5 {
			want = 5
		}
		assert.Len(t, b.Window(c), want, "log length %d", n)
	}
}

func TestBuilder_DoesNotMutateConversation(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.WindowConfig{MaxMessages: 2}, nil)

	c := conv("m1", "m2", "m3", "m4")
	before := c.Len()
	_ = b.Build(c)
	_ = b.Window(c)
	assert.Equal(t, before, c.Len())
	assert.Equal(t, "m1", c.Messages[0].Content)
}

func TestBuilder_TokenBudgetTrimsOldestFirst(t *testing.T) {
	t.Parallel()
	// Each "MERCHANT: xxxx..." line is ~4+ tokens with the len/4 counter;
	// budget of 12 fits roughly two lines.
	b := NewBuilder(config.WindowConfig{MaxMessages: 10, MaxTokens: 12}, mockCounter{})

	c := conv(
		strings.Repeat("a", 20),
		strings.Repeat("b", 20),
		strings.Repeat("c", 20),
		strings.Repeat("d", 20),
	)

	msgs := b.Window(c)
	require.NotEmpty(t, msgs)
	assert.Less(t, len(msgs), 4)
	// Newest message always survives.
	assert.Equal(t, strings.Repeat("d", 20), msgs[len(msgs)-1].Content)
}

func TestBuilder_ZeroWindowFallsBackToDefault(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.WindowConfig{}, nil)

	contents := make([]string, 15)
	for i := range contents {
		contents[i] = fmt.Sprintf("m%d", i)
	}
	assert.Len(t, b.Window(conv(contents...)), config.DefaultWindowConfig().MaxMessages)
}
