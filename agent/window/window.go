// Package window derives the bounded model context from a conversation's
// full message history.
package window

import (
	"strings"

	"github.com/hirecj/agentsim/config"
	"github.com/hirecj/agentsim/types"
)

// EmptyContext is returned when the conversation has no history yet.
const EmptyContext = "No previous messages."

// TokenCounter counts tokens in a string. Implementations live next to the
// tokenizer they wrap; nil counters disable the token cap.
type TokenCounter interface {
	CountTokens(text string) int
}

// Builder formats the most recent slice of a conversation for inclusion in
// an agent runtime request. A Builder is stateless and safe for concurrent
// use across sessions.
type Builder struct {
	cfg     config.WindowConfig
	counter TokenCounter
}

// NewBuilder creates a Builder. counter may be nil, which disables the
// optional token-budget cap.
func NewBuilder(cfg config.WindowConfig, counter TokenCounter) *Builder {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = config.DefaultWindowConfig().MaxMessages
	}
	return &Builder{cfg: cfg, counter: counter}
}

// Window returns the context window for the conversation: the suffix of the
// log holding the most recent MaxMessages entries, further trimmed from the
// oldest end if a token budget is configured. The conversation is not
// mutated; the returned slice aliases the log.
func (b *Builder) Window(conv *types.Conversation) []types.Message {
	msgs := conv.Recent(b.cfg.MaxMessages)
	if b.cfg.MaxTokens <= 0 || b.counter == nil {
		return msgs
	}

	// Walk backwards so the newest messages always survive the cut.
	used := 0
	cut := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := b.counter.CountTokens(formatLine(msgs[i]))
		if used+cost > b.cfg.MaxTokens && i < len(msgs)-1 {
			cut = i + 1
			break
		}
		used += cost
	}
	return msgs[cut:]
}

// Build returns the window as newline-joined "SENDER: content" lines,
// newest last, or EmptyContext for an empty log.
func (b *Builder) Build(conv *types.Conversation) string {
	msgs := b.Window(conv)
	if len(msgs) == 0 {
		return EmptyContext
	}

	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(formatLine(msg))
	}
	return sb.String()
}

func formatLine(msg types.Message) string {
	return strings.ToUpper(string(msg.Sender)) + ": " + msg.Content
}
