package types

import "time"

// ConversationState holds the current bounded context window: the
// most-recent-N suffix of the message log. It is a derived view and is
// recomputed after every append, never persisted independently.
type ConversationState struct {
	ContextWindow []Message `json:"context_window"`
}

// Conversation is the append-only ordered message history plus identity
// and workflow metadata. A Conversation is owned exclusively by its
// Session and is never shared across sessions.
type Conversation struct {
	ID           string            `json:"id"`
	MerchantName string            `json:"merchant_name"`
	ScenarioName string            `json:"scenario_name"`
	WorkflowName string            `json:"workflow_name,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Messages     []Message         `json:"messages"`
	State        ConversationState `json:"state"`
}

// NewConversation creates an empty conversation. workflow may be empty.
func NewConversation(id, merchant, scenario, workflow string) *Conversation {
	return &Conversation{
		ID:           id,
		MerchantName: merchant,
		ScenarioName: scenario,
		WorkflowName: workflow,
		CreatedAt:    time.Now(),
	}
}

// Append adds a message to the log. The log only grows; there is no
// removal or in-place edit path.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// Len returns the current log length.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Recent returns the last n messages without copying message contents.
// For n <= 0 or n >= len it returns the full log. The returned slice
// aliases the log and must be treated as read-only.
func (c *Conversation) Recent(n int) []Message {
	if n <= 0 || n >= len(c.Messages) {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}
