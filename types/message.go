package types

import "time"

// Sender identifies who produced a message.
type Sender string

const (
	SenderMerchant Sender = "merchant"
	SenderSystem   Sender = "system"
	// SenderCJ is the default support-agent persona name. Agent senders are
	// free-form so alternate personas can appear in the same log.
	SenderCJ Sender = "cj"
)

// Message represents one entry in a conversation log. Messages are
// immutable once appended; the history is a log, not a mutable structure.
type Message struct {
	Timestamp time.Time         `json:"timestamp"`
	Sender    Sender            `json:"sender"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage creates a message with the given sender and content.
func NewMessage(sender Sender, content string) Message {
	return Message{
		Timestamp: time.Now(),
		Sender:    sender,
		Content:   content,
	}
}

// NewMerchantMessage creates a message from the merchant.
func NewMerchantMessage(content string) Message {
	return NewMessage(SenderMerchant, content)
}

// NewAgentMessage creates a message from the named agent persona.
func NewAgentMessage(agent, content string) Message {
	return NewMessage(Sender(agent), content)
}

// NewSystemMessage creates a system-injected message.
func NewSystemMessage(content string) Message {
	return NewMessage(SenderSystem, content)
}

// WithMetadata returns a copy of the message with side-channel metadata
// attached (e.g. transport source).
func (m Message) WithMetadata(md map[string]string) Message {
	m.Metadata = md
	return m
}
