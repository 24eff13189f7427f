package types

// UIElement describes a structured, client-renderable affordance extracted
// from agent output. Placeholder is the token left in the clean text at the
// marker's original position; ids are dense from 1 within one extraction
// pass and are not globally unique across turns.
type UIElement struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Provider    string `json:"provider"`
	Placeholder string `json:"placeholder"`
}

// Response is the tagged result of one processed conversation turn.
// Downstream consumers switch on the concrete type; there are exactly two
// variants, PlainMessage and MessageWithUI.
type Response interface {
	// ResponseContent returns the textual content of the response.
	ResponseContent() string

	// sealed prevents variants outside this package.
	sealed()
}

// PlainMessage is a turn result with no structured UI attached.
type PlainMessage struct {
	Content string `json:"content"`
}

func (p PlainMessage) ResponseContent() string { return p.Content }
func (PlainMessage) sealed()                   {}

// MessageWithUI is a turn result whose content references UI elements by
// placeholder token. Content holds the clean text: placeholders retained,
// raw markers never persisted.
type MessageWithUI struct {
	Type       string      `json:"type"`
	Content    string      `json:"content"`
	UIElements []UIElement `json:"ui_elements"`
}

func (m MessageWithUI) ResponseContent() string { return m.Content }
func (MessageWithUI) sealed()                   {}

// NewMessageWithUI builds the structured variant with its wire type tag set.
func NewMessageWithUI(content string, elements []UIElement) MessageWithUI {
	return MessageWithUI{
		Type:       "message_with_ui",
		Content:    content,
		UIElements: elements,
	}
}
