// Package bridge relays the playground/editor wire protocol onto the
// production conversation protocol, validating and transforming frames on
// the way through.
package bridge

import "encoding/json"

// Inbound playground frame types. The set is closed: anything else is
// rejected with an error frame and never forwarded.
const (
	TypePlaygroundStart = "playground_start"
	TypePlaygroundReset = "playground_reset"
	TypeMessage         = "message"
	TypePing            = "ping"
	TypeFactCheck       = "fact_check"
)

// Production frame types emitted by the bridge.
const (
	TypeStartConversation = "start_conversation"
	TypeEndConversation   = "end_conversation"
	TypeError             = "error"
)

// PlaygroundStart asks the bridge to open a production conversation with an
// embedded test context.
type PlaygroundStart struct {
	Type       string `json:"type"`
	Workflow   string `json:"workflow"`
	PersonaID  string `json:"persona_id"`
	ScenarioID string `json:"scenario_id"`
	TrustLevel int    `json:"trust_level"`
}

// PlaygroundReset ends the current conversation, optionally rolling straight
// into a new workflow with the same persona and scenario.
type PlaygroundReset struct {
	Type        string `json:"type"`
	Reason      string `json:"reason"`
	NewWorkflow string `json:"new_workflow,omitempty"`
}

// TestContext carries the playground's persona/scenario/trust selection
// inside the production start frame.
type TestContext struct {
	PersonaID  string `json:"persona_id"`
	ScenarioID string `json:"scenario_id"`
	TrustLevel int    `json:"trust_level"`
}

// StartConversationData is the payload of a production start frame.
type StartConversationData struct {
	ShopSubdomain string       `json:"shop_subdomain"`
	Scenario      string       `json:"scenario"`
	Workflow      string       `json:"workflow"`
	TestMode      bool         `json:"test_mode"`
	TestContext   *TestContext `json:"test_context,omitempty"`
}

// StartConversation is the production frame that opens a conversation.
type StartConversation struct {
	Type string                `json:"type"`
	Data StartConversationData `json:"data"`
}

// EndConversation is the production frame that closes a conversation.
type EndConversation struct {
	Type string `json:"type"`
	Data struct {
		Reason string `json:"reason,omitempty"`
	} `json:"data"`
}

// ErrorFrame is sent to the client when a frame is rejected or a relay leg
// is unavailable. It is never forwarded upstream.
type ErrorFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// errorFrame encodes an error frame; encoding cannot fail for this shape.
func errorFrame(text string) []byte {
	data, _ := json.Marshal(ErrorFrame{Type: TypeError, Text: text})
	return data
}
