// Package agent defines the boundary to the external agent runtime.
// The orchestration core treats the runtime as an opaque, possibly slow,
// possibly failing collaborator; everything behind this interface (prompt
// assembly, model selection, retries) is out of the core's hands.
package agent

import "context"

// Tool describes one tool made available to the runtime for a turn.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Request carries everything the runtime needs for one turn.
type Request struct {
	// Context is the bounded textual transcript built from the
	// conversation's recent history.
	Context string

	MerchantID string
	ScenarioID string
	WorkflowID string

	// Tools is the tool set scoped to this session's business data.
	Tools []Tool
}

// Runtime produces one raw response for a turn. Implementations may block
// for the duration of a model call and should respect ctx cancellation.
type Runtime interface {
	Respond(ctx context.Context, req *Request) (string, error)
}

// RuntimeFunc adapts a function to the Runtime interface.
type RuntimeFunc func(ctx context.Context, req *Request) (string, error)

func (f RuntimeFunc) Respond(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}
