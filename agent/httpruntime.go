package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hirecj/agentsim/types"
)

// HTTPRuntime reaches an agent runtime over HTTP. It POSTs the turn request
// as JSON and expects a JSON body with a "content" field.
type HTTPRuntime struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRuntime builds a runtime client. timeout bounds the whole request
// including body read; zero uses a generous default.
func NewHTTPRuntime(endpoint string, timeout time.Duration) *HTTPRuntime {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPRuntime{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type runtimeRequest struct {
	Context    string `json:"context"`
	MerchantID string `json:"merchant_id"`
	ScenarioID string `json:"scenario_id"`
	WorkflowID string `json:"workflow_id,omitempty"`
	Tools      []Tool `json:"tools,omitempty"`
}

type runtimeResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Respond implements Runtime.
func (r *HTTPRuntime) Respond(ctx context.Context, req *Request) (string, error) {
	payload, err := json.Marshal(runtimeRequest{
		Context:    req.Context,
		MerchantID: req.MerchantID,
		ScenarioID: req.ScenarioID,
		WorkflowID: req.WorkflowID,
		Tools:      req.Tools,
	})
	if err != nil {
		return "", types.NewError(types.ErrRuntimeFailure, "failed to encode runtime request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewError(types.ErrRuntimeFailure, "failed to build runtime request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", types.NewError(types.ErrRuntimeTimeout, "agent runtime timed out").WithCause(err).WithRetryable(true)
		}
		return "", types.NewError(types.ErrRuntimeFailure, "agent runtime unreachable").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", types.NewError(types.ErrRuntimeFailure, "agent runtime returned "+resp.Status+": "+string(body)).
			WithRetryable(resp.StatusCode >= 500)
	}

	var out runtimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewError(types.ErrRuntimeFailure, "failed to decode runtime response").WithCause(err)
	}
	if out.Error != "" {
		return "", types.NewError(types.ErrRuntimeFailure, out.Error)
	}
	return out.Content, nil
}
