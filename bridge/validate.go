package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/hirecj/agentsim/types"
)

// relayState tracks per-connection transform context: a reset with a
// new_workflow restarts the conversation using the persona and scenario of
// the last start frame.
type relayState struct {
	lastStart *PlaygroundStart
}

// transform validates one inbound client frame and returns the frames to
// forward upstream. Exactly one of (frames, err) is set; on err nothing is
// forwarded and the typed error is reported to the client.
func (s *relayState) transform(raw []byte) ([][]byte, *types.Error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, types.NewError(types.ErrMalformedFrame, "frame is not valid JSON").WithCause(err)
	}

	switch head.Type {
	case TypePlaygroundStart:
		return s.transformStart(raw)
	case TypePlaygroundReset:
		return s.transformReset(raw)
	case TypeMessage:
		return validateMessage(raw)
	case TypePing, TypeFactCheck:
		// Validated pass-through, byte-for-byte.
		return [][]byte{raw}, nil
	case "":
		return nil, types.NewError(types.ErrInvalidFrame, "frame is missing a type")
	default:
		return nil, types.NewError(types.ErrUnknownType, fmt.Sprintf("unknown message type %q", head.Type))
	}
}

func (s *relayState) transformStart(raw []byte) ([][]byte, *types.Error) {
	var start PlaygroundStart
	if err := json.Unmarshal(raw, &start); err != nil {
		return nil, types.NewError(types.ErrMalformedFrame, "malformed playground_start frame").WithCause(err)
	}
	if err := validateStart(&start); err != nil {
		return nil, err
	}

	s.lastStart = &start
	frame, err := buildStartFrame(&start, start.Workflow)
	if err != nil {
		return nil, err
	}
	return [][]byte{frame}, nil
}

func (s *relayState) transformReset(raw []byte) ([][]byte, *types.Error) {
	var reset PlaygroundReset
	if err := json.Unmarshal(raw, &reset); err != nil {
		return nil, types.NewError(types.ErrMalformedFrame, "malformed playground_reset frame").WithCause(err)
	}
	if reset.Reason == "" {
		return nil, types.NewError(types.ErrInvalidFrame, "playground_reset requires reason")
	}
	if reset.NewWorkflow != "" && s.lastStart == nil {
		return nil, types.NewError(types.ErrInvalidFrame, "playground_reset with new_workflow requires a prior playground_start")
	}

	var end EndConversation
	end.Type = TypeEndConversation
	end.Data.Reason = reset.Reason
	endFrame, jsonErr := json.Marshal(end)
	if jsonErr != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to encode end_conversation").WithCause(jsonErr)
	}

	frames := [][]byte{endFrame}
	if reset.NewWorkflow != "" {
		startFrame, err := buildStartFrame(s.lastStart, reset.NewWorkflow)
		if err != nil {
			return nil, err
		}
		frames = append(frames, startFrame)
	}
	return frames, nil
}

func validateStart(start *PlaygroundStart) *types.Error {
	switch {
	case start.Workflow == "":
		return types.NewError(types.ErrInvalidFrame, "playground_start requires workflow")
	case start.PersonaID == "":
		return types.NewError(types.ErrInvalidFrame, "playground_start requires persona_id")
	case start.ScenarioID == "":
		return types.NewError(types.ErrInvalidFrame, "playground_start requires scenario_id")
	case start.TrustLevel < 1 || start.TrustLevel > 5:
		return types.NewError(types.ErrInvalidFrame, "playground_start trust_level must be between 1 and 5")
	}
	return nil
}

func validateMessage(raw []byte) ([][]byte, *types.Error) {
	var msg struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, types.NewError(types.ErrMalformedFrame, "malformed message frame").WithCause(err)
	}
	if msg.Text == "" {
		return nil, types.NewError(types.ErrInvalidFrame, "message requires text")
	}
	return [][]byte{raw}, nil
}

// buildStartFrame maps a playground start onto the production start frame.
// The playground persona stands in for the shop identity; the real selection
// travels in test_context for the conversation service to honor.
func buildStartFrame(start *PlaygroundStart, workflowID string) ([]byte, *types.Error) {
	frame := StartConversation{
		Type: TypeStartConversation,
		Data: StartConversationData{
			ShopSubdomain: start.PersonaID,
			Scenario:      start.ScenarioID,
			Workflow:      workflowID,
			TestMode:      true,
			TestContext: &TestContext{
				PersonaID:  start.PersonaID,
				ScenarioID: start.ScenarioID,
				TrustLevel: start.TrustLevel,
			},
		},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to encode start_conversation").WithCause(err)
	}
	return data, nil
}
