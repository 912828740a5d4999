package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role identifies who produced a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Risk is the three-level water-shortage verdict. Any other label coming out
// of the model is a contract violation, not a fourth level.
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// ParseRisk validates a model-produced risk label.
func ParseRisk(s string) (Risk, error) {
	switch Risk(strings.TrimSpace(s)) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("invalid risk label %q", s)
	}
}

// CommandKind identifies map-update instruction variants.
type CommandKind string

const (
	CommandSetMarker    CommandKind = "SET_MARKER"
	CommandUpdateMarker CommandKind = "UPDATE_MARKER"
)

// MapCommand is a structured instruction for the map client. Only the
// orchestrator's formatting step constructs these.
type MapCommand struct {
	Command  CommandKind `json:"command"`
	Location string      `json:"location"`
	Risk     Risk        `json:"risk,omitempty"`
	Summary  string      `json:"summary,omitempty"`
}

// ChatTurn is one user or assistant entry in conversation memory. Immutable
// once appended.
type ChatTurn struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text"`
	MapCommands []MapCommand `json:"map_commands,omitempty"`
}

// InboundMessage is one element of the chat request body.
type InboundMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatRequest is the request boundary payload.
type ChatRequest struct {
	SessionID string           `json:"session_id,omitempty"`
	Messages  []InboundMessage `json:"messages"`
}

// ChatReply is the success payload nested under "data".
type ChatReply struct {
	MessageText string       `json:"messageText"`
	MapCommands []MapCommand `json:"mapCommands"`
}

var (
	ErrNoMessages       = errors.New("missing or invalid messages array")
	ErrLastNotUser      = errors.New("last message must come from the user")
	ErrEmptyMessageText = errors.New("message text must not be empty")
)

// MapSenderRole maps the browser's sender tags onto completion roles.
// Unknown senders degrade to system rather than failing the whole request.
func MapSenderRole(sender string) Role {
	switch strings.ToLower(strings.TrimSpace(sender)) {
	case "user":
		return RoleUser
	case "bot":
		return RoleAssistant
	default:
		return RoleSystem
	}
}

// ParseChatRequest decodes and validates the request boundary payload. The
// final message must map to the user role; everything before it is history
// the client chose to replay.
func ParseChatRequest(raw []byte) (ChatRequest, error) {
	var req ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ChatRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Messages) == 0 {
		return ChatRequest{}, ErrNoMessages
	}
	last := req.Messages[len(req.Messages)-1]
	if MapSenderRole(last.Sender) != RoleUser {
		return ChatRequest{}, ErrLastNotUser
	}
	if strings.TrimSpace(last.Text) == "" {
		return ChatRequest{}, ErrEmptyMessageText
	}
	return req, nil
}

// Prompt returns the text of the final user message.
func (r ChatRequest) Prompt() string {
	return strings.TrimSpace(r.Messages[len(r.Messages)-1].Text)
}
