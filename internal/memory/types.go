package memory

import (
	"context"
	"time"

	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

// TurnRecord stores a single user or assistant conversational turn together
// with any map commands the assistant emitted for it.
type TurnRecord struct {
	ID          string                `json:"id"`
	SessionID   string                `json:"session_id"`
	Role        protocol.Role         `json:"role"`
	Content     string                `json:"content"`
	MapCommands []protocol.MapCommand `json:"map_commands,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Store persists conversation memory. The log is append-only: records are
// never edited in place and only a full session clear removes them.
type Store interface {
	AppendTurn(ctx context.Context, record TurnRecord) error
	History(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error)
	ClearSession(ctx context.Context, sessionID string) error
	Close() error
}
