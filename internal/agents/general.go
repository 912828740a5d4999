package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/808vita/sdg-6-water-agents/internal/completion"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

const generalSystemPrompt = `You are a friendly assistant for a water-shortage
map application. Answer conversationally and briefly. You can explain what
the application does: ask about weather or water shortage risk for any place
and the map will update. Do not invent water-shortage assessments yourself.`

// GeneralAgent handles turns that need no data collection: greetings,
// questions about the app and anything the classifier could not route.
type GeneralAgent struct {
	client completion.Client
}

func NewGeneralAgent(client completion.Client) *GeneralAgent {
	return &GeneralAgent{client: client}
}

func (a *GeneralAgent) Answer(ctx context.Context, prompt string, history []protocol.ChatTurn) (string, error) {
	msgs := []completion.Message{{Role: completion.RoleSystem, Content: generalSystemPrompt}}
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, turn := range history[start:] {
		role := completion.RoleUser
		if turn.Role == protocol.RoleAssistant {
			role = completion.RoleAssistant
		}
		msgs = append(msgs, completion.Message{Role: role, Content: turn.Text})
	}
	msgs = append(msgs, completion.Message{Role: completion.RoleUser, Content: strings.TrimSpace(prompt)})

	out, err := a.client.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("general agent: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("general agent: empty completion")
	}
	return out, nil
}
