package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/808vita/sdg-6-water-agents/internal/completion"
	"github.com/808vita/sdg-6-water-agents/internal/llmjson"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

const locationSystemPrompt = `Extract the geographic place the user is asking about.
Prefer the latest message; fall back to the recent conversation when the
latest message only refers back to an earlier place.
Answer with a single JSON object and nothing else: {"location": "<place>"}.
If no place can be determined, answer {"location": ""}.`

// LocationExtractor resolves the place a turn refers to when the classifier
// did not supply one. Unlike the classifier it is not fail-safe: weather and
// waterShortage turns cannot proceed without a location, so failures surface.
type LocationExtractor struct {
	client completion.Client
}

func NewLocationExtractor(client completion.Client) *LocationExtractor {
	return &LocationExtractor{client: client}
}

func (e *LocationExtractor) Extract(ctx context.Context, prompt string, history []protocol.ChatTurn) (string, error) {
	out, err := e.client.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: locationSystemPrompt},
		{Role: completion.RoleUser, Content: fmt.Sprintf(
			"Recent conversation:\n%s\n\nLatest message:\n%s",
			transcript(history, historyWindow), strings.TrimSpace(prompt))},
	})
	if err != nil {
		return "", fmt.Errorf("extract location: %w", err)
	}

	var parsed struct {
		Location string `json:"location"`
	}
	if err := llmjson.DecodeObject(out, &parsed); err != nil {
		return "", fmt.Errorf("extract location: %w", err)
	}
	location := strings.TrimSpace(parsed.Location)
	if location == "" {
		return "", ErrLocationUnresolved
	}
	return location, nil
}
