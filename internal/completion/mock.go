package completion

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no completion
// service is configured. It recognizes the pipeline's structured prompts by
// the JSON keys their system messages demand and routes on the user's
// message, so every agent path stays reachable without a hosted model.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, messages []Message) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	system := ""
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		system = messages[0].Content
	}
	last := lastUserContent(messages)

	switch {
	case strings.Contains(system, `"agent"`):
		return classifyMock(last), nil
	case strings.Contains(system, `"location"`):
		return fmt.Sprintf(`{"location": %q}`, guessPlace(last)), nil
	case strings.Contains(system, `"risk"`):
		return `{"risk": "Low", "summary": "No acute shortage signals in the collected data.", "reasoning": "Mock assessment.", "sources": []}`, nil
	default:
		if last == "" {
			return "I am listening.", nil
		}
		return "I heard you: " + latestMessage(last), nil
	}
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

func classifyMock(prompt string) string {
	text := strings.ToLower(latestMessage(prompt))
	agent := "general"
	switch {
	case strings.Contains(text, "water shortage"),
		strings.Contains(text, "drought"),
		strings.Contains(text, "water supply"),
		strings.Contains(text, "scarcity"):
		agent = "waterShortage"
	case strings.Contains(text, "weather"),
		strings.Contains(text, "forecast"),
		strings.Contains(text, "temperature"):
		agent = "weather"
	}
	if agent == "general" {
		return `{"agent": "general"}`
	}
	if place := guessPlace(prompt); place != "" {
		return fmt.Sprintf(`{"agent": %q, "location": %q}`, agent, place)
	}
	return fmt.Sprintf(`{"agent": %q}`, agent)
}

// latestMessage isolates the final user message from the transcript-style
// prompts the classifier and extractor build.
func latestMessage(prompt string) string {
	const marker = "Latest message:"
	if i := strings.LastIndex(prompt, marker); i != -1 {
		return strings.TrimSpace(prompt[i+len(marker):])
	}
	return prompt
}

// guessPlace takes the last capitalized word of the latest message that is
// not sentence-initial. Crude, but enough to drive the pipeline in dev.
func guessPlace(prompt string) string {
	words := strings.Fields(latestMessage(prompt))
	place := ""
	for i, w := range words {
		w = strings.Trim(w, ".,!?;:\"'")
		if i == 0 || w == "" {
			continue
		}
		if w[0] >= 'A' && w[0] <= 'Z' {
			place = w
		}
	}
	return place
}
