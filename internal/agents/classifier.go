package agents

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/808vita/sdg-6-water-agents/internal/completion"
	"github.com/808vita/sdg-6-water-agents/internal/llmjson"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

//go:embed intent.yaml
var intentSpecYAML []byte

// historyWindow caps how many prior turns the classifier sees.
const historyWindow = 3

type intentSpec struct {
	System string `yaml:"system"`
	Agents []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"agents"`
	Rules []string `yaml:"rules"`
}

// Classifier routes each user turn to one of the agent paths. It is
// fail-safe: any model, parsing or validation failure yields the general
// intent instead of an error, so a broken classifier degrades the service
// to plain chat rather than taking it down.
type Classifier struct {
	client completion.Client
	spec   intentSpec
	valid  map[string]bool
}

func NewClassifier(client completion.Client) (*Classifier, error) {
	var spec intentSpec
	if err := yaml.Unmarshal(intentSpecYAML, &spec); err != nil {
		return nil, fmt.Errorf("parse intent spec: %w", err)
	}
	if len(spec.Agents) == 0 {
		return nil, fmt.Errorf("intent spec declares no agents")
	}
	valid := make(map[string]bool, len(spec.Agents))
	for _, a := range spec.Agents {
		valid[a.Name] = true
	}
	return &Classifier{client: client, spec: spec, valid: valid}, nil
}

func (c *Classifier) Classify(ctx context.Context, prompt string, history []protocol.ChatTurn) Intent {
	fallback := Intent{Agent: IntentGeneral}

	out, err := c.client.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: c.systemPrompt()},
		{Role: completion.RoleUser, Content: c.userPrompt(prompt, history)},
	})
	if err != nil {
		return fallback
	}

	var intent Intent
	if err := llmjson.DecodeObject(out, &intent); err != nil {
		return fallback
	}
	if !c.valid[intent.Agent] {
		return fallback
	}
	intent.Location = strings.TrimSpace(intent.Location)
	return intent
}

func (c *Classifier) systemPrompt() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.spec.System))
	b.WriteString("\n\nAgents:\n")
	for _, a := range c.spec.Agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
	}
	if len(c.spec.Rules) > 0 {
		b.WriteString("\nRules:\n")
		for _, r := range c.spec.Rules {
			b.WriteString("- " + r + "\n")
		}
	}
	return b.String()
}

func (c *Classifier) userPrompt(prompt string, history []protocol.ChatTurn) string {
	return fmt.Sprintf("Recent conversation:\n%s\n\nLatest message:\n%s",
		transcript(history, historyWindow), strings.TrimSpace(prompt))
}
