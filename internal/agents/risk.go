package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/808vita/sdg-6-water-agents/internal/completion"
	"github.com/808vita/sdg-6-water-agents/internal/llmjson"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

const riskSystemPrompt = `You are a water-shortage risk analyst. You receive
evidence blocks collected by specialist agents for one location. Weigh the
evidence and produce a structured assessment.
Answer with a single JSON object and nothing else, with exactly these keys:
  "risk": one of "Low", "Medium", "High"
  "summary": one or two sentences suitable for a map popup
  "reasoning": how the evidence supports the risk level
  "sources": array of URLs drawn from the evidence, possibly empty
Do not add commentary outside the JSON object.`

// RiskAssessment is the structured verdict the synthesis model must return.
type RiskAssessment struct {
	Risk      protocol.Risk `json:"risk"`
	Summary   string        `json:"summary"`
	Reasoning string        `json:"reasoning"`
	Sources   []string      `json:"sources"`
}

// RiskAgent turns collected evidence into a RiskAssessment. The model's
// output must satisfy the JSON contract above; a reply that cannot be
// repaired into it, or that uses a risk label outside the enum, fails the
// whole turn rather than degrading into prose.
type RiskAgent struct {
	client completion.Client
}

func NewRiskAgent(client completion.Client) *RiskAgent {
	return &RiskAgent{client: client}
}

func (a *RiskAgent) Assess(ctx context.Context, location string, evidence []Evidence) (RiskAssessment, error) {
	out, err := a.client.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: riskSystemPrompt},
		{Role: completion.RoleUser, Content: evidencePrompt(location, evidence)},
	})
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("risk agent: %w", err)
	}

	var parsed struct {
		Risk      string   `json:"risk"`
		Summary   string   `json:"summary"`
		Reasoning string   `json:"reasoning"`
		Sources   []string `json:"sources"`
	}
	if err := llmjson.DecodeObject(out, &parsed); err != nil {
		return RiskAssessment{}, fmt.Errorf("risk agent: %w", err)
	}

	risk, err := protocol.ParseRisk(parsed.Risk)
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("risk agent: %w", err)
	}
	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return RiskAssessment{}, fmt.Errorf("risk agent: assessment has empty summary")
	}

	return RiskAssessment{
		Risk:      risk,
		Summary:   summary,
		Reasoning: strings.TrimSpace(parsed.Reasoning),
		Sources:   parsed.Sources,
	}, nil
}

func evidencePrompt(location string, evidence []Evidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", location)
	for _, ev := range evidence {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", ev.Source, strings.TrimSpace(ev.Summary))
	}
	return b.String()
}
