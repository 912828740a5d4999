package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

// Collection is the outcome of the specialist fan-out for one turn: the
// evidence that came back plus the names of specialists that did not.
type Collection struct {
	Evidence []Evidence
	Failed   []string
}

// ForecastResult is the complete waterShortage answer for one turn.
type ForecastResult struct {
	MessageText string
	Assessment  RiskAssessment
	Commands    []protocol.MapCommand
}

// ForecastAgent is the second synthesis stage. It runs the risk assessment
// over collected evidence, then renders the user-facing message with its
// data-collection trail and emits the single map command that moves the
// marker.
type ForecastAgent struct {
	risk *RiskAgent
}

func NewForecastAgent(risk *RiskAgent) *ForecastAgent {
	return &ForecastAgent{risk: risk}
}

func (a *ForecastAgent) Forecast(ctx context.Context, location string, col Collection) (ForecastResult, error) {
	assessment, err := a.risk.Assess(ctx, location, col.Evidence)
	if err != nil {
		return ForecastResult{}, err
	}

	return ForecastResult{
		MessageText: renderForecastMessage(location, assessment, col),
		Assessment:  assessment,
		Commands: []protocol.MapCommand{{
			Command:  protocol.CommandUpdateMarker,
			Location: location,
			Risk:     assessment.Risk,
			Summary:  assessment.Summary,
		}},
	}, nil
}

func renderForecastMessage(location string, assessment RiskAssessment, col Collection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Water shortage outlook for %s: %s risk.\n\n%s\n",
		location, assessment.Risk, assessment.Summary)

	b.WriteString("\nData Collection:\n")
	for _, ev := range col.Evidence {
		fmt.Fprintf(&b, "- %s: ok\n", ev.Source)
	}
	for _, name := range col.Failed {
		fmt.Fprintf(&b, "- %s: unavailable\n", name)
	}

	if assessment.Reasoning != "" {
		fmt.Fprintf(&b, "\nReasoning: %s\n", assessment.Reasoning)
	}
	if len(assessment.Sources) > 0 {
		fmt.Fprintf(&b, "\nSources: %s\n", strings.Join(assessment.Sources, ", "))
	}
	return b.String()
}
