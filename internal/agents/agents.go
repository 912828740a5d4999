// Package agents implements the specialist data-gathering agents, the
// intent classifier and the risk synthesis pipeline. Specialists share one
// capability contract and are composed by the orchestrator; there is no
// base-agent type.
package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/808vita/sdg-6-water-agents/internal/protocol"
	"github.com/808vita/sdg-6-water-agents/internal/tools"
)

// Intent labels one turn with the agent path that should handle it.
type Intent struct {
	Agent    string `json:"agent"`
	Location string `json:"location,omitempty"`
}

const (
	IntentWeather       = "weather"
	IntentWaterShortage = "waterShortage"
	IntentGeneral       = "general"
)

// ErrLocationUnresolved aborts a weather or waterShortage turn that has no
// usable location. Unlike classification failures this is never swallowed.
var ErrLocationUnresolved = errors.New("could not determine a location for this request")

// Evidence is one specialist's normalized output, carrying both a
// prompt-ready text block and the raw data it was rendered from.
type Evidence struct {
	Source   string
	Summary  string
	Results  []tools.Result
	Forecast *tools.Forecast
}

// Specialist wraps exactly one external data-gathering tool.
type Specialist interface {
	Name() string
	Run(ctx context.Context, location string) (Evidence, error)
}

// guard converts a panic inside a specialist into an error so that no
// fault crosses an agent boundary.
func guard(name string, fn func() (Evidence, error)) (ev Evidence, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev = Evidence{}
			err = fmt.Errorf("%s agent: internal fault: %v", name, r)
		}
	}()
	return fn()
}

// formatResults renders search hits as a compact block for prompts.
func formatResults(results []tools.Result, max int) string {
	if len(results) == 0 {
		return "no results"
	}
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		line := "- " + strings.TrimSpace(r.Description)
		if strings.TrimSpace(r.URL) != "" {
			line += " (" + strings.TrimSpace(r.URL) + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// transcript renders the most recent turns for classification prompts.
func transcript(history []protocol.ChatTurn, limit int) string {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(turn.Text))
	}
	return b.String()
}
