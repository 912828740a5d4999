package agents

import (
	"context"
	"fmt"

	"github.com/808vita/sdg-6-water-agents/internal/tools"
)

const newsResultLimit = 5

// NewsAgent searches the open web for recent water-shortage coverage of a
// location.
type NewsAgent struct {
	search tools.SearchClient
}

func NewNewsAgent(search tools.SearchClient) *NewsAgent {
	return &NewsAgent{search: search}
}

func (a *NewsAgent) Name() string { return "news" }

func (a *NewsAgent) Run(ctx context.Context, location string) (Evidence, error) {
	return guard(a.Name(), func() (Evidence, error) {
		query := fmt.Sprintf("water shortage in %s", location)
		results, err := a.search.Search(ctx, query)
		if err != nil {
			return Evidence{}, fmt.Errorf("news agent: %w", err)
		}
		summary := fmt.Sprintf("Web results for %q:\n%s", query, formatResults(results, newsResultLimit))
		return Evidence{Source: a.Name(), Summary: summary, Results: results}, nil
	})
}
