package agents

import (
	"context"
	"fmt"

	"github.com/808vita/sdg-6-water-agents/internal/tools"
)

const climateResultLimit = 5

// ClimateResearcher gathers background climate context for a location from
// the encyclopedia lookup tool, falling back to web search when the lookup
// comes back empty. Both paths produce the same normalized evidence shape.
type ClimateResearcher struct {
	lookup tools.LookupClient
	search tools.SearchClient
}

func NewClimateResearcher(lookup tools.LookupClient, search tools.SearchClient) *ClimateResearcher {
	return &ClimateResearcher{lookup: lookup, search: search}
}

func (a *ClimateResearcher) Name() string { return "climate" }

func (a *ClimateResearcher) Run(ctx context.Context, location string) (Evidence, error) {
	return guard(a.Name(), func() (Evidence, error) {
		query := fmt.Sprintf("%s climate", location)

		results, err := a.lookup.Lookup(ctx, query)
		if err != nil {
			return Evidence{}, fmt.Errorf("climate agent: %w", err)
		}
		if len(results) == 0 {
			results, err = a.search.Search(ctx, query)
			if err != nil {
				return Evidence{}, fmt.Errorf("climate agent: fallback search: %w", err)
			}
		}

		summary := fmt.Sprintf("Climate background for %q:\n%s", query, formatResults(results, climateResultLimit))
		return Evidence{Source: a.Name(), Summary: summary, Results: results}, nil
	})
}
