package tools

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const defaultWikipediaURL = "https://en.wikipedia.org/w/api.php"

// WikipediaClient wraps the MediaWiki search API.
type WikipediaClient struct {
	BaseURL string
	get     getter
}

func NewWikipediaClient(opts Options) *WikipediaClient {
	return &WikipediaClient{
		BaseURL: defaultWikipediaURL,
		get:     newGetter(opts),
	}
}

type wikiResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func (c *WikipediaClient) Lookup(ctx context.Context, query string) ([]Result, error) {
	q := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"5"},
		"format":   {"json"},
	}
	var resp wikiResponse
	if err := c.get.getJSON(ctx, c.BaseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("lookup %q: %w", query, err)
	}

	results := make([]Result, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		results = append(results, Result{
			URL:         "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")),
			Description: hit.Title + ": " + htmlTagPattern.ReplaceAllString(hit.Snippet, ""),
		})
	}
	return results, nil
}
