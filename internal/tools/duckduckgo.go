package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const defaultSearchURL = "https://api.duckduckgo.com/"

// DuckDuckGoClient wraps the DuckDuckGo instant-answer API.
type DuckDuckGoClient struct {
	BaseURL string
	get     getter
}

func NewDuckDuckGoClient(opts Options) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		BaseURL: defaultSearchURL,
		get:     newGetter(opts),
	}
}

type ddgTopic struct {
	FirstURL string     `json:"FirstURL"`
	Text     string     `json:"Text"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (c *DuckDuckGoClient) Search(ctx context.Context, query string) ([]Result, error) {
	q := url.Values{
		"q":           {query},
		"format":      {"json"},
		"no_html":     {"1"},
		"no_redirect": {"1"},
	}
	var resp ddgResponse
	if err := c.get.getJSON(ctx, c.BaseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := make([]Result, 0, len(resp.RelatedTopics)+1)
	if strings.TrimSpace(resp.AbstractText) != "" {
		results = append(results, Result{
			URL:         resp.AbstractURL,
			Description: resp.AbstractText,
		})
	}
	results = appendTopics(results, resp.RelatedTopics)
	return results, nil
}

func appendTopics(out []Result, topics []ddgTopic) []Result {
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = appendTopics(out, t.Topics)
			continue
		}
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, Result{URL: t.FirstURL, Description: t.Text})
	}
	return out
}
