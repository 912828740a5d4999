// Package tools holds the HTTP clients for the external data sources the
// specialist agents wrap: Open-Meteo forecasts, DuckDuckGo web search and
// Wikipedia lookup. Each client owns its own rate limiter; none of them
// keeps package-level state.
package tools

import (
	"context"
	"net/http"
	"time"

	"github.com/808vita/sdg-6-water-agents/internal/reliability"
)

// Result is one normalized search or lookup hit.
type Result struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Forecast carries the current-day weather fields the risk pipeline uses.
type Forecast struct {
	Location     string  `json:"location"`
	Country      string  `json:"country"`
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	WindKmh      float64 `json:"wind_kmh"`
	RainSumMM    float64 `json:"rain_sum_mm"`
}

// ForecastClient looks up the current day's forecast for a location name.
type ForecastClient interface {
	Forecast(ctx context.Context, location string) (Forecast, error)
}

// SearchClient runs a free-text web search.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// LookupClient queries an encyclopedia.
type LookupClient interface {
	Lookup(ctx context.Context, query string) ([]Result, error)
}

// Options configures the shared HTTP behavior of all tool clients.
type Options struct {
	HTTPClient  *http.Client
	MinInterval time.Duration
	RetryMax    int
	Clock       reliability.Clock
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if o.Clock == nil {
		o.Clock = reliability.WallClock()
	}
	return o
}
