package agents

import (
	"context"
	"fmt"

	"github.com/808vita/sdg-6-water-agents/internal/tools"
)

// WeatherAgent reports current conditions for a location via the forecast
// tool. Its summary keeps the raw numeric values so downstream synthesis
// reasons over data instead of prose.
type WeatherAgent struct {
	forecast tools.ForecastClient
}

func NewWeatherAgent(forecast tools.ForecastClient) *WeatherAgent {
	return &WeatherAgent{forecast: forecast}
}

func (a *WeatherAgent) Name() string { return "weather" }

func (a *WeatherAgent) Run(ctx context.Context, location string) (Evidence, error) {
	return guard(a.Name(), func() (Evidence, error) {
		fc, err := a.forecast.Forecast(ctx, location)
		if err != nil {
			return Evidence{}, fmt.Errorf("weather agent: %w", err)
		}
		summary := fmt.Sprintf(
			"Current conditions in %s, %s: %.1f C, %.0f%% relative humidity, wind %.1f km/h, rain today %.1f mm.",
			fc.Location, fc.Country, fc.TemperatureC, fc.HumidityPct, fc.WindKmh, fc.RainSumMM)
		return Evidence{Source: a.Name(), Summary: summary, Forecast: &fc}, nil
	})
}
