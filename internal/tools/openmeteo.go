package tools

import (
	"context"
	"fmt"
	"net/url"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// OpenMeteoClient resolves a location name and fetches its current-day
// forecast. Open-Meteo's own geocoder is used here; the nominatim geocoder
// with its 2s budget belongs to the map UI, not to this service.
type OpenMeteoClient struct {
	GeocodeURL  string
	ForecastURL string
	get         getter
}

func NewOpenMeteoClient(opts Options) *OpenMeteoClient {
	return &OpenMeteoClient{
		GeocodeURL:  defaultGeocodeURL,
		ForecastURL: defaultForecastURL,
		get:         newGetter(opts),
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		RainSum []float64 `json:"rain_sum"`
	} `json:"daily"`
}

func (c *OpenMeteoClient) Forecast(ctx context.Context, location string) (Forecast, error) {
	var geo geocodeResponse
	q := url.Values{
		"name":   {location},
		"count":  {"1"},
		"format": {"json"},
	}
	if err := c.get.getJSON(ctx, c.GeocodeURL+"?"+q.Encode(), &geo); err != nil {
		return Forecast{}, fmt.Errorf("geocode %q: %w", location, err)
	}
	if len(geo.Results) == 0 {
		return Forecast{}, fmt.Errorf("no geocoding match for %q", location)
	}
	place := geo.Results[0]

	var fc forecastResponse
	q = url.Values{
		"latitude":      {fmt.Sprintf("%.4f", place.Latitude)},
		"longitude":     {fmt.Sprintf("%.4f", place.Longitude)},
		"current":       {"temperature_2m,relative_humidity_2m,wind_speed_10m"},
		"daily":         {"rain_sum"},
		"forecast_days": {"1"},
		"timezone":      {"auto"},
	}
	if err := c.get.getJSON(ctx, c.ForecastURL+"?"+q.Encode(), &fc); err != nil {
		return Forecast{}, fmt.Errorf("forecast for %q: %w", location, err)
	}

	out := Forecast{
		Location:     place.Name,
		Country:      place.Country,
		TemperatureC: fc.Current.Temperature,
		HumidityPct:  fc.Current.Humidity,
		WindKmh:      fc.Current.WindSpeed,
	}
	if len(fc.Daily.RainSum) > 0 {
		out.RainSumMM = fc.Daily.RainSum[0]
	}
	return out, nil
}
