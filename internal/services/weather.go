package services

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WeatherClient looks up current conditions for outdoor session planning.
// Backed by the Open-Meteo API (no key required).
type WeatherClient struct {
	client *resty.Client
}

// NewWeatherClient creates a weather client against the given base URL.
func NewWeatherClient(baseURL string) *WeatherClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)
	return &WeatherClient{client: client}
}

// CurrentWeather is the trimmed payload returned to the dashboard.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"wind_speed"`
	WeatherCode int     `json:"weather_code"`
	Time        string  `json:"time"`
}

type openMeteoResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
		Time        string  `json:"time"`
	} `json:"current_weather"`
}

// Current fetches the current weather at the given coordinates.
func (w *WeatherClient) Current(lat, lon float64) (*CurrentWeather, error) {
	var out openMeteoResponse
	resp, err := w.client.R().
		SetQueryParams(map[string]string{
			"latitude":        fmt.Sprintf("%.4f", lat),
			"longitude":       fmt.Sprintf("%.4f", lon),
			"current_weather": "true",
		}).
		SetResult(&out).
		Get("/forecast")
	if err != nil {
		return nil, fmt.Errorf("weather lookup failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("weather lookup failed: %s", resp.Status())
	}

	return &CurrentWeather{
		Temperature: out.CurrentWeather.Temperature,
		WindSpeed:   out.CurrentWeather.WindSpeed,
		WeatherCode: out.CurrentWeather.WeatherCode,
		Time:        out.CurrentWeather.Time,
	}, nil
}
