// Package weatherapi fetches current conditions and the daily forecast from weatherapi.com.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dev-Dami/Weather-App/internal/models"
	"github.com/Dev-Dami/Weather-App/internal/observability"
)

const (
	DefaultBaseURL = "https://api.weatherapi.com"
	DefaultDays    = 5
	forecastPath   = "/v1/forecast.json"
)

// ErrEmptyCity is returned without contacting the API.
var ErrEmptyCity = errors.New("city name is empty")

type Client struct {
	apiKey     string
	baseURL    string
	days       int
	httpClient *http.Client
	now        func() time.Time
}

// StatusError carries a non-200 answer from the weather API.
type StatusError struct {
	Status int
	Body   string
}

func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather API returned status %d", e.Status)
	}
	return fmt.Sprintf("weather API returned status %d: %s", e.Status, e.Body)
}

// IsAuthFailure reports whether err is a rejected API key.
func IsAuthFailure(err error) bool {
	var se StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
}

type Options struct {
	APIKey  string
	BaseURL string
	Days    int
	Timeout time.Duration
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		days:       opts.Days,
		httpClient: observability.NewHTTPClient("weatherapi", opts.Timeout),
		now:        time.Now,
	}
}

// UsesSampleData reports whether the client answers from built-in sample data
// because no API key is configured.
func (c *Client) UsesSampleData() bool { return c.apiKey == "" }

type apiCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type forecastResponse struct {
	Current *struct {
		TempC     float64      `json:"temp_c"`
		Condition apiCondition `json:"condition"`
		Humidity  float64      `json:"humidity"`
		WindKPH   float64      `json:"wind_kph"`
	} `json:"current"`
	Forecast *struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				AvgTempC  float64      `json:"avgtemp_c"`
				AvgTempF  float64      `json:"avgtemp_f"`
				Condition apiCondition `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Fetch retrieves current conditions and the daily forecast for city in one call.
func (c *Client) Fetch(ctx context.Context, city string) (models.Snapshot, error) {
	if strings.TrimSpace(city) == "" {
		return models.Snapshot{}, ErrEmptyCity
	}
	if c.apiKey == "" {
		return c.sampleSnapshot(city), nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", city)
	q.Set("days", strconv.Itoa(c.days))
	q.Set("aqi", "no")
	q.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+forecastPath+"?"+q.Encode(), nil)
	if err != nil {
		return models.Snapshot{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("fetching forecast for %s: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := StatusError{Status: resp.StatusCode, Body: string(body)}
		if IsAuthFailure(err) {
			slog.Error("weather API rejected the configured key, check WEATHER_API_KEY", "status", resp.StatusCode)
		}
		return models.Snapshot{}, err
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Snapshot{}, fmt.Errorf("decoding forecast for %s: %w", city, err)
	}
	if payload.Current == nil || payload.Forecast == nil {
		return models.Snapshot{}, fmt.Errorf("decoding forecast for %s: missing current or forecast section", city)
	}

	snap := models.Snapshot{
		City: city,
		Current: models.CurrentWeather{
			TempC:     payload.Current.TempC,
			Condition: models.Condition(payload.Current.Condition),
			Humidity:  payload.Current.Humidity,
			WindKPH:   payload.Current.WindKPH,
		},
		Forecast:  make([]models.ForecastDay, 0, len(payload.Forecast.ForecastDay)),
		FetchedAt: c.now().UTC(),
	}
	for _, d := range payload.Forecast.ForecastDay {
		snap.Forecast = append(snap.Forecast, models.ForecastDay{
			Date:      d.Date,
			AvgTempC:  d.Day.AvgTempC,
			AvgTempF:  d.Day.AvgTempF,
			Condition: models.Condition(d.Day.Condition),
		})
	}
	return snap, nil
}

// sampleSnapshot keeps the app usable without an API key.
func (c *Client) sampleSnapshot(city string) models.Snapshot {
	now := c.now().UTC()
	conditions := []models.Condition{
		{Text: "Sunny", Icon: "//cdn.weatherapi.com/weather/64x64/day/113.png"},
		{Text: "Partly cloudy", Icon: "//cdn.weatherapi.com/weather/64x64/day/116.png"},
		{Text: "Patchy rain possible", Icon: "//cdn.weatherapi.com/weather/64x64/day/176.png"},
	}

	forecast := make([]models.ForecastDay, 0, c.days)
	for i := 0; i < c.days; i++ {
		tc := 22 + float64((i%5)-2)
		forecast = append(forecast, models.ForecastDay{
			Date:      now.AddDate(0, 0, i).Format(time.DateOnly),
			AvgTempC:  tc,
			AvgTempF:  celsiusToFahrenheit(tc),
			Condition: conditions[i%len(conditions)],
		})
	}

	return models.Snapshot{
		City: city,
		Current: models.CurrentWeather{
			TempC:     24,
			Condition: conditions[0],
			Humidity:  62,
			WindKPH:   11.2,
		},
		Forecast:  forecast,
		FetchedAt: now,
		Sample:    true,
	}
}

func celsiusToFahrenheit(c float64) float64 {
	return float64(int((c*9/5+32)*10+0.5)) / 10
}
