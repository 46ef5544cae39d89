// Package models holds the weather data shared by the clients, sessions and API.
package models

import "time"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type CurrentWeather struct {
	TempC     float64   `json:"temp_c"`
	Condition Condition `json:"condition"`
	Humidity  float64   `json:"humidity"`
	WindKPH   float64   `json:"wind_kph"`
}

type ForecastDay struct {
	Date      string    `json:"date"`
	AvgTempC  float64   `json:"avgtemp_c"`
	AvgTempF  float64   `json:"avgtemp_f"`
	Condition Condition `json:"condition"`
}

// Snapshot is the complete weather state for one city. It is always replaced as a
// whole, never merged.
type Snapshot struct {
	City      string         `json:"city"`
	Current   CurrentWeather `json:"current"`
	Forecast  []ForecastDay  `json:"forecast"`
	FetchedAt time.Time      `json:"fetched_at"`
	// Sample marks built-in data served when no weather API key is configured.
	Sample bool `json:"sample"`
}

type TrendPoint struct {
	Label    string  `json:"label"`
	AvgTempC float64 `json:"avgtemp_c"`
	AvgTempF float64 `json:"avgtemp_f"`
}

// CardCount is how many forecast days are rendered as cards.
const CardCount = 4

const dayLabelLayout = "Mon, Jan 2"

// DayLabel formats a forecast date (YYYY-MM-DD) the way the chart axis shows it.
// Unparseable dates are returned unchanged.
func DayLabel(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format(dayLabelLayout)
}

// Trend returns one chart point per forecast day.
func (s Snapshot) Trend() []TrendPoint {
	out := make([]TrendPoint, 0, len(s.Forecast))
	for _, d := range s.Forecast {
		out = append(out, TrendPoint{Label: DayLabel(d.Date), AvgTempC: d.AvgTempC, AvgTempF: d.AvgTempF})
	}
	return out
}

// Cards returns the leading forecast days shown as cards.
func (s Snapshot) Cards() []ForecastDay {
	n := min(len(s.Forecast), CardCount)
	out := make([]ForecastDay, n)
	copy(out, s.Forecast[:n])
	return out
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Forecast = make([]ForecastDay, len(s.Forecast))
	copy(c.Forecast, s.Forecast)
	return &c
}

// WeatherView is a snapshot plus the derived chart data, as served to clients.
type WeatherView struct {
	Snapshot
	Trend       []TrendPoint  `json:"trend"`
	Cards       []ForecastDay `json:"cards"`
	DisplayTime string        `json:"display_time,omitempty"`
}

func NewWeatherView(s Snapshot) WeatherView {
	v := WeatherView{Snapshot: s, Trend: s.Trend(), Cards: s.Cards()}
	if !s.FetchedAt.IsZero() {
		v.DisplayTime = DisplayTime(s.FetchedAt)
	}
	return v
}

// DisplayTime formats the "as of" line above current conditions, e.g.
// "Sun, Oct 18, 2026, 3:04 PM".
func DisplayTime(t time.Time) string {
	return t.Format("Mon, Jan 2, 2006, 3:04 PM")
}
