package models

import (
	"testing"
	"time"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		City: "Paris",
		Forecast: []ForecastDay{
			{Date: "2026-10-18", AvgTempC: 12.1, AvgTempF: 53.8},
			{Date: "2026-10-19", AvgTempC: 13.4, AvgTempF: 56.1},
			{Date: "2026-10-20", AvgTempC: 11.0, AvgTempF: 51.8},
			{Date: "2026-10-21", AvgTempC: 10.2, AvgTempF: 50.4},
			{Date: "2026-10-22", AvgTempC: 9.9, AvgTempF: 49.8},
		},
	}
}

func TestDayLabel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2026-10-18", "Sun, Oct 18"},
		{"2026-01-05", "Mon, Jan 5"},
		{"not-a-date", "not-a-date"},
	}
	for _, tc := range cases {
		if got := DayLabel(tc.in); got != tc.want {
			t.Fatalf("DayLabel(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestTrendAndCards(t *testing.T) {
	s := sampleSnapshot()
	trend := s.Trend()
	if len(trend) != 5 {
		t.Fatalf("expected 5 trend points, got %d", len(trend))
	}
	if trend[1].Label != "Mon, Oct 19" || trend[1].AvgTempF != 56.1 {
		t.Fatalf("unexpected trend point: %+v", trend[1])
	}

	cards := s.Cards()
	if len(cards) != CardCount {
		t.Fatalf("expected %d cards, got %d", CardCount, len(cards))
	}

	short := Snapshot{Forecast: s.Forecast[:2]}
	if got := len(short.Cards()); got != 2 {
		t.Fatalf("expected 2 cards, got %d", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleSnapshot()
	c := s.Clone()
	c.Forecast[0].AvgTempC = 99
	if s.Forecast[0].AvgTempC == 99 {
		t.Fatalf("Clone shares forecast slice")
	}
	var nilSnap *Snapshot
	if nilSnap.Clone() != nil {
		t.Fatalf("expected nil clone of nil snapshot")
	}
}

func TestDisplayTime(t *testing.T) {
	ts := time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC)
	if got := DisplayTime(ts); got != "Sun, Oct 18, 2026, 3:04 PM" {
		t.Fatalf("DisplayTime = %q", got)
	}
}

func TestNewWeatherViewDisplayTime(t *testing.T) {
	fetched := time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC)
	v := NewWeatherView(Snapshot{City: "Lagos", FetchedAt: fetched, Sample: true})
	if v.DisplayTime != "Sun, Oct 18, 2026, 3:04 PM" {
		t.Fatalf("DisplayTime = %q", v.DisplayTime)
	}
	if !v.Sample {
		t.Fatalf("expected sample flag to carry into the view")
	}

	if got := NewWeatherView(Snapshot{City: "Lagos"}).DisplayTime; got != "" {
		t.Fatalf("expected no display time without a fetch time, got %q", got)
	}
}
