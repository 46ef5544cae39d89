package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Dev-Dami/Weather-App/internal/models"
	"github.com/Dev-Dami/Weather-App/internal/session"
)

func newTestStore(t *testing.T, ttl time.Duration) (*ViewStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewViewStore(rdb, ttl), mr
}

func sampleView() session.View {
	wv := models.NewWeatherView(models.Snapshot{
		City:     "Paris",
		Current:  models.CurrentWeather{TempC: 14, Humidity: 77},
		Forecast: []models.ForecastDay{{Date: "2026-10-18", AvgTempC: 12.1, AvgTempF: 53.8}},
	})
	return session.View{
		ID:          "abc",
		State:       session.StateWeatherDisplayed,
		Coordinates: &models.Coordinates{Lat: 48.85, Lon: 2.35},
		City:        "Paris",
		Input:       "Paris",
		Suggestions: []string{},
		Weather:     &wv,
	}
}

func TestViewStoreRoundTrip(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Save(ctx, sampleView()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("weather:session:abc") {
		t.Fatalf("expected key weather:session:abc, got %v", mr.Keys())
	}
	if ttl := mr.TTL("weather:session:abc"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	got, err := s.Load(ctx, "abc")
	if err != nil || got == nil {
		t.Fatalf("Load = %v, %v", got, err)
	}
	if got.City != "Paris" || got.State != session.StateWeatherDisplayed || got.Coordinates.Lat != 48.85 {
		t.Fatalf("unexpected view: %+v", got)
	}
	if got.Weather == nil || got.Weather.Current.TempC != 14 || len(got.Weather.Trend) != 1 {
		t.Fatalf("unexpected weather: %+v", got.Weather)
	}

	mr.FastForward(2 * time.Minute)
	if got, err := s.Load(ctx, "abc"); err != nil || got != nil {
		t.Fatalf("expected expired view, got %v, %v", got, err)
	}
}

func TestViewStoreLoadMissing(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	got, err := s.Load(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestViewStoreLoadCorrupt(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	if err := mr.Set("weather:session:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Load(context.Background(), "bad"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestViewStorePublish(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	v := sampleView()

	s.Publish(session.Event{Type: session.EventSnapshot, Session: v.ID, View: v})
	if !mr.Exists("weather:session:abc") {
		t.Fatalf("expected snapshot event to be mirrored")
	}

	s.Publish(session.Event{Type: session.EventClosed, Session: v.ID, View: v})
	if mr.Exists("weather:session:abc") {
		t.Fatalf("expected closed session to be removed")
	}
}

func TestViewStoreServesManagerLookup(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	if err := s.Save(context.Background(), sampleView()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := session.NewManager(session.Deps{}, time.Minute, s)
	defer m.Close()
	v, err := m.Lookup(context.Background(), "abc")
	if err != nil || v.City != "Paris" {
		t.Fatalf("Lookup = %+v, %v", v, err)
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	_ = rdb.Close()

	addr := mr.Addr()
	mr.Close()
	if _, err := Connect(context.Background(), addr, "", 0); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}
