// Package session keeps the per-client state of the weather display: reported
// coordinates, the resolved city, search input, suggestions and the current
// snapshot. Coordinate and city changes are explicit reactions, and only the most
// recent weather request may update the snapshot.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dev-Dami/Weather-App/internal/models"
	"github.com/Dev-Dami/Weather-App/internal/suggest"
)

type CityResolver interface {
	ResolveCity(ctx context.Context, lat, lon float64) string
}

type WeatherFetcher interface {
	Fetch(ctx context.Context, city string) (models.Snapshot, error)
}

type Deps struct {
	Resolver CityResolver
	Weather  WeatherFetcher
	Engine   suggest.Engine
	Listener Listener
	// Debounce delays suggestion recomputation after input changes.
	Debounce time.Duration
	// Timeout bounds each upstream call.
	Timeout time.Duration
}

const eventBuffer = 64

type Session struct {
	id   string
	deps Deps

	ctx    context.Context
	cancel context.CancelFunc

	debouncer *suggest.Debouncer
	events    chan Event
	done      chan struct{}

	mu          sync.Mutex
	closed      bool
	state       State
	coords      *models.Coordinates
	city        string
	input       string
	suggestions []string
	snapshot    *models.Snapshot
	stale       bool
	lastErr     string
	updatedAt   time.Time
	lastSeen    time.Time

	resolveGen  uint64
	fetchGen    uint64
	cancelFetch context.CancelFunc
}

func New(id string, deps Deps) *Session {
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	s := &Session{
		id:          id,
		deps:        deps,
		ctx:         ctx,
		cancel:      cancel,
		debouncer:   suggest.NewDebouncer(deps.Debounce),
		events:      make(chan Event, eventBuffer),
		done:        make(chan struct{}),
		state:       StateIdle,
		suggestions: deps.Engine.Suggest(""),
		updatedAt:   now,
		lastSeen:    now,
	}
	go s.dispatch()
	return s
}

func (s *Session) ID() string { return s.id }

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.viewLocked()
}

// LastSeen is the time of the most recent client interaction.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// ReportLocation reacts to device coordinates. A pair identical to the last one is
// ignored; otherwise the city is resolved once, seeded into the search input, and
// a changed city triggers a weather fetch.
func (s *Session) ReportLocation(lat, lon float64) View {
	s.mu.Lock()
	if s.closed || (s.coords != nil && s.coords.Lat == lat && s.coords.Lon == lon) {
		defer s.mu.Unlock()
		return s.viewLocked()
	}
	s.coords = &models.Coordinates{Lat: lat, Lon: lon}
	s.resolveGen++
	gen := s.resolveGen
	s.state = StateLocationRequested
	s.changedLocked(EventLocation)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.deps.Timeout)
	city := s.deps.Resolver.ResolveCity(ctx, lat, lon)
	cancel()

	s.mu.Lock()
	if s.closed || gen != s.resolveGen {
		defer s.mu.Unlock()
		return s.viewLocked()
	}
	changed := city != s.city
	s.city = city
	s.setInputLocked(city)
	switch {
	case changed:
		s.state = StateCityResolved
	case s.snapshot != nil:
		s.state = StateWeatherDisplayed
	default:
		s.state = StateCityResolved
	}
	s.changedLocked(EventCity)
	s.mu.Unlock()

	if !changed {
		return s.View()
	}
	return s.fetch(city)
}

// SetInput records search text. Empty text shows the default suggestions at once;
// anything else recomputes suggestions after the debounce delay.
func (s *Session) SetInput(text string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.viewLocked()
	}
	s.setInputLocked(text)
	s.changedLocked(EventInput)
	return s.viewLocked()
}

// Search fetches weather for city, or for the current input when city is blank.
// Nothing happens when both are empty.
func (s *Session) Search(city string) View {
	s.mu.Lock()
	if city == "" {
		city = s.input
	}
	if s.closed || strings.TrimSpace(city) == "" {
		defer s.mu.Unlock()
		return s.viewLocked()
	}
	if city != s.city {
		s.city = city
		s.changedLocked(EventCity)
	}
	s.mu.Unlock()
	return s.fetch(city)
}

// Select applies a picked suggestion: it becomes the input and the city, the
// dropdown is cleared, and weather is fetched.
func (s *Session) Select(city string) View {
	s.mu.Lock()
	if s.closed || strings.TrimSpace(city) == "" {
		defer s.mu.Unlock()
		return s.viewLocked()
	}
	s.debouncer.Stop()
	s.input = city
	s.city = city
	s.suggestions = []string{}
	s.changedLocked(EventCity)
	s.mu.Unlock()
	return s.fetch(city)
}

// Close cancels in-flight work and stops event delivery.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.changedLocked(EventClosed)
	s.closed = true
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.mu.Unlock()

	s.debouncer.Stop()
	s.cancel()
	close(s.events)
	<-s.done
}

// fetch starts a weather request for city, cancelling any request still in flight.
// The result is applied only if no newer request started meanwhile.
func (s *Session) fetch(city string) View {
	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.viewLocked()
	}
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.fetchGen++
	gen := s.fetchGen
	ctx, cancel := context.WithTimeout(s.ctx, s.deps.Timeout)
	s.cancelFetch = cancel
	s.state = StateWeatherRequested
	s.changedLocked(EventState)
	s.mu.Unlock()

	snap, err := s.deps.Weather.Fetch(ctx, city)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.viewLocked()
	}
	if gen != s.fetchGen {
		slog.Debug("discarding superseded weather result", "session", s.id, "city", city)
		return s.viewLocked()
	}
	s.cancelFetch = nil

	if err != nil {
		slog.Error("error fetching weather", "session", s.id, "city", city, "error", err)
		s.state = StateIdle
		s.stale = s.snapshot != nil
		s.lastErr = err.Error()
		s.changedLocked(EventError)
		return s.viewLocked()
	}

	s.snapshot = &snap
	s.stale = false
	s.lastErr = ""
	s.state = StateWeatherDisplayed
	s.changedLocked(EventSnapshot)
	return s.viewLocked()
}

func (s *Session) setInputLocked(text string) {
	s.input = text
	if text == "" {
		s.debouncer.Stop()
		s.suggestions = s.deps.Engine.Suggest("")
		s.changedLocked(EventSuggestions)
		return
	}
	s.debouncer.Trigger(func() { s.applySuggestions(text) })
}

func (s *Session) applySuggestions(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.input != text {
		return
	}
	s.suggestions = s.deps.Engine.Suggest(text)
	s.changedLocked(EventSuggestions)
}

// changedLocked stamps the session and queues an event. The queue never blocks
// the caller; a full queue drops the event.
func (s *Session) changedLocked(t EventType) {
	now := time.Now()
	s.updatedAt = now
	s.lastSeen = now
	if s.closed || s.deps.Listener == nil {
		return
	}
	ev := Event{Type: t, Session: s.id, View: s.viewLocked(), At: now.UTC()}
	select {
	case s.events <- ev:
	default:
		slog.Warn("session event queue full, dropping event", "session", s.id, "type", t)
	}
}

func (s *Session) dispatch() {
	defer close(s.done)
	for ev := range s.events {
		s.deps.Listener.Publish(ev)
	}
}

func (s *Session) viewLocked() View {
	v := View{
		ID:          s.id,
		State:       s.state,
		City:        s.city,
		Input:       s.input,
		Suggestions: append([]string(nil), s.suggestions...),
		Featured:    suggest.Featured(),
		Stale:       s.stale,
		LastError:   s.lastErr,
		UpdatedAt:   s.updatedAt.UTC(),
	}
	if v.Suggestions == nil {
		v.Suggestions = []string{}
	}
	if s.coords != nil {
		c := *s.coords
		v.Coordinates = &c
	}
	if s.snapshot != nil {
		wv := models.NewWeatherView(*s.snapshot.Clone())
		v.Weather = &wv
	}
	return v
}
