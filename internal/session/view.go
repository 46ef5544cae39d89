package session

import (
	"time"

	"github.com/Dev-Dami/Weather-App/internal/models"
)

type State string

const (
	StateIdle              State = "idle"
	StateLocationRequested State = "location_requested"
	StateCityResolved      State = "city_resolved"
	StateWeatherRequested  State = "weather_requested"
	StateWeatherDisplayed  State = "weather_displayed"
)

// View is a point-in-time copy of a session, safe to serialize and share.
type View struct {
	ID          string              `json:"id"`
	State       State               `json:"state"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	City        string              `json:"city"`
	Input       string              `json:"input"`
	Suggestions []string            `json:"suggestions"`
	Featured    []string            `json:"featured"`
	Weather     *models.WeatherView `json:"weather,omitempty"`
	// Stale is set when the last fetch failed and Weather holds older data.
	Stale     bool      `json:"stale"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventType string

const (
	EventLocation    EventType = "location"
	EventCity        EventType = "city"
	EventInput       EventType = "input"
	EventSuggestions EventType = "suggestions"
	EventState       EventType = "state"
	EventSnapshot    EventType = "snapshot"
	EventError       EventType = "error"
	EventClosed      EventType = "closed"
)

type Event struct {
	Type    EventType `json:"type"`
	Session string    `json:"session"`
	View    View      `json:"view"`
	At      time.Time `json:"at"`
}

// Listener receives session events in the order they happened. Publish runs on
// the session's dispatcher goroutine and may block briefly.
type Listener interface {
	Publish(Event)
}

type ListenerFunc func(Event)

func (f ListenerFunc) Publish(ev Event) { f(ev) }

// Listeners fans an event out to each non-nil listener in order.
type Listeners []Listener

func (ls Listeners) Publish(ev Event) {
	for _, l := range ls {
		if l != nil {
			l.Publish(ev)
		}
	}
}
