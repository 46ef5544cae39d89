// Package mqtt publishes applied weather snapshots to an MQTT broker so other
// consumers (dashboards, automations, history) can follow a city's conditions.
package mqtt

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Dev-Dami/Weather-App/internal/models"
	"github.com/Dev-Dami/Weather-App/internal/session"
)

const DefaultTopicPrefix = "weather"

type publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// SnapshotMessage is the retained payload on <prefix>/<city>/snapshot.
type SnapshotMessage struct {
	Session   string                `json:"session"`
	City      string                `json:"city"`
	Stale     bool                  `json:"stale"`
	Sample    bool                  `json:"sample"`
	Current   models.CurrentWeather `json:"current"`
	Forecast  []models.ForecastDay  `json:"forecast"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// Publisher implements session.Listener and forwards snapshot events.
type Publisher struct {
	client publisher
	prefix string
}

func NewPublisher(client publisher, prefix string) *Publisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

// Topic returns the snapshot topic for city, or "" when the city has no usable
// characters.
func Topic(prefix, city string) string {
	slug := citySlug(city)
	if slug == "" {
		return ""
	}
	return prefix + "/" + slug + "/snapshot"
}

func (p *Publisher) Publish(ev session.Event) {
	if ev.Type != session.EventSnapshot || ev.View.Weather == nil {
		return
	}
	w := ev.View.Weather
	topic := Topic(p.prefix, w.City)
	if topic == "" {
		return
	}
	b, err := json.Marshal(SnapshotMessage{
		Session:   ev.Session,
		City:      w.City,
		Stale:     ev.View.Stale,
		Sample:    w.Sample,
		Current:   w.Current,
		Forecast:  w.Forecast,
		FetchedAt: w.FetchedAt,
	})
	if err != nil {
		slog.Error("failed to encode snapshot message", "city", w.City, "error", err)
		return
	}
	if err := p.client.Publish(topic, b, true); err != nil {
		slog.Warn("mqtt publish failed", "topic", topic, "error", err)
		return
	}
	slog.Debug("snapshot published", "topic", topic)
}

// citySlug lowercases city and collapses every run of non-alphanumerics to "-".
func citySlug(city string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(city)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
