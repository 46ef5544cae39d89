// Package geocode turns device coordinates into a city name.
package geocode

import (
	"context"
	"log/slog"

	"github.com/Dev-Dami/Weather-App/internal/observability"
)

// DefaultFallbackCity is used whenever a lookup fails or names nothing.
const DefaultFallbackCity = "Lagos"

type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

type Resolver struct {
	reverser Reverser
	fallback string
}

func NewResolver(r Reverser, fallback string) *Resolver {
	if fallback == "" {
		fallback = DefaultFallbackCity
	}
	return &Resolver{reverser: r, fallback: fallback}
}

// Name picks the most specific non-empty name of a place: city, then locality,
// then principal subdivision.
func (p Place) Name() string {
	switch {
	case p.City != "":
		return p.City
	case p.Locality != "":
		return p.Locality
	default:
		return p.PrincipalSubdivision
	}
}

// ResolveCity issues a single lookup and never fails: errors and empty answers
// both yield the fallback city.
func (r *Resolver) ResolveCity(ctx context.Context, lat, lon float64) string {
	place, err := r.reverser.Reverse(ctx, lat, lon)
	if err != nil {
		slog.Error("error fetching city from coordinates", "lat", lat, "lon", lon, "error", err)
		observability.FallbackCities.Inc()
		return r.fallback
	}
	if name := place.Name(); name != "" {
		return name
	}
	slog.Warn("reverse geocoding returned no name, using fallback", "lat", lat, "lon", lon, "fallback", r.fallback)
	observability.FallbackCities.Inc()
	return r.fallback
}
