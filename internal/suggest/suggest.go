// Package suggest turns search-box text into city suggestions.
package suggest

import (
	"strings"

	"github.com/Dev-Dami/Weather-App/internal/catalog"
)

// MaxResults bounds the city-name match branch.
const MaxResults = 6

// FeaturedCount is the number of quick-pick cities shown next to the search box.
const FeaturedCount = 5

// Engine maps free text to candidate city names. The zero value is ready to use.
type Engine struct {
	// CapRegionMatches applies MaxResults to region matches too. Off by default so a
	// region query returns the whole region.
	CapRegionMatches bool
	// FoldRegionCase lowercases region identifiers before matching, so "east"
	// reaches "middleEast". Off by default: only the input is lowercased.
	FoldRegionCase bool
}

var defaultEngine Engine

// Suggest runs the default engine.
func Suggest(input string) []string { return defaultEngine.Suggest(input) }

// Suggest returns an ordered, never empty list of city names for input.
//
// Empty input yields the curated defaults. Otherwise a region whose identifier
// contains or is contained in the lowercased input wins (identifiers keep their
// case, so "middleeast" does not match "middleEast"), then a substring search
// over all cities in catalog order, then the fixed fallback list.
func (e Engine) Suggest(input string) []string {
	q := strings.ToLower(input)
	if q == "" {
		return catalog.Defaults()
	}

	for _, r := range catalog.Regions() {
		id := r.ID
		if e.FoldRegionCase {
			id = strings.ToLower(id)
		}
		if strings.Contains(id, q) || strings.Contains(q, id) {
			if e.CapRegionMatches && len(r.Cities) > MaxResults {
				return r.Cities[:MaxResults]
			}
			return r.Cities
		}
	}

	matches := make([]string, 0, MaxResults)
	for _, city := range catalog.Cities() {
		if strings.Contains(strings.ToLower(city), q) {
			matches = append(matches, city)
			if len(matches) == MaxResults {
				break
			}
		}
	}
	if len(matches) > 0 {
		return matches
	}
	return catalog.Fallback()
}

// Featured returns the quick-pick cities.
func Featured() []string {
	return catalog.Defaults()[:FeaturedCount]
}
