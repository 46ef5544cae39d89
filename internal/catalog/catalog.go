// Package catalog holds the fixed region to city table used for suggestions.
package catalog

// Region is a named group of cities. The ID is used for matching only and is never
// shown to users.
type Region struct {
	ID     string
	Cities []string
}

var regions = []Region{
	{ID: "usa", Cities: []string{"New York", "Los Angeles", "Chicago", "Miami", "San Francisco", "Las Vegas"}},
	{ID: "europe", Cities: []string{"London", "Paris", "Berlin", "Rome", "Madrid", "Amsterdam"}},
	{ID: "asia", Cities: []string{"Tokyo", "Seoul", "Shanghai", "Bangkok", "Hong Kong", "Singapore"}},
	{ID: "middleEast", Cities: []string{"Dubai", "Abu Dhabi", "Doha", "Riyadh", "Tel Aviv"}},
	{ID: "oceania", Cities: []string{"Sydney", "Melbourne", "Auckland", "Brisbane", "Perth"}},
}

var (
	defaults = []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Dubai", "Singapore"}
	fallback = []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Dubai"}
)

// Regions returns the regions in catalog order. Callers get copies and may modify them.
func Regions() []Region {
	out := make([]Region, len(regions))
	for i, r := range regions {
		out[i] = Region{ID: r.ID, Cities: clone(r.Cities)}
	}
	return out
}

// Cities returns every city flattened across regions, in catalog order.
func Cities() []string {
	var out []string
	for _, r := range regions {
		out = append(out, r.Cities...)
	}
	return out
}

// Defaults is the curated list shown for empty input.
func Defaults() []string { return clone(defaults) }

// Fallback is returned when nothing matches the input.
func Fallback() []string { return clone(fallback) }

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
