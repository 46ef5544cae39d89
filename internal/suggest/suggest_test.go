package suggest

import (
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestSuggest(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty input returns defaults", "", []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Dubai", "Singapore"}},
		{"region identifier", "asia", []string{"Tokyo", "Seoul", "Shanghai", "Bangkok", "Hong Kong", "Singapore"}},
		{"region identifier any case", "EUROPE", []string{"London", "Paris", "Berlin", "Rome", "Madrid", "Amsterdam"}},
		{"input contains region", "trip to europe", []string{"London", "Paris", "Berlin", "Rome", "Madrid", "Amsterdam"}},
		{"prefix of camel case region", "middle", []string{"Dubai", "Abu Dhabi", "Doha", "Riyadh", "Tel Aviv"}},
		{"substring of region", "ocean", []string{"Sydney", "Melbourne", "Auckland", "Brisbane", "Perth"}},
		{"city substring", "lon", []string{"London"}},
		{"city substring keeps catalog order", "ang", []string{"Los Angeles", "Shanghai", "Bangkok"}},
		{"city match is capped", " ", []string{"New York", "Los Angeles", "San Francisco", "Las Vegas", "Hong Kong", "Abu Dhabi"}},
		{"region identifier keeps its case", "east", []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Dubai"}},
		{"lowercased camel case region does not match", "middleeast", []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Dubai"}},
		{"no match returns fallback", "zzzz", []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Dubai"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Suggest(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Suggest(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSuggestNeverEmptyAndBounded(t *testing.T) {
	for _, in := range []string{"a", "x", "Par", "hong", "qqq", "tel aviv", "123"} {
		got := Suggest(in)
		if len(got) == 0 {
			t.Fatalf("Suggest(%q) returned nothing", in)
		}
		if len(got) > MaxResults {
			t.Fatalf("Suggest(%q) returned %d items", in, len(got))
		}
	}
}

func TestSuggestReturnsFreshSlices(t *testing.T) {
	first := Suggest("")
	first[0] = "Atlantis"
	if Suggest("")[0] != "New York" {
		t.Fatalf("defaults were mutated through a returned slice")
	}
}

func TestCappedEngineKeepsShortRegions(t *testing.T) {
	e := Engine{CapRegionMatches: true}
	if got := e.Suggest("usa"); len(got) != 6 || got[0] != "New York" {
		t.Fatalf("unexpected region result: %v", got)
	}
}

func TestFoldRegionCaseEngine(t *testing.T) {
	e := Engine{FoldRegionCase: true}
	want := []string{"Dubai", "Abu Dhabi", "Doha", "Riyadh", "Tel Aviv"}
	for _, in := range []string{"east", "middleeast", "leeast"} {
		if got := e.Suggest(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("Suggest(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestFeatured(t *testing.T) {
	want := []string{"New York", "London", "Tokyo", "Paris", "Sydney"}
	if got := Featured(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Featured() = %v; want %v", got, want)
	}
}

func TestDebouncerRunsLastTrigger(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var last atomic.Int64
	var calls atomic.Int64
	for i := 1; i <= 5; i++ {
		n := int64(i)
		d.Trigger(func() {
			calls.Add(1)
			last.Store(n)
		})
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if calls.Load() != 1 {
		t.Fatalf("expected exactly one call, got %d", calls.Load())
	}
	if last.Load() != 5 {
		t.Fatalf("expected last trigger to run, got %d", last.Load())
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int64
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("expected no call after Stop, got %d", calls.Load())
	}
}
