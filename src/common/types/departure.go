package types

import "time"

// Source records which tier of the fetch chain produced a snapshot.
type Source string

const (
	SourceLive  Source = "live"
	SourceProxy Source = "proxy"
	SourceMock  Source = "mock"
)

type Departure struct {
	Line             string    `json:"line"`
	Destination      string    `json:"destination"`
	ScheduledTime    time.Time `json:"scheduled_time"`
	ExpectedTime     time.Time `json:"expected_time"`
	MinutesUntil     int       `json:"minutes_until"`
	DisplayDeviation bool      `json:"display_deviation"`
}

// Snapshot is the unit the cache stores and the hub broadcasts. It is
// immutable once built; every fetch replaces it wholesale.
type Snapshot struct {
	Departures    []Departure            `json:"departures"`
	ByDestination map[string][]Departure `json:"departures_by_destination"`
	FetchedAt     time.Time              `json:"fetched_at"`
	Source        Source                 `json:"source"`
	Stale         bool                   `json:"stale"`
}

func NewSnapshot(departures []Departure, source Source, fetchedAt time.Time) Snapshot {
	return Snapshot{
		Departures:    departures,
		ByDestination: GroupByDestination(departures),
		FetchedAt:     fetchedAt,
		Source:        source,
	}
}

// EmptySnapshot is the value served before the first fetch completes.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Departures:    []Departure{},
		ByDestination: map[string][]Departure{},
	}
}

// MarkStale returns a copy flagged as serving older data.
func (s Snapshot) MarkStale() Snapshot {
	s.Stale = true
	return s
}

// GroupByDestination splits a departure list into per-destination columns,
// preserving the soonest-first order within each group.
func GroupByDestination(departures []Departure) map[string][]Departure {
	grouped := make(map[string][]Departure)
	for _, dep := range departures {
		grouped[dep.Destination] = append(grouped[dep.Destination], dep)
	}
	return grouped
}
