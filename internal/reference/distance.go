// Package reference builds the route distance table and the airport
// coordinate table used to sanity-check reported distances.
package reference

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

// DistanceTable accumulates how often each distance is reported per route
// across any number of periods. It is safe for concurrent use.
type DistanceTable struct {
	mu     sync.Mutex
	counts map[models.RouteKey]map[float64]int
}

// NewDistanceTable creates an empty table
func NewDistanceTable() *DistanceTable {
	return &DistanceTable{counts: make(map[models.RouteKey]map[float64]int)}
}

// Add counts the reported distance of every record that has one
func (t *DistanceTable) Add(records []models.FlightRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range records {
		if records[i].Distance == nil {
			continue
		}
		key := records[i].Route()
		byDist, ok := t.counts[key]
		if !ok {
			byDist = make(map[float64]int)
			t.counts[key] = byDist
		}
		byDist[*records[i].Distance]++
	}
}

// Routes returns the number of distinct routes seen, self-loops included
func (t *DistanceTable) Routes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counts)
}

// Build picks, for every route that is not a self-loop, the distance
// reported in more than half of its records. Routes without such a
// majority are left out. Results are ordered by origin, then destination.
func (t *DistanceTable) Build() []models.RouteDistance {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []models.RouteDistance
	for key, byDist := range t.counts {
		if key.SelfLoop() {
			continue
		}
		total := 0
		for _, n := range byDist {
			total += n
		}
		for dist, n := range byDist {
			if 2*n > total {
				out = append(out, models.RouteDistance{
					OriginAirportID: key.Origin,
					DestAirportID:   key.Dest,
					Distance:        dist,
					Frequency:       n,
					TotalFrequency:  total,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OriginAirportID != out[j].OriginAirportID {
			return out[i].OriginAirportID < out[j].OriginAirportID
		}
		return out[i].DestAirportID < out[j].DestAirportID
	})
	return out
}

// RouteDistances lists every distance reported for a route with its count
type RouteDistances struct {
	Route       models.RouteKey `json:"route"`
	Distances   []float64       `json:"distances"`
	Frequencies []int           `json:"frequencies"`
}

// RoundTripMismatch is a route whose outbound distances differ from the
// distances reported on the return leg.
type RoundTripMismatch struct {
	Route    models.RouteKey `json:"route"`
	Outbound []float64       `json:"outbound"`
	Return   []float64       `json:"return"`
}

// CheckReport lists the inconsistencies found in a distance table
type CheckReport struct {
	SelfLoops         []int64             `json:"self_loops"`
	MultipleDistances []RouteDistances    `json:"multiple_distances"`
	RoundTrips        []RoundTripMismatch `json:"round_trip_mismatches"`
}

// Problems returns the total number of findings
func (r CheckReport) Problems() int {
	return len(r.SelfLoops) + len(r.MultipleDistances) + len(r.RoundTrips)
}

// Check reports self-loop airports, routes with more than one reported
// distance, and round trips whose two legs disagree. Round trips are
// reported once, keyed by the leg with the smaller origin ID.
func (t *DistanceTable) Check() CheckReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	var report CheckReport
	for _, key := range t.sortedKeys() {
		byDist := t.counts[key]

		if key.SelfLoop() {
			report.SelfLoops = append(report.SelfLoops, key.Origin)
			continue
		}

		dists := sortedDistances(byDist)
		if len(dists) > 1 {
			freqs := make([]int, len(dists))
			for i, d := range dists {
				freqs[i] = byDist[d]
			}
			report.MultipleDistances = append(report.MultipleDistances, RouteDistances{
				Route: key, Distances: dists, Frequencies: freqs,
			})
		}

		if key.Origin >= key.Dest {
			continue
		}
		back, ok := t.counts[key.Reverse()]
		if !ok {
			continue
		}
		returnDists := sortedDistances(back)
		if !equalFloats(dists, returnDists) {
			report.RoundTrips = append(report.RoundTrips, RoundTripMismatch{
				Route: key, Outbound: dists, Return: returnDists,
			})
		}
	}
	return report
}

func (t *DistanceTable) sortedKeys() []models.RouteKey {
	keys := make([]models.RouteKey, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Origin != keys[j].Origin {
			return keys[i].Origin < keys[j].Origin
		}
		return keys[i].Dest < keys[j].Dest
	})
	return keys
}

func sortedDistances(byDist map[float64]int) []float64 {
	out := make([]float64, 0, len(byDist))
	for d := range byDist {
		out = append(out, d)
	}
	sort.Float64s(out)
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WriteDistances writes the table as OriginAirportId,DestAirportId,Distance
func WriteDistances(w io.Writer, distances []models.RouteDistance) error {
	if len(distances) == 0 {
		_, err := io.WriteString(w, "OriginAirportId,DestAirportId,Distance\n")
		return err
	}

	origin := make([]int, len(distances))
	dest := make([]int, len(distances))
	dist := make([]float64, len(distances))
	for i, d := range distances {
		origin[i] = int(d.OriginAirportID)
		dest[i] = int(d.DestAirportID)
		dist[i] = d.Distance
	}

	df := dataframe.New(
		series.New(origin, series.Int, "OriginAirportId"),
		series.New(dest, series.Int, "DestAirportId"),
		series.New(dist, series.Float, "Distance"),
	)
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write distances: %w", err)
	}
	return nil
}
