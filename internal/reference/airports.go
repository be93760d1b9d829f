package reference

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/golang/geo/s2"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

// EarthRadiusMiles is the mean Earth radius
const EarthRadiusMiles = 3958.8

// Airports indexes airport coordinates by airport ID
type Airports map[int64]models.Airport

// LoadAirports reads AirportId,AirportName,Latitude,Longitude rows. Rows
// without both coordinates are skipped.
func LoadAirports(r io.Reader) (Airports, error) {
	df := dataframe.ReadCSV(r, dataframe.WithTypes(map[string]series.Type{
		"AirportId":   series.Float,
		"AirportName": series.String,
		"Latitude":    series.Float,
		"Longitude":   series.Float,
	}))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read airports: %w", df.Err)
	}

	have := make(map[string]bool)
	for _, name := range df.Names() {
		have[name] = true
	}
	for _, name := range []string{"AirportId", "Latitude", "Longitude"} {
		if !have[name] {
			return nil, fmt.Errorf("airports file lacks column %s", name)
		}
	}

	ids := df.Col("AirportId").Float()
	lats := df.Col("Latitude").Float()
	lngs := df.Col("Longitude").Float()
	var names []string
	if have["AirportName"] {
		names = df.Col("AirportName").Records()
	}

	airports := make(Airports, len(ids))
	for i := range ids {
		if math.IsNaN(ids[i]) || math.IsNaN(lats[i]) || math.IsNaN(lngs[i]) {
			continue
		}
		a := models.Airport{ID: int64(ids[i]), Latitude: lats[i], Longitude: lngs[i]}
		if names != nil {
			a.Name = names[i]
		}
		airports[a.ID] = a
	}
	return airports, nil
}

// GreatCircleMiles returns the great-circle distance between two airports
func GreatCircleMiles(a, b models.Airport) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMiles
}

// Distance returns the great-circle distance of a route, if both airports
// are known.
func (a Airports) Distance(key models.RouteKey) (float64, bool) {
	origin, ok := a[key.Origin]
	if !ok {
		return 0, false
	}
	dest, ok := a[key.Dest]
	if !ok {
		return 0, false
	}
	return GreatCircleMiles(origin, dest), true
}

// Deviation is a route whose reported distance disagrees with geometry
type Deviation struct {
	Route       models.RouteKey `json:"route"`
	Reported    float64         `json:"reported"`
	GreatCircle float64         `json:"great_circle"`
	Ratio       float64         `json:"ratio"`
}

// CrossCheck lists routes whose reported distance deviates from the
// great-circle distance by more than tolerance, as a fraction of the
// great-circle distance. Routes with an unknown airport are skipped.
// Results are ordered by decreasing deviation.
func (a Airports) CrossCheck(distances []models.RouteDistance, tolerance float64) []Deviation {
	var out []Deviation
	for _, d := range distances {
		key := models.RouteKey{Origin: d.OriginAirportID, Dest: d.DestAirportID}
		gc, ok := a.Distance(key)
		if !ok || gc == 0 {
			continue
		}
		ratio := d.Distance / gc
		if math.Abs(ratio-1) > tolerance {
			out = append(out, Deviation{Route: key, Reported: d.Distance, GreatCircle: gc, Ratio: ratio})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Ratio-1) > math.Abs(out[j].Ratio-1)
	})
	return out
}
