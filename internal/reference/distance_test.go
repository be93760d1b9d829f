package reference

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

func leg(origin, dest int64, dist float64) models.FlightRecord {
	return models.FlightRecord{OriginAirportID: origin, DestAirportID: dest, Distance: &dist}
}

func repeat(r models.FlightRecord, n int) []models.FlightRecord {
	out := make([]models.FlightRecord, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func TestBuildKeepsMajorityDistance(t *testing.T) {
	table := NewDistanceTable()
	table.Add(repeat(leg(1, 2, 300), 3))
	table.Add(repeat(leg(1, 2, 310), 1))
	// No majority: 2 of 4 is not more than half.
	table.Add(repeat(leg(3, 4, 500), 2))
	table.Add(repeat(leg(3, 4, 510), 2))
	table.Add(repeat(leg(5, 5, 0), 4))
	table.Add([]models.FlightRecord{{OriginAirportID: 6, DestAirportID: 7}})

	got := table.Build()
	require.Len(t, got, 1)
	assert.Equal(t, models.RouteDistance{
		OriginAirportID: 1, DestAirportID: 2, Distance: 300, Frequency: 3, TotalFrequency: 4,
	}, got[0])
	assert.Equal(t, 3, table.Routes(), "records without a distance are not counted")
}

func TestBuildAccumulatesAcrossPeriods(t *testing.T) {
	table := NewDistanceTable()
	table.Add(repeat(leg(1, 2, 300), 2))
	table.Add(repeat(leg(1, 2, 310), 3))
	table.Add(repeat(leg(1, 2, 300), 2))

	got := table.Build()
	require.Len(t, got, 1)
	assert.Equal(t, 300.0, got[0].Distance)
	assert.Equal(t, 7, got[0].TotalFrequency)
}

func TestCheck(t *testing.T) {
	table := NewDistanceTable()
	table.Add([]models.FlightRecord{
		leg(5, 5, 0),
		leg(1, 2, 300), leg(1, 2, 310),
		leg(2, 1, 300),
		leg(3, 4, 500), leg(4, 3, 500),
		leg(6, 8, 700), leg(8, 6, 710),
	})

	report := table.Check()
	assert.Equal(t, []int64{5}, report.SelfLoops)

	require.Len(t, report.MultipleDistances, 1)
	assert.Equal(t, models.RouteKey{Origin: 1, Dest: 2}, report.MultipleDistances[0].Route)
	assert.Equal(t, []float64{300, 310}, report.MultipleDistances[0].Distances)
	assert.Equal(t, []int{1, 1}, report.MultipleDistances[0].Frequencies)

	require.Len(t, report.RoundTrips, 2)
	assert.Equal(t, RoundTripMismatch{
		Route: models.RouteKey{Origin: 1, Dest: 2}, Outbound: []float64{300, 310}, Return: []float64{300},
	}, report.RoundTrips[0])
	assert.Equal(t, models.RouteKey{Origin: 6, Dest: 8}, report.RoundTrips[1].Route)

	assert.Equal(t, 4, report.Problems())
}

func TestWriteDistances(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDistances(&buf, []models.RouteDistance{
		{OriginAirportID: 1, DestAirportID: 2, Distance: 300},
	}))
	assert.Contains(t, buf.String(), "OriginAirportId,DestAirportId,Distance\n1,2,300")

	buf.Reset()
	require.NoError(t, WriteDistances(&buf, nil))
	assert.Equal(t, "OriginAirportId,DestAirportId,Distance\n", buf.String())
}
