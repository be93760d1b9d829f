package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

const latLong = `AirportId,AirportName,Latitude,Longitude
12478,John F Kennedy International,40.6413,-73.7781
12892,Los Angeles International,33.9416,-118.4085
10001,Nowhere Strip,,
`

func TestLoadAirports(t *testing.T) {
	airports, err := LoadAirports(strings.NewReader(latLong))
	require.NoError(t, err)
	require.Len(t, airports, 2, "rows without coordinates are dropped")
	assert.Equal(t, "Los Angeles International", airports[12892].Name)
}

func TestLoadAirportsMissingColumn(t *testing.T) {
	_, err := LoadAirports(strings.NewReader("AirportId,Latitude\n1,2\n"))
	assert.Error(t, err)
}

func TestGreatCircleMiles(t *testing.T) {
	airports, err := LoadAirports(strings.NewReader(latLong))
	require.NoError(t, err)

	d, ok := airports.Distance(models.RouteKey{Origin: 12478, Dest: 12892})
	require.True(t, ok)
	assert.InDelta(t, 2475, d, 10)

	_, ok = airports.Distance(models.RouteKey{Origin: 12478, Dest: 10001})
	assert.False(t, ok)

	assert.Zero(t, GreatCircleMiles(airports[12478], airports[12478]))
}

func TestCrossCheck(t *testing.T) {
	airports, err := LoadAirports(strings.NewReader(latLong))
	require.NoError(t, err)

	deviations := airports.CrossCheck([]models.RouteDistance{
		{OriginAirportID: 12478, DestAirportID: 12892, Distance: 2475},
		{OriginAirportID: 12892, DestAirportID: 12478, Distance: 3100},
		{OriginAirportID: 12478, DestAirportID: 10001, Distance: 10},
	}, 0.05)

	require.Len(t, deviations, 1)
	assert.Equal(t, models.RouteKey{Origin: 12892, Dest: 12478}, deviations[0].Route)
	assert.Greater(t, deviations[0].Ratio, 1.2)
}
