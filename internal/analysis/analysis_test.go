package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/journeyplanner/internal/models"
)

func TestFastestDirectConnectionPerHourKeepsOnlyTheMinimumPerHour(t *testing.T) {
	trips := []models.Trip{
		{TripID: "Slow", RouteName: "R-Slow"},
		{TripID: "Fast", RouteName: "R-Fast"},
		{TripID: "OtherHour", RouteName: "R-Other"},
	}
	stopTimes := []models.StopTime{
		{TripID: "Slow", StopSequence: 1, DepartureSec: 8 * 3600},
		{TripID: "Slow", StopSequence: 2, ArrivalSec: 8*3600 + 3600},
		{TripID: "Fast", StopSequence: 1, DepartureSec: 8*3600 + 100},
		{TripID: "Fast", StopSequence: 2, ArrivalSec: 8*3600 + 100 + 1200},
		{TripID: "OtherHour", StopSequence: 1, DepartureSec: 9 * 3600},
		{TripID: "OtherHour", StopSequence: 2, ArrivalSec: 9*3600 + 600},
	}

	result := FastestDirectConnectionPerHour(trips, stopTimes)

	require.Len(t, result, 2)
	assert.Equal(t, 8, result[0].DepartureHour)
	assert.Equal(t, "R-Fast", result[0].RouteName)
	assert.Equal(t, 9, result[1].DepartureHour)
}

func TestFastestDirectConnectionPerHourIgnoresSingleStopTrips(t *testing.T) {
	trips := []models.Trip{{TripID: "Lone"}}
	stopTimes := []models.StopTime{
		{TripID: "Lone", StopSequence: 1, DepartureSec: 8 * 3600},
	}

	result := FastestDirectConnectionPerHour(trips, stopTimes)
	assert.Empty(t, result)
}

func TestTopFrequentedStopsOrdersByCountDescending(t *testing.T) {
	stops := []models.Stop{
		{ID: "A", Name: "Alpha"},
		{ID: "B", Name: "Beta"},
		{ID: "C", Name: "Gamma"},
	}
	stopTimes := []models.StopTime{
		{StopID: "A"}, {StopID: "A"}, {StopID: "A"},
		{StopID: "B"}, {StopID: "B"},
		{StopID: "C"},
	}

	result := TopFrequentedStops(stopTimes, stops, 2)
	require.Len(t, result, 2)
	assert.Equal(t, "Alpha", result[0].StopName)
	assert.Equal(t, 3, result[0].Frequency)
	assert.Equal(t, "Beta", result[1].StopName)
}

func TestOvernightConnectionsFindsArrivalPastMidnightOrBeforeDeparture(t *testing.T) {
	trips := []models.Trip{{TripID: "T1", RouteName: "R1"}}
	stops := []models.Stop{{ID: "X", Name: "Endstation"}}
	stopTimes := []models.StopTime{
		{TripID: "T1", StopID: "X", DepartureSec: 8 * 3600, ArrivalSec: 8*3600 + 60},     // normal, excluded
		{TripID: "T1", StopID: "X", DepartureSec: 23*3600 + 3000, ArrivalSec: 25 * 3600}, // past 24h, included
		{TripID: "T1", StopID: "X", DepartureSec: 23*3600 + 3000, ArrivalSec: 23 * 3600}, // arrival < departure, included
	}

	result := OvernightConnections(stopTimes, trips, stops, 10)
	assert.Len(t, result, 2)
}

func TestOvernightConnectionsRespectsLimit(t *testing.T) {
	var stopTimes []models.StopTime
	for i := 0; i < 5; i++ {
		stopTimes = append(stopTimes, models.StopTime{TripID: "T", DepartureSec: 23 * 3600, ArrivalSec: 25 * 3600})
	}

	result := OvernightConnections(stopTimes, nil, nil, 3)
	assert.Len(t, result, 3)
}
