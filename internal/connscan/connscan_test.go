package connscan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/journeyplanner/internal/models"
)

func TestBuildEmitsAdjacentPairsForActiveServiceOnly(t *testing.T) {
	trips := []models.Trip{
		{TripID: "T1", ServiceID: "S1", RouteName: "R1"},
		{TripID: "T2", ServiceID: "S2", RouteName: "R2"},
	}
	stopTimes := []models.StopTime{
		{TripID: "T1", StopID: "A", StopSequence: 1, DepartureSec: 100},
		{TripID: "T1", StopID: "B", StopSequence: 2, ArrivalSec: 200, DepartureSec: 200},
		{TripID: "T1", StopID: "C", StopSequence: 3, ArrivalSec: 300},
		{TripID: "T2", StopID: "A", StopSequence: 1, DepartureSec: 50},
		{TripID: "T2", StopID: "B", StopSequence: 2, ArrivalSec: 150},
	}
	active := map[string]struct{}{"S1": {}}

	conns := Build(trips, stopTimes, active, 0)

	assert.Len(t, conns, 2)
	assert.Equal(t, "A", conns[0].DepStop)
	assert.Equal(t, "B", conns[0].ArrStop)
	assert.Equal(t, "B", conns[1].DepStop)
	assert.Equal(t, "C", conns[1].ArrStop)
}

func TestBuildDiscardsNonPositiveDuration(t *testing.T) {
	trips := []models.Trip{{TripID: "T1", ServiceID: "S1"}}
	stopTimes := []models.StopTime{
		{TripID: "T1", StopID: "A", StopSequence: 1, DepartureSec: 500},
		{TripID: "T1", StopID: "B", StopSequence: 2, ArrivalSec: 500}, // arr == dep, must be discarded
	}
	active := map[string]struct{}{"S1": {}}

	conns := Build(trips, stopTimes, active, 0)
	assert.Empty(t, conns)
}

func TestBuildDiscardsConnectionsBeforeTStart(t *testing.T) {
	trips := []models.Trip{{TripID: "T1", ServiceID: "S1"}}
	stopTimes := []models.StopTime{
		{TripID: "T1", StopID: "A", StopSequence: 1, DepartureSec: 100},
		{TripID: "T1", StopID: "B", StopSequence: 2, ArrivalSec: 200, DepartureSec: 200},
		{TripID: "T1", StopID: "C", StopSequence: 3, ArrivalSec: 300},
	}
	active := map[string]struct{}{"S1": {}}

	conns := Build(trips, stopTimes, active, 150)
	assert.Len(t, conns, 1)
	assert.Equal(t, "B", conns[0].DepStop)
}

func TestBuildSortsByDepartureTimeAscending(t *testing.T) {
	trips := []models.Trip{
		{TripID: "T1", ServiceID: "S1"},
		{TripID: "T2", ServiceID: "S1"},
	}
	stopTimes := []models.StopTime{
		{TripID: "T1", StopID: "A", StopSequence: 1, DepartureSec: 500},
		{TripID: "T1", StopID: "B", StopSequence: 2, ArrivalSec: 600},
		{TripID: "T2", StopID: "X", StopSequence: 1, DepartureSec: 100},
		{TripID: "T2", StopID: "Y", StopSequence: 2, ArrivalSec: 200},
	}
	active := map[string]struct{}{"S1": {}}

	conns := Build(trips, stopTimes, active, 0)
	assert.Len(t, conns, 2)
	assert.Equal(t, 100, conns[0].DepTime)
	assert.Equal(t, 500, conns[1].DepTime)
}

func TestBuildIsDeterministicAcrossRepeatedCallsWithTiedDepartures(t *testing.T) {
	trips := []models.Trip{
		{TripID: "T1", ServiceID: "S1"},
		{TripID: "T2", ServiceID: "S1"},
		{TripID: "T3", ServiceID: "S1"},
	}
	stopTimes := []models.StopTime{
		{TripID: "T1", StopID: "A1", StopSequence: 1, DepartureSec: 100},
		{TripID: "T1", StopID: "B1", StopSequence: 2, ArrivalSec: 200},
		{TripID: "T2", StopID: "A2", StopSequence: 1, DepartureSec: 100},
		{TripID: "T2", StopID: "B2", StopSequence: 2, ArrivalSec: 200},
		{TripID: "T3", StopID: "A3", StopSequence: 1, DepartureSec: 100},
		{TripID: "T3", StopID: "B3", StopSequence: 2, ArrivalSec: 200},
	}
	active := map[string]struct{}{"S1": {}}

	first := Build(trips, stopTimes, active, 0)
	for i := 0; i < 20; i++ {
		again := Build(trips, stopTimes, active, 0)
		assert.Equal(t, first, again, "repeated Build calls over identical input must be byte-for-byte identical")
	}

	// All three departures tie at DepTime 100: the tiebreak must order by trip_id.
	assert.Equal(t, []string{"T1", "T2", "T3"}, []string{first[0].TripID, first[1].TripID, first[2].TripID})
}

func TestBuildIgnoresStopTimesForUnknownTrip(t *testing.T) {
	var trips []models.Trip
	stopTimes := []models.StopTime{
		{TripID: "Ghost", StopID: "A", StopSequence: 1, DepartureSec: 100},
		{TripID: "Ghost", StopID: "B", StopSequence: 2, ArrivalSec: 200},
	}
	active := map[string]struct{}{"S1": {}}

	conns := Build(trips, stopTimes, active, 0)
	assert.Empty(t, conns)
}
