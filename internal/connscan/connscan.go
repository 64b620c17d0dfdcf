// Package connscan builds the departure-time-sorted connection array that the
// K-best routing engine scans over: one Connection per adjacent
// stop_times pair of every trip running on a given service date.
package connscan

import (
	"log"
	"sort"

	"github.com/passbi/journeyplanner/internal/models"
)

// Build selects trips whose service is in activeServices, joins them
// to their stop_times, and emits a Connection for every adjacent
// stop_sequence pair. Connections with arr_time <= dep_time or
// dep_time < tStart are discarded. The result is sorted by
// (dep_time, trip_id, dep_stop) ascending, a total order that makes
// repeated calls over the same input byte-for-byte identical
// regardless of Go's randomized map iteration.
func Build(trips []models.Trip, stopTimes []models.StopTime, activeServices map[string]struct{}, tStart int) []models.Connection {
	serviceByTrip := make(map[string]string, len(trips))
	routeNameByTrip := make(map[string]string, len(trips))
	for _, trip := range trips {
		serviceByTrip[trip.TripID] = trip.ServiceID
		routeNameByTrip[trip.TripID] = trip.RouteName
	}

	byTrip := make(map[string][]models.StopTime)
	for _, st := range stopTimes {
		serviceID, ok := serviceByTrip[st.TripID]
		if !ok {
			continue
		}
		if _, active := activeServices[serviceID]; !active {
			continue
		}
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	tripIDs := make([]string, 0, len(byTrip))
	for tripID := range byTrip {
		tripIDs = append(tripIDs, tripID)
	}
	sort.Strings(tripIDs)

	var connections []models.Connection
	for _, tripID := range tripIDs {
		stops := byTrip[tripID]
		sort.Slice(stops, func(i, j int) bool {
			return stops[i].StopSequence < stops[j].StopSequence
		})

		routeName := routeNameByTrip[tripID]
		for i := 0; i+1 < len(stops); i++ {
			dep := stops[i]
			arr := stops[i+1]

			if arr.ArrivalSec <= dep.DepartureSec {
				continue
			}
			if dep.DepartureSec < tStart {
				continue
			}

			connections = append(connections, models.Connection{
				TripID:    tripID,
				DepStop:   dep.StopID,
				ArrStop:   arr.StopID,
				DepTime:   dep.DepartureSec,
				ArrTime:   arr.ArrivalSec,
				RouteName: routeName,
			})
		}
	}

	sort.Slice(connections, func(i, j int) bool {
		a, b := connections[i], connections[j]
		if a.DepTime != b.DepTime {
			return a.DepTime < b.DepTime
		}
		if a.TripID != b.TripID {
			return a.TripID < b.TripID
		}
		return a.DepStop < b.DepStop
	})

	log.Printf("connscan: built %d connections from %d trips (t_start=%d)", len(connections), len(byTrip), tStart)
	return connections
}
