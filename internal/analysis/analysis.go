// Package analysis implements feed-wide reporting queries that sit
// alongside the K-best planner: the fastest direct connection per
// departure hour, the most-frequented stops, and overnight
// connections whose arrival crosses the service-day boundary.
package analysis

import (
	"sort"

	"github.com/passbi/journeyplanner/internal/models"
)

// HourlyFastest is the quickest direct (single-trip, first-to-last
// stop) connection departing within one clock hour.
type HourlyFastest struct {
	DepartureHour   int
	DurationMinutes int
	RouteName       string
}

// FastestDirectConnectionPerHour groups trips by their departure hour
// (first stop_time's departure_time_sec / 3600) and keeps, for each
// hour, the trip with the shortest first-to-last-stop duration.
// Trips with fewer than two stop_times are ignored.
func FastestDirectConnectionPerHour(trips []models.Trip, stopTimes []models.StopTime) []HourlyFastest {
	routeNameByTrip := make(map[string]string, len(trips))
	for _, trip := range trips {
		routeNameByTrip[trip.TripID] = trip.RouteName
	}

	byTrip := make(map[string][]models.StopTime)
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	best := make(map[int]HourlyFastest)
	for tripID, stops := range byTrip {
		if len(stops) < 2 {
			continue
		}
		sort.Slice(stops, func(i, j int) bool {
			return stops[i].StopSequence < stops[j].StopSequence
		})

		first, last := stops[0], stops[len(stops)-1]
		duration := last.ArrivalSec - first.DepartureSec
		if duration <= 0 {
			continue
		}
		hour := first.DepartureSec / 3600

		candidate := HourlyFastest{
			DepartureHour:   hour,
			DurationMinutes: duration / 60,
			RouteName:       routeNameByTrip[tripID],
		}
		if existing, ok := best[hour]; !ok || candidate.DurationMinutes < existing.DurationMinutes {
			best[hour] = candidate
		}
	}

	result := make([]HourlyFastest, 0, len(best))
	for _, v := range best {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DepartureHour < result[j].DepartureHour
	})
	return result
}

// StopFrequency is a stop's occurrence count across all stop_times.
type StopFrequency struct {
	StopName  string
	Frequency int
}

// TopFrequentedStops counts stop_times rows per stop id and returns
// the limit stops with the highest counts, ties broken by stop name
// ascending for determinism.
func TopFrequentedStops(stopTimes []models.StopTime, stops []models.Stop, limit int) []StopFrequency {
	names := make(map[string]string, len(stops))
	for _, s := range stops {
		names[s.ID] = s.Name
	}

	counts := make(map[string]int)
	for _, st := range stopTimes {
		counts[st.StopID]++
	}

	result := make([]StopFrequency, 0, len(counts))
	for stopID, count := range counts {
		result = append(result, StopFrequency{StopName: names[stopID], Frequency: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Frequency != result[j].Frequency {
			return result[i].Frequency > result[j].Frequency
		}
		return result[i].StopName < result[j].StopName
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// OvernightConnection is one stop_times row whose arrival crosses the
// service-day boundary (arrival before departure, or past 24:00:00).
type OvernightConnection struct {
	TripID       string
	StopName     string
	DepartureSec int
	ArrivalSec   int
	RouteName    string
}

// OvernightConnections finds stop_times rows where arrival_time_sec is
// either less than departure_time_sec (a malformed or rolled-over
// clock) or at/past 24*3600 (a genuine next-day arrival), truncated to
// limit.
func OvernightConnections(stopTimes []models.StopTime, trips []models.Trip, stops []models.Stop, limit int) []OvernightConnection {
	routeNameByTrip := make(map[string]string, len(trips))
	for _, trip := range trips {
		routeNameByTrip[trip.TripID] = trip.RouteName
	}
	names := make(map[string]string, len(stops))
	for _, s := range stops {
		names[s.ID] = s.Name
	}

	var result []OvernightConnection
	for _, st := range stopTimes {
		if st.ArrivalSec >= st.DepartureSec && st.ArrivalSec < 24*3600 {
			continue
		}
		result = append(result, OvernightConnection{
			TripID:       st.TripID,
			StopName:     names[st.StopID],
			DepartureSec: st.DepartureSec,
			ArrivalSec:   st.ArrivalSec,
			RouteName:    routeNameByTrip[st.TripID],
		})
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}
