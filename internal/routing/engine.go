// Package routing implements the K-best connection scan engine:
// a forward scan over a sorted connection array that propagates
// bounded per-stop label lists and recovers up to K distinct
// itineraries from the origin set to the destination set.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/passbi/journeyplanner/internal/models"
)

// ErrCancelled is returned when ctx is done before the scan completes.
var ErrCancelled = errors.New("routing: cancelled")

// cancelCheckInterval sets how often the scan loop polls ctx.Done().
const cancelCheckInterval = 1 << 16

// LabelListSize returns the per-stop label list bound L = max(8, 3K).
func LabelListSize(k int) int {
	l := 3 * k
	if l < 8 {
		l = 8
	}
	return l
}

// Scan runs the connection scan over a date's sorted connection array
// and returns up to k distinct itineraries from any stop in origins to
// any stop in destinations, departing no earlier than tStart. origins
// and destinations are endpoint-equivalence classes, already expanded
// via the station topology index. Itineraries are ordered by earliest
// alight at the destination.
func Scan(ctx context.Context, connections []models.Connection, origins, destinations map[string]struct{}, tStart, k int) ([]models.Itinerary, error) {
	if k <= 0 {
		k = 1
	}
	l := LabelListSize(k)
	store := newLabelStore(l)

	for stopID := range origins {
		store.insert(stopID, &models.Label{Arrival: tStart})
	}

	for i, c := range connections {
		if i%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			default:
			}
		}

		w := store.kthSmallestArrival(destinations, k)
		if c.DepTime > w {
			break
		}

		depLabels := store.at(c.DepStop)
		if len(depLabels) == 0 {
			continue
		}

		for _, boarding := range depLabels {
			if boarding.Arrival > c.DepTime {
				break
			}

			candidate := &models.Label{
				Arrival:   c.ArrTime,
				Back:      boarding,
				TripID:    c.TripID,
				BoardStop: c.DepStop,
				BoardTime: c.DepTime,
				RouteName: c.RouteName,
			}
			store.insert(c.ArrStop, candidate)
		}
	}

	return recover(store, destinations, k), nil
}

// recover gathers all labels stored at any destination stop and
// reconstructs itineraries from their back pointers until k distinct
// itineraries have been produced. Labels are ordered by
// (arrival, stop id, board time, trip id) - a total order, so which
// candidates survive a tie at the K-best cutoff never depends on the
// destinations map's iteration order.
func recover(store *labelStore, destinations map[string]struct{}, k int) []models.Itinerary {
	type found struct {
		stopID string
		label  *models.Label
	}
	var labels []found
	for stopID := range destinations {
		for _, label := range store.at(stopID) {
			labels = append(labels, found{stopID: stopID, label: label})
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := labels[i], labels[j]
		if a.label.Arrival != b.label.Arrival {
			return a.label.Arrival < b.label.Arrival
		}
		if a.stopID != b.stopID {
			return a.stopID < b.stopID
		}
		if a.label.BoardTime != b.label.BoardTime {
			return a.label.BoardTime < b.label.BoardTime
		}
		return a.label.TripID < b.label.TripID
	})

	var itineraries []models.Itinerary
	seen := make(map[string]bool)

	for _, f := range labels {
		if len(itineraries) >= k {
			break
		}
		if f.label.IsSentinel() {
			continue
		}

		itin, ok := reconstruct(f.stopID, f.label)
		if !ok {
			continue
		}
		key := itin.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		itineraries = append(itineraries, itin)
	}

	return itineraries
}

// rideLeg is one trip-board-to-alight hop before consecutive
// same-trip legs are merged into a RideSegment.
type rideLeg struct {
	tripID     string
	boardStop  string
	boardTime  int
	alightStop string
	alightTime int
	routeName  string
}

// reconstruct walks label's back-pointer chain to its sentinel,
// reverses it into chronological order, and merges consecutive legs
// that share the same trip id into single ride segments. finalStop is
// the destination stop id the label is stored at, needed because a
// Label records where it boarded, not where it was alighted. Returns
// false if a cycle is detected — a defensive guard; the label DAG
// should never contain one.
func reconstruct(finalStop string, label *models.Label) (models.Itinerary, bool) {
	visited := make(map[*models.Label]bool)
	var chain []*models.Label
	for cur := label; cur != nil && !cur.IsSentinel(); cur = cur.Back {
		if visited[cur] {
			return models.Itinerary{}, false
		}
		visited[cur] = true
		chain = append(chain, cur)
	}
	if len(chain) == 0 {
		return models.Itinerary{}, false
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	var legs []rideLeg
	for i, link := range chain {
		alightStop := finalStop
		if i+1 < len(chain) {
			alightStop = chain[i+1].BoardStop
		}

		if n := len(legs); n > 0 && legs[n-1].tripID == link.TripID && legs[n-1].alightStop == link.BoardStop {
			legs[n-1].alightStop = alightStop
			legs[n-1].alightTime = link.Arrival
			continue
		}

		legs = append(legs, rideLeg{
			tripID:     link.TripID,
			boardStop:  link.BoardStop,
			boardTime:  link.BoardTime,
			alightStop: alightStop,
			alightTime: link.Arrival,
			routeName:  link.RouteName,
		})
	}

	segments := make([]models.RideSegment, 0, len(legs))
	prevAlightTime := 0
	for i, leg := range legs {
		wait := 0
		if i > 0 {
			wait = leg.boardTime - prevAlightTime
		}
		segments = append(segments, models.RideSegment{
			BoardStopID:  leg.boardStop,
			BoardTime:    leg.boardTime,
			AlightStopID: leg.alightStop,
			AlightTime:   leg.alightTime,
			RouteName:    leg.routeName,
			WaitSeconds:  wait,
		})
		prevAlightTime = leg.alightTime
	}

	return models.Itinerary{Segments: segments}, true
}
