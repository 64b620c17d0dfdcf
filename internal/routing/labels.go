package routing

import (
	"math"

	"github.com/passbi/journeyplanner/internal/models"
)

// labelStore holds, per stop id, a bounded sorted list of labels
// ordered by arrival time ascending. Bounding each list to maxSize
// caps memory and keeps insertion linear in maxSize.
type labelStore struct {
	maxSize int
	byStop  map[string][]*models.Label
}

func newLabelStore(maxSize int) *labelStore {
	return &labelStore{maxSize: maxSize, byStop: make(map[string][]*models.Label)}
}

func (s *labelStore) at(stopID string) []*models.Label {
	return s.byStop[stopID]
}

// insert attempts to add label at stopID: reject if the list is full
// and label is no better than the worst stored label; reject exact
// duplicates; else insert in sorted position and evict the worst
// label if oversize. Returns true if the label was inserted.
func (s *labelStore) insert(stopID string, label *models.Label) bool {
	list := s.byStop[stopID]

	if len(list) >= s.maxSize && label.Arrival >= list[len(list)-1].Arrival {
		return false
	}

	for _, existing := range list {
		if sameLabel(existing, label) {
			return false
		}
	}

	pos := 0
	for pos < len(list) && list[pos].Arrival <= label.Arrival {
		pos++
	}

	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = label

	if len(list) > s.maxSize {
		list = list[:s.maxSize]
	}

	s.byStop[stopID] = list
	return true
}

func sameLabel(a, b *models.Label) bool {
	return a.Arrival == b.Arrival &&
		a.TripID == b.TripID &&
		a.BoardStop == b.BoardStop &&
		a.BoardTime == b.BoardTime &&
		a.Back == b.Back
}

// kthSmallestArrival returns the k-th smallest arrival time among the
// labels stored at any stop in destinations, or math.MaxInt if fewer
// than k labels are present (treated as +infinity).
func (s *labelStore) kthSmallestArrival(destinations map[string]struct{}, k int) int {
	var arrivals []int
	for stopID := range destinations {
		for _, label := range s.byStop[stopID] {
			arrivals = append(arrivals, label.Arrival)
		}
	}
	if len(arrivals) < k {
		return math.MaxInt
	}
	// arrivals is small (at most len(destinations) * maxSize), so a
	// plain insertion sort of the whole slice is fast enough.
	for i := 1; i < len(arrivals); i++ {
		v := arrivals[i]
		j := i - 1
		for j >= 0 && arrivals[j] > v {
			arrivals[j+1] = arrivals[j]
			j--
		}
		arrivals[j+1] = v
	}
	return arrivals[k-1]
}
