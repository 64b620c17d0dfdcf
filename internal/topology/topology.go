// Package topology implements the station topology index: stop
// name normalization and lookup, and platform/parent-station
// expansion into endpoint-equivalence classes.
package topology

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/passbi/journeyplanner/internal/models"
)

var fold = cases.Fold()

// Normalize applies NFKC normalization followed by Unicode case
// folding. Two stop names compare equal under lookup iff their
// Normalize results are equal.
func Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return fold.String(norm.NFKC.String(trimmed))
}

// Index answers stop-name lookups and station/platform expansion
// queries against a feed's stops table.
type Index struct {
	stops    []models.Stop // file order preserved, for resolve_exact tie-breaks
	normByID map[string]string
	parent   map[string]string   // stop id -> parent station id ("" if none)
	children map[string][]string // parent station id -> child platform ids, insertion order
}

// Build indexes stops for lookup. Order of stops is preserved as the
// tie-break order for resolve_exact.
func Build(stops []models.Stop) *Index {
	idx := &Index{
		stops:    stops,
		normByID: make(map[string]string, len(stops)),
		parent:   make(map[string]string, len(stops)),
		children: make(map[string][]string),
	}
	for _, s := range stops {
		idx.normByID[s.ID] = Normalize(s.Name)
		idx.parent[s.ID] = s.ParentStation
		if s.ParentStation != "" {
			idx.children[s.ParentStation] = append(idx.children[s.ParentStation], s.ID)
		}
	}
	return idx
}

// ResolveExact returns the stop id of the first stop whose normalized
// name equals the normalized query, else the first whose normalized
// name starts with the query, else "", false. Ties break on input
// file order.
func (idx *Index) ResolveExact(name string) (string, bool) {
	query := Normalize(name)
	if query == "" {
		return "", false
	}
	for _, s := range idx.stops {
		if idx.normByID[s.ID] == query {
			return s.ID, true
		}
	}
	for _, s := range idx.stops {
		if strings.HasPrefix(idx.normByID[s.ID], query) {
			return s.ID, true
		}
	}
	return "", false
}

// Match is one row of a name-search result: a display name and a
// representative stop id carrying that display name.
type Match struct {
	StopID string
	Name   string
}

// MatchPrefix returns every stop whose normalized name equals or
// starts with the normalized query, exact matches first, remaining
// entries ordered by normalized name ascending. Duplicate display
// names collapse to one entry (the first stop carrying that name, in
// file order).
func (idx *Index) MatchPrefix(name string) []Match {
	query := Normalize(name)
	if query == "" {
		return nil
	}

	seen := make(map[string]bool)
	var exact, prefix []Match
	for _, s := range idx.stops {
		n := idx.normByID[s.ID]
		if !strings.HasPrefix(n, query) {
			continue
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		if n == query {
			exact = append(exact, Match{StopID: s.ID, Name: s.Name})
		} else {
			prefix = append(prefix, Match{StopID: s.ID, Name: s.Name})
		}
	}
	sort.Slice(prefix, func(i, j int) bool {
		return Normalize(prefix[i].Name) < Normalize(prefix[j].Name)
	})
	return append(exact, prefix...)
}

// MatchSubstring returns every stop whose normalized name contains the
// normalized query, sorted by (exact?, startswith?, normalized name)
// ascending and truncated to limit. Duplicate display names collapse.
func (idx *Index) MatchSubstring(name string, limit int) []Match {
	query := Normalize(name)
	if query == "" {
		return nil
	}

	seen := make(map[string]bool)
	var matches []Match
	for _, s := range idx.stops {
		n := idx.normByID[s.ID]
		if !strings.Contains(n, query) {
			continue
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		matches = append(matches, Match{StopID: s.ID, Name: s.Name})
	}

	rank := func(m Match) (int, int, string) {
		n := Normalize(m.Name)
		exactRank := 1
		if n == query {
			exactRank = 0
		}
		prefixRank := 1
		if strings.HasPrefix(n, query) {
			prefixRank = 0
		}
		return exactRank, prefixRank, n
	}
	sort.Slice(matches, func(i, j int) bool {
		ei, pi, ni := rank(matches[i])
		ej, pj, nj := rank(matches[j])
		if ei != ej {
			return ei < ej
		}
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Expand returns the endpoint-equivalence class for stopID: the
// station id (the stop's parent if it has one, else the stop itself)
// followed by all sibling platform ids of that station, de-duplicated
// and insertion-ordered. Arriving at or departing from any id in the
// returned slice is equivalent for journey planning purposes.
func (idx *Index) Expand(stopID string) []string {
	stopID = strings.TrimSpace(stopID)
	if stopID == "" {
		return nil
	}

	station := stopID
	if parent, ok := idx.parent[stopID]; ok && parent != "" {
		station = parent
	}

	seen := map[string]bool{station: true}
	result := []string{station}
	for _, child := range idx.children[station] {
		if !seen[child] {
			seen[child] = true
			result = append(result, child)
		}
	}
	return result
}
