// Package planner wires the feed reader, calendar resolver, station
// topology index, connection builder and K-best scan engine behind a
// single Plan/PlanByID surface, and owns the loaded feed for the
// planner's lifetime.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/passbi/journeyplanner/internal/auditlog"
	"github.com/passbi/journeyplanner/internal/calendar"
	"github.com/passbi/journeyplanner/internal/connscan"
	"github.com/passbi/journeyplanner/internal/gtfs"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/resultcache"
	"github.com/passbi/journeyplanner/internal/routing"
	"github.com/passbi/journeyplanner/internal/topology"
)

// Error kinds surfaced by Plan/PlanByID. A failed query always returns
// a nil itinerary slice alongside one of these, never a fatal error.
var (
	ErrStopNotFound  = errors.New("planner: stop not found")
	ErrBadDate       = errors.New("planner: unparseable date")
	ErrBadTime       = errors.New("planner: unparseable time")
	ErrSameEndpoints = errors.New("planner: start and end resolve to the same stop")
	ErrNoRoute       = errors.New("planner: no route found")
)

// ErrCancelled is returned when a query is cancelled via its context.
var ErrCancelled = routing.ErrCancelled

// DefaultK is the target itinerary count used when a caller does not
// specify one.
const DefaultK = 3

// Planner owns a loaded feed and its derived indices for the lifetime
// of the process. A Planner is safe for concurrent read-only queries;
// the only mutable shared state is the calendar resolver's memo, which
// is itself concurrency-safe.
type Planner struct {
	feed     *gtfs.Feed
	calendar *calendar.Resolver
	topology *topology.Index
	names    map[string]string // stop id -> display name, for filling itinerary output
}

// Load reads a GTFS feed directory and builds the derived indices. The
// load is timed and recorded to the audit log; a failure to record is
// logged and otherwise ignored, since the audit log is an operational
// side channel and must never block a feed from loading.
func Load(dir string) (*Planner, error) {
	start := time.Now()
	feed, err := gtfs.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	duration := time.Since(start)

	counts := auditlog.FeedCounts{
		Stops:      len(feed.Stops),
		Routes:     len(feed.Routes),
		Trips:      len(feed.Trips),
		StopTimes:  len(feed.StopTimes),
		Calendars:  len(feed.Calendars),
		Exceptions: len(feed.Exceptions),
	}
	if err := auditlog.RecordFeedLoad(context.Background(), dir, counts, duration); err != nil {
		log.Printf("planner: audit log unavailable, feed load not recorded: %v", err)
	}

	return New(feed), nil
}

// New builds a Planner from an already-loaded feed.
func New(feed *gtfs.Feed) *Planner {
	names := make(map[string]string, len(feed.Stops))
	for _, s := range feed.Stops {
		names[s.ID] = s.Name
	}
	return &Planner{
		feed:     feed,
		calendar: calendar.NewResolver(feed.Calendars, feed.Exceptions),
		topology: topology.Build(feed.Stops),
		names:    names,
	}
}

// ActiveServices exposes the calendar resolver's active-service lookup
// directly.
func (p *Planner) ActiveServices(date time.Time) map[string]struct{} {
	return p.calendar.ActiveServices(date)
}

// ResolveExact exposes the topology index's exact/prefix stop-name resolution.
func (p *Planner) ResolveExact(name string) (string, bool) {
	return p.topology.ResolveExact(name)
}

// MatchPrefix exposes the topology index's prefix search.
func (p *Planner) MatchPrefix(name string) []topology.Match {
	return p.topology.MatchPrefix(name)
}

// MatchSubstring exposes the topology index's substring search.
func (p *Planner) MatchSubstring(name string, limit int) []topology.Match {
	return p.topology.MatchSubstring(name, limit)
}

// Expand exposes the topology index's station/platform equivalence expansion.
func (p *Planner) Expand(stopID string) []string {
	return p.topology.Expand(stopID)
}

// Stops returns the loaded feed's stops, for reporting callers such as
// internal/analysis that read the feed directly rather than through a
// query.
func (p *Planner) Stops() []models.Stop {
	return p.feed.Stops
}

// Trips returns the loaded feed's trips.
func (p *Planner) Trips() []models.Trip {
	return p.feed.Trips
}

// StopTimes returns the loaded feed's stop_times.
func (p *Planner) StopTimes() []models.StopTime {
	return p.feed.StopTimes
}

// Plan resolves start_name and end_name to stop ids via resolve_exact,
// parses dateStr and timeStr, and delegates to PlanByID.
func (p *Planner) Plan(ctx context.Context, startName, endName, dateStr, timeStr string, k int) ([]models.Itinerary, error) {
	startID, ok := p.topology.ResolveExact(startName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStopNotFound, startName)
	}
	endID, ok := p.topology.ResolveExact(endName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStopNotFound, endName)
	}

	date, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	tStart, err := ParseTime(timeStr)
	if err != nil {
		return nil, err
	}

	return p.PlanByID(ctx, startID, endID, date, tStart, k)
}

// PlanByID runs the full resolve->calendar->scan pipeline for an
// already resolved pair of stop ids.
func (p *Planner) PlanByID(ctx context.Context, startID, endID string, date time.Time, tStart int, k int) ([]models.Itinerary, error) {
	if startID == endID {
		return nil, fmt.Errorf("%w: %q", ErrSameEndpoints, startID)
	}
	if k <= 0 {
		k = DefaultK
	}

	cacheKey := resultcache.Key(startID, endID, date.Format("20060102"), tStart, k)
	if cached, err := resultcache.Get(ctx, cacheKey); err != nil {
		log.Printf("planner: result cache unavailable, computing directly: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	origins := stopSet(p.topology.Expand(startID))
	destinations := stopSet(p.topology.Expand(endID))

	active := p.calendar.ActiveServices(date)
	connections := connscan.Build(p.feed.Trips, p.feed.StopTimes, active, tStart)

	itineraries, err := routing.Scan(ctx, connections, origins, destinations, tStart, k)
	if err != nil {
		return nil, err
	}
	if len(itineraries) == 0 {
		return nil, ErrNoRoute
	}

	p.fillNames(itineraries)

	if err := resultcache.Set(ctx, cacheKey, itineraries, resultcache.LoadConfigFromEnv().TTL); err != nil {
		log.Printf("planner: failed to cache result: %v", err)
	}

	return itineraries, nil
}

func (p *Planner) fillNames(itineraries []models.Itinerary) {
	for i := range itineraries {
		for j := range itineraries[i].Segments {
			seg := &itineraries[i].Segments[j]
			seg.BoardStopName = p.names[seg.BoardStopID]
			seg.AlightStopName = p.names[seg.AlightStopID]
		}
	}
}

func stopSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ParseDate accepts both "2006-01-02" and "20060102".
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// ParseTime accepts "HH:MM" and returns seconds since midnight.
func ParseTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return t.Hour()*3600 + t.Minute()*60, nil
}
