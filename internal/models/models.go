// Package models holds the plain data types shared across the journey
// planner: the GTFS-derived timetable entities, the Connection Scan
// working set, and the itinerary result types returned to callers.
package models

import "time"

// Stop is a physical or logical location from stops.txt. A Stop with a
// non-empty ParentStation is a platform; a Stop referenced as someone
// else's ParentStation is a station. Immutable after feed load.
type Stop struct {
	ID            string
	Name          string
	ParentStation string
}

// IsPlatform reports whether this stop is a platform of another station.
func (s Stop) IsPlatform() bool {
	return s.ParentStation != ""
}

// Route is a transit line from routes.txt.
type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
}

// Trip is a single vehicle journey from trips.txt.
type Trip struct {
	TripID    string
	RouteID   string
	ServiceID string
	RouteName string // denormalised display name, see gtfs.RouteDisplayName
}

// StopTime is one row of stop_times.txt, belonging to a Trip.
// ArrivalSec/DepartureSec are seconds since the trip's service-day
// midnight; values >= 86400 represent next-day events and must never
// be wrapped modulo 86400.
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence int
	ArrivalSec   int
	DepartureSec int
}

// ServiceCalendar is one row of calendar.txt: an inclusive date range
// and a weekday bitmask, Monday first.
type ServiceCalendar struct {
	ServiceID string
	StartDate time.Time
	EndDate   time.Time
	Weekday   [7]bool // Mon..Sun
}

// ExceptionType mirrors GTFS calendar_dates.txt exception_type.
type ExceptionType int

const (
	ExceptionAdd    ExceptionType = 1
	ExceptionRemove ExceptionType = 2
)

// ServiceException is one row of calendar_dates.txt.
type ServiceException struct {
	ServiceID string
	Date      time.Time
	Type      ExceptionType
}

// Connection is an elementary hop between two consecutive stops of one
// trip — the unit the K-best CSA engine scans.
type Connection struct {
	TripID    string
	DepStop   string
	ArrStop   string
	DepTime   int
	ArrTime   int
	RouteName string
}

// Label records one way to reach a stop during the scan: when it was
// reached, and the connection used to get there (nil Back for a
// sentinel start label). Labels form an immutable DAG — a new label
// always points to an older one, never mutated after creation.
type Label struct {
	Arrival   int
	Back      *Label
	TripID    string // "" for a sentinel start label
	BoardStop string
	BoardTime int
	RouteName string
}

// IsSentinel reports whether this label is a query-start label rather
// than one produced by boarding a connection.
func (l *Label) IsSentinel() bool {
	return l.Back == nil && l.TripID == ""
}

// RideSegment is one ride within an Itinerary.
type RideSegment struct {
	BoardStopID    string
	BoardStopName  string
	BoardTime      int
	AlightStopID   string
	AlightStopName string
	AlightTime     int
	RouteName      string
	WaitSeconds    int // time waited at BoardStopID before this segment; 0 for the first segment
}

// Itinerary is a non-empty ordered sequence of ride segments.
type Itinerary struct {
	Segments []RideSegment
}

// DepartureTime is the first segment's board time.
func (it Itinerary) DepartureTime() int {
	return it.Segments[0].BoardTime
}

// ArrivalTime is the last segment's alight time.
func (it Itinerary) ArrivalTime() int {
	return it.Segments[len(it.Segments)-1].AlightTime
}

// DedupKey returns the tuple-sequence key used to detect duplicate
// itineraries.
func (it Itinerary) DedupKey() string {
	key := make([]byte, 0, 64*len(it.Segments))
	for _, seg := range it.Segments {
		key = appendSegKey(key, seg)
	}
	return string(key)
}

func appendSegKey(buf []byte, seg RideSegment) []byte {
	buf = append(buf, seg.BoardStopID...)
	buf = append(buf, '|')
	buf = append(buf, seg.AlightStopID...)
	buf = append(buf, '|')
	buf = appendInt(buf, seg.BoardTime)
	buf = append(buf, '|')
	buf = appendInt(buf, seg.AlightTime)
	buf = append(buf, ';')
	return buf
}

func appendInt(buf []byte, v int) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}
