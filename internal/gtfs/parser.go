// Package gtfs implements the feed reader: parsing the six GTFS
// static tables into the typed tables in internal/models, and the
// clock-string / route-name normalization helpers that parsing requires.
package gtfs

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spkg/bom"

	"github.com/passbi/journeyplanner/internal/models"
)

// requiredFiles that are fatal to Feed loading when absent.
var requiredFiles = []string{"stops.txt", "stop_times.txt", "trips.txt", "routes.txt", "calendar.txt"}

// Feed holds the parsed, still-string-keyed GTFS tables for one directory.
type Feed struct {
	Stops      []models.Stop
	Routes     []models.Route
	Trips      []models.Trip
	StopTimes  []models.StopTime
	Calendars  []models.ServiceCalendar
	Exceptions []models.ServiceException
}

// Load parses a GTFS directory. calendar_dates.txt is optional; every
// other required file is fatal if missing.
func Load(dir string) (*Feed, error) {
	for _, name := range requiredFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("feed missing required file %s: %w", name, ErrFeedMissing)
		}
	}

	feed := &Feed{}

	routeNames, routes, err := parseRoutes(filepath.Join(dir, "routes.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}
	feed.Routes = routes
	log.Printf("Parsed %d routes", len(routes))

	stops, err := parseStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops: %w", err)
	}
	feed.Stops = stops
	log.Printf("Parsed %d stops", len(stops))

	_, trips, err := parseTrips(filepath.Join(dir, "trips.txt"), routeNames)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trips: %w", err)
	}
	feed.Trips = trips
	log.Printf("Parsed %d trips", len(trips))

	stopTimes, err := parseStopTimes(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stop_times: %w", err)
	}
	feed.StopTimes = stopTimes
	log.Printf("Parsed %d stop_times", len(stopTimes))

	calendars, err := parseCalendar(filepath.Join(dir, "calendar.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}
	feed.Calendars = calendars
	log.Printf("Parsed %d calendar rows", len(calendars))

	exceptions, err := parseCalendarDates(filepath.Join(dir, "calendar_dates.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar_dates: %w", err)
	}
	feed.Exceptions = exceptions
	log.Printf("Parsed %d calendar exceptions", len(exceptions))

	return feed, nil
}

func openCSV(path string) (*csv.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	reader := csv.NewReader(bom.NewReader(file))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader, file.Close, nil
}

func parseStops(path string) ([]models.Stop, error) {
	reader, closeFile, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columnMap(header)
	if _, ok := cols["stop_id"]; !ok {
		return nil, fmt.Errorf("%w: stops.txt missing stop_id", ErrFeedMalformed)
	}
	if _, ok := cols["stop_name"]; !ok {
		return nil, fmt.Errorf("%w: stops.txt missing stop_name", ErrFeedMalformed)
	}

	var stops []models.Stop
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed stop row: %v", err)
			continue
		}

		stopID := field(record, cols, "stop_id")
		if stopID == "" {
			continue
		}
		stops = append(stops, models.Stop{
			ID:            stopID,
			Name:          field(record, cols, "stop_name"),
			ParentStation: field(record, cols, "parent_station"),
		})
	}
	return stops, nil
}

func parseRoutes(path string) (map[string]string, []models.Route, error) {
	reader, closeFile, err := openCSV(path)
	if err != nil {
		return nil, nil, err
	}
	defer closeFile()

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columnMap(header)
	if _, ok := cols["route_id"]; !ok {
		return nil, nil, fmt.Errorf("%w: routes.txt missing route_id", ErrFeedMalformed)
	}

	names := make(map[string]string)
	var routes []models.Route
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed route row: %v", err)
			continue
		}

		routeID := field(record, cols, "route_id")
		if routeID == "" {
			continue
		}
		route := models.Route{
			ID:        routeID,
			AgencyID:  field(record, cols, "agency_id"),
			ShortName: field(record, cols, "route_short_name"),
			LongName:  field(record, cols, "route_long_name"),
		}
		routes = append(routes, route)
		names[routeID] = RouteDisplayName(route)
	}
	return names, routes, nil
}

func parseTrips(path string, routeNames map[string]string) (map[string]string, []models.Trip, error) {
	reader, closeFile, err := openCSV(path)
	if err != nil {
		return nil, nil, err
	}
	defer closeFile()

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columnMap(header)
	for _, required := range []string{"trip_id", "route_id", "service_id"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: trips.txt missing %s", ErrFeedMalformed, required)
		}
	}

	tripRoutes := make(map[string]string)
	var trips []models.Trip
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed trip row: %v", err)
			continue
		}

		tripID := field(record, cols, "trip_id")
		routeID := field(record, cols, "route_id")
		if tripID == "" {
			continue
		}
		tripRoutes[tripID] = routeID
		trips = append(trips, models.Trip{
			TripID:    tripID,
			RouteID:   routeID,
			ServiceID: field(record, cols, "service_id"),
			RouteName: routeNames[routeID],
		})
	}
	return tripRoutes, trips, nil
}

func parseStopTimes(path string) ([]models.StopTime, error) {
	reader, closeFile, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columnMap(header)
	for _, required := range []string{"trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: stop_times.txt missing %s", ErrFeedMalformed, required)
		}
	}

	var stopTimes []models.StopTime
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed stop_time row: %v", err)
			continue
		}

		tripID := field(record, cols, "trip_id")
		stopID := field(record, cols, "stop_id")
		seqStr := field(record, cols, "stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			continue
		}
		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			continue
		}

		arrSec, _ := ParseClock(field(record, cols, "arrival_time"))
		depSec, _ := ParseClock(field(record, cols, "departure_time"))

		stopTimes = append(stopTimes, models.StopTime{
			TripID:       tripID,
			StopID:       stopID,
			StopSequence: seq,
			ArrivalSec:   arrSec,
			DepartureSec: depSec,
		})
	}
	return stopTimes, nil
}

func parseCalendar(path string) ([]models.ServiceCalendar, error) {
	reader, closeFile, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columnMap(header)
	weekdayCols := [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	required := append([]string{"service_id", "start_date", "end_date"}, weekdayCols[:]...)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: calendar.txt missing %s", ErrFeedMalformed, name)
		}
	}

	var calendars []models.ServiceCalendar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed calendar row: %v", err)
			continue
		}

		serviceID := field(record, cols, "service_id")
		if serviceID == "" {
			continue
		}
		start, errStart := parseYYYYMMDD(field(record, cols, "start_date"))
		end, errEnd := parseYYYYMMDD(field(record, cols, "end_date"))
		if errStart != nil || errEnd != nil {
			log.Printf("Warning: skipping calendar row with bad date for service %s", serviceID)
			continue
		}

		var mask [7]bool
		for i, col := range weekdayCols {
			mask[i] = field(record, cols, col) == "1"
		}

		calendars = append(calendars, models.ServiceCalendar{
			ServiceID: serviceID,
			StartDate: start,
			EndDate:   end,
			Weekday:   mask,
		})
	}
	return calendars, nil
}

func parseCalendarDates(path string) ([]models.ServiceException, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil // calendar_dates.txt is optional
	}

	reader, closeFile, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	header, err := reader.Read()
	if err != nil {
		return nil, nil
	}
	cols := columnMap(header)

	var exceptions []models.ServiceException
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed calendar_dates row: %v", err)
			continue
		}

		serviceID := field(record, cols, "service_id")
		date, err := parseYYYYMMDD(field(record, cols, "date"))
		if serviceID == "" || err != nil {
			continue
		}
		typeVal, _ := strconv.Atoi(field(record, cols, "exception_type"))
		if typeVal != int(models.ExceptionAdd) && typeVal != int(models.ExceptionRemove) {
			continue
		}

		exceptions = append(exceptions, models.ServiceException{
			ServiceID: serviceID,
			Date:      date,
			Type:      models.ExceptionType(typeVal),
		})
	}
	return exceptions, nil
}

func parseYYYYMMDD(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Parse("20060102", s)
}

func columnMap(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.TrimSpace(col)] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	if idx, ok := cols[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
