package gtfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func minimalFeed(t *testing.T, dir string) {
	t.Helper()
	writeFeedFile(t, dir, "stops.txt", "stop_id,stop_name,parent_station\nA,Alpha,\nB,Beta,\nC,Gamma,\n")
	writeFeedFile(t, dir, "routes.txt", "route_id,route_short_name,route_long_name\nR1,T1,\n")
	writeFeedFile(t, dir, "trips.txt", "trip_id,route_id,service_id\nT1,R1,S1\n")
	writeFeedFile(t, dir, "stop_times.txt",
		"trip_id,stop_id,stop_sequence,arrival_time,departure_time\n"+
			"T1,A,1,08:00:00,08:00:00\n"+
			"T1,B,2,08:30:00,08:30:00\n"+
			"T1,C,3,09:00:00,09:00:00\n")
	writeFeedFile(t, dir, "calendar.txt",
		"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n"+
			"S1,1,1,1,1,1,0,0,20250101,20251231\n")
}

func TestLoadMinimalFeed(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)

	feed, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, feed.Stops, 3)
	assert.Len(t, feed.Routes, 1)
	assert.Len(t, feed.Trips, 1)
	assert.Len(t, feed.StopTimes, 3)
	assert.Len(t, feed.Calendars, 1)
	assert.Empty(t, feed.Exceptions)
	assert.Equal(t, "T1", feed.Trips[0].RouteName)
}

func TestLoadMissingRequiredFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "calendar.txt")))

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeedMissing)
}

func TestLoadMissingCalendarDatesIsTolerated(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)

	feed, err := Load(dir)
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed.Exceptions)
}

func TestLoadToleratesBOMPrefix(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)
	withBOM := "\xEF\xBB\xBFstop_id,stop_name,parent_station\nA,Alpha,\n"
	writeFeedFile(t, dir, "stops.txt", withBOM)

	feed, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, feed.Stops, 1)
	assert.Equal(t, "Alpha", feed.Stops[0].Name) // BOM stripped: stop_id header found (else Load fails as malformed), row read whole
	assert.Equal(t, "A", feed.Stops[0].ID)
}

func TestLoadDropsRowsMissingKeyFields(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)
	writeFeedFile(t, dir, "stop_times.txt",
		"trip_id,stop_id,stop_sequence,arrival_time,departure_time\n"+
			"T1,A,1,08:00:00,08:00:00\n"+
			",B,2,08:30:00,08:30:00\n"+ // missing trip_id
			"T1,,3,09:00:00,09:00:00\n"+ // missing stop_id
			"T1,D,notanumber,09:10:00,09:10:00\n") // unparseable stop_sequence

	feed, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, feed.StopTimes, 1)
}

func TestLoadPreservesMalformedClockAsZero(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)
	writeFeedFile(t, dir, "stop_times.txt",
		"trip_id,stop_id,stop_sequence,arrival_time,departure_time\n"+
			"T1,A,1,garbage,08:00:00\n")

	feed, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, feed.StopTimes, 1)
	assert.Equal(t, 0, feed.StopTimes[0].ArrivalSec)
}

func TestLoadMissingRequiredColumnIsMalformed(t *testing.T) {
	dir := t.TempDir()
	minimalFeed(t, dir)
	writeFeedFile(t, dir, "stops.txt", "stop_id\nA\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeedMalformed)
}
