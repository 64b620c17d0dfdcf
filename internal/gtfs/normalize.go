package gtfs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/passbi/journeyplanner/internal/models"
)

// Error kinds fatal to planner construction.
var (
	ErrFeedMissing   = errors.New("feed file missing")
	ErrFeedMalformed = errors.New("feed file malformed")
)

// ParseClock converts a GTFS clock string ("H:MM:SS" or "HH:MM:SS") to
// seconds since the trip's service-day midnight. Times >= 24:00:00 are
// preserved as-is, never wrapped modulo 86400. A malformed string
// yields 0 and a non-nil error; callers that must tolerate feed
// imperfection ignore the error and keep the row.
func ParseClock(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty clock string")
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock string %q", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	seconds := 0
	if len(parts) == 3 {
		seconds, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, fmt.Errorf("invalid second in %q: %w", s, err)
		}
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// FormatClock renders seconds-since-midnight as "HH:MM". For seconds >=
// 24*3600 the hour component exceeds 23 and is preserved rather than
// wrapped.
func FormatClock(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// RouteDisplayName derives the denormalised route display name: short
// name trimmed, else long name trimmed, else "Unbekannt".
func RouteDisplayName(route models.Route) string {
	name := strings.TrimSpace(route.ShortName)
	if name == "" {
		name = strings.TrimSpace(route.LongName)
	}
	if name == "" {
		name = "Unbekannt"
	}
	return name
}
