// Package calendar implements the service-calendar resolver:
// computing, for any calendar date, the set of service ids active on
// that date, with single-flight-memoized results keyed by YYYYMMDD.
package calendar

import (
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/passbi/journeyplanner/internal/models"
)

// Resolver answers ActiveServices(date) against a feed's calendar and
// calendar_dates tables. Safe for concurrent use by multiple queries:
// the memo is backed by a singleflight.Group so concurrent calls for
// the same date collapse into one computation.
type Resolver struct {
	byWeekday [7][]models.ServiceCalendar // calendars bucketed by active weekday, for a cheap first filter
	adds      map[string][]string         // YYYYMMDD -> service ids added by exception
	removes   map[string][]string         // YYYYMMDD -> service ids removed by exception
	group     singleflight.Group
	memo      memoMap
}

// NewResolver builds a Resolver from a feed's calendar and
// calendar_dates rows.
func NewResolver(calendars []models.ServiceCalendar, exceptions []models.ServiceException) *Resolver {
	r := &Resolver{
		adds:    make(map[string][]string),
		removes: make(map[string][]string),
		memo:    newMemoMap(),
	}
	for _, cal := range calendars {
		for weekday := 0; weekday < 7; weekday++ {
			if cal.Weekday[weekday] {
				r.byWeekday[weekday] = append(r.byWeekday[weekday], cal)
			}
		}
	}
	for _, exc := range exceptions {
		key := exc.Date.Format("20060102")
		switch exc.Type {
		case models.ExceptionAdd:
			r.adds[key] = append(r.adds[key], exc.ServiceID)
		case models.ExceptionRemove:
			r.removes[key] = append(r.removes[key], exc.ServiceID)
		}
	}
	return r
}

// ActiveServices returns the set of service ids active on date,
// memoized by YYYYMMDD key: regular calendar hits for date, union ADD
// exceptions for date, minus REMOVE exceptions for date.
func (r *Resolver) ActiveServices(date time.Time) map[string]struct{} {
	key := date.Format("20060102")

	if cached, ok := r.memo.load(key); ok {
		return cached
	}

	result, _, _ := r.group.Do(key, func() (interface{}, error) {
		if cached, ok := r.memo.load(key); ok {
			return cached, nil
		}
		computed := r.compute(date, key)
		r.memo.store(key, computed)
		return computed, nil
	})

	return result.(map[string]struct{})
}

func (r *Resolver) compute(date time.Time, key string) map[string]struct{} {
	active := make(map[string]struct{})

	weekday := goWeekdayToMondayFirst(date.Weekday())
	normalized := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	for _, cal := range r.byWeekday[weekday] {
		if !normalized.Before(cal.StartDate) && !normalized.After(cal.EndDate) {
			active[cal.ServiceID] = struct{}{}
		}
	}

	for _, serviceID := range r.adds[key] {
		active[serviceID] = struct{}{}
	}
	for _, serviceID := range r.removes[key] {
		delete(active, serviceID)
	}

	return active
}

// goWeekdayToMondayFirst converts time.Weekday (Sunday=0) to a
// Monday-first index (Monday=0 .. Sunday=6), matching the calendar
// weekday-mask layout in models.ServiceCalendar.
func goWeekdayToMondayFirst(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}
