package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/journeyplanner/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestActiveServicesRegularCalendar(t *testing.T) {
	cal := models.ServiceCalendar{
		ServiceID: "S1",
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   mustDate(t, "2025-12-31"),
	}
	cal.Weekday[0] = true // Monday

	r := NewResolver([]models.ServiceCalendar{cal}, nil)

	active := r.ActiveServices(mustDate(t, "2025-12-15")) // a Monday
	_, ok := active["S1"]
	assert.True(t, ok)

	notActive := r.ActiveServices(mustDate(t, "2025-12-16")) // a Tuesday
	_, ok = notActive["S1"]
	assert.False(t, ok)
}

func TestActiveServicesExceptionRemove(t *testing.T) {
	cal := models.ServiceCalendar{
		ServiceID: "S1",
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   mustDate(t, "2025-12-31"),
	}
	cal.Weekday[0] = true // Monday

	exceptions := []models.ServiceException{
		{ServiceID: "S1", Date: mustDate(t, "2025-12-15"), Type: models.ExceptionRemove},
	}

	r := NewResolver([]models.ServiceCalendar{cal}, exceptions)

	active := r.ActiveServices(mustDate(t, "2025-12-15"))
	_, ok := active["S1"]
	assert.False(t, ok, "exception REMOVE must cancel a regularly-active service")
}

func TestActiveServicesExceptionAddOutsideWeekdayPattern(t *testing.T) {
	cal := models.ServiceCalendar{
		ServiceID: "S1",
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   mustDate(t, "2025-12-31"),
	}
	cal.Weekday[0] = true // Monday only

	exceptions := []models.ServiceException{
		{ServiceID: "S1", Date: mustDate(t, "2025-12-16"), Type: models.ExceptionAdd}, // a Tuesday
	}

	r := NewResolver([]models.ServiceCalendar{cal}, exceptions)

	active := r.ActiveServices(mustDate(t, "2025-12-16"))
	_, ok := active["S1"]
	assert.True(t, ok, "exception ADD must reinstate a service outside its weekday pattern")
}

func TestActiveServicesOnlyExceptionsNoCalendarBase(t *testing.T) {
	exceptions := []models.ServiceException{
		{ServiceID: "S2", Date: mustDate(t, "2025-06-01"), Type: models.ExceptionAdd},
	}

	r := NewResolver(nil, exceptions)

	active := r.ActiveServices(mustDate(t, "2025-06-01"))
	assert.Equal(t, map[string]struct{}{"S2": {}}, active)
}

func TestActiveServicesMemoizesByDate(t *testing.T) {
	cal := models.ServiceCalendar{
		ServiceID: "S1",
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   mustDate(t, "2025-12-31"),
	}
	cal.Weekday[6] = true // Sunday

	r := NewResolver([]models.ServiceCalendar{cal}, nil)
	date := mustDate(t, "2025-06-01") // a Sunday

	first := r.ActiveServices(date)
	second := r.ActiveServices(date)

	assert.Equal(t, first, second)
	_, ok := first["S1"]
	assert.True(t, ok)
}
