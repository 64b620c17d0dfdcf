package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/journeyplanner/internal/models"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{name: "HH:MM:SS", in: "08:30:00", want: 8*3600 + 30*60},
		{name: "H:MM:SS single digit hour", in: "8:30:00", want: 8*3600 + 30*60},
		{name: "overnight past 24h", in: "25:10:00", want: 25*3600 + 10*60},
		{name: "empty string is an error", in: "", want: 0, wantErr: true},
		{name: "malformed is an error", in: "not-a-time", want: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	t.Run("under 24h preserves HH:MM prefix", func(t *testing.T) {
		secs, err := ParseClock("08:30:15")
		assert.NoError(t, err)
		assert.Equal(t, "08:30", FormatClock(secs))
	})

	t.Run("overnight hour is preserved, not wrapped", func(t *testing.T) {
		secs, err := ParseClock("25:10:00")
		assert.NoError(t, err)
		assert.Equal(t, "25:10", FormatClock(secs))
	})
}

func TestRouteDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		route    models.Route
		expected string
	}{
		{name: "short name wins", route: models.Route{ShortName: " S1 ", LongName: "Schnellzug"}, expected: "S1"},
		{name: "falls back to long name", route: models.Route{LongName: " Regio Express "}, expected: "Regio Express"},
		{name: "falls back to Unbekannt", route: models.Route{}, expected: "Unbekannt"},
		{name: "whitespace-only names fall through", route: models.Route{ShortName: "   ", LongName: "  "}, expected: "Unbekannt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RouteDisplayName(tt.route))
		})
	}
}
