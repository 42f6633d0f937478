package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := ParseCalendarDate(value)
	require.NoError(t, err)
	return parsed
}

func TestParseCalendarDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "iso date", input: "2023-01-01", want: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "surrounding whitespace", input: " 2024-02-29 ", want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{name: "not a leap year", input: "2023-02-29", wantErr: true},
		{name: "us format", input: "01/02/2023", wantErr: true},
		{name: "date time", input: "2023-01-01T00:00:00Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCalendarDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestAddCalendarMonths(t *testing.T) {
	tests := []struct {
		start string
		want  string
	}{
		{start: "2023-01-01", want: "2023-02-01"},
		{start: "2023-12-15", want: "2024-01-15"},
		{start: "2023-01-31", want: "2023-03-03"},
		{start: "2024-01-31", want: "2024-03-02"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got := AddCalendarMonths(date(t, tt.start), 1)
			assert.Equal(t, tt.want, got.Format(FormatCalendarDate))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 31, DaysBetween(date(t, "2023-01-01"), date(t, "2023-02-01")))
	assert.Equal(t, 364, DaysBetween(date(t, "2022-01-01"), date(t, "2022-12-31")))
	assert.Equal(t, 0, DaysBetween(date(t, "2023-05-05"), date(t, "2023-05-05")))
	assert.Equal(t, -334, DaysBetween(date(t, "2023-01-01"), date(t, "2022-02-01")))
	assert.Equal(t, 366, DaysBetween(date(t, "2024-01-01"), date(t, "2025-01-01")))
}

func TestTruncateToDate(t *testing.T) {
	in := time.Date(2023, 3, 4, 23, 59, 0, 0, time.FixedZone("X", 5*3600))
	assert.Equal(t, time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), TruncateToDate(in))
}
