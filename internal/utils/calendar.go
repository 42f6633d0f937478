package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatCalendarDate is the ISO-8601 full-date layout used on the wire and in storage.
const FormatCalendarDate = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// ParseCalendarDate parses an ISO-8601 full-date into midnight UTC.
func ParseCalendarDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	parsed, err := time.Parse(FormatCalendarDate, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", input, err)
	}
	return parsed, nil
}

// TruncateToDate drops the clock part and moves the value to UTC, keeping the
// calendar day as seen in the value's own location.
func TruncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddCalendarMonths adds months using time.AddDate, so days past the end of
// the target month roll into the following month (Jan 31 + 1 month = Mar 3).
func AddCalendarMonths(t time.Time, months int) time.Time {
	return TruncateToDate(t).AddDate(0, months, 0)
}

// DaysBetween returns the whole number of days from start to end. It is
// negative when end is before start.
func DaysBetween(start, end time.Time) int {
	from := TruncateToDate(start).Unix()
	to := TruncateToDate(end).Unix()
	return int((to - from) / secondsPerDay)
}
