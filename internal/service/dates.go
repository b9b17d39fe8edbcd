package service

import (
	"fmt"
	"strings"
	"time"

	"meetapp/internal/errors"
)

// Zone-less layouts are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDateTime parses a meetup date as sent by clients.
func parseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", errors.ErrValidation, value)
}

// dayBounds returns the first and last instant of the calendar day named by
// value, which may be a plain date or a full timestamp. An empty value means
// the day of now.
func dayBounds(value string, now time.Time) (time.Time, time.Time, error) {
	var day time.Time
	switch value = strings.TrimSpace(value); {
	case value == "":
		day = now.UTC()
	default:
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			if t, err = parseDateTime(value); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		day = t
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start.UTC(), end.UTC(), nil
}
