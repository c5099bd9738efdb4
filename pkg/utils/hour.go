package utils

import (
	"fmt"
	"time"
)

// HourKeyLayout names one hourly window on disk and in storage keys.
const HourKeyLayout = "20060102-15"

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseLocalDateTime parses an ISO-8601 local date-time without zone,
// interpreted in loc.
func ParseLocalDateTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid local date-time %q, want yyyy-MM-ddTHH:mm[:ss]", s)
}

// TruncateHour drops minutes and below in t's own location.
// time.Truncate works on absolute time and would misalign half-hour zones.
func TruncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// HourKey formats t as yyyyMMdd-HH.
func HourKey(t time.Time) string {
	return t.Format(HourKeyLayout)
}

// ParseHourKey is the inverse of HourKey.
func ParseHourKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(HourKeyLayout, key, loc)
}
