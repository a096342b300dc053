package utils

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidWindow = errors.New("invalid time window")

func IsValidInterval(interval string) bool {
	switch interval {
	case "Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year":
		return true
	default:
		return false
	}
}

// ParseTimeWindow parses optional RFC3339 start/end parameters. A missing end
// is now; a missing start is end minus fallback.
func ParseTimeWindow(startParam, endParam string, now time.Time, fallback time.Duration) (time.Time, time.Time, error) {
	end := now.UTC()
	if endParam != "" {
		t, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid 'end' timestamp format, use RFC3339 (e.g., 2006-01-02T15:04:05Z)", ErrInvalidWindow)
		}
		end = t
	}

	start := end.Add(-fallback)
	if startParam != "" {
		t, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid 'start' timestamp format, use RFC3339 (e.g., 2006-01-02T15:04:05Z)", ErrInvalidWindow)
		}
		start = t
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 'start' is after 'end'", ErrInvalidWindow)
	}
	return start, end, nil
}
