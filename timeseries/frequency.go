package timeseries

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// frequencyRe splits a frequency string into an optional count and a unit,
// e.g. "15min" -> (15, "min"), "D" -> (1, "D").
var frequencyRe = regexp.MustCompile(`^([0-9]+)?\s*([A-Za-z]+)$`)

// timeLayouts are tried in order by ParseTime for non-integer inputs.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseFrequency converts a frequency string such as "15min", "30D" or
// "week" into a fixed step size. Units are matched by prefix: sec, min,
// hour, day, week, plus the single-letter forms s, m, h, d, w. A missing
// count means 1. Months and years are rejected because they do not map to
// a fixed number of seconds.
func ParseFrequency(s string) (time.Duration, error) {
	m := frequencyRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}

	n := 1
	if m[1] != "" {
		var err error
		if n, err = strconv.Atoi(m[1]); err != nil || n == 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
		}
	}

	unit := strings.ToLower(m[2])
	var step time.Duration
	switch {
	case strings.HasPrefix(unit, "mon") || strings.HasPrefix(unit, "year") || strings.HasPrefix(unit, "y"):
		return 0, fmt.Errorf("%w: %q is not a fixed time unit", ErrInvalidFrequency, s)
	case unit == "s" || strings.HasPrefix(unit, "sec"):
		step = time.Second
	case unit == "m" || unit == "t" || strings.HasPrefix(unit, "min"):
		step = time.Minute
	case unit == "h" || strings.HasPrefix(unit, "hour"):
		step = time.Hour
	case unit == "d" || strings.HasPrefix(unit, "day"):
		step = 24 * time.Hour
	case unit == "w" || strings.HasPrefix(unit, "week"):
		step = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}

	return time.Duration(n) * step, nil
}

// ParseTime parses a grid bound. Bare integers are interpreted as POSIX
// epoch seconds; otherwise the common date and datetime layouts are tried.
// Layouts without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidTimestamp)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
