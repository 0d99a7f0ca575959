// Package feature extracts model features from timestamp columns.
package feature

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownComponent indicates a component name with no extractor.
var ErrUnknownComponent = errors.New("unknown datetime component")

// extractors is the closed set of supported datetime components. Weekday
// is Monday=0 through Sunday=6, week is the ISO week number, quarter is
// 1 through 4.
var extractors = map[string]func(time.Time) float64{
	"year":      func(t time.Time) float64 { return float64(t.Year()) },
	"month":     func(t time.Time) float64 { return float64(t.Month()) },
	"day":       func(t time.Time) float64 { return float64(t.Day()) },
	"hour":      func(t time.Time) float64 { return float64(t.Hour()) },
	"minute":    func(t time.Time) float64 { return float64(t.Minute()) },
	"second":    func(t time.Time) float64 { return float64(t.Second()) },
	"weekday":   func(t time.Time) float64 { return float64((int(t.Weekday()) + 6) % 7) },
	"dayofyear": func(t time.Time) float64 { return float64(t.YearDay()) },
	"week": func(t time.Time) float64 {
		_, week := t.ISOWeek()
		return float64(week)
	},
	"quarter": func(t time.Time) float64 { return float64((int(t.Month())-1)/3 + 1) },
}

// Components lists the supported component names, sorted.
func Components() []string {
	names := make([]string, 0, len(extractors))
	for name := range extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decompose extracts the requested components from a timestamp column.
// The result maps each component name to a column aligned with times.
func Decompose(times []time.Time, components []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(components))
	for _, name := range components {
		extract, ok := extractors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
		}
		col := make([]float64, len(times))
		for i, t := range times {
			col[i] = extract(t)
		}
		out[name] = col
	}
	return out, nil
}
