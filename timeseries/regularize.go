package timeseries

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// aggregateFunc combines the raw values landing in one grid bin. NaN inputs
// are skipped; an all-NaN bin yields NaN.
type aggregateFunc func(vals []float64) float64

var aggregators = map[string]aggregateFunc{
	"mean":   aggMean,
	"sum":    aggSum,
	"min":    aggMin,
	"max":    aggMax,
	"median": aggMedian,
	"first":  aggFirst,
	"last":   aggLast,
}

// RegularizerConfig configures a Regularizer. Bound strings follow
// ParseTime; an empty bound is derived from the data by flooring the input
// min/max timestamp onto the grid step.
type RegularizerConfig struct {
	// Frequency is the grid step, e.g. "15min". Required.
	Frequency string
	// StartTime and EndTime bound the grid (inclusive). Optional.
	StartTime string
	EndTime   string
	// AggregateMethod combines same-bin values: mean (default), sum, min,
	// max, median, first, last.
	AggregateMethod string
	// FillMethod fills empty bins after aggregation: "" (leave NaN),
	// "ffill" or "bfill".
	FillMethod string
	// FillLimit caps the number of consecutive bins a fill may bridge.
	// Zero means no limit.
	FillLimit int
}

// Regularizer snaps irregular records onto a fixed-frequency grid. It is
// immutable after construction and safe for concurrent Complete calls.
type Regularizer struct {
	step             time.Duration
	start, end       time.Time
	hasStart, hasEnd bool
	aggName          string
	agg              aggregateFunc
	fillMethod       string
	fillLimit        int
	logger           *slog.Logger
}

// NewRegularizer validates the configuration eagerly so that a bad
// frequency, bound, aggregator or fill method fails before any data flows.
func NewRegularizer(cfg RegularizerConfig, logger *slog.Logger) (*Regularizer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	step, err := ParseFrequency(cfg.Frequency)
	if err != nil {
		return nil, err
	}

	aggName := cfg.AggregateMethod
	if aggName == "" {
		aggName = "mean"
	}
	agg, ok := aggregators[aggName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregator, cfg.AggregateMethod)
	}

	switch cfg.FillMethod {
	case "", "ffill", "bfill":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFillMethod, cfg.FillMethod)
	}

	r := &Regularizer{
		step:       step,
		aggName:    aggName,
		agg:        agg,
		fillMethod: cfg.FillMethod,
		fillLimit:  cfg.FillLimit,
		logger:     logger,
	}

	if cfg.StartTime != "" {
		if r.start, err = ParseTime(cfg.StartTime); err != nil {
			return nil, err
		}
		r.hasStart = true
	}
	if cfg.EndTime != "" {
		if r.end, err = ParseTime(cfg.EndTime); err != nil {
			return nil, err
		}
		r.hasEnd = true
	}
	if r.hasStart && r.hasEnd && r.end.Before(r.start) {
		return nil, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidTimestamp, r.end.Format(time.RFC3339), r.start.Format(time.RFC3339))
	}

	return r, nil
}

// Step returns the parsed grid step.
func (r *Regularizer) Step() time.Duration { return r.step }

// Complete produces exactly one record per grid timestamp per (ID, Type)
// group observed in the input, ordered by (Time, ID, Type). Duplicate
// wintertime rows are averaged first, then each record is floored onto the
// grid and same-bin values are aggregated. Records outside the configured
// bounds are dropped.
func (r *Regularizer) Complete(recs []Record) ([]Record, error) {
	merged := AverageWinterTime(recs, r.logger)

	start, end := r.start, r.end
	if !r.hasStart || !r.hasEnd {
		if len(merged) == 0 {
			return []Record{}, nil
		}
		// merged is sorted by time, so the bounds are the first and last rows.
		if !r.hasStart {
			start = merged[0].Time.Truncate(r.step)
		}
		if !r.hasEnd {
			last := merged[len(merged)-1].Time
			end = start.Add(last.Sub(start) / r.step * r.step)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidTimestamp, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	nBins := int(end.Sub(start)/r.step) + 1

	groupSet := make(map[groupKey]bool)
	var groups []groupKey
	bins := make(map[groupKey][][]float64)

	for _, rec := range merged {
		g := groupKey{ID: rec.ID, Type: rec.Type}
		if !groupSet[g] {
			groupSet[g] = true
			groups = append(groups, g)
		}
		if rec.Time.Before(start) {
			continue
		}
		idx := int(rec.Time.Sub(start) / r.step)
		if idx >= nBins {
			continue
		}
		b := bins[g]
		if b == nil {
			b = make([][]float64, nBins)
			bins[g] = b
		}
		b[idx] = append(b[idx], rec.Value)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].ID != groups[j].ID {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].Type < groups[j].Type
	})

	series := make(map[groupKey][]float64, len(groups))
	for _, g := range groups {
		vals := make([]float64, nBins)
		b := bins[g]
		for i := range vals {
			if b == nil || len(b[i]) == 0 {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = r.agg(b[i])
		}
		r.applyFill(vals)
		series[g] = vals
	}

	out := make([]Record, 0, nBins*len(groups))
	for i := 0; i < nBins; i++ {
		t := start.Add(time.Duration(i) * r.step)
		for _, g := range groups {
			out = append(out, Record{Time: t, ID: g.ID, Type: g.Type, Value: series[g][i]})
		}
	}

	r.logger.Debug("completed timestamps",
		"rows_in", len(recs),
		"rows_out", len(out),
		"groups", len(groups),
		"grid_size", nBins,
		"aggregate", r.aggName,
	)
	return out, nil
}

// applyFill fills NaN bins in place according to the configured method and
// limit. The limit counts consecutive empty bins from the nearest known
// value; bins beyond it stay NaN.
func (r *Regularizer) applyFill(vals []float64) {
	switch r.fillMethod {
	case "ffill":
		last := math.NaN()
		gap := 0
		for i := range vals {
			if !math.IsNaN(vals[i]) {
				last = vals[i]
				gap = 0
				continue
			}
			gap++
			if math.IsNaN(last) {
				continue
			}
			if r.fillLimit == 0 || gap <= r.fillLimit {
				vals[i] = last
			}
		}
	case "bfill":
		next := math.NaN()
		gap := 0
		for i := len(vals) - 1; i >= 0; i-- {
			if !math.IsNaN(vals[i]) {
				next = vals[i]
				gap = 0
				continue
			}
			gap++
			if math.IsNaN(next) {
				continue
			}
			if r.fillLimit == 0 || gap <= r.fillLimit {
				vals[i] = next
			}
		}
	}
}

func aggMean(vals []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func aggSum(vals []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum
}

func aggMin(vals []float64) float64 {
	m, n := math.Inf(1), 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if v < m {
			m = v
		}
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return m
}

func aggMax(vals []float64) float64 {
	m, n := math.Inf(-1), 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if v > m {
			m = v
		}
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return m
}

func aggMedian(vals []float64) float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	mid := len(clean) / 2
	if len(clean)%2 == 1 {
		return clean[mid]
	}
	return (clean[mid-1] + clean[mid]) / 2
}

func aggFirst(vals []float64) float64 {
	for _, v := range vals {
		if !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

func aggLast(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}
