package drought

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/hydroseries/timeseries"
)

// Metric selects which index a Transformer computes.
type Metric string

const (
	// SPI is the Standardized Precipitation Index.
	SPI Metric = "SPI"
	// SPEI is the Standardized Precipitation Evaporation Index.
	SPEI Metric = "SPEI"
)

// Observation is one day of weather data. Evaporation is NaN when the
// variable was not measured; it is only required for SPEI.
type Observation struct {
	Date          time.Time
	Precipitation float64
	Evaporation   float64
}

// IndexValue is one transformed output row.
type IndexValue struct {
	Date  time.Time
	Value float64
}

// Config holds the model parameters. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// Metric is SPI or SPEI.
	Metric Metric
	// Window sizes the trailing rolling mean of the target, e.g. "30D".
	Window string
	// Smoothing applies a centered 5-point rolling median to the fitted
	// mean and std curves. The literature definition of SP(E)I does not
	// smooth, but smoothing makes the model robust against day-to-day
	// estimation noise and yields values for leap days.
	Smoothing bool
	// MinYears is the minimum year coverage required by Configure.
	MinYears int
}

// DefaultConfig returns the standard setup: SPEI over a 30-day window with
// smoothing, requiring 30 years of history.
func DefaultConfig() Config {
	return Config{Metric: SPEI, Window: "30D", Smoothing: true, MinYears: 30}
}

// Transformer fits and applies a drought index model. It has two states:
// unconfigured after New, configured after a successful Configure.
type Transformer struct {
	cfg    Config
	window time.Duration
	model  *Model
	logger *slog.Logger
}

// New validates the configuration. The window string must parse to a fixed
// duration (ErrInvalidFrequency from the timeseries package otherwise).
func New(cfg Config, logger *slog.Logger) (*Transformer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Metric == "" {
		cfg.Metric = SPEI
	}
	if cfg.Metric != SPI && cfg.Metric != SPEI {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, cfg.Metric)
	}
	if cfg.Window == "" {
		cfg.Window = "30D"
	}
	if cfg.MinYears <= 0 {
		cfg.MinYears = 30
	}

	window, err := timeseries.ParseFrequency(cfg.Window)
	if err != nil {
		return nil, err
	}

	return &Transformer{cfg: cfg, window: window, logger: logger}, nil
}

// Name is the output column name, e.g. "SPEI_30D".
func (t *Transformer) Name() string {
	return string(t.cfg.Metric) + "_" + t.cfg.Window
}

// Configured reports whether a model has been fitted or restored.
func (t *Transformer) Configured() bool { return t.model != nil }

// Model returns the fitted model, or nil before Configure.
func (t *Transformer) Model() *Model { return t.model }

// Restore installs a previously fitted model, e.g. one loaded from a model
// store, skipping the Configure pass over historical data.
func (t *Transformer) Restore(m *Model) error {
	if m == nil || len(m.Days) == 0 {
		return fmt.Errorf("restore model: empty model")
	}
	if m.Metric != t.cfg.Metric || m.Window != t.cfg.Window {
		return fmt.Errorf("restore model: model is %s_%s, transformer wants %s",
			m.Metric, m.Window, t.Name())
	}
	t.model = m
	return nil
}

// Configure fits the per-calendar-day normal distribution on historical
// daily weather data covering at least MinYears years.
func (t *Transformer) Configure(obs []Observation) error {
	if err := t.checkSchema(obs); err != nil {
		return err
	}

	target := t.computeTarget(obs)

	// Group the rolling target by calendar day across all years.
	byDay := make(map[DayKey][]float64)
	for _, p := range target {
		key := DayKey{Month: p.date.Month(), Day: p.date.Day()}
		if _, ok := byDay[key]; !ok {
			byDay[key] = nil
		}
		if !math.IsNaN(p.value) {
			byDay[key] = append(byDay[key], p.value)
		}
	}

	days := make(map[DayKey]DayStats, len(byDay))
	nYears := 0
	for key, vals := range byDay {
		st := DayStats{Count: len(vals), Mean: math.NaN(), Std: math.NaN()}
		if len(vals) > 0 {
			st.Mean = stat.Mean(vals, nil)
			st.Std = stat.StdDev(vals, nil) // sample std; NaN for a single value
		}
		days[key] = st
		if st.Count > nYears {
			nYears = st.Count
		}
	}

	if nYears < t.cfg.MinYears {
		return fmt.Errorf("%w: data covers %d years, need at least %d",
			ErrInsufficientHistory, nYears, t.cfg.MinYears)
	}

	// Days observed in fewer than half the years (Feb-29, gaps) get
	// undefined moments so they cannot contribute unstable z-scores.
	undefined := 0
	for key, st := range days {
		if float64(st.Count) < float64(nYears)/2 {
			st.Mean = math.NaN()
			st.Std = math.NaN()
			days[key] = st
			undefined++
		}
	}

	if t.cfg.Smoothing {
		smoothCurves(days)
	}

	t.model = &Model{
		Metric:   t.cfg.Metric,
		Window:   t.cfg.Window,
		Days:     days,
		FittedAt: clock.Now(),
	}

	t.logger.Info("drought model configured",
		"name", t.Name(),
		"calendar_days", len(days),
		"years", nYears,
		"undefined_days", undefined,
		"smoothing", t.cfg.Smoothing,
	)
	return nil
}

// Transform converts new daily weather data into drought index values.
// Days whose model entry is undefined yield NaN; a zero fitted std yields
// an infinite value. Neither is an error.
func (t *Transformer) Transform(obs []Observation) ([]IndexValue, error) {
	if t.model == nil {
		return nil, fmt.Errorf("%w: call Configure before Transform", ErrNotConfigured)
	}
	if err := t.checkSchema(obs); err != nil {
		return nil, err
	}

	target := t.computeTarget(obs)
	out := make([]IndexValue, len(target))
	for i, p := range target {
		st, ok := t.model.Days[DayKey{Month: p.date.Month(), Day: p.date.Day()}]
		if !ok {
			out[i] = IndexValue{Date: p.date, Value: math.NaN()}
			continue
		}
		out[i] = IndexValue{Date: p.date, Value: (p.value - st.Mean) / st.Std}
	}
	return out, nil
}

// checkSchema verifies the required variables carry data: precipitation
// always, evaporation additionally for SPEI.
func (t *Transformer) checkSchema(obs []Observation) error {
	hasPrecip, hasEvap := false, false
	for _, o := range obs {
		if !math.IsNaN(o.Precipitation) {
			hasPrecip = true
		}
		if !math.IsNaN(o.Evaporation) {
			hasEvap = true
		}
		if hasPrecip && hasEvap {
			break
		}
	}
	if !hasPrecip {
		return fmt.Errorf("%w: precipitation", ErrSchema)
	}
	if t.cfg.Metric == SPEI && !hasEvap {
		return fmt.Errorf("%w: evaporation (required for SPEI)", ErrSchema)
	}
	return nil
}

type targetPoint struct {
	date  time.Time
	value float64
}

// computeTarget builds the daily target series (precipitation, minus
// evaporation for SPEI) and applies a trailing rolling mean over the
// window. The window is right-closed: (t-window, t]. NaN days are skipped;
// a window with no valid days yields NaN. Input order does not matter.
func (t *Transformer) computeTarget(obs []Observation) []targetPoint {
	pts := make([]targetPoint, len(obs))
	for i, o := range obs {
		v := o.Precipitation
		if t.cfg.Metric == SPEI {
			v -= o.Evaporation
		}
		pts[i] = targetPoint{date: o.Date, value: v}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].date.Before(pts[j].date) })

	out := make([]targetPoint, len(pts))
	sum, count, lo := 0.0, 0, 0
	for i, p := range pts {
		if !math.IsNaN(p.value) {
			sum += p.value
			count++
		}
		cutoff := p.date.Add(-t.window)
		for !pts[lo].date.After(cutoff) {
			if !math.IsNaN(pts[lo].value) {
				sum -= pts[lo].value
				count--
			}
			lo++
		}
		v := math.NaN()
		if count > 0 {
			v = sum / float64(count)
		}
		out[i] = targetPoint{date: p.date, value: v}
	}
	return out
}

// smoothCurves replaces the fitted mean and std with a centered 5-point
// rolling median over the day-of-year ordering. Edge days use fewer
// points; NaN entries are skipped and a window with no valid entries
// stays NaN.
func smoothCurves(days map[DayKey]DayStats) {
	keys := sortedKeys(days)
	means := make([]float64, len(keys))
	stds := make([]float64, len(keys))
	for i, k := range keys {
		means[i] = days[k].Mean
		stds[i] = days[k].Std
	}
	smMean := rollingMedian(means, 5)
	smStd := rollingMedian(stds, 5)
	for i, k := range keys {
		st := days[k]
		st.Mean = smMean[i]
		st.Std = smStd[i]
		days[k] = st
	}
}

// rollingMedian computes a centered rolling median skipping NaNs. The
// window is clipped at the slice edges, so the minimum effective width is
// one element.
func rollingMedian(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	half := window / 2
	buf := make([]float64, 0, window)
	for i := range vals {
		lo := max(0, i-half)
		hi := min(len(vals), i+half+1)
		buf = buf[:0]
		for _, v := range vals[lo:hi] {
			if !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		out[i] = median(buf)
	}
	return out
}

// median averages the two middle elements for even lengths. Returns NaN
// for an empty slice. The input is sorted in place.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}
