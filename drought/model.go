package drought

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// DayKey addresses one calendar day of the fitted model, e.g. Feb-29.
type DayKey struct {
	Month time.Month
	Day   int
}

// MarshalText renders the key as "MM-DD" so it can serve as a JSON map key.
func (k DayKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%02d-%02d", int(k.Month), k.Day)), nil
}

func (k *DayKey) UnmarshalText(text []byte) error {
	var m, d int
	if _, err := fmt.Sscanf(string(text), "%d-%d", &m, &d); err != nil {
		return fmt.Errorf("parse day key %q: %w", text, err)
	}
	k.Month = time.Month(m)
	k.Day = d
	return nil
}

// DayStats holds the fitted moments of the rolling target for one calendar
// day. Mean and Std are NaN for days with too few observed years.
type DayStats struct {
	Count int
	Mean  float64
	Std   float64
}

// dayStatsJSON carries NaN-able fields as pointers; null means undefined.
type dayStatsJSON struct {
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
}

func (s DayStats) MarshalJSON() ([]byte, error) {
	out := dayStatsJSON{Count: s.Count}
	if !math.IsNaN(s.Mean) {
		m := s.Mean
		out.Mean = &m
	}
	if !math.IsNaN(s.Std) {
		d := s.Std
		out.Std = &d
	}
	return json.Marshal(out)
}

func (s *DayStats) UnmarshalJSON(data []byte) error {
	var in dayStatsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Count = in.Count
	s.Mean = math.NaN()
	s.Std = math.NaN()
	if in.Mean != nil {
		s.Mean = *in.Mean
	}
	if in.Std != nil {
		s.Std = *in.Std
	}
	return nil
}

// Model is a fitted per-calendar-day drought index model. It is read-only
// after Configure returns and safe to share across concurrent Transform
// calls.
type Model struct {
	Metric   Metric              `json:"metric"`
	Window   string              `json:"window"`
	Days     map[DayKey]DayStats `json:"days"`
	FittedAt time.Time           `json:"fitted_at"`
}

// Name is the output column name, e.g. "SPEI_30D".
func (m *Model) Name() string {
	return string(m.Metric) + "_" + m.Window
}

// Curves returns the fitted mean and std ordered by calendar day, for
// diagnostics. Index i of each slice corresponds to Keys[i].
func (m *Model) Curves() (keys []DayKey, mean, std []float64) {
	keys = sortedKeys(m.Days)
	mean = make([]float64, len(keys))
	std = make([]float64, len(keys))
	for i, k := range keys {
		mean[i] = m.Days[k].Mean
		std[i] = m.Days[k].Std
	}
	return keys, mean, std
}

func sortedKeys(days map[DayKey]DayStats) []DayKey {
	keys := make([]DayKey, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Month != keys[j].Month {
			return keys[i].Month < keys[j].Month
		}
		return keys[i].Day < keys[j].Day
	})
	return keys
}
