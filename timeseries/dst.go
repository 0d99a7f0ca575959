package timeseries

import (
	"log/slog"
	"math"
	"sort"
	"time"
)

// Label classifies a timestamp relative to the two DST transitions.
type Label string

const (
	LabelNormal       Label = "normal"
	LabelToSummertime Label = "to_summertime"
	LabelToWintertime Label = "to_wintertime"
)

// LabelDST labels a single timestamp. The transition window is the
// 02:00-02:59 hour of the last Sunday of March (clocks forward) or October
// (clocks back). A day >= 25 on a Sunday is always the last Sunday of the
// month, so no calendar lookup is needed.
func LabelDST(t time.Time) Label {
	if t.Day() >= 25 && t.Weekday() == time.Sunday && t.Hour() == 2 {
		switch t.Month() {
		case time.March:
			return LabelToSummertime
		case time.October:
			return LabelToWintertime
		}
	}
	return LabelNormal
}

// wtKey identifies one wintertime wall-clock collision group.
type wtKey struct {
	nanos int64
	id    string
	typ   string
}

// AverageWinterTime resolves the duplicated autumn hour: rows labeled
// to_wintertime that share an identical (Time, ID, Type) are merged into a
// single row holding the mean of their non-NaN values. All other rows pass
// through unchanged. The result is ordered by (Time, ID, Type).
func AverageWinterTime(recs []Record, logger *slog.Logger) []Record {
	if logger == nil {
		logger = slog.Default()
	}

	type acc struct {
		t     time.Time
		id    string
		typ   string
		sum   float64
		count int
		order int
	}

	var labels [3]int
	merged := make(map[wtKey]*acc)
	out := make([]Record, 0, len(recs))

	for i, rec := range recs {
		label := LabelDST(rec.Time)
		switch label {
		case LabelToSummertime:
			labels[1]++
		case LabelToWintertime:
			labels[2]++
		default:
			labels[0]++
		}

		if label != LabelToWintertime {
			out = append(out, rec)
			continue
		}

		key := wtKey{nanos: rec.Time.UnixNano(), id: rec.ID, typ: rec.Type}
		a, ok := merged[key]
		if !ok {
			a = &acc{t: rec.Time, id: rec.ID, typ: rec.Type, order: i}
			merged[key] = a
		}
		if !math.IsNaN(rec.Value) {
			a.sum += rec.Value
			a.count++
		}
	}

	logger.Debug("labeled dst transitions",
		"rows", len(recs),
		"normal", labels[0],
		"to_summertime", labels[1],
		"to_wintertime", labels[2],
	)

	// Append merged wintertime rows in first-seen order so the final sort
	// stays deterministic.
	accs := make([]*acc, 0, len(merged))
	for _, a := range merged {
		accs = append(accs, a)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].order < accs[j].order })
	for _, a := range accs {
		v := math.NaN()
		if a.count > 0 {
			v = a.sum / float64(a.count)
		}
		out = append(out, Record{Time: a.t, ID: a.id, Type: a.typ, Value: v})
	}

	sortRecords(out)

	if len(out) != len(recs) {
		logger.Info("merged duplicate wintertime rows",
			"rows_before", len(recs),
			"rows_after", len(out),
		)
	}
	return out
}
