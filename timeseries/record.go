package timeseries

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// Record is a single sensor reading. Value is NaN when the measurement is
// missing; missing values survive regularization as NaN output cells rather
// than errors.
type Record struct {
	Time  time.Time
	ID    string
	Type  string
	Value float64
}

// recordJSON is the wire form of a Record. Value is a pointer so a missing
// measurement serializes as null instead of the unmarshalable NaN.
type recordJSON struct {
	Time  time.Time `json:"time"`
	ID    string    `json:"id,omitempty"`
	Type  string    `json:"type,omitempty"`
	Value *float64  `json:"value"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{Time: r.Time, ID: r.ID, Type: r.Type}
	if !math.IsNaN(r.Value) {
		v := r.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Time = in.Time
	r.ID = in.ID
	r.Type = in.Type
	if in.Value != nil {
		r.Value = *in.Value
	} else {
		r.Value = math.NaN()
	}
	return nil
}

// groupKey identifies one series within a record set.
type groupKey struct {
	ID   string
	Type string
}

// sortRecords orders records by (Time, ID, Type), keeping input order for
// exact ties.
func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Time.Equal(recs[j].Time) {
			return recs[i].Time.Before(recs[j].Time)
		}
		if recs[i].ID != recs[j].ID {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].Type < recs[j].Type
	})
}
