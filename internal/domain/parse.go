package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/hydroseries/timeseries"
)

// FlexTime accepts either a JSON string timestamp or a bare integer of
// epoch seconds, mirroring what gateway firmware versions emit.
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	t, err := timeseries.ParseTime(s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

func (f FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Time)
}

// ParseRawBatch deserializes and validates a raw reading batch. Every
// reading must carry a time; a batch where no reading carries a value key
// is rejected as schema-invalid (the gateway dropped the value column).
// Individual null values are legal and become NaN.
func ParseRawBatch(raw RawEvent) (Batch, error) {
	var batch RawBatch
	if err := json.Unmarshal(raw.Value, &batch); err != nil {
		return Batch{}, fmt.Errorf("parse raw batch: %w", err)
	}
	if len(batch.Readings) == 0 {
		return Batch{}, fmt.Errorf("parse raw batch: no readings")
	}

	records := make([]timeseries.Record, len(batch.Readings))
	sawValue := false
	for i, r := range batch.Readings {
		if r.Time == nil {
			return Batch{}, fmt.Errorf("%w: time (reading %d)", timeseries.ErrSchema, i)
		}
		v := math.NaN()
		if r.Value != nil {
			sawValue = true
			v = *r.Value
		}
		records[i] = timeseries.Record{
			Time:  r.Time.Time,
			ID:    batch.Station,
			Type:  r.Type,
			Value: v,
		}
	}
	if !sawValue {
		return Batch{}, fmt.Errorf("%w: value", timeseries.ErrSchema)
	}

	return Batch{
		Station:    batch.Station,
		ReceivedAt: raw.Timestamp,
		Records:    records,
	}, nil
}

// EncodeRegularized serializes a regularized series into a sink event,
// keyed by station for partition affinity.
func EncodeRegularized(station, frequency string, recs []timeseries.Record) (OutputEvent, error) {
	out := RegularizedBatch{
		Station:     station,
		Frequency:   frequency,
		Readings:    recs,
		ProcessedAt: clock.Now(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize regularized batch: %w", err)
	}
	return OutputEvent{
		Key:   []byte(station),
		Value: data,
		Headers: map[string]string{
			"station":      station,
			"frequency":    frequency,
			"processed_at": out.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
