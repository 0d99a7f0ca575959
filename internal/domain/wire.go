package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/hydroseries/timeseries"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RawBatch is the JSON structure published by station gateways.
type RawBatch struct {
	Station  string       `json:"station"`
	SentAt   time.Time    `json:"sent_at"`
	Readings []RawReading `json:"readings"`
}

// RawReading is one reading inside a RawBatch. Pointer fields distinguish
// absent keys from present-but-null values during schema validation.
type RawReading struct {
	Time  *FlexTime `json:"time"`
	Type  string    `json:"type,omitempty"`
	Value *float64  `json:"value"`
}

// Batch is the parsed, validated form of a RawBatch. Records carry the
// station as their ID so the regularizer groups correctly.
type Batch struct {
	Station    string
	ReceivedAt time.Time
	Records    []timeseries.Record
}

// RegularizedBatch is the output payload written to the sink topic.
type RegularizedBatch struct {
	Station     string              `json:"station"`
	Frequency   string              `json:"frequency"`
	Readings    []timeseries.Record `json:"readings"`
	ProcessedAt time.Time           `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
