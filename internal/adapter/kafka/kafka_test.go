package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/hydroseries/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("station-7"),
		Value:     []byte(`{"station":"station-7"}`),
		Topic:     "raw-sensor-readings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "gateway", Value: []byte("gw-03")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("station-7"), raw.Key)
	assert.JSONEq(t, `{"station":"station-7"}`, string(raw.Value))
	assert.Equal(t, "raw-sensor-readings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "gw-03", raw.Headers["gateway"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	event := domain.OutputEvent{
		Key:   []byte("station-7"),
		Value: []byte(`{"station":"station-7","frequency":"15min"}`),
		Headers: map[string]string{
			"station":      "station-7",
			"frequency":    "15min",
			"processed_at": "2024-04-26T15:10:00Z",
		},
	}

	msg := serializeToMessage(event)

	assert.Equal(t, []byte("station-7"), msg.Key)
	assert.Equal(t, event.Value, msg.Value)
	assert.Len(t, msg.Headers, 3)
	assert.Equal(t, "station", msg.Headers[0].Key)
	assert.Equal(t, []byte("station-7"), msg.Headers[0].Value)
	assert.Equal(t, "frequency", msg.Headers[1].Key)
	assert.Equal(t, []byte("15min"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[2].Value)
}

func TestSerializeToMessage_SkipsUnknownHeaders(t *testing.T) {
	event := domain.OutputEvent{
		Key:     []byte("station-7"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"frequency": "15min", "debug": "1"},
	}

	msg := serializeToMessage(event)

	assert.Len(t, msg.Headers, 1)
	assert.Equal(t, "frequency", msg.Headers[0].Key)
}
