//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/hydroseries/internal/adapter/kafka"
	"github.com/couchcryptid/hydroseries/internal/config"
	"github.com/couchcryptid/hydroseries/internal/domain"
	"github.com/couchcryptid/hydroseries/internal/observability"
	"github.com/couchcryptid/hydroseries/internal/pipeline"
	"github.com/couchcryptid/hydroseries/timeseries"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("hydroseries-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       group,
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer(t *testing.T) *pipeline.SeriesTransformer {
	t.Helper()
	reg, err := timeseries.NewRegularizer(timeseries.RegularizerConfig{
		Frequency:       "15min",
		AggregateMethod: "mean",
	}, discardLogger())
	require.NoError(t, err)
	return pipeline.NewTransformer(reg, "15min", discardLogger(), observability.NewMetricsForTesting())
}

func rawBatchPayload(t *testing.T, station string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"station": station,
		"sent_at": "2024-03-15T11:00:00Z",
		"readings": []map[string]any{
			{"time": "2024-03-15 10:07:00", "type": "flow", "value": 1.0},
			{"time": "2024-03-15 10:08:00", "type": "flow", "value": 2.0},
			{"time": "2024-03-15 10:31:00", "type": "flow", "value": 3.0},
		},
	})
	require.NoError(t, err)
	return payload
}

// sinkMessage holds a deserialized message read from the sink topic.
type sinkMessage struct {
	Batch   domain.RegularizedBatch
	Key     string
	Headers map[string]string
}

func readSink(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var batch domain.RegularizedBatch
	require.NoError(t, json.Unmarshal(msg.Value, &batch), "unmarshal sink message")

	return sinkMessage{Batch: batch, Key: string(msg.Key), Headers: headers}
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a reading batch.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-reader-%d", time.Now().UnixNano()))

	payload := rawBatchPayload(t, "station-7")
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("station-7"),
		Value: payload,
	}))

	// Extract via kafka.Reader. Retry because the consumer group may need
	// time to rebalance before partitions are assigned.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("station-7"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Transform and load via kafka.Writer.
	out, err := newTransformer(t).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	// Read from the sink topic and verify headers + grid.
	sm := readSink(ctx, t, newSinkConsumer(t, broker))
	assert.Equal(t, "station-7", sm.Key)
	assert.Equal(t, "station-7", sm.Headers["station"])
	assert.Equal(t, "15min", sm.Headers["frequency"])
	_, err = time.Parse(time.RFC3339, sm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "station-7", sm.Batch.Station)
	require.Len(t, sm.Batch.Readings, 3)
	assert.InDelta(t, 1.5, sm.Batch.Readings[0].Value, 1e-12)
	assert.True(t, math.IsNaN(sm.Batch.Readings[1].Value))
	assert.InDelta(t, 3.0, sm.Batch.Readings[2].Value, 1e-12)
}

// TestPipelineEndToEnd wires the full pipeline against real Kafka and
// verifies every station batch comes out regularized.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()))

	stations := []string{"station-1", "station-2", "station-3"}
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(stations))
	for _, station := range stations {
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(station),
			Value: rawBatchPayload(t, station),
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTransformer(t), writer, discardLogger(),
		observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	received := make(map[string]sinkMessage, len(stations))
	for len(received) < len(stations) {
		sm := readSink(ctx, t, consumer)
		received[sm.Batch.Station] = sm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	for _, station := range stations {
		sm, ok := received[station]
		require.True(t, ok, "missing sink message for %s", station)
		assert.Equal(t, station, sm.Key)
		assert.Equal(t, "15min", sm.Batch.Frequency)
		assert.Len(t, sm.Batch.Readings, 3)
		assert.False(t, sm.Batch.ProcessedAt.IsZero())
	}
}

// TestPipelineTransformError verifies that an unparseable message (poison
// pill) is skipped and the pipeline keeps processing valid batches.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-poison-%d", time.Now().UnixNano()))

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: rawBatchPayload(t, "station-9")},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTransformer(t), writer, discardLogger(),
		observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	sm := readSink(ctx, t, consumer)
	assert.Equal(t, "station-9", sm.Batch.Station)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
