package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hydroseries/internal/domain"
	"github.com/couchcryptid/hydroseries/internal/observability"
	"github.com/couchcryptid/hydroseries/timeseries"
)

// SeriesTransformer implements Transformer by parsing a raw reading batch
// and snapping it onto the configured grid. The regularizer is immutable,
// so one transformer serves all batches.
type SeriesTransformer struct {
	regularizer *timeseries.Regularizer
	frequency   string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewTransformer creates a SeriesTransformer around a configured regularizer.
func NewTransformer(reg *timeseries.Regularizer, frequency string, logger *slog.Logger, metrics *observability.Metrics) *SeriesTransformer {
	return &SeriesTransformer{
		regularizer: reg,
		frequency:   frequency,
		logger:      logger,
		metrics:     metrics,
	}
}

func (t *SeriesTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	batch, err := domain.ParseRawBatch(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.ReadingsIn.Add(float64(len(batch.Records)))

	if dups := wintertimeDuplicates(batch.Records); dups > 0 {
		t.metrics.WintertimeMerges.Add(float64(dups))
	}

	gridded, err := t.regularizer.Complete(batch.Records)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.ReadingsOut.Add(float64(len(gridded)))

	return domain.EncodeRegularized(batch.Station, t.frequency, gridded)
}

// wintertimeDuplicates counts readings inside an October transition hour that
// repeat an earlier (time, id, type) tuple and will be averaged away.
func wintertimeDuplicates(recs []timeseries.Record) int {
	type key struct {
		t  int64
		id string
		tp string
	}

	seen := make(map[key]bool)
	dups := 0
	for _, r := range recs {
		if timeseries.LabelDST(r.Time) != timeseries.LabelToWintertime {
			continue
		}
		k := key{t: r.Time.UnixNano(), id: r.ID, tp: r.Type}
		if seen[k] {
			dups++
			continue
		}
		seen[k] = true
	}
	return dups
}
