// Command genreadings generates raw sensor reading fixtures for the ETL
// test suites, plus the regularized output computed by the actual pipeline
// code so test assertions match real behavior. The generated series includes
// the duplicated 02:00 hour of the October DST transition.
//
// Usage:
//
//	go run ./cmd/genreadings \
//	  -raw-out data/mock/readings_2410_raw.json \
//	  -regularized-out data/mock/readings_2410_regularized.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hydroseries/internal/domain"
	"github.com/couchcryptid/hydroseries/timeseries"
)

// The 2024 October transition: Sunday the 27th, the 02:00 hour repeats.
var transition = time.Date(2024, time.October, 27, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for the raw readings fixture")
	regOut := flag.String("regularized-out", "", "output path for the regularized fixture")
	station := flag.String("station", "station-7", "station ID stamped on the batch")
	seed := flag.Int64("seed", 1, "random seed for reproducible values")
	flag.Parse()

	if *rawOut == "" || *regOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -regularized-out")
	}

	// Fix the clock for reproducible processed_at stamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.October, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	batch := generateBatch(*station, rand.New(rand.NewSource(*seed)))

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal raw batch: %w", err)
	}
	if err := writeJSON(*rawOut, batch); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d readings)", *rawOut, len(batch.Readings))

	// Run the actual pipeline transformation so the fixture pair stays in
	// sync with production behavior.
	parsed, err := domain.ParseRawBatch(domain.RawEvent{Value: data, Timestamp: transition})
	if err != nil {
		return fmt.Errorf("parse generated batch: %w", err)
	}

	reg, err := timeseries.NewRegularizer(timeseries.RegularizerConfig{
		Frequency:       "15min",
		AggregateMethod: "mean",
	}, slog.Default())
	if err != nil {
		return err
	}
	gridded, err := reg.Complete(parsed.Records)
	if err != nil {
		return fmt.Errorf("regularize generated batch: %w", err)
	}

	regularized := domain.RegularizedBatch{
		Station:     *station,
		Frequency:   "15min",
		Readings:    gridded,
		ProcessedAt: time.Date(2024, time.October, 27, 6, 0, 0, 0, time.UTC),
	}
	if err := writeJSON(*regOut, regularized); err != nil {
		return fmt.Errorf("writing regularized fixture: %w", err)
	}
	log.Printf("wrote regularized fixture: %s (%d grid rows)", *regOut, len(gridded))

	printStats(gridded)
	return nil
}

// generateBatch produces an irregular level series across the night of the
// October transition. The duplicated 02:xx hour appears twice in the data,
// and a couple of readings are dropped to leave gaps on the grid.
func generateBatch(station string, rng *rand.Rand) domain.RawBatch {
	batch := domain.RawBatch{
		Station: station,
		SentAt:  transition.Add(5 * time.Hour),
	}

	appendReading := func(t time.Time, value float64) {
		v := value
		batch.Readings = append(batch.Readings, domain.RawReading{
			Time:  &domain.FlexTime{Time: t},
			Type:  "level",
			Value: &v,
		})
	}

	for offset := time.Duration(0); offset < 5*time.Hour; offset += 15 * time.Minute {
		t := transition.Add(offset)

		// Leave two grid points empty.
		if t.Hour() == 1 && (t.Minute() == 15 || t.Minute() == 30) {
			continue
		}

		jittered := t.Add(time.Duration(rng.Intn(120)) * time.Second)
		appendReading(jittered, 10+rng.Float64())

		// The repeated wintertime hour: each 02:xx stamp occurs twice with
		// different values, once per wall-clock pass.
		if t.Hour() == 2 {
			appendReading(jittered, 10+rng.Float64())
		}
	}

	return batch
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(recs []timeseries.Record) {
	missing := 0
	for _, r := range recs {
		if math.IsNaN(r.Value) {
			missing++
		}
	}
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Grid rows: %d\n", len(recs))
	fmt.Printf("Missing rows: %d\n", missing)
	if len(recs) > 0 {
		fmt.Printf("First: %s\n", recs[0].Time.Format(time.RFC3339))
		fmt.Printf("Last:  %s\n", recs[len(recs)-1].Time.Format(time.RFC3339))
	}
}
