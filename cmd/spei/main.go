// Command spei fits a drought index model from a daily weather history CSV,
// optionally writes the fitted model as JSON, and transforms new
// observations into index values.
//
// Usage:
//
//	go run ./cmd/spei \
//	  -history data/weather_1990_2023.csv \
//	  -metric SPEI -window 30D \
//	  -model-out model.json \
//	  -transform data/weather_2024.csv
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/hydroseries/dataset"
	"github.com/couchcryptid/hydroseries/drought"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "spei: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	history := flag.String("history", "", "CSV of daily weather history (DATE, PRECIPITATION, EVAPORATION)")
	metric := flag.String("metric", "SPEI", "index metric: SPI or SPEI")
	window := flag.String("window", "30D", "rolling window of the target, e.g. 30D")
	minYears := flag.Int("min-years", 30, "minimum years of history required")
	smoothing := flag.Bool("smoothing", true, "smooth the fitted curves with a rolling median")
	modelOut := flag.String("model-out", "", "optional path to write the fitted model JSON")
	transform := flag.String("transform", "", "optional CSV of observations to transform")
	out := flag.String("out", "", "output path for transformed values (default stdout)")
	flag.Parse()

	if *history == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -history")
	}

	transformer, err := drought.New(drought.Config{
		Metric:    drought.Metric(*metric),
		Window:    *window,
		Smoothing: *smoothing,
		MinYears:  *minYears,
	}, slog.Default())
	if err != nil {
		return err
	}

	obs, err := readObservations(*history)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if err := transformer.Configure(obs); err != nil {
		return fmt.Errorf("fit %s: %w", transformer.Name(), err)
	}

	printCurveSummary(transformer.Model())

	if *modelOut != "" {
		if err := writeModel(*modelOut, transformer.Model()); err != nil {
			return fmt.Errorf("write model: %w", err)
		}
		fmt.Printf("wrote model: %s\n", *modelOut)
	}

	if *transform != "" {
		newObs, err := readObservations(*transform)
		if err != nil {
			return fmt.Errorf("load observations: %w", err)
		}
		values, err := transformer.Transform(newObs)
		if err != nil {
			return fmt.Errorf("transform: %w", err)
		}
		if err := writeValues(*out, transformer.Name(), values); err != nil {
			return fmt.Errorf("write values: %w", err)
		}
	}

	return nil
}

func readObservations(path string) ([]drought.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadObservations(f)
}

func writeModel(path string, model *drought.Model) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// writeValues emits the index values as CSV: DATE, <name>. Undefined values
// are left as empty cells.
func writeValues(path, name string, values []drought.IndexValue) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"DATE", name}); err != nil {
		return err
	}
	for _, v := range values {
		cell := ""
		if !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0) {
			cell = strconv.FormatFloat(v.Value, 'g', -1, 64)
		}
		if err := w.Write([]string{v.Date.Format("2006-01-02"), cell}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printCurveSummary(model *drought.Model) {
	keys, mean, std := model.Curves()

	defined := 0
	minMean, maxMean := math.Inf(1), math.Inf(-1)
	for i := range keys {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) {
			continue
		}
		defined++
		if mean[i] < minMean {
			minMean = mean[i]
		}
		if mean[i] > maxMean {
			maxMean = mean[i]
		}
	}

	fmt.Printf("fitted %s at %s\n", model.Name(), model.FittedAt.Format(time.RFC3339))
	fmt.Printf("calendar days: %d (%d defined, %d undefined)\n",
		len(keys), defined, len(keys)-defined)
	if defined > 0 {
		fmt.Printf("mean curve range: [%g, %g]\n", minMean, maxMean)
	}
}
