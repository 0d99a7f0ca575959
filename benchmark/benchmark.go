// Package benchmark compares regression models on a shared chronological
// train/test split. It exists for model selection experiments, not for
// production scoring; the liberties it takes (resampling with a forward
// fill, imputing via the column mean) are acceptable only because every
// candidate model sees the same prepared data.
package benchmark

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/hydroseries/timeseries"
)

// Predictor is the minimal fit/predict surface a candidate model must
// implement.
type Predictor interface {
	Fit(features [][]float64, target []float64) error
	Predict(features [][]float64) ([]float64, error)
}

// Scorer reduces an (actual, predicted) pair of series to a single score.
// The evaluate package provides implementations.
type Scorer func(actual, predicted []float64) float64

// Split is a chronological train/test split. The test rows are always the
// tail of the data; time-series evaluation must not shuffle.
type Split struct {
	TrainX [][]float64
	TrainY []float64
	TestX  [][]float64
	TestY  []float64
}

// TrainMean returns the mean of the defined training targets, the baseline
// for evaluate.TrainMeanR2.
func (s Split) TrainMean() float64 {
	sum, n := 0.0, 0
	for _, v := range s.TrainY {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// ChronologicalSplit splits features and target without shuffling; the
// last testSize fraction becomes the test set.
func ChronologicalSplit(features [][]float64, target []float64, testSize float64) (Split, error) {
	if len(features) != len(target) {
		return Split{}, fmt.Errorf("split: %d feature rows vs %d targets", len(features), len(target))
	}
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("split: test size %v outside (0, 1)", testSize)
	}
	cut := len(target) - int(float64(len(target))*testSize)
	if cut <= 0 || cut >= len(target) {
		return Split{}, fmt.Errorf("split: test size %v leaves an empty side", testSize)
	}
	return Split{
		TrainX: features[:cut],
		TrainY: target[:cut],
		TestX:  features[cut:],
		TestY:  target[cut:],
	}, nil
}

// Resample regularizes records onto the given frequency before feature
// extraction, forward-filling gaps up to fillLimit bins. Longer flatlines
// would fabricate data, so larger gaps stay NaN.
func Resample(recs []timeseries.Record, frequency string, fillLimit int, logger *slog.Logger) ([]timeseries.Record, error) {
	reg, err := timeseries.NewRegularizer(timeseries.RegularizerConfig{
		Frequency:  frequency,
		FillMethod: "ffill",
		FillLimit:  fillLimit,
	}, logger)
	if err != nil {
		return nil, err
	}
	return reg.Complete(recs)
}

// Run fits every model on the training side and scores it on the test
// side. All models see identical data, so the comparison is fair even if
// the preparation was not faithful.
func Run(models map[string]Predictor, split Split, scorer Scorer) (map[string]float64, error) {
	scores := make(map[string]float64, len(models))
	for name, model := range models {
		if err := model.Fit(split.TrainX, split.TrainY); err != nil {
			return nil, fmt.Errorf("fit %s: %w", name, err)
		}
		predicted, err := model.Predict(split.TestX)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", name, err)
		}
		if len(predicted) != len(split.TestY) {
			return nil, fmt.Errorf("predict %s: %d predictions for %d test rows", name, len(predicted), len(split.TestY))
		}
		scores[name] = scorer(split.TestY, predicted)
	}
	return scores, nil
}

// MeanPredictor predicts the training-set mean for every row. It is the
// reference baseline every real model has to beat.
type MeanPredictor struct {
	mean float64
}

func (m *MeanPredictor) Fit(_ [][]float64, target []float64) error {
	sum, n := 0.0, 0
	for _, v := range target {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return fmt.Errorf("fit mean predictor: no defined targets")
	}
	m.mean = sum / float64(n)
	return nil
}

func (m *MeanPredictor) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}
