package drought

import "errors"

var (
	// ErrSchema indicates the input lacks a required variable:
	// precipitation always, evaporation additionally for SPEI.
	ErrSchema = errors.New("missing required variable")

	// ErrUnknownMetric indicates a metric other than SPI or SPEI.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrInsufficientHistory indicates fewer than min_years years of
	// historical data were supplied to Configure.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrNotConfigured indicates Transform was called before Configure.
	ErrNotConfigured = errors.New("transformer not configured")
)
