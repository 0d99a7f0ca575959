package timeseries

import "errors"

// Sentinel errors returned by the regularizer and its parsers. Callers match
// with errors.Is; raise sites wrap them with context via fmt.Errorf and %w.
var (
	// ErrSchema indicates a required column (TIME or VALUE) is absent.
	ErrSchema = errors.New("missing required column")

	// ErrInvalidFrequency indicates a frequency string that does not parse
	// to a fixed time step.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidTimestamp indicates a start or end bound that does not parse
	// as a timestamp. Bare integers are valid POSIX epoch seconds.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrUnknownAggregator indicates an unrecognized aggregate method name.
	ErrUnknownAggregator = errors.New("unknown aggregate method")

	// ErrUnknownFillMethod indicates an unrecognized fill method name.
	ErrUnknownFillMethod = errors.New("unknown fill method")
)
