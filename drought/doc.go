// Package drought computes the Standardized Precipitation (Evaporation)
// Index, a per-day z-score measuring relative drought or precipitation
// surplus.
//
// # Method
//
// SP(E)I works on daily weather data. The target series is precipitation
// (SPI) or precipitation minus evaporation (SPEI), smoothed with a trailing
// rolling mean over a window such as 30 days. A normal distribution is
// fitted to the rolling target per calendar (month, day) across at least
// min_years years of history; new data is then transformed to a z-score
// against the fitted mean and standard deviation of its calendar day.
//
// A score below -2 indicates extremely dry weather, a score above 2 very
// wet weather.
//
// # Sparse calendar days
//
// Feb-29 appears in roughly a quarter of the years, so its fitted moments
// are unstable. Any calendar day observed in fewer than half as many years
// as the best-covered day has its mean and std forced to NaN; transforming
// such a day yields NaN rather than an error. Optional smoothing replaces
// the fitted mean and std curves with a centered 5-point rolling median
// across the day-of-year ordering, which suppresses estimation noise and
// restores a usable value for leap days. Edge days use fewer points; the
// year is not treated as circular.
//
// # Lifecycle
//
// A Transformer starts unconfigured. Configure fits the model from
// historical data and is the only state transition; Transform fails with
// ErrNotConfigured before that. A fitted Model is read-only and safe for
// concurrent Transform calls.
package drought
