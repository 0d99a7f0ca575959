// Package timeseries regularizes irregular sensor readings onto a
// fixed-frequency grid.
//
// # Record format
//
// Readings follow the flat format used across the hydroseries tooling:
//
//	TIME   timestamp of the measurement
//	ID     grouping key, usually a station or pump identifier (optional)
//	TYPE   measurement kind, e.g. "flow" or "level" (optional)
//	VALUE  the measured value; NaN marks a missing measurement
//
// Within one (ID, TYPE) group the input timestamps may arrive unsorted and
// at uneven intervals. The regularizer snaps them onto a regular grid.
//
// # Binning
//
// Binning is left-floor: a reading is assigned to the latest grid timestamp
// not exceeding its own timestamp. With a 15min grid starting at 15:45:00,
// a reading at 15:45:09 lands in the 15:45:00 bin, never 16:00:00. Readings
// sharing a bin and group are combined with the configured aggregate method
// (mean by default). Grid bins with no contributing readings are emitted
// with a NaN value unless a fill method is configured.
//
// # Daylight saving time
//
// Wall-clock timestamps around the autumn DST transition are ambiguous: the
// 02:00–02:59 hour of the last Sunday of October occurs twice. [LabelDST]
// flags those stamps as to_wintertime, and [AverageWinterTime] merges rows
// that collide on an identical wintertime wall-clock reading by averaging
// their values, so the repeated hour is resolved deterministically before
// gridding. The spring transition (last Sunday of March) removes an hour
// instead; a to_summertime label therefore signals a malformed clock rather
// than a real occurrence. The "last Sunday" test uses day >= 25, which is
// exact for any Gregorian month.
package timeseries
