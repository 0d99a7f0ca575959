// Package dataset loads sensor records and daily weather observations from
// CSV files. The loaders are thin: they map columns, parse timestamps, and
// turn empty cells into NaN; all statistics live in the timeseries and
// drought packages.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydroseries/drought"
	"github.com/couchcryptid/hydroseries/timeseries"
)

// ReadRecords parses sensor readings from CSV with columns TIME, ID, TYPE
// and VALUE (case-insensitive, any order). TIME and VALUE are required;
// a missing one is a timeseries.ErrSchema. Integer TIME cells are POSIX
// epoch seconds, empty VALUE cells are NaN.
func ReadRecords(r io.Reader) ([]timeseries.Record, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	timeCol, ok := header["time"]
	if !ok {
		return nil, fmt.Errorf("%w: TIME", timeseries.ErrSchema)
	}
	valueCol, ok := header["value"]
	if !ok {
		return nil, fmt.Errorf("%w: VALUE", timeseries.ErrSchema)
	}
	idCol, hasID := header["id"]
	typeCol, hasType := header["type"]

	recs := make([]timeseries.Record, 0, len(rows))
	for i, row := range rows {
		t, err := timeseries.ParseTime(row[timeCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		v, err := parseCell(row[valueCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse VALUE: %w", i+2, err)
		}
		rec := timeseries.Record{Time: t, Value: v}
		if hasID {
			rec.ID = row[idCol]
		}
		if hasType {
			rec.Type = row[typeCol]
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadObservations parses daily weather data from CSV with columns DATE,
// PRECIPITATION and EVAPORATION. DATE is required (drought.ErrSchema when
// absent); the variable columns are optional here and validated by
// drought.Configure, which knows which metric needs which variable. Empty
// or absent cells are NaN.
func ReadObservations(r io.Reader) ([]drought.Observation, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	dateCol, ok := header["date"]
	if !ok {
		return nil, fmt.Errorf("%w: DATE", drought.ErrSchema)
	}
	precipCol, hasPrecip := header["precipitation"]
	evapCol, hasEvap := header["evaporation"]

	obs := make([]drought.Observation, 0, len(rows))
	for i, row := range rows {
		d, err := timeseries.ParseTime(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		o := drought.Observation{Date: d, Precipitation: math.NaN(), Evaporation: math.NaN()}
		if hasPrecip {
			if o.Precipitation, err = parseCell(row[precipCol]); err != nil {
				return nil, fmt.Errorf("row %d: parse PRECIPITATION: %w", i+2, err)
			}
		}
		if hasEvap {
			if o.Evaporation, err = parseCell(row[evapCol]); err != nil {
				return nil, fmt.Errorf("row %d: parse EVAPORATION: %w", i+2, err)
			}
		}
		obs = append(obs, o)
	}
	return obs, nil
}

// readAll reads the CSV into a lowercased header index and data rows.
func readAll(r io.Reader) (map[string]int, [][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read csv: empty input")
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return header, rows[1:], nil
}

// parseCell converts one numeric cell; empty means missing.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
