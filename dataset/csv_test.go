package dataset

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hydroseries/drought"
	"github.com/couchcryptid/hydroseries/timeseries"
)

func TestReadRecords(t *testing.T) {
	in := strings.NewReader(
		"TIME,ID,TYPE,VALUE\n" +
			"2024-03-15 10:07:00,station-7,flow,1.5\n" +
			"1710497280,station-7,flow,\n")

	recs, err := ReadRecords(in)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, time.Date(2024, 3, 15, 10, 7, 0, 0, time.UTC), recs[0].Time)
	assert.Equal(t, "station-7", recs[0].ID)
	assert.Equal(t, "flow", recs[0].Type)
	assert.InDelta(t, 1.5, recs[0].Value, 1e-12)

	assert.Equal(t, time.Date(2024, 3, 15, 10, 8, 0, 0, time.UTC), recs[1].Time)
	assert.True(t, math.IsNaN(recs[1].Value), "empty cell reads as missing")
}

func TestReadRecords_HeaderCaseAndOrder(t *testing.T) {
	in := strings.NewReader("value,time\n2.5,2024-03-15\n")

	recs, err := ReadRecords(in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 2.5, recs[0].Value, 1e-12)
	assert.Empty(t, recs[0].ID)
}

func TestReadRecords_MissingRequiredColumns(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("ID,VALUE\nx,1\n"))
	assert.ErrorIs(t, err, timeseries.ErrSchema)

	_, err = ReadRecords(strings.NewReader("TIME,ID\n2024-03-15,x\n"))
	assert.ErrorIs(t, err, timeseries.ErrSchema)
}

func TestReadRecords_BadCells(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("TIME,VALUE\nyesterday,1\n"))
	assert.ErrorIs(t, err, timeseries.ErrInvalidTimestamp)

	_, err = ReadRecords(strings.NewReader("TIME,VALUE\n2024-03-15,much\n"))
	assert.Error(t, err)
}

func TestReadObservations(t *testing.T) {
	in := strings.NewReader(
		"DATE,PRECIPITATION,EVAPORATION\n" +
			"2024-03-15,1.2,0.4\n" +
			"2024-03-16,,0.5\n")

	obs, err := ReadObservations(in)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.InDelta(t, 1.2, obs[0].Precipitation, 1e-12)
	assert.InDelta(t, 0.4, obs[0].Evaporation, 1e-12)
	assert.True(t, math.IsNaN(obs[1].Precipitation))
}

func TestReadObservations_OptionalColumns(t *testing.T) {
	in := strings.NewReader("DATE,PRECIPITATION\n2024-03-15,1.2\n")

	obs, err := ReadObservations(in)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.True(t, math.IsNaN(obs[0].Evaporation), "absent column reads as missing")
}

func TestReadObservations_MissingDate(t *testing.T) {
	_, err := ReadObservations(strings.NewReader("PRECIPITATION\n1.2\n"))
	assert.ErrorIs(t, err, drought.ErrSchema)
}

func TestReadObservations_EmptyInput(t *testing.T) {
	_, err := ReadObservations(strings.NewReader(""))
	assert.Error(t, err)
}
