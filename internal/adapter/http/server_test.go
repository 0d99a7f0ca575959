package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hydroseries/drought"
	httpadapter "github.com/couchcryptid/hydroseries/internal/adapter/http"
	"github.com/couchcryptid/hydroseries/internal/observability"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockIndex struct {
	values []drought.IndexValue
	err    error
	gotObs []drought.Observation
}

func (m *mockIndex) Name() string { return "SPEI_30D" }

func (m *mockIndex) Transform(obs []drought.Observation) ([]drought.IndexValue, error) {
	m.gotObs = obs
	return m.values, m.err
}

func newTestServer(readyErr error, index httpadapter.IndexTransformer) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, index,
		slog.Default(), observability.NewMetricsForTesting())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestDroughtIndexDisabledReturns404(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/drought-index", strings.NewReader(`{}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func postIndex(t *testing.T, srv *httpadapter.Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/drought-index", strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestDroughtIndexSuccess(t *testing.T) {
	index := &mockIndex{values: []drought.IndexValue{
		{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Value: -1.5},
		{Date: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), Value: math.NaN()},
	}}
	srv := newTestServer(nil, index)

	rec := postIndex(t, srv, `{"observations":[
		{"date":"2024-03-15","precipitation":1.2,"evaporation":0.4},
		{"date":"2024-03-16","precipitation":null,"evaporation":0.5}
	]}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name   string `json:"name"`
		Values []struct {
			Date  string   `json:"date"`
			Value *float64 `json:"value"`
		} `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SPEI_30D", resp.Name)
	require.Len(t, resp.Values, 2)
	assert.Equal(t, "2024-03-15", resp.Values[0].Date)
	require.NotNil(t, resp.Values[0].Value)
	assert.InDelta(t, -1.5, *resp.Values[0].Value, 1e-12)
	assert.Nil(t, resp.Values[1].Value)

	// Null precipitation arrives as NaN, not zero.
	require.Len(t, index.gotObs, 2)
	assert.InDelta(t, 1.2, index.gotObs[0].Precipitation, 1e-12)
	assert.True(t, math.IsNaN(index.gotObs[1].Precipitation))
}

func TestDroughtIndexBadJSON(t *testing.T) {
	srv := newTestServer(nil, &mockIndex{})

	rec := postIndex(t, srv, `{"observations":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDroughtIndexEmptyObservations(t *testing.T) {
	srv := newTestServer(nil, &mockIndex{})

	rec := postIndex(t, srv, `{"observations":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDroughtIndexBadDate(t *testing.T) {
	srv := newTestServer(nil, &mockIndex{})

	rec := postIndex(t, srv, `{"observations":[{"date":"yesterday","precipitation":1}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDroughtIndexSchemaError(t *testing.T) {
	index := &mockIndex{err: fmt.Errorf("%w: evaporation", drought.ErrSchema)}
	srv := newTestServer(nil, index)

	rec := postIndex(t, srv, `{"observations":[{"date":"2024-03-15","precipitation":1}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "evaporation")
}

func TestDroughtIndexNotConfigured(t *testing.T) {
	index := &mockIndex{err: fmt.Errorf("%w: call Configure before Transform", drought.ErrNotConfigured)}
	srv := newTestServer(nil, index)

	rec := postIndex(t, srv, `{"observations":[{"date":"2024-03-15","precipitation":1}]}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
