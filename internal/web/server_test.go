package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/aggregator"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
)

type fakeSource struct {
	series model.Series
	err    error
}

func (f *fakeSource) Series() (model.Series, int, error) { return f.series, 1, f.err }

func (f *fakeSource) Report(date time.Time) (model.DayOutcome, string, error) {
	if f.err != nil {
		return model.DayOutcome{}, "", f.err
	}
	out := aggregator.DailyBar(f.series, date, time.UTC)
	return out, notifier.FormatDailyReport(out, 2), nil
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(src Source) *Server {
	s := NewServer(src, time.UTC, 2, "sol")
	s.now = func() time.Time { return day.Add(20 * time.Hour) }
	return s
}

func sampleSeries() model.Series {
	return model.Series{
		{Timestamp: day.Add(9 * time.Hour), Price: decimal.RequireFromString("100")},
		{Timestamp: day.Add(12 * time.Hour), Price: decimal.RequireFromString("105.5")},
		{Timestamp: day.Add(15 * time.Hour), Price: decimal.RequireFromString("98.25")},
		{Timestamp: day.Add(18 * time.Hour), Price: decimal.RequireFromString("102")},
	}
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestGetReport_Today(t *testing.T) {
	rec, body := get(t, newTestServer(&fakeSource{series: sampleSeries()}), "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-01", body["date"])
	assert.Equal(t, true, body["has_data"])
	bar := body["bar"].(map[string]interface{})
	assert.Equal(t, "2.00", bar["change"])
	assert.Equal(t, "7.25", bar["volatility"])
}

func TestGetReport_NoDataAndBadDate(t *testing.T) {
	s := newTestServer(&fakeSource{series: sampleSeries()})

	rec, body := get(t, s, "/api/report?date=2024-02-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["has_data"])
	assert.Equal(t, notifier.NoDataMessage, body["text"])
	assert.NotContains(t, body, "bar")

	rec, _ = get(t, s, "/api/report?date=01/02/2024")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPriceAndSeries(t *testing.T) {
	s := newTestServer(&fakeSource{series: sampleSeries()})

	rec, body := get(t, s, "/api/price")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "102.00", body["price"])

	rec, body = get(t, s, "/api/series")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["observations"], 4)
	assert.Equal(t, float64(1), body["skipped"])

	rec, body = get(t, s, "/api/bars")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["bars"], 1)
}

func TestGetPrice_Empty(t *testing.T) {
	rec, _ := get(t, newTestServer(&fakeSource{}), "/api/price")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreUnavailable(t *testing.T) {
	s := newTestServer(&fakeSource{err: errors.New("disk gone")})
	for _, path := range []string{"/api/price", "/api/series", "/api/bars", "/api/report"} {
		rec, _ := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(&fakeSource{})
	rec, _ := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
