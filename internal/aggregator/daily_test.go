package aggregator

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/model"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hour int, price string) model.Observation {
	return model.Observation{
		Timestamp: day.Add(time.Duration(hour) * time.Hour),
		Price:     decimal.RequireFromString(price),
	}
}

func scenario() model.Series {
	return model.Series{at(9, "100.00"), at(12, "105.50"), at(15, "98.25"), at(18, "102.00")}
}

func TestDailyBar_Scenario(t *testing.T) {
	out := DailyBar(scenario(), day.Add(13*time.Hour), time.UTC)
	require.True(t, out.HasData())
	bar := out.Bar
	assert.Equal(t, day, bar.Date)
	assert.Equal(t, "100.00", bar.Open.StringFixed(2))
	assert.Equal(t, "102.00", bar.Close.StringFixed(2))
	assert.Equal(t, "105.50", bar.High.StringFixed(2))
	assert.Equal(t, "98.25", bar.Low.StringFixed(2))
	assert.Equal(t, "2.00", bar.Change.StringFixed(2))
	assert.Equal(t, "7.25", bar.Volatility.StringFixed(2))
	assert.Equal(t, 4, bar.Samples)
}

func TestDailyBar_NoData(t *testing.T) {
	out := DailyBar(scenario(), day.AddDate(0, 0, 1), time.UTC)
	assert.False(t, out.HasData())
	assert.Equal(t, day.AddDate(0, 0, 1), out.Date)

	out = DailyBar(nil, day, time.UTC)
	assert.False(t, out.HasData())
}

func TestDailyBar_OutOfOrderAppend(t *testing.T) {
	s := model.Series{at(18, "102.00"), at(12, "105.50"), at(9, "100.00"), at(15, "98.25")}
	snapshot := s.Clone()

	bar := DailyBar(s, day, time.UTC).Bar
	require.NotNil(t, bar)
	assert.True(t, bar.Open.Equal(decimal.RequireFromString("100")))
	assert.True(t, bar.Close.Equal(decimal.RequireFromString("102")))
	assert.Equal(t, snapshot, s, "input must not be reordered")
}

func TestDailyBar_HalfOpenBoundaries(t *testing.T) {
	s := model.Series{
		{Timestamp: day.Add(-time.Nanosecond), Price: decimal.NewFromInt(1)},
		{Timestamp: day, Price: decimal.NewFromInt(2)},
		{Timestamp: day.Add(24*time.Hour - time.Nanosecond), Price: decimal.NewFromInt(3)},
		{Timestamp: day.Add(24 * time.Hour), Price: decimal.NewFromInt(4)},
	}
	bar := DailyBar(s, day, time.UTC).Bar
	require.NotNil(t, bar)
	assert.Equal(t, 2, bar.Samples)
	assert.Equal(t, "2", bar.Open.String())
	assert.Equal(t, "3", bar.Close.String())
}

func TestDailyBar_ReferenceLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on Mar 2 is still Mar 1 in New York
	s := model.Series{{Timestamp: time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(7)}}
	assert.False(t, DailyBar(s, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.UTC).HasData())
	assert.True(t, DailyBar(s, time.Date(2024, 3, 1, 12, 0, 0, 0, ny), ny).HasData())
}

func TestDailyBar_Invariants(t *testing.T) {
	series := model.Series{at(1, "5"), at(2, "1"), at(3, "9"), at(4, "3"), at(5, "3")}
	for n := 1; n <= len(series); n++ {
		bar := DailyBar(series[:n], day, time.UTC).Bar
		require.NotNil(t, bar)
		assert.True(t, bar.High.GreaterThanOrEqual(decimal.Max(bar.Open, bar.Close)))
		assert.True(t, bar.Low.LessThanOrEqual(decimal.Min(bar.Open, bar.Close)))
		assert.True(t, bar.Change.Equal(bar.Close.Sub(bar.Open)))
		assert.True(t, bar.Volatility.Equal(bar.High.Sub(bar.Low)))
	}
}

func TestDailyBar_Idempotent(t *testing.T) {
	s := scenario()
	assert.Equal(t, DailyBar(s, day, time.UTC), DailyBar(s, day, time.UTC))
}

func TestDailyBar_DuplicateTimestampsKeepAppendOrder(t *testing.T) {
	s := model.Series{at(9, "1"), at(9, "2")}
	bar := DailyBar(s, day, time.UTC).Bar
	require.NotNil(t, bar)
	assert.Equal(t, "1", bar.Open.String())
	assert.Equal(t, "2", bar.Close.String())
}

func TestDailyBars_GroupsByDay(t *testing.T) {
	s := scenario()
	s = append(s, model.Observation{Timestamp: day.AddDate(0, 0, 2).Add(time.Hour), Price: decimal.NewFromInt(90)})
	bars := DailyBars(s, time.UTC)
	require.Len(t, bars, 2)
	assert.Equal(t, day, bars[0].Date)
	assert.Equal(t, day.AddDate(0, 0, 2), bars[1].Date)
	assert.Equal(t, "0", bars[1].Volatility.String())

	assert.Nil(t, DailyBars(nil, time.UTC))
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	o, ok := Latest(model.Series{at(15, "3"), at(18, "4"), at(9, "1")})
	require.True(t, ok)
	assert.Equal(t, "4", o.Price.String())
}
