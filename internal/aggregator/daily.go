// Package aggregator resamples a price series into daily bars.
//
// Day boundaries are computed in an explicit reference location, never the
// host's local zone. All functions are pure and never modify their input.
package aggregator

import (
	"sort"
	"time"

	"PriceSentinel/internal/model"
)

// DayStart returns midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DailyBar aggregates the observations that fall within date's calendar day
// in loc. A day without observations yields an outcome with no bar.
func DailyBar(series model.Series, date time.Time, loc *time.Location) model.DayOutcome {
	start := DayStart(date, loc)
	end := start.AddDate(0, 0, 1)

	var day model.Series
	for _, o := range series {
		if !o.Timestamp.Before(start) && o.Timestamp.Before(end) {
			day = append(day, o)
		}
	}
	out := model.DayOutcome{Date: start}
	if len(day) == 0 {
		return out
	}
	out.Bar = buildBar(start, sortedCopy(day))
	return out
}

// DailyBars resamples the whole series into one bar per calendar day, oldest first.
// Days without observations are omitted.
func DailyBars(series model.Series, loc *time.Location) []model.DailyBar {
	if len(series) == 0 {
		return nil
	}
	sorted := sortedCopy(series)

	var bars []model.DailyBar
	var day model.Series
	var current time.Time
	for _, o := range sorted {
		ds := DayStart(o.Timestamp, loc)
		if len(day) > 0 && !ds.Equal(current) {
			bars = append(bars, *buildBar(current, day))
			day = nil
		}
		current = ds
		day = append(day, o)
	}
	if len(day) > 0 {
		bars = append(bars, *buildBar(current, day))
	}
	return bars
}

// Latest returns the observation with the greatest timestamp.
func Latest(series model.Series) (model.Observation, bool) {
	if len(series) == 0 {
		return model.Observation{}, false
	}
	latest := series[0]
	for _, o := range series[1:] {
		if !o.Timestamp.Before(latest.Timestamp) {
			latest = o
		}
	}
	return latest, true
}

// sortedCopy orders by timestamp; equal timestamps keep append order.
func sortedCopy(series model.Series) model.Series {
	out := series.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// buildBar expects a non-empty, chronologically sorted day.
func buildBar(date time.Time, day model.Series) *model.DailyBar {
	bar := &model.DailyBar{
		Date:    date,
		Open:    day[0].Price,
		Close:   day[len(day)-1].Price,
		High:    day[0].Price,
		Low:     day[0].Price,
		Samples: len(day),
	}
	for _, o := range day[1:] {
		if o.Price.GreaterThan(bar.High) {
			bar.High = o.Price
		}
		if o.Price.LessThan(bar.Low) {
			bar.Low = o.Price
		}
	}
	bar.Change = bar.Close.Sub(bar.Open)
	bar.Volatility = bar.High.Sub(bar.Low)
	return bar
}
