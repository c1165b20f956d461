package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBar holds the open/close/high/low summary of one calendar day.
type DailyBar struct {
	Date       time.Time // midnight of the day in the reference location
	Open       decimal.Decimal
	Close      decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Change     decimal.Decimal // Close - Open
	Volatility decimal.Decimal // High - Low
	Samples    int
}

// DayOutcome is the result of aggregating one calendar day. A nil Bar means
// the day had no observations.
type DayOutcome struct {
	Date time.Time
	Bar  *DailyBar
}

// HasData reports whether the day produced a bar.
func (o DayOutcome) HasData() bool { return o.Bar != nil }
