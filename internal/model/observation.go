package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single timestamped price sample.
type Observation struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// Series is a chronological sequence of observations, oldest first.
type Series []Observation

// Clone returns an independent copy of the series.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}
