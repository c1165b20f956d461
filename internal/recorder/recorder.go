package recorder

import (
	"time"

	"PriceSentinel/internal/model"
)

// DailyReport is a delivered daily report. Bar is nil for a day without data.
type DailyReport struct {
	Date time.Time
	Bar  *model.DailyBar
	Text string
}

// FetchEvent records the outcome of one poll cycle.
type FetchEvent struct {
	CycleID string
	Source  string
	Status  string // "OK", "FETCH_ERROR", "DUPLICATE", "STORE_ERROR"
	Price   string
	Error   string
}

// Recorder persists report history for analysis and restart recovery.
type Recorder interface {
	RecordDailyReport(rep *DailyReport) error
	RecordFetch(evt *FetchEvent) error
	// LastReportedDate returns the most recent reported day, if any.
	LastReportedDate() (time.Time, bool, error)
	Close() error
}
