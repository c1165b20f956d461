package scheduler

import (
	"sync"
	"time"

	"PriceSentinel/internal/aggregator"
)

// DayTracker detects calendar-day rollovers between poll cycles. It replaces
// a fixed report clock time, which is missed whenever no cycle fires at
// exactly that instant.
type DayTracker struct {
	loc *time.Location

	mu      sync.Mutex
	last    time.Time // start of the day currently in progress
	claimed bool      // a cycle is delivering the pending report
}

// NewDayTracker creates a tracker using loc for day boundaries.
func NewDayTracker(loc *time.Location) *DayTracker {
	return &DayTracker{loc: loc}
}

// Resume seeds the tracker from the last day that was already reported, so a
// restart does not repeat that report.
func (d *DayTracker) Resume(reported time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = aggregator.DayStart(reported, d.loc).AddDate(0, 0, 1)
}

// Claim returns the closed day awaiting a report when now falls on a later
// day than the last completed cycle, and reserves it for the caller until
// Complete or Release. When several days are pending only the most recent
// one is returned. The first call only records the current day.
func (d *DayTracker) Claim(now time.Time) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := aggregator.DayStart(now, d.loc)
	if d.last.IsZero() {
		d.last = today
		return time.Time{}, false
	}
	if d.claimed || !today.After(d.last) {
		return time.Time{}, false
	}
	d.claimed = true
	return today.AddDate(0, 0, -1), true
}

// Complete marks every day before now's day as reported and drops the claim.
func (d *DayTracker) Complete(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = aggregator.DayStart(now, d.loc)
	d.claimed = false
}

// Release drops a claim without reporting, so a later cycle retries the day.
func (d *DayTracker) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.claimed = false
}
