package recorder

import "time"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDailyReport(_ *DailyReport) error     { return nil }
func (n *NoopRecorder) RecordFetch(_ *FetchEvent) error            { return nil }
func (n *NoopRecorder) LastReportedDate() (time.Time, bool, error) { return time.Time{}, false, nil }
func (n *NoopRecorder) Close() error                               { return nil }
