package notifier

import (
	"fmt"
	"strings"
	"time"

	"PriceSentinel/internal/model"
)

// NoDataMessage is returned for a day without observations.
const NoDataMessage = "No data available for the daily report."

// DefaultPrecision is the number of decimals used for USD prices.
const DefaultPrecision = 2

// FormatDailyReport renders a day's outcome as a multi-line summary.
func FormatDailyReport(out model.DayOutcome, precision int32) string {
	if !out.HasData() {
		return NoDataMessage
	}
	bar := out.Bar

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Daily Report | %s\n", bar.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Open: %s\n", bar.Open.StringFixed(precision)))
	b.WriteString(fmt.Sprintf("Close: %s\n", bar.Close.StringFixed(precision)))
	b.WriteString(fmt.Sprintf("High: %s\n", bar.High.StringFixed(precision)))
	b.WriteString(fmt.Sprintf("Low: %s\n", bar.Low.StringFixed(precision)))
	b.WriteString(fmt.Sprintf("Change: %s\n", bar.Change.StringFixed(precision)))
	b.WriteString(fmt.Sprintf("Volatility: %s", bar.Volatility.StringFixed(precision)))
	return b.String()
}

// FormatCurrentPrice renders the latest sample for display, in loc.
func FormatCurrentPrice(symbol string, obs model.Observation, precision int32, loc *time.Location) string {
	return fmt.Sprintf("Current %s price: %s (at %s)",
		strings.ToUpper(symbol), obs.Price.StringFixed(precision), obs.Timestamp.In(loc).Format("2006-01-02 15:04:05 MST"))
}
